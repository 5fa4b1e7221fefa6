package checker

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"uptime/app/internal/models"

	"golang.org/x/sync/errgroup"
)

// Check reports whether target answers within timeout.
//
// Supported targets:
//   - tcp://host:port or host:port  TCP connect
//   - http://... or https://...     GET, any 2xx/3xx counts as alive
//   - host                          TCP connect to port 80
func Check(ctx context.Context, target string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return httpCheck(ctx, target)
	}
	return tcpCheck(ctx, tcpAddress(target))
}

func tcpAddress(target string) string {
	addr := strings.TrimPrefix(target, "tcp://")
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return net.JoinHostPort(addr, "80")
	}
	return addr
}

func tcpCheck(ctx context.Context, addr string) bool {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		log.Printf("tcp check error addr=%s err=%v", addr, err)
		return false
	}
	_ = conn.Close()
	return true
}

func httpCheck(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("http check error url=%s err=%v", url, err)
		return false
	}
	client := &http.Client{
		// Redirect targets are not probed; the 3xx itself proves the host is up
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("http check error url=%s err=%v", url, err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 399
}

var errReferenceDown = errors.New("reference host unreachable")

// CheckFunc probes a single target
type CheckFunc func(ctx context.Context, target string, timeout time.Duration) bool

// Prober decides the endpoint status from a gateway check and a set of
// reference hosts that prove the monitoring host itself has connectivity.
type Prober struct {
	Gateway    string
	References []string
	Timeout    time.Duration
	// Check defaults to the package Check function
	Check CheckFunc
}

// Result is the outcome of one probe cycle
type Result struct {
	Status        models.StatusKind
	// GatewayAlive is false when a failed reference cut the gateway check short
	GatewayAlive  bool
	InternetAlive bool
	Duration      time.Duration
}

// Probe checks every target concurrently and classifies the outcome:
// the gateway down while the internet is reachable is Offline, an unreachable
// internet is Unknown, anything else is Online. The first unreachable reference
// cancels the checks still running.
func (p *Prober) Probe(ctx context.Context) Result {
	check := p.Check
	if check == nil {
		check = Check
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	var gatewayAlive bool
	g.Go(func() error {
		gatewayAlive = check(gctx, p.Gateway, p.Timeout)
		return nil
	})
	for _, ref := range p.References {
		g.Go(func() error {
			if !check(gctx, ref, p.Timeout) {
				// the status is Unknown whatever the other checks say
				return errReferenceDown
			}
			return nil
		})
	}
	err := g.Wait()

	res := Result{
		GatewayAlive:  gatewayAlive,
		InternetAlive: !errors.Is(err, errReferenceDown),
		Duration:      time.Since(start),
	}
	res.Status = Classify(res.GatewayAlive, res.InternetAlive)
	return res
}

// Classify maps the two reachability checks onto a status
func Classify(gatewayAlive, internetAlive bool) models.StatusKind {
	switch {
	case !gatewayAlive && internetAlive:
		return models.StatusOffline
	case !internetAlive:
		return models.StatusUnknown
	default:
		return models.StatusOnline
	}
}
