package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Class names a group of routes that draw from the same per-client budget
type Class string

const (
	ClassLogin  Class = "login"
	ClassAPI    Class = "api"
	ClassExport Class = "export"
)

// Policy is the budget of one class. The bucket holds PerMinute tokens and
// refills at PerMinute tokens per minute.
type Policy struct {
	PerMinute int
	Message   string
}

// DefaultPolicies are the budgets the HTTP routes run with
var DefaultPolicies = map[Class]Policy{
	ClassLogin:  {PerMinute: 10, Message: "Too many login attempts. Please try again later."},
	ClassAPI:    {PerMinute: 120, Message: "Too many requests. Please slow down."},
	ClassExport: {PerMinute: 10, Message: "Too many export requests. Please try again in a minute."},
}

const (
	sweepEvery = 5 * time.Minute
	idleAfter  = 10 * time.Minute
)

type bucketKey struct {
	class  Class
	client string
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one token bucket per (class, client) pair
type Limiter struct {
	mu       sync.Mutex
	policies map[Class]Policy
	buckets  map[bucketKey]*bucket
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New starts a limiter enforcing policies. Classes without a policy are not limited.
func New(policies map[Class]Policy) *Limiter {
	l := &Limiter{
		policies: make(map[Class]Policy, len(policies)),
		buckets:  make(map[bucketKey]*bucket),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	for c, p := range policies {
		l.policies[c] = p
	}
	go l.sweepLoop()
	return l
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep drops buckets idle long enough to have refilled
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for k, b := range l.buckets {
		if now.Sub(b.seen) > idleAfter {
			delete(l.buckets, k)
		}
	}
}

// Stop ends the sweeper. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Take spends one token of client's budget in class. When the bucket is empty it
// reports false and how long until the next token, rounded up to a whole second.
func (l *Limiter) Take(class Class, client string) (bool, time.Duration) {
	p, ok := l.policies[class]
	if !ok || p.PerMinute <= 0 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	k := bucketKey{class: class, client: client}
	b, ok := l.buckets[k]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(float64(p.PerMinute)/60), p.PerMinute)}
		l.buckets[k] = b
	}
	b.seen = now

	if b.lim.AllowN(now, 1) {
		return true, 0
	}
	r := b.lim.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	if rem := wait % time.Second; rem != 0 {
		wait += time.Second - rem
	}
	return false, wait
}

// Message is the text sent to a client refused in class
func (l *Limiter) Message(class Class) string {
	return l.policies[class].Message
}

// Forget refills client's bucket in class, e.g. after a successful login
func (l *Limiter) Forget(class Class, client string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, bucketKey{class: class, client: client})
}
