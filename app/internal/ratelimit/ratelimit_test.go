package ratelimit

import (
	"testing"
	"time"
)

// newTestLimiter returns a limiter on a clock that only moves when advance is called
func newTestLimiter(t *testing.T, policies map[Class]Policy) (*Limiter, func(time.Duration)) {
	t.Helper()
	l := New(policies)
	t.Cleanup(l.Stop)
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, func(d time.Duration) { now = now.Add(d) }
}

func drain(t *testing.T, l *Limiter, class Class, client string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if ok, _ := l.Take(class, client); !ok {
			t.Fatalf("%s request %d for %s should be allowed", class, i+1, client)
		}
	}
}

func TestTake_BurstThenDenied(t *testing.T) {
	l, _ := newTestLimiter(t, map[Class]Policy{ClassAPI: {PerMinute: 5}})

	drain(t, l, ClassAPI, "1.2.3.4", 5)
	if ok, _ := l.Take(ClassAPI, "1.2.3.4"); ok {
		t.Error("request should be denied after the burst")
	}
}

func TestTake_RetryAfter(t *testing.T) {
	l, _ := newTestLimiter(t, map[Class]Policy{ClassExport: {PerMinute: 10}})

	drain(t, l, ClassExport, "1.2.3.4", 10)
	ok, wait := l.Take(ClassExport, "1.2.3.4")
	if ok {
		t.Fatal("request should be denied")
	}
	if wait != 6*time.Second {
		t.Errorf("retry after = %v, want 6s", wait)
	}
}

func TestTake_RetryAfterRoundsUp(t *testing.T) {
	l, advance := newTestLimiter(t, map[Class]Policy{ClassLogin: {PerMinute: 7}})

	drain(t, l, ClassLogin, "1.2.3.4", 7)
	advance(time.Second)
	_, wait := l.Take(ClassLogin, "1.2.3.4")
	// a token takes 60/7 ≈ 8.57s, one second has passed
	if wait != 8*time.Second {
		t.Errorf("retry after = %v, want 8s", wait)
	}
}

func TestTake_Refills(t *testing.T) {
	l, advance := newTestLimiter(t, map[Class]Policy{ClassExport: {PerMinute: 10}})

	drain(t, l, ClassExport, "1.2.3.4", 10)
	advance(7 * time.Second)
	if ok, _ := l.Take(ClassExport, "1.2.3.4"); !ok {
		t.Error("one token should have refilled after 7s")
	}
	if ok, _ := l.Take(ClassExport, "1.2.3.4"); ok {
		t.Error("only one token should have refilled")
	}
}

func TestTake_RefillCapsAtBurst(t *testing.T) {
	l, advance := newTestLimiter(t, map[Class]Policy{ClassAPI: {PerMinute: 3}})

	advance(time.Hour)
	drain(t, l, ClassAPI, "1.2.3.4", 3)
	advance(time.Hour)
	drain(t, l, ClassAPI, "1.2.3.4", 3)
	if ok, _ := l.Take(ClassAPI, "1.2.3.4"); ok {
		t.Error("an idle hour should not bank more than one burst")
	}
}

func TestTake_ClientsHaveSeparateBuckets(t *testing.T) {
	l, _ := newTestLimiter(t, map[Class]Policy{ClassAPI: {PerMinute: 2}})

	drain(t, l, ClassAPI, "ip1", 2)
	if ok, _ := l.Take(ClassAPI, "ip2"); !ok {
		t.Error("different client should have its own bucket")
	}
	if ok, _ := l.Take(ClassAPI, "ip1"); ok {
		t.Error("ip1 should be rate limited")
	}
}

func TestTake_ClassesHaveSeparateBudgets(t *testing.T) {
	l, _ := newTestLimiter(t, DefaultPolicies)

	drain(t, l, ClassExport, "1.2.3.4", 10)
	if ok, _ := l.Take(ClassExport, "1.2.3.4"); ok {
		t.Fatal("export budget should be spent")
	}
	if ok, _ := l.Take(ClassAPI, "1.2.3.4"); !ok {
		t.Error("spent exports must not block chart reads")
	}
	if ok, _ := l.Take(ClassLogin, "1.2.3.4"); !ok {
		t.Error("spent exports must not block logins")
	}
}

func TestTake_UnknownClassIsUnlimited(t *testing.T) {
	l, _ := newTestLimiter(t, map[Class]Policy{ClassLogin: {PerMinute: 1}})

	for i := 0; i < 1000; i++ {
		if ok, _ := l.Take(ClassAPI, "1.2.3.4"); !ok {
			t.Fatalf("request %d for a class without policy was denied", i+1)
		}
	}
}

func TestDefaultPolicies_Export(t *testing.T) {
	l, _ := newTestLimiter(t, DefaultPolicies)

	drain(t, l, ClassExport, "192.0.2.1", 10)
	ok, wait := l.Take(ClassExport, "192.0.2.1")
	if ok {
		t.Fatal("11th export within a minute should be denied")
	}
	if wait <= 0 || wait > time.Minute {
		t.Errorf("retry after = %v", wait)
	}
	if l.Message(ClassExport) == "" {
		t.Error("export class should carry a message")
	}
}

func TestDefaultPolicies_Login(t *testing.T) {
	l, _ := newTestLimiter(t, DefaultPolicies)

	drain(t, l, ClassLogin, "192.0.2.1", 10)
	if ok, _ := l.Take(ClassLogin, "192.0.2.1"); ok {
		t.Error("11th login attempt within a minute should be denied")
	}
}

func TestForget(t *testing.T) {
	l, _ := newTestLimiter(t, map[Class]Policy{ClassLogin: {PerMinute: 2}})

	drain(t, l, ClassLogin, "1.2.3.4", 2)
	l.Forget(ClassLogin, "1.2.3.4")
	if ok, _ := l.Take(ClassLogin, "1.2.3.4"); !ok {
		t.Error("Forget should give the client a full bucket")
	}
}

func TestForget_OtherClassUntouched(t *testing.T) {
	l, _ := newTestLimiter(t, map[Class]Policy{ClassLogin: {PerMinute: 1}, ClassExport: {PerMinute: 1}})

	drain(t, l, ClassLogin, "1.2.3.4", 1)
	drain(t, l, ClassExport, "1.2.3.4", 1)
	l.Forget(ClassLogin, "1.2.3.4")
	if ok, _ := l.Take(ClassExport, "1.2.3.4"); ok {
		t.Error("forgetting a login bucket must not refill exports")
	}
}

func TestSweep_DropsIdleBuckets(t *testing.T) {
	l, advance := newTestLimiter(t, map[Class]Policy{ClassAPI: {PerMinute: 10}})

	drain(t, l, ClassAPI, "old", 1)
	advance(11 * time.Minute)
	drain(t, l, ClassAPI, "fresh", 1)
	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.buckets[bucketKey{ClassAPI, "old"}]; ok {
		t.Error("idle bucket should have been swept")
	}
	if _, ok := l.buckets[bucketKey{ClassAPI, "fresh"}]; !ok {
		t.Error("recent bucket should be kept")
	}
}

func TestStop_Twice(t *testing.T) {
	l := New(DefaultPolicies)
	l.Stop()
	l.Stop()
}

func TestNew_CopiesPolicies(t *testing.T) {
	policies := map[Class]Policy{ClassAPI: {PerMinute: 1}}
	l, _ := newTestLimiter(t, policies)
	policies[ClassAPI] = Policy{PerMinute: 100}

	drain(t, l, ClassAPI, "1.2.3.4", 1)
	if ok, _ := l.Take(ClassAPI, "1.2.3.4"); ok {
		t.Error("changing the caller's map should not alter the limiter")
	}
}
