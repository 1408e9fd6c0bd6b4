package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
	"github.com/rflorenc/workflow-transfer-workbench/internal/remote"
)

type answer struct {
	status string
	err    error
	hang   bool // ignores the context entirely
}

type fakeTester struct {
	mu      sync.Mutex
	answers map[string]answer
	calls   map[string]int
	release chan struct{}
}

func newFakeTester(answers map[string]answer) *fakeTester {
	return &fakeTester{answers: answers, calls: map[string]int{}, release: make(chan struct{})}
}

func (f *fakeTester) TestTargetInstance(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	a := f.answers[id]
	f.calls[id]++
	f.mu.Unlock()
	if a.hang {
		<-f.release
	}
	return a.status, a.err
}

func TestProbeAll_TimeoutDoesNotDelayOthers(t *testing.T) {
	tester := newFakeTester(map[string]answer{
		"x": {hang: true},
		"y": {status: "connected"},
	})
	defer close(tester.release)

	p := New(tester, 100*time.Millisecond)
	start := time.Now()
	got := p.ProbeAll(context.Background(), []string{"x", "y"})
	elapsed := time.Since(start)

	assert.Equal(t, map[string]models.ConnectionStatus{
		"x": models.StatusTimeout,
		"y": models.StatusConnected,
	}, got)
	assert.Less(t, elapsed, 2*time.Second)
}

// settleRecorder notes when each instance left the connecting state.
type settleRecorder struct {
	mu      sync.Mutex
	start   time.Time
	settled map[string]time.Duration
}

func (r *settleRecorder) SetStatus(id string, status models.ConnectionStatus) {
	if status == models.StatusConnecting {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settled[id] = time.Since(r.start)
}

func TestProbeAll_ManyHangingInstancesDoNotQueueFastOne(t *testing.T) {
	answers := map[string]answer{"y": {status: "connected"}}
	ids := []string{}
	for i := 0; i < 32; i++ {
		id := fmt.Sprintf("slow-%02d", i)
		answers[id] = answer{hang: true}
		ids = append(ids, id)
	}
	ids = append(ids, "y")
	tester := newFakeTester(answers)
	defer close(tester.release)

	const timeout = 500 * time.Millisecond
	rec := &settleRecorder{start: time.Now(), settled: map[string]time.Duration{}}
	got := New(tester, timeout).WithRecorder(rec).ProbeAll(context.Background(), ids)

	require.Len(t, got, 33)
	assert.Equal(t, models.StatusConnected, got["y"])
	assert.Equal(t, models.StatusTimeout, got["slow-31"])

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Less(t, rec.settled["y"], timeout/2, "fast instance waited for slow ones")
	for _, id := range ids {
		assert.Less(t, rec.settled[id], 2*timeout, id)
	}
}

func TestProbe_SingleResolvesWithoutTimeout(t *testing.T) {
	tester := newFakeTester(map[string]answer{"y": {status: "connected"}})
	p := New(tester, 5*time.Second)

	start := time.Now()
	assert.Equal(t, models.StatusConnected, p.Probe(context.Background(), "y"))
	assert.Less(t, time.Since(start), time.Second)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status string
		err    error
		want   models.ConnectionStatus
	}{
		{"connected", "connected", nil, models.StatusConnected},
		{"remote auth failure", "authentication_failed", nil, models.StatusAuthenticationFailed},
		{"remote timeout", "timeout", nil, models.StatusTimeout},
		{"unknown error", "unknown_error", nil, models.StatusConnectionFailed},
		{"garbage", "???", nil, models.StatusConnectionFailed},
		{"deadline", "", context.DeadlineExceeded, models.StatusTimeout},
		{"wrapped deadline", "", errors.Join(errors.New("POST /x"), context.DeadlineExceeded), models.StatusTimeout},
		{"401", "", &remote.StatusError{StatusCode: 401}, models.StatusAuthenticationFailed},
		{"403", "", &remote.StatusError{StatusCode: 403}, models.StatusAuthenticationFailed},
		{"500", "", &remote.StatusError{StatusCode: 500}, models.StatusConnectionFailed},
		{"refused", "", errors.New("dial tcp: connection refused"), models.StatusConnectionFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.status, tc.err))
		})
	}
}

func TestProbeAll_RecordsStatusAndDedupes(t *testing.T) {
	tester := newFakeTester(map[string]answer{
		"prod":    {status: "connected"},
		"staging": {err: &remote.StatusError{StatusCode: 401}},
	})
	store := models.NewTargetStore()
	store.Replace([]models.TargetInstance{
		{ID: "prod", Name: "Production"},
		{ID: "staging", Name: "Staging"},
	})

	p := New(tester, time.Second).WithRecorder(store)
	got := p.ProbeAll(context.Background(), []string{"prod", "staging", "prod", ""})
	require.Len(t, got, 2)
	assert.Equal(t, 1, tester.calls["prod"])

	prod := store.Get("prod")
	assert.Equal(t, models.StatusConnected, prod.Status)
	assert.NotNil(t, prod.LastChecked)
	assert.Equal(t, models.StatusAuthenticationFailed, store.Get("staging").Status)
}

func TestProbe_ParentCancelled(t *testing.T) {
	tester := newFakeTester(map[string]answer{"x": {hang: true}})
	defer close(tester.release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, models.StatusConnectionFailed, New(tester, time.Minute).Probe(ctx, "x"))
}
