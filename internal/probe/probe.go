// Package probe checks whether target instances are reachable.
package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
	"github.com/rflorenc/workflow-transfer-workbench/internal/remote"
)

// DefaultTimeout is used when the prober is built with a zero timeout.
const DefaultTimeout = 10 * time.Second

// Tester asks the workflow service to test one target instance.
type Tester interface {
	TestTargetInstance(ctx context.Context, instanceID string) (string, error)
}

// Recorder receives status annotations as probes progress.
type Recorder interface {
	SetStatus(id string, status models.ConnectionStatus)
}

// Prober runs connection probes. The zero Recorder is allowed.
type Prober struct {
	tester   Tester
	timeout  time.Duration
	recorder Recorder
}

// New creates a Prober. A non-positive timeout falls back to DefaultTimeout.
func New(t Tester, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{tester: t, timeout: timeout}
}

// WithRecorder returns p annotating r while probing.
func (p *Prober) WithRecorder(r Recorder) *Prober {
	cp := *p
	cp.recorder = r
	return &cp
}

// Timeout returns the per-probe timeout.
func (p *Prober) Timeout() time.Duration { return p.timeout }

type outcome struct {
	status string
	err    error
}

// Probe tests one instance. It always returns within the probe timeout,
// even if the tester ignores its context.
func (p *Prober) Probe(ctx context.Context, instanceID string) models.ConnectionStatus {
	p.record(instanceID, models.StatusConnecting)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		status, err := p.tester.TestTargetInstance(ctx, instanceID)
		ch <- outcome{status: status, err: err}
	}()

	var status models.ConnectionStatus
	select {
	case o := <-ch:
		status = Classify(o.status, o.err)
	case <-ctx.Done():
		status = classifyErr(ctx.Err())
	}
	p.record(instanceID, status)
	return status
}

// ProbeAll starts one probe per id at once and returns when all have
// settled. Probes are never queued behind each other, so the call takes at
// most one probe timeout.
func (p *Prober) ProbeAll(ctx context.Context, ids []string) map[string]models.ConnectionStatus {
	ids = dedupe(ids)
	results := make([]models.ConnectionStatus, len(ids))

	var g errgroup.Group
	for i := range ids {
		i := i
		g.Go(func() error {
			results[i] = p.Probe(ctx, ids[i])
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]models.ConnectionStatus, len(ids))
	for i, id := range ids {
		out[id] = results[i]
	}
	return out
}

func (p *Prober) record(id string, status models.ConnectionStatus) {
	if p.recorder != nil {
		p.recorder.SetStatus(id, status)
	}
}

// Classify maps a tester answer onto a ConnectionStatus.
func Classify(status string, err error) models.ConnectionStatus {
	if err != nil {
		return classifyErr(err)
	}
	switch s := models.ConnectionStatus(status); s {
	case models.StatusConnected, models.StatusAuthenticationFailed,
		models.StatusConnectionFailed, models.StatusTimeout:
		return s
	}
	// unknown_error and anything unrecognised
	return models.StatusConnectionFailed
}

func classifyErr(err error) models.ConnectionStatus {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.StatusTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return models.StatusTimeout
	}
	switch remote.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.StatusAuthenticationFailed
	}
	return models.StatusConnectionFailed
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
