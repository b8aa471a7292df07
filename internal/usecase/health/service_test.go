package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct {
	err error
	ctx context.Context
}

func (f *fakePinger) Ping(ctx context.Context) error {
	f.ctx = ctx
	return f.err
}

func TestCheck_Healthy(t *testing.T) {
	pinger := &fakePinger{}
	report := NewService(pinger).Check(context.Background())

	if report.Status != StatusHealthy {
		t.Errorf("unexpected overall status: %v", report.Status)
	}
	if report.Checks["engine"].Status != StatusHealthy {
		t.Errorf("unexpected engine check: %v", report.Checks["engine"])
	}
	if _, ok := pinger.ctx.Deadline(); !ok {
		t.Error("ping should run under a deadline")
	}
}

func TestCheck_EngineDown(t *testing.T) {
	pinger := &fakePinger{err: errors.New("connection refused")}
	report := NewService(pinger).Check(context.Background())

	if report.Status != StatusUnhealthy {
		t.Errorf("unexpected overall status: %v", report.Status)
	}
	check := report.Checks["engine"]
	if check.Status != StatusUnhealthy || check.Message != "connection refused" {
		t.Errorf("unexpected engine check: %v", check)
	}
}
