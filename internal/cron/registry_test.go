package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryPreservesOrderAndSkipsNil(t *testing.T) {
	expiry := &stubJob{name: "trial-expiry"}
	reconcile := &stubJob{name: "subscription-reconcile"}
	registry := NewRegistry(expiry, nil, reconcile)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != expiry || jobs[1] != reconcile {
		t.Fatal("jobs returned out of registration order")
	}

	registry.Register(&stubJob{name: "absence-scan"})
	if got := len(registry.Jobs()); got != 3 {
		t.Fatalf("expected 3 jobs after register, got %d", got)
	}

	// ensure caller cannot mutate internal slice
	jobs = registry.Jobs()
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("internal slice leaked")
	}
}
