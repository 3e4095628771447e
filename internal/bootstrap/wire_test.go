package bootstrap

import (
	"testing"

	"clinicalintel/internal/domain"
)

func TestBuildSuccess(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	services, err := Build(noopEventSink{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Controller == nil {
		t.Fatalf("expected controller")
	}
	if services.Store == nil {
		t.Fatalf("expected session store")
	}
	if services.Config.Engine.BaseURL == "" {
		t.Fatalf("expected engine base url")
	}

	snap := services.Controller.Snapshot()
	if snap.Phase != domain.PhaseIdle {
		t.Fatalf("expected idle controller, got %s", snap.Phase)
	}
}

type noopEventSink struct{}

func (noopEventSink) WorkflowChanged(_ domain.WorkflowSnapshot, _ domain.WorkflowReason) {}
func (noopEventSink) OutputReady(_ domain.ClinicalOutput)                                {}
func (noopEventSink) SessionSaved(_ string)                                              {}
func (noopEventSink) WorkflowError(_ domain.ErrorCode, _ string)                         {}
