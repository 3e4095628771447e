package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"clinicalintel/internal/bootstrap"
	"clinicalintel/internal/config"
	"clinicalintel/internal/domain"
	"clinicalintel/internal/history"
	"clinicalintel/internal/ports"
	"clinicalintel/internal/usecase"
)

const (
	eventWorkflow = "clintel:workflow"
	eventOutput   = "clintel:output"
	eventSaved    = "clintel:saved"
	eventError    = "clintel:error"
)

// App is the Wails application root. It binds controller transitions to
// the frontend and implements ports.EventSink by emitting runtime events.
type App struct {
	ctx context.Context

	controller *usecase.WorkflowController
	store      ports.SessionStore
	cfg        config.Config
	bootErr    error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.WorkflowError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller
	a.store = services.Store
	a.WorkflowChanged(a.controller.Snapshot(), domain.ReasonStartup)
}

// StartRecording begins audio capture for the current session.
func (a *App) StartRecording() (domain.WorkflowSnapshot, error) {
	if err := a.requireReady(); err != nil {
		return domain.WorkflowSnapshot{}, err
	}
	if err := a.controller.BeginRecording(a.ctx); err != nil {
		return a.controller.Snapshot(), err
	}
	return a.controller.Snapshot(), nil
}

// StopRecording ends capture and appends the transcription result to the
// draft transcript.
func (a *App) StopRecording() (domain.WorkflowSnapshot, error) {
	if err := a.requireReady(); err != nil {
		return domain.WorkflowSnapshot{}, err
	}
	if err := a.controller.EndRecording(a.ctx); err != nil {
		if errors.Is(err, usecase.ErrNoActiveRecording) {
			return a.controller.Snapshot(), nil
		}
		return a.controller.Snapshot(), err
	}
	return a.controller.Snapshot(), nil
}

// DiscardRecording drops an in-progress capture without transcribing.
func (a *App) DiscardRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.controller.DiscardRecording(); err != nil {
		if errors.Is(err, usecase.ErrNoActiveRecording) {
			return nil
		}
		return err
	}
	return nil
}

// SetTranscript replaces the draft transcript with user-edited text.
func (a *App) SetTranscript(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.EditText(text)
}

// GenerateNote submits the draft transcript for clinical reasoning.
func (a *App) GenerateNote() (domain.WorkflowSnapshot, error) {
	if err := a.requireReady(); err != nil {
		return domain.WorkflowSnapshot{}, err
	}
	if err := a.controller.Submit(a.ctx); err != nil {
		return a.controller.Snapshot(), err
	}
	return a.controller.Snapshot(), nil
}

// ApproveAndSave persists the reviewed note. The author comes from the
// signed-in clinician's identity, supplied by the presentation layer.
func (a *App) ApproveAndSave(author string) (domain.WorkflowSnapshot, error) {
	if err := a.requireReady(); err != nil {
		return domain.WorkflowSnapshot{}, err
	}
	if err := a.controller.ApproveAndSave(a.ctx, author); err != nil {
		return a.controller.Snapshot(), err
	}
	return a.controller.Snapshot(), nil
}

// SyncKnowledgeBase reindexes the org's reference material. Independent
// of the session workflow.
func (a *App) SyncKnowledgeBase() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.SyncKnowledgeBase(a.ctx)
}

// GetWorkflowState returns the current workflow snapshot.
func (a *App) GetWorkflowState() domain.WorkflowSnapshot {
	if a.controller == nil {
		return domain.WorkflowSnapshot{Phase: domain.PhaseIdle}
	}
	return a.controller.Snapshot()
}

// GetClientHistory returns the configured client's saved sessions.
func (a *App) GetClientHistory() ([]domain.HistoricalSession, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.store.History(a.ctx, a.cfg.Org.ClientID)
}

// GetClientTrends returns longitudinal trend analytics for the
// configured client.
func (a *App) GetClientTrends() (history.TrendSummary, error) {
	if err := a.requireReady(); err != nil {
		return history.TrendSummary{}, err
	}
	records, err := a.store.History(a.ctx, a.cfg.Org.ClientID)
	if err != nil {
		return history.TrendSummary{}, err
	}
	return history.Aggregate(records), nil
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"engineUrl":  a.cfg.Engine.BaseURL,
		"orgId":      a.cfg.Org.OrgID,
		"clientId":   a.cfg.Org.ClientID,
		"audioInput": a.cfg.Audio.InputDevice,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// WorkflowChanged emits workflow snapshots to the frontend.
func (a *App) WorkflowChanged(snapshot domain.WorkflowSnapshot, reason domain.WorkflowReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventWorkflow, map[string]any{
		"snapshot": snapshot,
		"reason":   string(reason),
		"message":  workflowReasonMessage(reason),
	})
}

// OutputReady emits a freshly generated clinical output.
func (a *App) OutputReady(output domain.ClinicalOutput) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventOutput, output)
}

// SessionSaved emits the persisted session id.
func (a *App) SessionSaved(sessionID string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSaved, map[string]string{"sessionId": sessionID})
}

// WorkflowError emits backend errors to the UI.
func (a *App) WorkflowError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func workflowReasonMessage(reason domain.WorkflowReason) string {
	switch reason {
	case domain.ReasonStartup:
		return "Ready"
	case domain.ReasonRecordingStarted:
		return "Recording session audio"
	case domain.ReasonTranscribing:
		return "Recording stopped. Transcribing..."
	case domain.ReasonTranscriptAppended:
		return "Transcript updated"
	case domain.ReasonTranscriptUnchanged:
		return "No speech captured"
	case domain.ReasonTranscriptionFailed:
		return "Transcription failed"
	case domain.ReasonDraftEdited:
		return "Draft updated"
	case domain.ReasonProcessing:
		return "Generating clinical reasoning..."
	case domain.ReasonOutputReady:
		return "Clinical note ready for review"
	case domain.ReasonProcessingFailed:
		return "Clinical reasoning failed"
	case domain.ReasonSaving:
		return "Encrypting and saving session..."
	case domain.ReasonSessionSaved:
		return "Session saved"
	case domain.ReasonSaveFailed:
		return "Save failed; note kept for retry"
	case domain.ReasonKBSyncStarted:
		return "Syncing knowledge base..."
	case domain.ReasonKBSynced:
		return "Knowledge base synced"
	case domain.ReasonKBSyncFailed:
		return "Knowledge base sync failed"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeDevice:
		return "Microphone unavailable"
	case domain.ErrorCodeAudioStop:
		return "Audio capture did not stop cleanly"
	case domain.ErrorCodeTranscription:
		return "Transcription failed; transcript unchanged"
	case domain.ErrorCodeEmptyDraft:
		return "Nothing to submit"
	case domain.ErrorCodeReasoning:
		return "Clinical reasoning failed"
	case domain.ErrorCodeBadResponse:
		return "Reasoning service returned an invalid response"
	case domain.ErrorCodeSave:
		return "Save failed"
	case domain.ErrorCodeKBSync:
		return "Knowledge base sync failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
