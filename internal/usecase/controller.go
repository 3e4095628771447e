package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinicalintel/internal/domain"
	"clinicalintel/internal/logging"
	"clinicalintel/internal/ports"
)

// Controller-level rejections. These are state-machine guards, not
// collaborator failures: the call never left the process.
var (
	ErrAlreadyRecording  = errors.New("recording already in progress")
	ErrNoActiveRecording = errors.New("no active recording session")
	ErrBusy              = errors.New("another workflow operation is in flight")
	ErrEmptyTranscript   = errors.New("transcript is empty")
	ErrNothingToSave     = errors.New("no clinical output to save")
	ErrSyncInFlight      = errors.New("knowledge base sync already running")
)

// Config controls workflow behavior and the session's org/client scope.
type Config struct {
	Audio     ports.AudioConfig
	ChunkSize int
	OrgID     string
	ClientID  string
}

// WorkflowController is the session documentation state machine. It owns
// the transcript, the current clinical output, and the single active
// capture session, and sequences the transcription, reasoning, and
// persistence adapters. All guards are checked and set under one lock
// before any adapter call is issued, so two overlapping transitions can
// never both observe "not busy".
type WorkflowController struct {
	audio       ports.AudioCapture
	transcriber ports.Transcriber
	reasoner    ports.Reasoner
	store       ports.SessionStore
	events      ports.EventSink
	cfg         Config
	log         zerolog.Logger

	mu           sync.Mutex
	phase        domain.WorkflowPhase
	transcript   string
	output       *domain.ClinicalOutput
	capture      *captureSession
	transcribing bool
	syncing      bool
}

func NewWorkflowController(
	audio ports.AudioCapture,
	transcriber ports.Transcriber,
	reasoner ports.Reasoner,
	store ports.SessionStore,
	events ports.EventSink,
	cfg Config,
) *WorkflowController {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	return &WorkflowController{
		audio:       audio,
		transcriber: transcriber,
		reasoner:    reasoner,
		store:       store,
		events:      events,
		cfg:         cfg,
		phase:       domain.PhaseIdle,
		log:         logging.WithComponent("workflow"),
	}
}

// BeginRecording acquires the audio device and starts buffering chunks.
func (c *WorkflowController) BeginRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.phase == domain.PhaseCapturing {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	if c.busyLocked() {
		c.mu.Unlock()
		return ErrBusy
	}
	prev := c.phase
	c.phase = domain.PhaseCapturing
	c.mu.Unlock()

	sessionCtx, cancel := context.WithCancel(ctx)
	audioSession, err := c.audio.Start(sessionCtx, c.cfg.Audio)
	if err != nil {
		cancel()
		c.mu.Lock()
		c.phase = prev
		c.mu.Unlock()
		c.log.Error().Err(err).Msg("audio capture start failed")
		c.events.WorkflowError(domain.ErrorCodeDevice, err.Error())
		return err
	}

	c.mu.Lock()
	c.capture = newCaptureSession(audioSession, cancel, c.cfg.ChunkSize)
	c.mu.Unlock()

	c.log.Info().Msg("recording started")
	c.notify(domain.ReasonRecordingStarted)
	return nil
}

// EndRecording stops the capture session, assembles the buffered audio
// into one payload, and appends the transcription result to the draft.
// On transcription failure the transcript is left untouched.
func (c *WorkflowController) EndRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != domain.PhaseCapturing || c.capture == nil {
		c.mu.Unlock()
		return ErrNoActiveRecording
	}
	capture := c.capture
	c.capture = nil
	c.phase = domain.PhaseDrafting
	c.transcribing = true
	c.mu.Unlock()
	c.notify(domain.ReasonTranscribing)

	payload, stopErr := capture.finish()
	if stopErr != nil {
		c.log.Warn().Err(stopErr).Msg("audio capture did not stop cleanly")
		c.events.WorkflowError(domain.ErrorCodeAudioStop, stopErr.Error())
	}

	if len(payload) == 0 {
		c.setTranscribing(false)
		c.notify(domain.ReasonTranscriptUnchanged)
		return nil
	}

	text, err := c.transcriber.Transcribe(ctx, payload)
	c.setTranscribing(false)
	if err != nil {
		c.log.Error().Err(err).Msg("transcription failed")
		c.events.WorkflowError(domain.ErrorCodeTranscription, err.Error())
		c.notify(domain.ReasonTranscriptionFailed)
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.notify(domain.ReasonTranscriptUnchanged)
		return nil
	}

	c.mu.Lock()
	if c.transcript == "" {
		c.transcript = text
	} else {
		c.transcript += " " + text
	}
	// Appended speech edits the transcript, so any reviewed output no
	// longer matches it.
	c.output = nil
	c.mu.Unlock()

	c.notify(domain.ReasonTranscriptAppended)
	return nil
}

// DiscardRecording tears down an active capture session without issuing
// a transcription call; buffered audio is dropped.
func (c *WorkflowController) DiscardRecording() error {
	c.mu.Lock()
	if c.phase != domain.PhaseCapturing || c.capture == nil {
		c.mu.Unlock()
		return ErrNoActiveRecording
	}
	capture := c.capture
	c.capture = nil
	c.phase = domain.PhaseDrafting
	c.mu.Unlock()

	capture.discard()
	c.log.Info().Msg("recording discarded")
	c.notify(domain.ReasonTranscriptUnchanged)
	return nil
}

// EditText replaces the draft transcript verbatim and invalidates any
// current output, since a reviewed note must never outlive the text it
// was generated from.
func (c *WorkflowController) EditText(text string) error {
	c.mu.Lock()
	if c.busyLocked() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.transcript = text
	c.output = nil
	c.phase = domain.PhaseDrafting
	c.mu.Unlock()

	c.notify(domain.ReasonDraftEdited)
	return nil
}

// Submit sends the current transcript to the reasoning service. On
// success the result replaces any prior output and the workflow moves to
// review; on failure the prior output and transcript are unchanged.
func (c *WorkflowController) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.busyLocked() {
		c.mu.Unlock()
		return ErrBusy
	}
	if strings.TrimSpace(c.transcript) == "" {
		c.mu.Unlock()
		c.events.WorkflowError(domain.ErrorCodeEmptyDraft, "transcript is empty")
		return ErrEmptyTranscript
	}
	text := c.transcript
	c.phase = domain.PhaseProcessing
	c.mu.Unlock()
	c.notify(domain.ReasonProcessing)

	output, err := c.reasoner.Process(ctx, c.cfg.OrgID, c.cfg.ClientID, text)
	if err != nil {
		c.mu.Lock()
		c.phase = domain.PhaseDrafting
		c.mu.Unlock()

		code := domain.ErrorCodeReasoning
		if errors.Is(err, ports.ErrInvalidResponse) {
			code = domain.ErrorCodeBadResponse
		}
		c.log.Error().Err(err).Msg("reasoning call failed")
		c.events.WorkflowError(code, err.Error())
		c.notify(domain.ReasonProcessingFailed)
		return err
	}

	c.mu.Lock()
	c.output = &output
	c.phase = domain.PhaseReviewing
	c.mu.Unlock()

	c.log.Info().Str("risk_level", string(output.Audit.RiskLevel)).Msg("clinical output ready")
	c.events.OutputReady(output)
	c.notify(domain.ReasonOutputReady)
	return nil
}

// ApproveAndSave persists the reviewed output. On failure the output and
// transcript stay intact so the clinician can retry without
// re-processing; on success the workflow resets to idle.
func (c *WorkflowController) ApproveAndSave(ctx context.Context, author string) error {
	c.mu.Lock()
	if c.phase == domain.PhaseSaving {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.phase != domain.PhaseReviewing || c.output == nil {
		c.mu.Unlock()
		return ErrNothingToSave
	}
	output := *c.output
	text := c.transcript
	c.phase = domain.PhaseSaving
	c.mu.Unlock()
	c.notify(domain.ReasonSaving)

	structured, err := json.Marshal(output.StructuredNote)
	if err != nil {
		c.mu.Lock()
		c.phase = domain.PhaseReviewing
		c.mu.Unlock()
		c.events.WorkflowError(domain.ErrorCodeSave, err.Error())
		c.notify(domain.ReasonSaveFailed)
		return err
	}

	record := domain.SessionRecord{
		OrgID:          c.cfg.OrgID,
		ClientID:       c.cfg.ClientID,
		SessionID:      newSessionID(),
		Text:           text,
		StructuredJSON: string(structured),
		Metadata: domain.RecordMetadata{
			RiskLevel: output.Audit.RiskLevel,
			Author:    author,
		},
		Markers: output.Markers,
	}

	if err := c.store.Save(ctx, record); err != nil {
		c.mu.Lock()
		c.phase = domain.PhaseReviewing
		c.mu.Unlock()
		c.log.Error().Err(err).Str("session_id", record.SessionID).Msg("save failed")
		c.events.WorkflowError(domain.ErrorCodeSave, err.Error())
		c.notify(domain.ReasonSaveFailed)
		return err
	}

	c.mu.Lock()
	c.transcript = ""
	c.output = nil
	c.phase = domain.PhaseIdle
	c.mu.Unlock()

	c.log.Info().Str("session_id", record.SessionID).Msg("session saved")
	c.events.SessionSaved(record.SessionID)
	c.notify(domain.ReasonSessionSaved)
	return nil
}

// SyncKnowledgeBase triggers a reindex of the org's reference material.
// It is independent of the session workflow and may run alongside any
// phase, but only one sync can be in flight at a time.
func (c *WorkflowController) SyncKnowledgeBase(ctx context.Context) error {
	c.mu.Lock()
	if c.syncing {
		c.mu.Unlock()
		return ErrSyncInFlight
	}
	c.syncing = true
	c.mu.Unlock()
	c.notify(domain.ReasonKBSyncStarted)

	err := c.store.SyncKnowledgeBase(ctx, c.cfg.OrgID)

	c.mu.Lock()
	c.syncing = false
	c.mu.Unlock()

	if err != nil {
		c.log.Error().Err(err).Msg("knowledge base sync failed")
		c.events.WorkflowError(domain.ErrorCodeKBSync, err.Error())
		c.notify(domain.ReasonKBSyncFailed)
		return err
	}

	c.log.Info().Str("org_id", c.cfg.OrgID).Msg("knowledge base synced")
	c.notify(domain.ReasonKBSynced)
	return nil
}

// Snapshot returns the current workflow state projection.
func (c *WorkflowController) Snapshot() domain.WorkflowSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *WorkflowController) snapshotLocked() domain.WorkflowSnapshot {
	snap := domain.WorkflowSnapshot{
		Phase:      c.phase,
		Transcript: c.transcript,
		Recording:  c.phase == domain.PhaseCapturing,
		Processing: c.phase == domain.PhaseProcessing || c.transcribing,
		SyncingKB:  c.syncing,
	}
	if c.output != nil {
		output := *c.output
		snap.CurrentOutput = &output
	}
	return snap
}

// busyLocked reports whether a capture, transcription, reasoning, or
// persistence step is in flight. Knowledge base syncs do not count.
func (c *WorkflowController) busyLocked() bool {
	switch c.phase {
	case domain.PhaseCapturing, domain.PhaseProcessing, domain.PhaseSaving:
		return true
	}
	return c.transcribing
}

func (c *WorkflowController) setTranscribing(v bool) {
	c.mu.Lock()
	c.transcribing = v
	c.mu.Unlock()
}

func (c *WorkflowController) notify(reason domain.WorkflowReason) {
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.events.WorkflowChanged(snap, reason)
}

func newSessionID() string {
	return "sess_" + uuid.NewString()
}
