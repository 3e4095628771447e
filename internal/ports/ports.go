package ports

import (
	"context"
	"errors"
	"io"

	"clinicalintel/internal/domain"
)

// Typed adapter failures. Every external collaborator error is wrapped in
// one of these at the adapter boundary so the controller can map it to a
// user-visible error code with errors.Is.
var (
	ErrDeviceUnavailable   = errors.New("audio device unavailable")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrReasoningFailed     = errors.New("reasoning failed")
	ErrInvalidResponse     = errors.New("invalid reasoning response")
	ErrSaveFailed          = errors.New("save failed")
	ErrHistoryFailed       = errors.New("history fetch failed")
	ErrKBSyncFailed        = errors.New("knowledge base sync failed")
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live microphone capture stream.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// Transcriber converts one assembled audio payload into text. An empty
// result is not an error; unintelligible speech yields "".
type Transcriber interface {
	Transcribe(ctx context.Context, payload []byte) (string, error)
}

// Reasoner submits a transcript snapshot to the clinical reasoning service.
type Reasoner interface {
	Process(ctx context.Context, orgID, clientID, rawText string) (domain.ClinicalOutput, error)
}

// SessionStore is the persistence service boundary: durable saves,
// history reads, and knowledge base reindexing.
type SessionStore interface {
	Save(ctx context.Context, record domain.SessionRecord) error
	History(ctx context.Context, clientID string) ([]domain.HistoricalSession, error)
	SyncKnowledgeBase(ctx context.Context, orgID string) error
}

// EventSink emits controller state and errors to the presentation layer.
type EventSink interface {
	WorkflowChanged(snapshot domain.WorkflowSnapshot, reason domain.WorkflowReason)
	OutputReady(output domain.ClinicalOutput)
	SessionSaved(sessionID string)
	WorkflowError(code domain.ErrorCode, detail string)
}
