package domain

import "time"

// WorkflowPhase models the session documentation lifecycle.
type WorkflowPhase string

const (
	PhaseIdle       WorkflowPhase = "idle"
	PhaseCapturing  WorkflowPhase = "capturing"
	PhaseDrafting   WorkflowPhase = "drafting"
	PhaseProcessing WorkflowPhase = "processing"
	PhaseReviewing  WorkflowPhase = "reviewing"
	PhaseSaving     WorkflowPhase = "saving"
)

// WorkflowReason provides a structured reason for phase transitions.
type WorkflowReason string

const (
	ReasonStartup             WorkflowReason = "startup"
	ReasonRecordingStarted    WorkflowReason = "recording_started"
	ReasonTranscribing        WorkflowReason = "transcribing"
	ReasonTranscriptAppended  WorkflowReason = "transcript_appended"
	ReasonTranscriptUnchanged WorkflowReason = "transcript_unchanged"
	ReasonTranscriptionFailed WorkflowReason = "transcription_failed"
	ReasonDraftEdited         WorkflowReason = "draft_edited"
	ReasonProcessing          WorkflowReason = "processing"
	ReasonOutputReady         WorkflowReason = "output_ready"
	ReasonProcessingFailed    WorkflowReason = "processing_failed"
	ReasonSaving              WorkflowReason = "saving"
	ReasonSessionSaved        WorkflowReason = "session_saved"
	ReasonSaveFailed          WorkflowReason = "save_failed"
	ReasonKBSyncStarted       WorkflowReason = "kb_sync_started"
	ReasonKBSynced            WorkflowReason = "kb_synced"
	ReasonKBSyncFailed        WorkflowReason = "kb_sync_failed"
)

// ErrorCode identifies failures surfaced to the presentation layer.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeDevice        ErrorCode = "device_unavailable"
	ErrorCodeAudioStop     ErrorCode = "audio_stop"
	ErrorCodeTranscription ErrorCode = "transcription_failed"
	ErrorCodeEmptyDraft    ErrorCode = "empty_transcript"
	ErrorCodeReasoning     ErrorCode = "reasoning_failed"
	ErrorCodeBadResponse   ErrorCode = "invalid_response"
	ErrorCodeSave          ErrorCode = "save_failed"
	ErrorCodeKBSync        ErrorCode = "kb_sync_failed"
)

// RiskLevel is the audit's overall liability classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// StructuredNote is the SOAP-style note produced by the reasoning engine.
type StructuredNote struct {
	Subjective     string `json:"subjective"`
	Objective      string `json:"objective"`
	Assessment     string `json:"assessment"`
	Plan           string `json:"plan"`
	RiskAssessment string `json:"risk_assessment"`
}

// Audit is the liability and clarity review of a structured note.
type Audit struct {
	LiabilityFlags       []string  `json:"liability_flags"`
	ClinicalClarityScore float64   `json:"clinical_clarity_score"`
	Suggestions          []string  `json:"suggestions"`
	RiskLevel            RiskLevel `json:"risk_level"`
}

// Markers are the numeric and categorical session indicators, scaled 0-10.
type Markers struct {
	PrimaryThemes      []string `json:"primary_themes"`
	EmotionalIntensity float64  `json:"emotional_intensity"`
	GoalProgress       float64  `json:"goal_progress"`
	RiskScore          float64  `json:"risk_score"`
}

// ClinicalOutput bundles one reasoning result for one transcript snapshot.
type ClinicalOutput struct {
	StructuredNote StructuredNote `json:"structured_note"`
	Audit          Audit          `json:"audit"`
	Markers        Markers        `json:"markers"`
}

// SessionRecord is the payload handed to the persistence service on save.
type SessionRecord struct {
	OrgID          string         `json:"org_id"`
	ClientID       string         `json:"client_id"`
	SessionID      string         `json:"session_id"`
	Text           string         `json:"text"`
	StructuredJSON string         `json:"structured_json"`
	Metadata       RecordMetadata `json:"metadata"`
	Markers        Markers        `json:"markers"`
}

// RecordMetadata travels alongside the note body on save.
type RecordMetadata struct {
	RiskLevel RiskLevel `json:"risk_level"`
	Author    string    `json:"author"`
}

// HistoricalSession is a saved session as returned by the persistence
// service. Read-only once created.
type HistoricalSession struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"text"`
	Markers   Markers   `json:"markers"`
}

// WorkflowSnapshot is the read-only projection of controller state the
// presentation layer consumes.
type WorkflowSnapshot struct {
	Phase         WorkflowPhase   `json:"phase"`
	Transcript    string          `json:"transcript"`
	Recording     bool            `json:"recording"`
	Processing    bool            `json:"processing"`
	SyncingKB     bool            `json:"syncingKnowledgeBase"`
	CurrentOutput *ClinicalOutput `json:"currentOutput,omitempty"`
}
