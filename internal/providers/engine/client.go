// Package engine is the HTTP adapter for the clinical intelligence API:
// transcription, reasoning, durable saves, history reads, and knowledge
// base syncs. Every transport or service failure is wrapped in the
// matching ports sentinel before it reaches the controller.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"clinicalintel/internal/domain"
	"clinicalintel/internal/logging"
	"clinicalintel/internal/ports"
)

// Config controls the engine API connection.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the clinical engine API.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logging.WithComponent("engine"),
	}
}

type transcribeResponse struct {
	Transcript string `json:"transcript"`
}

// Transcribe uploads one assembled WAV payload and returns the recognized
// text. An empty transcript is a valid result.
func (c *Client) Transcribe(ctx context.Context, payload []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "recording.wav")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrTranscriptionFailed, err)
	}
	if _, err := fw.Write(payload); err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrTranscriptionFailed, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrTranscriptionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/session/transcribe", &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrTranscriptionFailed, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out transcribeResponse
	if err := c.do(req, &out, ports.ErrTranscriptionFailed); err != nil {
		return "", err
	}
	c.log.Debug().Int("payload_bytes", len(payload)).Msg("transcription completed")
	return out.Transcript, nil
}

type processRequest struct {
	OrgID    string `json:"org_id"`
	ClientID string `json:"client_id"`
	RawText  string `json:"raw_text"`
}

// Process submits a transcript snapshot for reasoning and audit. The
// response is validated against the ClinicalOutput contract before it is
// handed back.
func (c *Client) Process(ctx context.Context, orgID, clientID, rawText string) (domain.ClinicalOutput, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/session/process", processRequest{
		OrgID:    orgID,
		ClientID: clientID,
		RawText:  rawText,
	})
	if err != nil {
		return domain.ClinicalOutput{}, fmt.Errorf("%w: %v", ports.ErrReasoningFailed, err)
	}

	raw, err := c.doRaw(req, ports.ErrReasoningFailed)
	if err != nil {
		return domain.ClinicalOutput{}, err
	}

	var output domain.ClinicalOutput
	if err := json.Unmarshal(raw, &output); err != nil {
		return domain.ClinicalOutput{}, fmt.Errorf("%w: %v", ports.ErrInvalidResponse, err)
	}
	if err := output.Validate(); err != nil {
		return domain.ClinicalOutput{}, fmt.Errorf("%w: %v", ports.ErrInvalidResponse, err)
	}
	return output, nil
}

// Save persists an approved session record.
func (c *Client) Save(ctx context.Context, record domain.SessionRecord) error {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/session/save", record)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrSaveFailed, err)
	}
	if err := c.do(req, nil, ports.ErrSaveFailed); err != nil {
		return err
	}
	c.log.Info().Str("session_id", record.SessionID).Msg("session record saved")
	return nil
}

// History returns a client's saved sessions in the order the service
// documents (newest first); callers normalize ordering themselves.
func (c *Client) History(ctx context.Context, clientID string) ([]domain.HistoricalSession, error) {
	path := "/client/" + url.PathEscape(clientID) + "/history"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrHistoryFailed, err)
	}

	var raw []historicalSessionDTO
	if err := c.do(req, &raw, ports.ErrHistoryFailed); err != nil {
		return nil, err
	}

	records := make([]domain.HistoricalSession, 0, len(raw))
	for _, dto := range raw {
		rec, err := dto.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrInvalidResponse, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// SyncKnowledgeBase asks the engine to reindex the org's reference data.
func (c *Client) SyncKnowledgeBase(ctx context.Context, orgID string) error {
	path := "/org/" + url.PathEscape(orgID) + "/sync_kb"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrKBSyncFailed, err)
	}
	return c.do(req, nil, ports.ErrKBSyncFailed)
}

// historicalSessionDTO matches the wire shape; created_at arrives as an
// ISO-8601 string that may omit the timezone.
type historicalSessionDTO struct {
	ID        int64          `json:"id"`
	SessionID string         `json:"session_id"`
	CreatedAt string         `json:"created_at"`
	Text      string         `json:"text"`
	Markers   domain.Markers `json:"markers"`
}

func (d historicalSessionDTO) toDomain() (domain.HistoricalSession, error) {
	created, err := parseTimestamp(d.CreatedAt)
	if err != nil {
		return domain.HistoricalSession{}, fmt.Errorf("session %s: %v", d.SessionID, err)
	}
	return domain.HistoricalSession{
		ID:        d.ID,
		SessionID: d.SessionID,
		CreatedAt: created,
		Text:      d.Text,
		Markers:   d.Markers,
	}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do executes a request, wrapping transport and status failures in
// sentinel and decoding a JSON body into out when provided.
func (c *Client) do(req *http.Request, out any, sentinel error) error {
	body, err := c.doRaw(req, sentinel)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", sentinel, err)
	}
	return nil
}

// doRaw executes a request and returns the response body, wrapping
// transport and status failures in sentinel. Decoding is left to the
// caller so it can apply its own contract error.
func (c *Client) doRaw(req *http.Request, sentinel error) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: http %d: %s", sentinel, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", sentinel, err)
	}
	return body, nil
}
