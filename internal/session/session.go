// Package session coordinates the select, extract and analyze workflow for
// one document at a time. A Session is safe for concurrent use; its lock is
// never held across a remote call.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"docintake/internal/domain"
	"docintake/internal/port"
	"docintake/internal/prompt"
)

// Messages recorded when an operation is attempted without its prerequisite.
const (
	MsgNoDocument = "No document has been selected"
	MsgNoText     = "No document text available for analysis"
	MsgCancelled  = "Extraction was cancelled"
	MsgNoQuestion = "Please enter a question"
)

const defaultOperationTimeout = 5 * time.Minute

// Deps are the collaborators shared by every session.
type Deps struct {
	Extractor        port.DocumentExtractor
	Analyzer         port.DocumentAnalyzer
	Turns            port.TurnRepository // optional
	OperationTimeout time.Duration
	Now              func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) timeout() time.Duration {
	if d.OperationTimeout > 0 {
		return d.OperationTimeout
	}
	return defaultOperationTimeout
}

// Session is one user's workflow state.
type Session struct {
	id        uuid.UUID
	deps      Deps
	createdAt time.Time

	mu         sync.RWMutex
	state      domain.WorkflowState
	doc        *domain.Document
	result     *domain.ExtractionResult
	analysis   string
	lastErr    string
	history    []domain.AnalysisTurn
	cfg        domain.SessionConfig
	lastActive time.Time

	// epoch changes whenever the document is replaced, the session is
	// reset or closed, or an extraction is cancelled. A remote result is
	// applied only if the epoch it started under is still current.
	epoch         uint64
	flight        uint64
	cancelExtract context.CancelFunc
	cancelAnalyze context.CancelFunc

	flights   singleflight.Group
	analyzing atomic.Bool
}

// New creates an idle session.
func New(id uuid.UUID, cfg domain.SessionConfig, deps Deps) *Session {
	now := deps.now()
	return &Session{
		id:         id,
		deps:       deps,
		createdAt:  now,
		state:      domain.StateIdle,
		cfg:        cfg,
		lastActive: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// SelectDocument replaces the document and clears everything derived from
// the previous one. In-flight work for the old document is cancelled.
func (s *Session) SelectDocument(doc *domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abortLocked()
	s.doc = doc
	s.clearDerivedLocked()
	s.state = domain.StateDocumentSelected
	s.touchLocked()
}

// Reset discards the document and derived state. Configuration is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abortLocked()
	s.doc = nil
	s.clearDerivedLocked()
	s.state = domain.StateIdle
	s.touchLocked()
}

// Cancel abandons an in-flight extraction. It reports whether one was running.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchLocked()
	if s.state != domain.StateExtracting {
		return false
	}
	if s.cancelExtract != nil {
		s.cancelExtract()
		s.cancelExtract = nil
	}
	s.epoch++
	s.state = domain.StateError
	s.lastErr = MsgCancelled
	return true
}

// Close cancels all in-flight work. The session must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortLocked()
}

// Configure replaces the session's credentials.
func (s *Session) Configure(cfg domain.SessionConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.touchLocked()
}

// Config returns the session's credentials.
func (s *Session) Config() domain.SessionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// RunExtraction sends the current document to the extraction service and
// stores the canonical result. Concurrent callers for the same document share
// one extraction. The extraction itself outlives ctx; ctx only bounds how long
// this caller waits.
func (s *Session) RunExtraction(ctx context.Context) (*domain.ExtractionResult, error) {
	s.mu.Lock()
	s.touchLocked()
	if s.doc == nil {
		s.lastErr = MsgNoDocument
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, MsgNoDocument)
	}
	if s.state == domain.StateAnalyzing {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: analysis in progress", domain.ErrBusy)
	}
	// Claim the extracting state before releasing the lock so a question
	// cannot start between here and the flight taking over. A claim always
	// opens a new flight; callers arriving while extracting join it.
	if s.state != domain.StateExtracting {
		s.state = domain.StateExtracting
		s.lastErr = ""
		s.flight++
	}
	epoch := s.epoch
	key := strconv.FormatUint(epoch, 10) + "/" + strconv.FormatUint(s.flight, 10)
	s.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(key, func() (interface{}, error) {
		return s.extract(detached, epoch)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return copyResult(res.Val.(*domain.ExtractionResult)), nil
	}
}

func (s *Session) extract(parent context.Context, epoch uint64) (*domain.ExtractionResult, error) {
	s.mu.Lock()
	if s.epoch != epoch || s.doc == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: document changed before extraction started", domain.ErrCancelled)
	}
	// A caller that joined after the previous flight finished may find a
	// question already running.
	if s.state == domain.StateAnalyzing {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: analysis in progress", domain.ErrBusy)
	}
	opCtx, cancel := context.WithTimeout(parent, s.deps.timeout())
	defer cancel()
	s.cancelExtract = cancel
	s.state = domain.StateExtracting
	s.lastErr = ""
	input := port.ExtractInput{
		FileBytes:   s.doc.Data,
		ContentType: s.doc.ContentType,
		Credentials: s.cfg.Extraction(),
	}
	docName := s.doc.Name
	s.mu.Unlock()

	log.Printf("session.RunExtraction: session %s extracting %q (%d bytes)", s.id, docName, len(input.FileBytes))
	result, err := safeExtract(opCtx, s.deps.Extractor, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil, fmt.Errorf("%w: document changed during extraction", domain.ErrCancelled)
	}
	s.cancelExtract = nil
	s.touchLocked()

	if err != nil {
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrJobTimeout) {
			err = fmt.Errorf("%w: operation exceeded %s: %v", domain.ErrJobTimeout, s.deps.timeout(), err)
		}
		log.Printf("session.RunExtraction: session %s extraction failed: %v", s.id, err)
		s.state = domain.StateError
		s.lastErr = err.Error()
		return nil, err
	}

	s.result = copyResult(result)
	s.state = domain.StateExtracted
	return s.result, nil
}

// AskQuestion composes a prompt from the stored extraction and question and
// records the answer. At most one question is analyzed at a time.
func (s *Session) AskQuestion(ctx context.Context, question string) (*domain.AnalysisTurn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		s.mu.Lock()
		s.lastErr = MsgNoQuestion
		s.touchLocked()
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: question is required", domain.ErrValidation)
	}
	if !s.analyzing.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: another question is being analyzed", domain.ErrBusy)
	}
	defer s.analyzing.Store(false)

	s.mu.Lock()
	s.touchLocked()
	if s.state == domain.StateExtracting {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: extraction in progress", domain.ErrBusy)
	}
	if s.result == nil || s.result.Text == "" {
		s.lastErr = MsgNoText
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, MsgNoText)
	}
	epoch := s.epoch
	result := *s.result
	apiKey := s.cfg.AnalysisKey
	docName := s.doc.Name
	opCtx, cancel := context.WithTimeout(ctx, s.deps.timeout())
	defer cancel()
	s.cancelAnalyze = cancel
	s.state = domain.StateAnalyzing
	s.lastErr = ""
	s.mu.Unlock()

	out, err := safeAnalyze(opCtx, s.deps.Analyzer, port.AnalyzeInput{
		Prompt: prompt.Compose(question, result),
		APIKey: apiKey,
	})

	turn, err := s.finishAnalysis(epoch, docName, question, out, err)
	if err != nil {
		return nil, err
	}

	if s.deps.Turns != nil {
		if perr := s.deps.Turns.Append(context.WithoutCancel(ctx), turn); perr != nil {
			log.Printf("session.AskQuestion: failed to persist turn %s for session %s: %v", turn.ID, s.id, perr)
		}
	}
	return turn, nil
}

func (s *Session) finishAnalysis(epoch uint64, docName, question string, out *port.AnalyzeOutput, err error) (*domain.AnalysisTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return nil, fmt.Errorf("%w: document changed during analysis", domain.ErrCancelled)
	}
	s.cancelAnalyze = nil
	s.touchLocked()

	if err != nil {
		log.Printf("session.AskQuestion: session %s analysis failed: %v", s.id, err)
		s.state = domain.StateError
		s.lastErr = err.Error()
		return nil, err
	}

	turn := domain.AnalysisTurn{
		ID:           uuid.New(),
		SessionID:    s.id,
		DocumentName: docName,
		Question:     question,
		Answer:       out.Text,
		Model:        out.ModelUsed,
		AskedAt:      s.deps.now().UTC(),
	}
	s.history = append(s.history, turn)
	s.analysis = out.Text
	s.state = domain.StateAnswered
	return &turn, nil
}

// History returns the answered questions in the order they were asked.
func (s *Session) History() []domain.AnalysisTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AnalysisTurn, len(s.history))
	copy(out, s.history)
	return out
}

// Document returns a copy of the current document, or nil.
func (s *Session) Document() *domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil
	}
	d := *s.doc
	return &d
}

// Result returns a copy of the extraction result, or nil.
func (s *Session) Result() *domain.ExtractionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyResult(s.result)
}

func (s *Session) State() domain.WorkflowState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) HasDocument() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc != nil
}

func (s *Session) HasResult() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result != nil
}

func (s *Session) HasAnalysis() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysis != ""
}

func (s *Session) IsConfigured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.IsConfigured()
}

func (s *Session) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsBusy()
}

// LastError returns the most recent error message, or "".
func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Snapshot is a point-in-time view of a session safe to serialize.
type Snapshot struct {
	ID           uuid.UUID                `json:"id"`
	State        domain.WorkflowState     `json:"state"`
	Document     *domain.Document         `json:"document,omitempty"`
	DocumentURL  string                   `json:"document_url,omitempty"`
	Result       *domain.ExtractionResult `json:"result,omitempty"`
	Analysis     string                   `json:"analysis,omitempty"`
	Error        string                   `json:"error,omitempty"`
	HasDocument  bool                     `json:"has_document"`
	HasResult    bool                     `json:"has_result"`
	HasAnalysis  bool                     `json:"has_analysis"`
	IsConfigured bool                     `json:"is_configured"`
	IsLoading    bool                     `json:"is_loading"`
	HistoryCount int                      `json:"history_count"`
	Config       domain.SessionConfig     `json:"config"`
	CreatedAt    time.Time                `json:"created_at"`
	LastActiveAt time.Time                `json:"last_active_at"`
}

// Snapshot returns a consistent view of the session. Secrets are masked.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ID:           s.id,
		State:        s.state,
		Result:       copyResult(s.result),
		Analysis:     s.analysis,
		Error:        s.lastErr,
		HasDocument:  s.doc != nil,
		HasResult:    s.result != nil,
		HasAnalysis:  s.analysis != "",
		IsConfigured: s.cfg.IsConfigured(),
		IsLoading:    s.state.IsBusy(),
		HistoryCount: len(s.history),
		Config:       s.cfg.Masked(),
		CreatedAt:    s.createdAt,
		LastActiveAt: s.lastActive,
	}
	if s.doc != nil {
		d := *s.doc
		d.Data = nil
		snap.Document = &d
	}
	return snap
}

// idleSince reports how long the session has been inactive. Busy sessions
// are never idle.
func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.IsBusy() {
		return 0
	}
	return now.Sub(s.lastActive)
}

func (s *Session) abortLocked() {
	if s.cancelExtract != nil {
		s.cancelExtract()
		s.cancelExtract = nil
	}
	if s.cancelAnalyze != nil {
		s.cancelAnalyze()
		s.cancelAnalyze = nil
	}
	s.epoch++
}

func (s *Session) clearDerivedLocked() {
	s.result = nil
	s.analysis = ""
	s.lastErr = ""
	s.history = nil
}

func (s *Session) touchLocked() {
	s.lastActive = s.deps.now()
}

func safeExtract(ctx context.Context, e port.DocumentExtractor, input port.ExtractInput) (result *domain.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: extractor panic: %v", domain.ErrTransport, r)
		}
	}()
	return e.Extract(ctx, input)
}

func safeAnalyze(ctx context.Context, a port.DocumentAnalyzer, input port.AnalyzeInput) (out *port.AnalyzeOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: analyzer panic: %v", domain.ErrTransport, r)
		}
	}()
	out, err = a.Analyze(ctx, input)
	if err == nil && out == nil {
		err = fmt.Errorf("%w: analyzer returned no output", domain.ErrEmptyResponse)
	}
	return out, err
}

func copyResult(r *domain.ExtractionResult) *domain.ExtractionResult {
	if r == nil {
		return nil
	}
	out := &domain.ExtractionResult{
		Text:          r.Text,
		Tables:        make([]domain.Table, len(r.Tables)),
		KeyValuePairs: make([]domain.KeyValuePair, len(r.KeyValuePairs)),
	}
	for i, t := range r.Tables {
		rows := make(domain.Table, len(t))
		for j, row := range t {
			rows[j] = append([]string(nil), row...)
		}
		out.Tables[i] = rows
	}
	copy(out.KeyValuePairs, r.KeyValuePairs)
	return out
}
