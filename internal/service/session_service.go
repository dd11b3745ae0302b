package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"docintake/internal/domain"
	"docintake/internal/export"
	"docintake/internal/port"
	"docintake/internal/session"
)

// CreateSessionInput is the DTO for session creation.
type CreateSessionInput struct {
	Profile    string                `json:"profile"`
	ProfileKey string                `json:"-"`
	Config     *domain.SessionConfig `json:"config"`
}

// CreatedSession is returned on session creation.
type CreatedSession struct {
	Session session.Snapshot `json:"session"`
	Token   SessionToken     `json:"token"`
}

// ExportFile is a rendered export.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SessionService exposes workflow sessions to the HTTP layer.
type SessionService interface {
	Create(ctx context.Context, input CreateSessionInput) (*CreatedSession, error)
	Get(ctx context.Context, id uuid.UUID) (*session.Snapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Configure(ctx context.Context, id uuid.UUID, cfg domain.SessionConfig) (*session.Snapshot, error)
	SelectDocument(ctx context.Context, id uuid.UUID, input FileUploadInput) (*session.Snapshot, error)
	Extract(ctx context.Context, id uuid.UUID) (*session.Snapshot, error)
	Ask(ctx context.Context, id uuid.UUID, question string) (*domain.AnalysisTurn, error)
	History(ctx context.Context, id uuid.UUID) ([]domain.AnalysisTurn, error)
	Cancel(ctx context.Context, id uuid.UUID) (*session.Snapshot, error)
	Reset(ctx context.Context, id uuid.UUID) (*session.Snapshot, error)
	Export(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*ExportFile, error)
}

type sessionService struct {
	manager  *session.Manager
	files    FileService
	settings SettingsService
	auth     AuthService
	turns    port.TurnRepository // nil when persistence is disabled
}

// NewSessionService creates a new SessionService. Archived documents are
// discarded when their session is removed. turns may be nil.
func NewSessionService(manager *session.Manager, files FileService, settings SettingsService, auth AuthService, turns port.TurnRepository) SessionService {
	manager.OnRemove(func(s *session.Session) {
		files.Discard(context.Background(), s.Document())
	})
	return &sessionService{
		manager:  manager,
		files:    files,
		settings: settings,
		auth:     auth,
		turns:    turns,
	}
}

func (s *sessionService) Create(ctx context.Context, input CreateSessionInput) (*CreatedSession, error) {
	var cfg domain.SessionConfig
	if input.Profile != "" {
		loaded, err := s.settings.Load(ctx, input.Profile, input.ProfileKey)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	if input.Config != nil {
		cfg = mergeConfig(cfg, *input.Config)
	}

	sess := s.manager.Create(cfg)
	token, err := s.auth.IssueToken(sess.ID())
	if err != nil {
		_ = s.manager.Delete(sess.ID())
		return nil, fmt.Errorf("issuing session token: %w", err)
	}

	return &CreatedSession{Session: sess.Snapshot(), Token: *token}, nil
}

func (s *sessionService) Get(ctx context.Context, id uuid.UUID) (*session.Snapshot, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, sess), nil
}

func (s *sessionService) Delete(_ context.Context, id uuid.UUID) error {
	return s.manager.Delete(id)
}

// Configure updates the session's credentials. Empty fields keep their
// current value so masked keys need not be resent.
func (s *sessionService) Configure(ctx context.Context, id uuid.UUID, cfg domain.SessionConfig) (*session.Snapshot, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	sess.Configure(mergeConfig(sess.Config(), cfg))
	return s.snapshot(ctx, sess), nil
}

func (s *sessionService) SelectDocument(ctx context.Context, id uuid.UUID, input FileUploadInput) (*session.Snapshot, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}

	input.SessionID = id
	input.Archive = true
	doc, err := s.files.Intake(ctx, input)
	if err != nil {
		return nil, err
	}

	previous := sess.Document()
	sess.SelectDocument(doc)
	s.files.Discard(ctx, previous)

	log.Printf("sessionService.SelectDocument: session %s selected %s", id, doc.Name)
	return s.snapshot(ctx, sess), nil
}

func (s *sessionService) Extract(ctx context.Context, id uuid.UUID) (*session.Snapshot, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	if _, err := sess.RunExtraction(ctx); err != nil {
		return nil, err
	}
	return s.snapshot(ctx, sess), nil
}

func (s *sessionService) Ask(ctx context.Context, id uuid.UUID, question string) (*domain.AnalysisTurn, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.AskQuestion(ctx, question)
}

// History returns the live session's questions. Once the session has been
// deleted or evicted, the persisted turns are served instead; these span
// every document the session worked on.
func (s *sessionService) History(ctx context.Context, id uuid.UUID) ([]domain.AnalysisTurn, error) {
	sess, err := s.manager.Get(id)
	if err == nil {
		return sess.History(), nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) || s.turns == nil {
		return nil, err
	}

	turns, listErr := s.turns.ListBySession(ctx, id)
	if listErr != nil {
		return nil, fmt.Errorf("loading persisted history: %w", listErr)
	}
	if len(turns) == 0 {
		return nil, err
	}
	log.Printf("sessionService.History: served %d persisted turns for ended session %s", len(turns), id)
	return turns, nil
}

func (s *sessionService) Cancel(ctx context.Context, id uuid.UUID) (*session.Snapshot, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	if !sess.Cancel() {
		return nil, fmt.Errorf("%w: no extraction in progress", domain.ErrValidation)
	}
	return s.snapshot(ctx, sess), nil
}

func (s *sessionService) Reset(ctx context.Context, id uuid.UUID) (*session.Snapshot, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	previous := sess.Document()
	sess.Reset()
	s.files.Discard(ctx, previous)
	return s.snapshot(ctx, sess), nil
}

func (s *sessionService) Export(_ context.Context, id uuid.UUID, format domain.ExportFormat) (*ExportFile, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}

	base := "session-" + id.String()
	docName := ""
	if doc := sess.Document(); doc != nil {
		docName = doc.Name
		base = strings.TrimSuffix(doc.Name, fileExt(doc.Name))
	}

	switch format {
	case domain.ExportCSV, "":
		var buf bytes.Buffer
		if err := export.WriteHistoryCSV(&buf, sess.History()); err != nil {
			return nil, fmt.Errorf("writing csv: %w", err)
		}
		return &ExportFile{Filename: base + "-history.csv", ContentType: "text/csv; charset=utf-8", Data: buf.Bytes()}, nil
	case domain.ExportXLSX:
		data, err := export.WriteWorkbook(export.Workbook{
			DocumentName: docName,
			Result:       sess.Result(),
			History:      sess.History(),
		})
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", domain.ErrValidation, format)
	}
}

func (s *sessionService) snapshot(ctx context.Context, sess *session.Session) *session.Snapshot {
	snap := sess.Snapshot()
	if url, err := s.files.GetDownloadURL(ctx, sess.Document()); err != nil {
		log.Printf("sessionService: presign failed for session %s: %v", sess.ID(), err)
	} else {
		snap.DocumentURL = url
	}
	return &snap
}

func mergeConfig(current, update domain.SessionConfig) domain.SessionConfig {
	if update.ExtractionEndpoint != "" {
		current.ExtractionEndpoint = update.ExtractionEndpoint
	}
	if update.ExtractionKey != "" {
		current.ExtractionKey = update.ExtractionKey
	}
	if update.AnalysisKey != "" {
		current.AnalysisKey = update.AnalysisKey
	}
	return current
}

func fileExt(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[i:]
	}
	return ""
}
