// Package diagnosis runs the per-event pipeline: fetch the image, send it
// to the analyzer, and reply with the formatted report.
package diagnosis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bodycheckai/bodycheck/internal/analyzer"
)

// EventKind classifies the content of an inbound message event.
type EventKind string

const (
	KindImage EventKind = "image"
	KindText  EventKind = "text"
	KindOther EventKind = "other"
)

// Event is one inbound message notification, reduced to the fields the
// pipeline needs. ReplyToken is single-use: the service sends exactly one
// reply per event.
type Event struct {
	ReplyToken string
	MessageID  string
	UserID     string
	Kind       EventKind
}

// ContentProvider streams the binary content of a received message.
type ContentProvider interface {
	GetMessageContent(ctx context.Context, messageID string) (io.ReadCloser, error)
}

// Analyzer scores a staged image file.
type Analyzer interface {
	Analyze(ctx context.Context, imagePath string) (analyzer.Result, error)
}

// Replier sends one text reply for a reply token.
type Replier interface {
	ReplyText(ctx context.Context, replyToken, text string) error
}

// Stager persists a content stream to a uniquely named local file and
// returns a cleanup func that removes it.
type Stager interface {
	Save(r io.Reader) (path string, cleanup func(), err error)
}

// Record is one completed diagnosis, as handed to the history store.
type Record struct {
	UserID    string
	MessageID string
	Result    analyzer.Result
	CreatedAt time.Time
}

// Recorder persists completed diagnoses. Optional: recording failures are
// logged and never reach the user.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Service sequences one diagnosis per event. It guarantees exactly one
// reply attempt per event and never lets a pipeline failure escape as
// anything other than the fixed failure reply.
type Service struct {
	logger   *slog.Logger
	content  ContentProvider
	analyzer Analyzer
	replier  Replier
	stager   Stager
	recorder Recorder
}

// NewService builds a Service from its collaborators.
func NewService(log *slog.Logger, content ContentProvider, an Analyzer, replier Replier, stager Stager) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		logger:   log.With(slog.String("component", "diagnosis")),
		content:  content,
		analyzer: an,
		replier:  replier,
		stager:   stager,
	}
}

// SetRecorder enables history recording of completed diagnoses.
func (s *Service) SetRecorder(r Recorder) {
	s.recorder = r
}

// HandleEvent processes one event end to end. The returned error reports a
// failed reply delivery only; pipeline failures are already converted into
// the failure reply. There are no retries: a failed diagnosis is terminal
// for the event and the user resends the image to try again.
func (s *Service) HandleEvent(ctx context.Context, ev Event) error {
	if ev.Kind != KindImage {
		return s.reply(ctx, ev.ReplyToken, PromptMessage)
	}

	result, err := s.diagnose(ctx, ev)
	if err != nil {
		s.logger.Error("diagnosis failed",
			slog.String("message_id", ev.MessageID),
			slog.String("user_id", ev.UserID),
			slog.Any("error", err),
		)
		return s.reply(ctx, ev.ReplyToken, FailureMessage)
	}

	if err := s.reply(ctx, ev.ReplyToken, Report(result)); err != nil {
		return err
	}
	s.record(ctx, ev, result)
	return nil
}

func (s *Service) diagnose(ctx context.Context, ev Event) (analyzer.Result, error) {
	body, err := s.content.GetMessageContent(ctx, ev.MessageID)
	if err != nil {
		return analyzer.Result{}, fmt.Errorf("download content: %w", err)
	}
	defer func() {
		_ = body.Close()
	}()

	path, cleanup, err := s.stager.Save(body)
	if err != nil {
		return analyzer.Result{}, fmt.Errorf("stage image: %w", err)
	}
	defer cleanup()

	result, err := s.analyzer.Analyze(ctx, path)
	if err != nil {
		return analyzer.Result{}, fmt.Errorf("analyze: %w", err)
	}
	return result, nil
}

func (s *Service) reply(ctx context.Context, replyToken, text string) error {
	if err := s.replier.ReplyText(ctx, replyToken, text); err != nil {
		s.logger.Error("reply failed", slog.Any("error", err))
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}

func (s *Service) record(ctx context.Context, ev Event, result analyzer.Result) {
	if s.recorder == nil {
		return
	}
	rec := Record{
		UserID:    ev.UserID,
		MessageID: ev.MessageID,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.logger.Warn("record diagnosis failed",
			slog.String("message_id", ev.MessageID),
			slog.Any("error", err),
		)
	}
}
