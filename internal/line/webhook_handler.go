package line

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/bodycheckai/bodycheck/internal/config"
	"github.com/bodycheckai/bodycheck/internal/diagnosis"
)

// EventHandler processes one distilled message event.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev diagnosis.Event) error
}

// WebhookHandler receives LINE webhook deliveries. Signature verification
// and event parsing are delegated to the platform SDK.
type WebhookHandler struct {
	logger        *slog.Logger
	channelSecret string
	events        EventHandler
}

// NewWebhookHandler creates a webhook handler verifying deliveries with
// the given channel secret.
func NewWebhookHandler(log *slog.Logger, channelSecret string, events EventHandler) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		logger:        log.With(slog.String("handler", "line_webhook")),
		channelSecret: channelSecret,
		events:        events,
	}
}

// NewWebhookServerHandler is a DI-friendly constructor using concrete types.
func NewWebhookServerHandler(log *slog.Logger, cfg config.Config, svc *diagnosis.Service) *WebhookHandler {
	return NewWebhookHandler(log, cfg.Line.ChannelSecret, svc)
}

// Register registers the webhook routes.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.GET("/webhook", h.HandleProbe)
	e.POST("/webhook", h.Handle)
}

// HandleProbe responds to health/probe requests on the webhook URL.
func (h *WebhookHandler) HandleProbe(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Handle processes one webhook delivery. Every contained event is handled
// in its own goroutine; the delivery is acknowledged with 200 once all of
// them have settled, regardless of individual outcomes. Per-event failures
// surface to the user through the event's own reply, never through the
// delivery status.
func (h *WebhookHandler) Handle(c echo.Context) error {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request())
	if err != nil {
		h.logger.Warn("reject webhook delivery", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid webhook request")
	}

	ctx := context.WithoutCancel(c.Request().Context())
	var wg sync.WaitGroup
	for _, raw := range cb.Events {
		ev, ok := distillEvent(raw)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(ev diagnosis.Event) {
			defer wg.Done()
			if err := h.events.HandleEvent(ctx, ev); err != nil {
				h.logger.Error("handle event failed",
					slog.String("message_id", ev.MessageID),
					slog.Any("error", err),
				)
			}
		}(ev)
	}
	wg.Wait()
	return c.NoContent(http.StatusOK)
}

// distillEvent reduces an SDK event to the fields the pipeline needs.
// Only message events carry a usable reply token; other event kinds are
// acknowledged and skipped.
func distillEvent(raw webhook.EventInterface) (diagnosis.Event, bool) {
	msgEvent, ok := raw.(webhook.MessageEvent)
	if !ok {
		return diagnosis.Event{}, false
	}
	ev := diagnosis.Event{
		ReplyToken: msgEvent.ReplyToken,
		UserID:     sourceUserID(msgEvent.Source),
	}
	switch message := msgEvent.Message.(type) {
	case webhook.ImageMessageContent:
		ev.Kind = diagnosis.KindImage
		ev.MessageID = message.Id
	case webhook.TextMessageContent:
		ev.Kind = diagnosis.KindText
		ev.MessageID = message.Id
	default:
		ev.Kind = diagnosis.KindOther
	}
	return ev, true
}

func sourceUserID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	default:
		return ""
	}
}
