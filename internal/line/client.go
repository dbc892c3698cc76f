// Package line integrates with the LINE Messaging API: webhook intake,
// reply delivery, and message content download.
package line

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Client wraps the LINE messaging and blob APIs. It implements the
// diagnosis service's Replier and ContentProvider seams.
type Client struct {
	logger    *slog.Logger
	messaging *messaging_api.MessagingApiAPI
	blob      *messaging_api.MessagingApiBlobAPI
}

// NewClient creates a Client authenticated with the channel access token.
func NewClient(log *slog.Logger, channelAccessToken string) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	messaging, err := messaging_api.NewMessagingApiAPI(channelAccessToken)
	if err != nil {
		return nil, fmt.Errorf("line messaging api: %w", err)
	}
	blob, err := messaging_api.NewMessagingApiBlobAPI(channelAccessToken)
	if err != nil {
		return nil, fmt.Errorf("line blob api: %w", err)
	}
	return &Client{
		logger:    log.With(slog.String("component", "line")),
		messaging: messaging,
		blob:      blob,
	}, nil
}

// ReplyText sends a single text reply for the given reply token. The token
// is single-use; the platform rejects a second reply with the same token.
func (c *Client) ReplyText(ctx context.Context, replyToken, text string) error {
	_, err := c.messaging.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	})
	if err != nil {
		return fmt.Errorf("reply message: %w", err)
	}
	return nil
}

// GetMessageContent streams the binary content of a received message. The
// caller owns closing the returned reader.
func (c *Client) GetMessageContent(ctx context.Context, messageID string) (io.ReadCloser, error) {
	resp, err := c.blob.GetMessageContent(messageID)
	if err != nil {
		return nil, fmt.Errorf("get message content: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("get message content status: %d", resp.StatusCode)
	}
	return resp.Body, nil
}
