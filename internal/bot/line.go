package bot

import (
	"context"
	"fmt"
	"net/http"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"weightmate/internal/config"
)

// LineMessenger implements Messenger over the LINE Messaging API and exposes
// webhook parsing (which carries the signature check) to the gateway.
type LineMessenger struct {
	client *linebot.Client
}

var _ Messenger = (*LineMessenger)(nil)

func NewLineMessenger(cfg config.LineConfig) (*LineMessenger, error) {
	client, err := linebot.New(cfg.ChannelSecret, cfg.ChannelAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create line client: %w", err)
	}
	return &LineMessenger{client: client}, nil
}

// ParseRequest verifies the request signature and decodes the webhook
// events. Returns linebot.ErrInvalidSignature on a bad signature.
func (m *LineMessenger) ParseRequest(r *http.Request) ([]*linebot.Event, error) {
	return m.client.ParseRequest(r)
}

func (m *LineMessenger) ReplyText(ctx context.Context, replyToken, text string) error {
	_, err := m.client.ReplyMessage(replyToken, linebot.NewTextMessage(text)).WithContext(ctx).Do()
	return err
}

func (m *LineMessenger) ReplyImage(ctx context.Context, replyToken, imageURL string) error {
	_, err := m.client.ReplyMessage(replyToken, linebot.NewImageMessage(imageURL, imageURL)).WithContext(ctx).Do()
	return err
}

func (m *LineMessenger) PushText(ctx context.Context, to, text string) error {
	_, err := m.client.PushMessage(to, linebot.NewTextMessage(text)).WithContext(ctx).Do()
	return err
}

func (m *LineMessenger) PushImage(ctx context.Context, to, imageURL string) error {
	_, err := m.client.PushMessage(to, linebot.NewImageMessage(imageURL, imageURL)).WithContext(ctx).Do()
	return err
}
