package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/chartsignal/pkg/httputil"
	"github.com/wonny/chartsignal/pkg/logger"
)

// discordLimit is the webhook content cap
const discordLimit = 2000

// DiscordNotifier posts plain content to a Discord webhook
// ⭐ SSOT: 디스코드 전송은 여기서만
type DiscordNotifier struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	webhookURL string
}

// NewDiscordNotifier creates a Discord webhook notifier
func NewDiscordNotifier(httpClient *httputil.Client, log *logger.Logger, webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		httpClient: httpClient,
		logger:     log.WithComponent("discord"),
		webhookURL: webhookURL,
	}
}

type webhookMessage struct {
	Content string `json:"content"`
}

// Send implements contracts.Notifier. Long text goes out in several posts.
func (d *DiscordNotifier) Send(ctx context.Context, text string) error {
	parts := chunk(text, discordLimit)
	for _, part := range parts {
		if err := d.post(ctx, part); err != nil {
			return deliveryError("discord", err)
		}
	}

	d.logger.WithField("parts", len(parts)).Debug("Message sent")
	return nil
}

func (d *DiscordNotifier) post(ctx context.Context, content string) error {
	resp, err := d.httpClient.PostJSON(ctx, d.webhookURL, webhookMessage{Content: content})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 웹훅은 성공 시 204 No Content
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return nil
}
