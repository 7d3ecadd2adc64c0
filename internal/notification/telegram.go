package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/wonny/chartsignal/pkg/httputil"
	"github.com/wonny/chartsignal/pkg/logger"
)

// DefaultTelegramURL is the Bot API host
const DefaultTelegramURL = "https://api.telegram.org"

// telegramLimit stays under the 4096 UTF-16 unit cap for emoji-heavy text
const telegramLimit = 4000

// TelegramNotifier sends messages via the Telegram Bot API
// ⭐ SSOT: 텔레그램 전송은 여기서만
type TelegramNotifier struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	botToken   string
	chatID     string
}

// NewTelegramNotifier creates a Telegram notifier.
// botToken comes from @BotFather; chatID is the target chat/group/channel.
func NewTelegramNotifier(httpClient *httputil.Client, log *logger.Logger, baseURL, botToken, chatID string) *TelegramNotifier {
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}
	return &TelegramNotifier{
		httpClient: httpClient,
		logger:     log.WithComponent("telegram"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		botToken:   botToken,
		chatID:     chatID,
	}
}

type telegramMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Send implements contracts.Notifier. Text is sent as plain text.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	parts := chunk(text, telegramLimit)
	for _, part := range parts {
		if err := t.post(ctx, url, part); err != nil {
			return deliveryError("telegram", err)
		}
	}

	t.logger.WithField("parts", len(parts)).Debug("Message sent")
	return nil
}

func (t *TelegramNotifier) post(ctx context.Context, url, text string) error {
	resp, err := t.httpClient.PostJSON(ctx, url, telegramMessage{
		ChatID:                t.chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var result telegramResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if !result.OK {
		return fmt.Errorf("api error %d: %s", result.ErrorCode, result.Description)
	}
	return nil
}
