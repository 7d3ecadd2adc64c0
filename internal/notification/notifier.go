// Package notification delivers rendered signal reports to chat channels
// (Telegram, Discord) or the log.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/pkg/logger"
)

// LogNotifier writes messages to the log (useful for development)
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a log-based notifier
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithComponent("notify")}
}

// Send implements contracts.Notifier
func (n *LogNotifier) Send(ctx context.Context, text string) error {
	n.logger.WithField("chars", utf8.RuneCountInString(text)).Info("\n" + text)
	return nil
}

// MultiNotifier fans a message out to every channel.
// All channels are attempted; failures are joined.
type MultiNotifier struct {
	notifiers []contracts.Notifier
}

// NewMultiNotifier creates a fan-out notifier
func NewMultiNotifier(notifiers ...contracts.Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Len returns the number of channels
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

// Send implements contracts.Notifier
func (m *MultiNotifier) Send(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Send(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// deliveryError wraps a channel failure into the taxonomy
func deliveryError(channel string, err error) error {
	return fmt.Errorf("%s: %w: %w", channel, contracts.ErrDeliveryFailure, err)
}

// chunk splits text into pieces of at most limit runes, preferring line breaks
func chunk(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		out     []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if size > 0 {
			out = append(out, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if size+n > limit {
			flush()
		}
		// 한 줄이 한도를 넘으면 강제로 자른다
		for n > limit {
			runes := []rune(line)
			out = append(out, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}
		current.WriteString(line)
		size += n
	}
	flush()
	return out
}
