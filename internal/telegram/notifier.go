package telegram

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"macroIndicators/internal/admin"
)

const maxMessageLen = 4000

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts admin alerts to one chat. The zero value and a nil
// *Notifier are disabled and drop every message.
type Notifier struct {
	api    sender
	chatID int64
	logger *zap.Logger
}

// NewNotifier returns a disabled notifier when token or chatID is missing.
func NewNotifier(token string, chatID int64, logger *zap.Logger) (*Notifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if token == "" || chatID == 0 {
		logger.Info("telegram: alerts disabled")
		return &Notifier{logger: logger}, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	logger.Info("telegram: alerts enabled", zap.String("bot", api.Self.UserName), zap.Int64("chat_id", chatID))
	return &Notifier{api: api, chatID: chatID, logger: logger}, nil
}

func (n *Notifier) Enabled() bool { return n != nil && n.api != nil }

// NotifyPartialUpload tells the admin chat which series of a run still need
// to be uploaded by hand.
func (n *Notifier) NotifyPartialUpload(_ context.Context, r admin.Report) error {
	if !n.Enabled() {
		return nil
	}
	return n.send(PartialUploadMessage(r))
}

func (n *Notifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, truncate(text, maxMessageLen))
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}

// truncate cuts text to at most n bytes without splitting a rune.
func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

// PartialUploadMessage renders the alert text for a partial run.
func PartialUploadMessage(r admin.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Upload for %q finished partially (run %s)\n", r.IndicatorName, r.RunID)
	fmt.Fprintf(&b, "%d of %d series uploaded, %d data points added\n", r.Succeeded(), len(r.Outcomes), r.TotalAdded)
	for i, o := range r.Outcomes {
		up := o.Task.Upload
		if o.OK() {
			fmt.Fprintf(&b, "%d. ok   %s (%s) +%d\n", i+1, up.SeriesType, up.FileName, o.Added)
			continue
		}
		fmt.Fprintf(&b, "%d. FAIL %s (%s): %s\n", i+1, up.SeriesType, up.FileName, o.Err)
	}
	b.WriteString("Re-upload the failed files from the admin page, then mark the run reconciled.")
	return b.String()
}
