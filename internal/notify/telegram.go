// Package notify sends best-effort run summaries to the operator.
package notify

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	"topicherd/internal/journal"
	logx "topicherd/pkg/logx"
)

type Config struct {
	Token  string
	ChatID int64
}

// Notifier posts a one-line summary per completed run to a Telegram chat.
// A nil *Notifier is valid and does nothing, so callers don't have to branch
// on whether notifications are configured.
type Notifier struct {
	bot    *tele.Bot
	chatID int64
	log    logx.Logger
}

// New returns (nil, nil) when no token is configured.
func New(cfg Config, log logx.Logger) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &Notifier{bot: b, chatID: cfg.ChatID, log: log}, nil
}

// RunCompleted sends the summary. Failures are logged and swallowed: a posting
// run never fails because the notification channel is down.
func (n *Notifier) RunCompleted(ctx context.Context, sum journal.RunSummary) {
	if n == nil || n.bot == nil {
		return
	}
	_ = ctx

	took := sum.FinishedAt.Sub(sum.StartedAt).Round(time.Second)
	text := fmt.Sprintf("topicherd run %s finished: %d ok, %d failed, %d skipped (%s, source %s)",
		sum.RunID, sum.Succeeded, sum.Failed, sum.Skipped, took, sum.Source)

	if _, err := n.bot.Send(&tele.Chat{ID: n.chatID}, text); err != nil {
		n.log.Warn("run summary notification failed", logx.Err(err), logx.String("run_id", sum.RunID))
	}
}
