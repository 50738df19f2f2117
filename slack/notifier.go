// Package slack posts ranking summaries to a channel when a run completes.
package slack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"github.com/delatour/stratgen/models"
)

var ErrNoChannel = errors.New("slack: channel not configured")

// Notifier wraps a Slack client bound to one channel.
type Notifier struct {
	api     *slack.Client
	channel string
}

// NewNotifier builds a notifier from a bot token and a channel ID.
func NewNotifier(token, channel string) *Notifier {
	return &Notifier{api: slack.New(token), channel: channel}
}

// PostRanking sends the top of a ranking as one formatted message.
func (n *Notifier) PostRanking(underlying string, records []*models.StrategyRecord, topN int) error {
	if n.channel == "" {
		return ErrNoChannel
	}
	if topN <= 0 || topN > len(records) {
		topN = len(records)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*: top %d of %d strategies\n", underlying, topN, len(records))
	for _, r := range records[:topN] {
		fmt.Fprintf(&b, "%d. `%s` score %.4f | premium %.2f | avg pnl %.2f | max loss %.2f\n",
			r.Rank, r.Name, r.Score, r.Premium, r.AveragePnL, r.MaxLoss)
	}

	_, ts, err := n.api.PostMessage(n.channel, slack.MsgOptionText(b.String(), false))
	if err != nil {
		return fmt.Errorf("slack: post: %w", err)
	}
	log.Debug().Str("channel", n.channel).Str("ts", ts).Msg("ranking posted")
	return nil
}
