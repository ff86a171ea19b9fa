// Package retention applies time- and count-based message retention on
// a fixed interval. Retention is deliberately not enforced on write: a
// channel may transiently exceed its configured maximum between
// sweeps. That trade-off keeps the write path free of scans.
package retention

import (
	"context"
	"log/slog"
	"time"

	"relaychat/domain"
	"relaychat/engine"
)

type Config struct {
	// Interval between sweeps. Defaults to one hour.
	Interval time.Duration
	// RetentionDays deletes messages older than this many days.
	// Zero disables the time-based pass.
	RetentionDays int
	// MaxMessagesPerChannel caps a channel's message count after the
	// time-based pass. Zero disables the count-based pass.
	MaxMessagesPerChannel int
}

type Sweeper struct {
	engine *engine.Engine
	log    *slog.Logger
	cfg    Config
	now    func() time.Time
}

func New(eng *engine.Engine, log *slog.Logger, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Sweeper{engine: eng, log: log, cfg: cfg, now: time.Now}
}

// Run sweeps on the configured interval until the context is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info("retention sweeper started",
		"interval", s.cfg.Interval,
		"retentionDays", s.cfg.RetentionDays,
		"maxMessagesPerChannel", s.cfg.MaxMessagesPerChannel)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce walks every channel and applies the time-based pass, then
// the count-based pass. Each removed message goes through the engine's
// deletion path, so thread replies cascade first and a deletion event
// is emitted per message. Per-message failures are logged and skipped;
// a message already deleted by a concurrent operation is a no-op.
func (s *Sweeper) SweepOnce() {
	channels, err := s.engine.ListChannels()
	if err != nil {
		s.log.Error("retention sweep aborted, channel listing failed", "err", err)
		return
	}
	for _, channel := range channels {
		s.sweepChannel(channel)
	}
}

func (s *Sweeper) sweepChannel(channel domain.Channel) {
	messages, err := s.engine.ListChannelMessages(channel.ID, 0, "")
	if err != nil {
		s.log.Error("retention sweep skipping channel", "channel", channel.ID, "err", err)
		return
	}

	if s.cfg.RetentionDays > 0 {
		cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
		remaining := messages[:0]
		for _, msg := range messages {
			if msg.CreatedAt.Before(cutoff) {
				s.purge(channel, msg)
				continue
			}
			remaining = append(remaining, msg)
		}
		messages = remaining
	}

	if s.cfg.MaxMessagesPerChannel > 0 && len(messages) > s.cfg.MaxMessagesPerChannel {
		excess := len(messages) - s.cfg.MaxMessagesPerChannel
		for _, msg := range messages[:excess] {
			s.purge(channel, msg)
		}
	}
}

func (s *Sweeper) purge(channel domain.Channel, msg domain.Message) {
	if err := s.engine.PurgeMessage(msg.ID); err != nil {
		s.log.Error("retention purge failed",
			"channel", channel.ID, "message", msg.ID, "err", err)
	}
}
