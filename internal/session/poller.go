package session

import (
	"context"
	"log/slog"
	"time"

	"subgrab/internal/logging"
)

// DefaultPollInterval is how often the playing item is sampled.
const DefaultPollInterval = 500 * time.Millisecond

// Poller keeps the store's current item in step with an ItemSource. It is
// the only writer of the current item.
type Poller struct {
	store    *Store
	source   ItemSource
	interval time.Duration
	logger   *slog.Logger
	nudge    chan struct{}
	onChange func(itemID string)
}

// NewPoller builds a poller. A non-positive interval uses DefaultPollInterval.
func NewPoller(store *Store, source ItemSource, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		store:    store,
		source:   source,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "session"),
		nudge:    make(chan struct{}, 1),
	}
}

// OnChange registers fn to run after the current item changes. An empty
// itemID means playback ended. Call before Run.
func (p *Poller) OnChange(fn func(itemID string)) {
	p.onChange = fn
}

// Run samples immediately, then on every tick or nudge until ctx ends.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Sample(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Sample(ctx)
		case <-p.nudge:
			p.Sample(ctx)
		}
	}
}

// Nudge requests an early sample. It never blocks.
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

// Sample reads the source once and updates the store. Source errors count
// as "no item".
func (p *Poller) Sample(ctx context.Context) {
	previous, hadItem := p.store.CurrentItem()

	itemID, ok, err := p.source.CurrentItem(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Debug("item source failed", logging.Error(err))
		ok = false
	}

	if !ok {
		p.store.ClearCurrentItem()
		if hadItem {
			p.logger.Info("playback ended",
				logging.String(logging.FieldEventType, "item_cleared"),
				logging.String(logging.FieldItemID, previous),
			)
			p.notify("")
		}
		return
	}

	p.store.SetCurrentItem(itemID)
	if !hadItem || previous != itemID {
		p.logger.Info("playing item changed",
			logging.String(logging.FieldEventType, "item_changed"),
			logging.String(logging.FieldItemID, itemID),
		)
		p.notify(itemID)
	}
}

func (p *Poller) notify(itemID string) {
	if p.onChange != nil {
		p.onChange(itemID)
	}
}
