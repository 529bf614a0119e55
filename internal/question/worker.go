package question

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CategoryRefresher periodically re-warms the category cache so form loads
// rarely wait on the upstream API.
type CategoryRefresher struct {
	catalog   *Catalog
	interval  time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
	shutdownC chan struct{}
	doneC     chan struct{}
}

func NewCategoryRefresher(catalog *Catalog, interval, timeout time.Duration, logger zerolog.Logger) *CategoryRefresher {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &CategoryRefresher{
		catalog:   catalog,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
		shutdownC: make(chan struct{}),
		doneC:     make(chan struct{}),
	}
}

// Run refreshes once immediately, then on every interval until Stop.
func (w *CategoryRefresher) Run() {
	defer close(w.doneC)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh()
	for {
		select {
		case <-w.shutdownC:
			w.logger.Info().Msg("category refresher stopping")
			return
		case <-ticker.C:
			w.refresh()
		}
	}
}

func (w *CategoryRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	cats, err := w.catalog.Refresh(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("category refresh failed")
		return
	}
	w.logger.Debug().Int("categories", len(cats)).Msg("categories refreshed")
}

// Stop ends Run and waits for it to return.
func (w *CategoryRefresher) Stop() {
	close(w.shutdownC)
	<-w.doneC
}
