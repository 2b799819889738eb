package service

import (
	"context"
	"log/slog"

	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/sse"
	"github.com/templatedir/templatedir-server/internal/store"
)

// EventEmitter publishes change notifications. *sse.Manager implements it.
type EventEmitter interface {
	Emit(event sse.Event)
}

type noopEmitter struct{}

func (noopEmitter) Emit(sse.Event) {}

func emitterOrNoop(e EventEmitter) EventEmitter {
	if e == nil {
		return noopEmitter{}
	}
	return e
}

// rateListings annotates listings with their derived rating, loading every
// rating of the set in one query. The result is never nil.
func rateListings(ctx context.Context, st store.Store, listings []*domain.Listing) ([]domain.RatedListing, error) {
	rated := make([]domain.RatedListing, 0, len(listings))
	if len(listings) == 0 {
		return rated, nil
	}

	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}

	ratings, err := st.ListingRatings(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, l := range listings {
		rated = append(rated, domain.Rate(*l, ratings[l.ID]))
	}
	return rated, nil
}

func discardLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
