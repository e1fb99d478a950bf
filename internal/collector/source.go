package collector

import (
	"context"
	"time"

	"TempoRelay/internal/model"
)

// DaySource resolves the colors of today and tomorrow relative to now.
type DaySource interface {
	FetchDays(ctx context.Context, now time.Time) (model.DayPair, error)
	Name() string
}

// PrimarySource is the authoritative upstream: besides today and tomorrow it
// can look up any past day and the period statistics.
type PrimarySource interface {
	DaySource
	FetchDay(ctx context.Context, day time.Time) (model.Color, error)
	FetchStats(ctx context.Context) (model.Stats, error)
}
