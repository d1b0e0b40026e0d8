package repositories

import (
	"context"

	domain "github.com/hanko-field/namedivider/internal/domain"
)

// KanjiStatisticsRepository exposes per-character positional and length frequency counts.
// Implementations are immutable after construction and safe for concurrent reads.
type KanjiStatisticsRepository interface {
	// Lookup returns the statistic for kanji, or the shared zero-count entry when it is unknown.
	Lookup(kanji rune) domain.KanjiStatistic
}

// FamilyNameRepository exposes the frequency rank of known family names.
type FamilyNameRepository interface {
	// Rank returns the zero-based frequency rank of family, or NaN when the name is not ranked.
	Rank(family string) float64
}

// HealthRepository runs readiness probes and aggregates their status.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
