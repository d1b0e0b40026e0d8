package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/hanko-field/namedivider/internal/domain"
	"github.com/hanko-field/namedivider/internal/scoring"
	"github.com/hanko-field/namedivider/internal/testsupport"
)

const delta = 1e-12

// orderRegressor stands in for a trained model: it favours splits with high order scores.
type orderRegressor struct{}

func (orderRegressor) Predict(v []float64) float64 { return 2 * (v[4] + v[5]) }

func newBasicDivider(t *testing.T, normalize bool) *NameDivider {
	t.Helper()
	divider, err := NewNameDivider(NameDividerDeps{
		Calculator:    scoring.NewStatsCalculator(testsupport.KanjiTable(t)),
		Algorithm:     "kanji_feature",
		Separator:     " ",
		NormalizeName: normalize,
	})
	require.NoError(t, err)
	return divider
}

func newGBDTDivider(t *testing.T) *NameDivider {
	t.Helper()
	pool, err := scoring.NewModelPool([]byte("stub"), func([]byte) (scoring.Regressor, error) {
		return orderRegressor{}, nil
	})
	require.NoError(t, err)
	calc, err := scoring.NewGBDTCalculator(testsupport.KanjiTable(t), testsupport.FamilyRanking(t), pool)
	require.NoError(t, err)
	divider, err := NewNameDivider(NameDividerDeps{
		Calculator:    calc,
		Algorithm:     "gbdt",
		Separator:     " ",
		NormalizeName: true,
	})
	require.NoError(t, err)
	return divider
}

func newTwoCharDivider(t *testing.T) *NameDivider {
	t.Helper()
	divider, err := NewNameDivider(NameDividerDeps{
		Calculator:    scoring.TwoCharCalculator{},
		Algorithm:     "two_char",
		Separator:     " ",
		NormalizeName: true,
	})
	require.NoError(t, err)
	return divider
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return &Engine{
		Dividers: map[string]Divider{
			domain.ModeBasic:   newBasicDivider(t, true),
			domain.ModeGBDT:    newGBDTDivider(t),
			domain.ModeTwoChar: newTwoCharDivider(t),
		},
		ModelFingerprint: scoring.Fingerprint([]byte("stub")),
		LoadedAt:         time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC),
	}
}

// countingDivider records how many times it was invoked.
type countingDivider struct {
	next  Divider
	calls atomic.Int64
}

func (c *countingDivider) Divide(name string) (DividedName, error) {
	c.calls.Add(1)
	return c.next.Divide(name)
}
