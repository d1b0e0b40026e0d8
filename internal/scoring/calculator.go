// Package scoring provides the interchangeable strategies that rate a candidate family/given split.
package scoring

import (
	"github.com/hanko-field/namedivider/internal/features"
	"github.com/hanko-field/namedivider/internal/platform/textutil"
	"github.com/hanko-field/namedivider/internal/repositories"
)

// Calculator rates how plausible it is that family|given is the correct split of family+given.
// Scores are relative; the divider turns them into a confidence across all candidates.
type Calculator interface {
	Score(family, given string) float64
}

// StatsOption customises a StatsCalculator.
type StatsOption func(*StatsCalculator)

// WithOrderOnlyForFourCharacters returns the order score alone for four-character names.
func WithOrderOnlyForFourCharacters(enabled bool) StatsOption {
	return func(c *StatsCalculator) {
		c.orderOnlyWhen4 = enabled
	}
}

// StatsCalculator blends the averaged order and length scores from kanji statistics.
type StatsCalculator struct {
	extractor      *features.SimpleExtractor
	orderOnlyWhen4 bool
}

var _ Calculator = (*StatsCalculator)(nil)

// NewStatsCalculator constructs a statistics-only calculator.
func NewStatsCalculator(kanji repositories.KanjiStatisticsRepository, opts ...StatsOption) *StatsCalculator {
	c := &StatsCalculator{extractor: features.NewSimpleExtractor(kanji)}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Score averages the order score over the fullLen-2 interior characters and the length score over
// all characters, then returns their mean.
func (c *StatsCalculator) Score(family, given string) float64 {
	f := c.extractor.Extract(family, given)
	fullLen := textutil.RuneLen(family) + textutil.RuneLen(given)

	order := (f.FamilyOrderScore + f.GivenOrderScore) / float64(fullLen-2)
	if c.orderOnlyWhen4 && fullLen == 4 {
		return order
	}
	length := (f.FamilyLengthScore + f.GivenLengthScore) / float64(fullLen)
	return (order + length) / 2
}

// TwoCharCalculator prefers the split whose family name is exactly two characters long.
type TwoCharCalculator struct{}

var _ Calculator = TwoCharCalculator{}

// Score returns 1 for a two-character family name and 0 otherwise.
func (TwoCharCalculator) Score(family, _ string) float64 {
	if textutil.RuneLen(family) == 2 {
		return 1
	}
	return 0
}
