package scoring

import (
	"errors"
	"math"

	"github.com/hanko-field/namedivider/internal/features"
	"github.com/hanko-field/namedivider/internal/repositories"
)

// GBDTCalculator scores candidates with a gradient-boosted tree model over the ranking features.
type GBDTCalculator struct {
	extractor *features.RankingExtractor
	pool      *ModelPool
}

var _ Calculator = (*GBDTCalculator)(nil)

// NewGBDTCalculator constructs a model-backed calculator.
func NewGBDTCalculator(kanji repositories.KanjiStatisticsRepository, families repositories.FamilyNameRepository, pool *ModelPool) (*GBDTCalculator, error) {
	if pool == nil {
		return nil, errors.New("scoring: model pool is required")
	}
	return &GBDTCalculator{
		extractor: features.NewRankingExtractor(kanji, families),
		pool:      pool,
	}, nil
}

// Score returns the raw model prediction. It returns NaN if no model handle can be built, which
// the divider treats as a candidate with no weight.
func (c *GBDTCalculator) Score(family, given string) float64 {
	handle, err := c.pool.acquire()
	if err != nil {
		return math.NaN()
	}
	defer c.pool.release(handle)

	handle.buf = c.extractor.Extract(family, given).AppendTo(handle.buf[:0])
	return handle.model.Predict(handle.buf)
}

// Fingerprint identifies the model in use.
func (c *GBDTCalculator) Fingerprint() string {
	return c.pool.Fingerprint()
}
