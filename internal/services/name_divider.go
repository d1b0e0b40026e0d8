package services

import (
	"fmt"
	"math"
	"strings"

	domain "github.com/hanko-field/namedivider/internal/domain"
	"github.com/hanko-field/namedivider/internal/platform/textutil"
	"github.com/hanko-field/namedivider/internal/scoring"
)

const minNameLength = 2

// NameDividerDeps configures one division pipeline.
type NameDividerDeps struct {
	Calculator scoring.Calculator
	// Algorithm labels results that were scored rather than taken from the rule shortcut.
	Algorithm string
	Separator string
	// NormalizeName scores the glyph-normalized name and cuts the original at the same index.
	NormalizeName bool
	// Normalizer defaults to the built-in legacy glyph variants.
	Normalizer *NameNormalizer
}

// NameDivider splits undivided Japanese full names into family and given parts. It holds no mutable
// state and is safe for concurrent use when its calculator is.
type NameDivider struct {
	calculator scoring.Calculator
	algorithm  string
	separator  string
	normalize  bool
	normalizer *NameNormalizer
}

var _ Divider = (*NameDivider)(nil)

// NewNameDivider constructs a divider from deps.
func NewNameDivider(deps NameDividerDeps) (*NameDivider, error) {
	if deps.Calculator == nil {
		return nil, errDividerCalculatorRequired
	}
	algorithm := strings.TrimSpace(deps.Algorithm)
	if algorithm == "" {
		return nil, errDividerAlgorithmRequired
	}

	normalizer := deps.Normalizer
	if normalizer == nil && deps.NormalizeName {
		var err error
		normalizer, err = NewNameNormalizer(nil)
		if err != nil {
			return nil, err
		}
	}

	return &NameDivider{
		calculator: deps.Calculator,
		algorithm:  algorithm,
		separator:  deps.Separator,
		normalize:  deps.NormalizeName,
		normalizer: normalizer,
	}, nil
}

// Algorithm returns the label attached to scored results.
func (d *NameDivider) Algorithm() string {
	return d.algorithm
}

// Divide splits name. Names shorter than two code points fail with ErrInvalidInput.
func (d *NameDivider) Divide(name string) (domain.DividedName, error) {
	working := name
	if d.normalize {
		working = d.normalizer.Normalize(name)
	}

	chars := []rune(working)
	if len(chars) < minNameLength {
		return domain.DividedName{}, fmt.Errorf("%w: %q has %d characters, need at least %d", ErrInvalidInput, name, len(chars), minNameLength)
	}

	idx, ok := ruleSplitIndex(chars)
	score := 1.0
	algorithm := domain.AlgorithmRule
	if !ok {
		idx, score = d.scoreSplits(chars)
		algorithm = d.algorithm
	}

	// The normalizer preserves code-point count, so idx is valid on the original name.
	family, given := textutil.SplitAt(name, idx)
	return domain.DividedName{
		Family:    family,
		Given:     given,
		Separator: d.separator,
		Score:     score,
		Algorithm: algorithm,
	}, nil
}

// ruleSplitIndex returns the family length for names that need no scoring: two-character names,
// and names whose script switches between Han and non-Han after a confirmed two-character run.
func ruleSplitIndex(chars []rune) (int, bool) {
	if len(chars) == minNameLength {
		return 1, true
	}
	first := textutil.IsHan(chars[0])
	prev := first
	for i := 1; i < len(chars); i++ {
		cur := textutil.IsHan(chars[i])
		if i >= 2 && cur != first && cur == prev {
			return i - 1, true
		}
		prev = cur
	}
	return 0, false
}

// scoreSplits rates every split and returns the family length of the best one with its softmax
// confidence. The first maximum wins ties.
func (d *NameDivider) scoreSplits(chars []rune) (int, float64) {
	raw := make([]float64, len(chars)-1)
	for k := 1; k < len(chars); k++ {
		raw[k-1] = d.calculator.Score(string(chars[:k]), string(chars[k:]))
	}
	best, confidence := softmaxArgmax(raw)
	return best + 1, confidence
}

// softmaxArgmax returns the index of the largest exp(score) and its share of the total.
// Non-finite scores carry no weight. When the plain exponentials overflow or all underflow, the
// max-shifted form is used instead.
func softmaxArgmax(scores []float64) (int, float64) {
	exps := make([]float64, len(scores))
	best, sum := 0, 0.0
	for i, s := range scores {
		if !isFinite(s) {
			continue
		}
		exps[i] = math.Exp(s)
		if exps[i] > exps[best] {
			best = i
		}
		sum += exps[i]
	}
	if sum > 0 && !math.IsInf(sum, 0) {
		return best, exps[best] / sum
	}

	maxScore, found := math.Inf(-1), false
	for i, s := range scores {
		if isFinite(s) && s > maxScore {
			maxScore, best, found = s, i, true
		}
	}
	if !found {
		return 0, 1 / float64(len(scores))
	}
	sum = 0
	for _, s := range scores {
		if isFinite(s) {
			sum += math.Exp(s - maxScore)
		}
	}
	return best, 1 / sum
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
