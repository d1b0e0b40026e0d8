// Package features turns candidate family/given splits into numeric features for the scorers.
package features

import (
	"github.com/hanko-field/namedivider/internal/platform/textutil"
	"github.com/hanko-field/namedivider/internal/repositories"
)

// RankingFeatureCount is the width of the vector produced by Ranking.AppendTo.
const RankingFeatureCount = 9

// givenStartMarkers are characters that frequently open a given name that was wrongly cut from a
// longer family name (e.g. 山|田太郎).
var givenStartMarkers = []rune{'田', '谷', '川', '島', '原', '村', '塚', '森', '井', '子'}

// Simple holds the statistics-only features of one candidate split.
type Simple struct {
	FamilyOrderScore  float64
	FamilyLengthScore float64
	GivenOrderScore   float64
	GivenLengthScore  float64
}

// Ranking holds the model features of one candidate split.
type Ranking struct {
	FamilyRank          float64
	FullNameLength      float64
	FamilyLength        float64
	GivenLength         float64
	FamilyOrderScore    float64
	GivenOrderScore     float64
	FamilyLengthScore   float64
	GivenLengthScore    float64
	GivenStartsWithMark float64
}

// AppendTo appends the features to dst in model column order.
func (r Ranking) AppendTo(dst []float64) []float64 {
	return append(dst,
		r.FamilyRank,
		r.FullNameLength,
		r.FamilyLength,
		r.GivenLength,
		r.FamilyOrderScore,
		r.GivenOrderScore,
		r.FamilyLengthScore,
		r.GivenLengthScore,
		r.GivenStartsWithMark,
	)
}

// SimpleExtractor computes Simple features from kanji statistics.
type SimpleExtractor struct {
	kanji repositories.KanjiStatisticsRepository
}

// NewSimpleExtractor constructs a SimpleExtractor.
func NewSimpleExtractor(kanji repositories.KanjiStatisticsRepository) *SimpleExtractor {
	return &SimpleExtractor{kanji: kanji}
}

// Extract computes the features of the split family|given.
func (e *SimpleExtractor) Extract(family, given string) Simple {
	familyLen := textutil.RuneLen(family)
	fullLen := familyLen + textutil.RuneLen(given)
	return Simple{
		FamilyOrderScore:  OrderScore(e.kanji, family, fullLen, 0),
		FamilyLengthScore: LengthScore(e.kanji, family, fullLen, 0),
		GivenOrderScore:   OrderScore(e.kanji, given, fullLen, familyLen),
		GivenLengthScore:  LengthScore(e.kanji, given, fullLen, familyLen),
	}
}

// RankingExtractor computes Ranking features from kanji statistics and family-name ranks.
type RankingExtractor struct {
	simple   *SimpleExtractor
	families repositories.FamilyNameRepository
}

// NewRankingExtractor constructs a RankingExtractor.
func NewRankingExtractor(kanji repositories.KanjiStatisticsRepository, families repositories.FamilyNameRepository) *RankingExtractor {
	return &RankingExtractor{simple: NewSimpleExtractor(kanji), families: families}
}

// Extract computes the features of the split family|given. An unranked family yields a NaN rank.
func (e *RankingExtractor) Extract(family, given string) Ranking {
	familyLen := textutil.RuneLen(family)
	givenLen := textutil.RuneLen(given)
	simple := e.simple.Extract(family, given)

	marker := 0.0
	for _, r := range givenStartMarkers {
		if textutil.HasPrefixRune(given, r) {
			marker = 1
			break
		}
	}

	return Ranking{
		FamilyRank:          e.families.Rank(family),
		FullNameLength:      float64(familyLen + givenLen),
		FamilyLength:        float64(familyLen),
		GivenLength:         float64(givenLen),
		FamilyOrderScore:    simple.FamilyOrderScore,
		GivenOrderScore:     simple.GivenOrderScore,
		FamilyLengthScore:   simple.FamilyLengthScore,
		GivenLengthScore:    simple.GivenLengthScore,
		GivenStartsWithMark: marker,
	}
}
