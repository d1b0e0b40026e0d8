package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hanko-field/namedivider/internal/scoring"
	"github.com/hanko-field/namedivider/internal/testsupport"
)

const delta = 1e-12

func TestStatsCalculatorScore(t *testing.T) {
	calc := scoring.NewStatsCalculator(testsupport.KanjiTable(t))

	assert.InDelta(t, 0.8933438155136268, calc.Score("菅", "義偉"), delta)
	assert.InDelta(t, 0.10665618448637317, calc.Score("菅義", "偉"), delta)
	assert.InDelta(t, 0.8886936720910645, calc.Score("高橋", "太郎"), delta)
}

func TestStatsCalculatorOrderOnlyForFourCharacters(t *testing.T) {
	kanji := testsupport.KanjiTable(t)
	blended := scoring.NewStatsCalculator(kanji)
	orderOnly := scoring.NewStatsCalculator(kanji, scoring.WithOrderOnlyForFourCharacters(true))

	assert.InDelta(t, 0.930881786676935, orderOnly.Score("高橋", "太郎"), delta)
	assert.NotEqual(t, blended.Score("高橋", "太郎"), orderOnly.Score("高橋", "太郎"))

	// other lengths are unaffected
	assert.Equal(t, blended.Score("菅", "義偉"), orderOnly.Score("菅", "義偉"))
}

func TestStatsCalculatorUnknownCharacters(t *testing.T) {
	calc := scoring.NewStatsCalculator(testsupport.KanjiTable(t))
	assert.Equal(t, 0.0, calc.Score("ヤマ", "ダ"))
}

func TestTwoCharCalculator(t *testing.T) {
	var calc scoring.TwoCharCalculator
	assert.Equal(t, 1.0, calc.Score("高橋", "太郎"))
	assert.Equal(t, 1.0, calc.Score("𠮷田", "一"))
	assert.Equal(t, 0.0, calc.Score("菅", "義偉"))
	assert.Equal(t, 0.0, calc.Score("佐々木", "一"))
}
