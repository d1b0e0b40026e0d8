package features

import (
	domain "github.com/hanko-field/namedivider/internal/domain"
	"github.com/hanko-field/namedivider/internal/platform/textutil"
	"github.com/hanko-field/namedivider/internal/repositories"
)

// OrderScore sums, over the characters of piece, the share of each character's historical
// occurrences that fall in its current start/middle/end class among the classes reachable at its
// position. start is the absolute index of the piece's first character; a piece starting at 0 is
// the family name. Characters with no reachable history contribute nothing.
func OrderScore(kanji repositories.KanjiStatisticsRepository, piece string, fullLen, start int) float64 {
	family := start == 0
	pieceLen := textutil.RuneLen(piece)

	var score float64
	j := 0
	for _, r := range piece {
		idx := start + j
		inPiece := j
		j++

		mask, ok := orderMask(fullLen, idx)
		if !ok {
			continue
		}
		counts := kanji.Lookup(r).OrderCounts
		var masked [domain.OrderClasses]int
		sum := 0
		for i := range mask {
			masked[i] = counts[i] * mask[i]
			sum += masked[i]
		}
		if sum == 0 {
			continue
		}
		score += float64(masked[orderStatus(pieceLen, inPiece, family)]) / float64(sum)
	}
	return score
}

// LengthScore is the piece-length analogue of OrderScore. Unlike order, every position is scored.
func LengthScore(kanji repositories.KanjiStatisticsRepository, piece string, fullLen, start int) float64 {
	family := start == 0
	status := lengthStatus(textutil.RuneLen(piece), family)

	var score float64
	j := 0
	for _, r := range piece {
		mask := lengthMask(fullLen, start+j)
		j++

		counts := kanji.Lookup(r).LengthCounts
		var masked [domain.LengthClasses]int
		sum := 0
		for i := range mask {
			masked[i] = counts[i] * mask[i]
			sum += masked[i]
		}
		if sum == 0 {
			continue
		}
		score += float64(masked[status]) / float64(sum)
	}
	return score
}
