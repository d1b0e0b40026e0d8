package features

import domain "github.com/hanko-field/namedivider/internal/domain"

// maxLengthBucket is the piece length at which the length classes saturate.
const maxLengthBucket = 4

// orderMask marks the order classes a character at absolute index idx can structurally occupy in a
// name of fullLen characters. The first and last characters are never ambiguous and have no mask.
func orderMask(fullLen, idx int) ([domain.OrderClasses]int, bool) {
	if idx <= 0 || idx >= fullLen-1 {
		return [domain.OrderClasses]int{}, false
	}
	switch {
	case fullLen == 3:
		// The middle of three characters either ends the family or starts the given name.
		return [domain.OrderClasses]int{0, 0, 1, 1, 0, 0}, true
	case idx == 1:
		return [domain.OrderClasses]int{0, 1, 1, 1, 0, 0}, true
	case idx == fullLen-2:
		return [domain.OrderClasses]int{0, 0, 1, 1, 1, 0}, true
	default:
		return [domain.OrderClasses]int{0, 1, 1, 1, 1, 0}, true
	}
}

// lengthMask marks the family and given length buckets that can contain absolute index idx.
// Family occupies buckets 0-3 and given 4-7; both are clamped at maxLengthBucket.
func lengthMask(fullLen, idx int) [domain.LengthClasses]int {
	var mask [domain.LengthClasses]int

	minFamily, maxFamily := idx+1, fullLen-1
	if minFamily <= maxFamily {
		for i := clampBucket(minFamily) - 1; i < clampBucket(maxFamily); i++ {
			mask[i] = 1
		}
	}

	minGiven, maxGiven := fullLen-idx, fullLen-1
	if minGiven <= maxGiven {
		for i := clampBucket(minGiven) - 1; i < clampBucket(maxGiven); i++ {
			mask[maxLengthBucket+i] = 1
		}
	}
	return mask
}

func clampBucket(n int) int {
	if n > maxLengthBucket {
		return maxLengthBucket
	}
	return n
}

// orderStatus classifies the character at idxInPiece: start wins over end for single-character pieces.
func orderStatus(pieceLen, idxInPiece int, family bool) int {
	var status int
	switch idxInPiece {
	case 0:
		status = domain.OrderFamilyStart
	case pieceLen - 1:
		status = domain.OrderFamilyEnd
	default:
		status = domain.OrderFamilyMiddle
	}
	if !family {
		status += domain.OrderGivenStart
	}
	return status
}

func lengthStatus(pieceLen int, family bool) int {
	status := clampBucket(pieceLen) - 1
	if !family {
		status += maxLengthBucket
	}
	return status
}
