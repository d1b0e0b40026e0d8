package domain

// AlgorithmRule labels results produced by the script-boundary and two-character shortcuts.
const AlgorithmRule = "rule"

// Division modes select the score calculator used when the rule shortcut does not apply.
const (
	ModeBasic   = "basic"
	ModeGBDT    = "gbdt"
	ModeTwoChar = "two_char"
)

// DividedName is the outcome of splitting an undivided full name into family and given parts.
type DividedName struct {
	Family    string
	Given     string
	Separator string
	Score     float64
	Algorithm string
}

// String joins the family and given parts with the separator.
func (d DividedName) String() string {
	return d.Family + d.Separator + d.Given
}

// KanjiStatistic holds the historical positional and length frequency counts for one character.
type KanjiStatistic struct {
	Kanji        string
	OrderCounts  [OrderClasses]int
	LengthCounts [LengthClasses]int
}

const (
	// OrderClasses is the number of start/middle/end positions across family and given pieces.
	OrderClasses = 6
	// LengthClasses is the number of piece-length buckets (1-4+) across family and given pieces.
	LengthClasses = 8
)

// Order classes in the layout used by OrderCounts.
const (
	OrderFamilyStart = iota
	OrderFamilyMiddle
	OrderFamilyEnd
	OrderGivenStart
	OrderGivenMiddle
	OrderGivenEnd
)
