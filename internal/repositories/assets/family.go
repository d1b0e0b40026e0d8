package assets

import (
	"bufio"
	"context"
	"io"
	"math"
	"strings"

	"github.com/hanko-field/namedivider/internal/platform/storage"
	"github.com/hanko-field/namedivider/internal/repositories"
)

const maxFamilyLineBytes = 1 << 16

// FamilyRanking maps family names to their zero-based frequency rank.
type FamilyRanking struct {
	ranks map[string]float64
}

var _ repositories.FamilyNameRepository = (*FamilyRanking)(nil)

// LoadFamilyNames reads and parses the named ranked family-name list from src.
func LoadFamilyNames(ctx context.Context, src storage.Source, name string) (*FamilyRanking, error) {
	rc, err := openAsset(ctx, src, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseFamilyNames(name, rc)
}

// ParseFamilyNames builds a ranking from a newline-delimited list ordered by frequency.
// The rank of a name is its line index; blank lines keep their index but add no entry, and a name
// listed twice keeps the rank of its last occurrence.
func ParseFamilyNames(asset string, r io.Reader) (*FamilyRanking, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxFamilyLineBytes)

	ranks := make(map[string]float64)
	line := 0
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			ranks[name] = float64(line)
		}
		line++
	}
	if err := scanner.Err(); err != nil {
		return nil, repositories.Malformed(asset, "read line %d: %v", line+1, err)
	}
	if len(ranks) == 0 {
		return nil, repositories.Malformed(asset, "no family names")
	}
	return &FamilyRanking{ranks: ranks}, nil
}

// Rank returns the rank of family, or NaN when it is not listed.
func (f *FamilyRanking) Rank(family string) float64 {
	if f != nil {
		if rank, ok := f.ranks[family]; ok {
			return rank
		}
	}
	return math.NaN()
}

// Len reports the number of distinct ranked names.
func (f *FamilyRanking) Len() int {
	if f == nil {
		return 0
	}
	return len(f.ranks)
}
