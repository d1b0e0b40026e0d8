package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	domain "github.com/hanko-field/namedivider/internal/domain"
	"github.com/hanko-field/namedivider/internal/platform/storage"
	"github.com/hanko-field/namedivider/internal/repositories"
)

// DefaultKanji is returned for characters absent from the statistics table. Its zero counts make
// every masked sum zero, so unknown characters contribute nothing to order or length scores.
var DefaultKanji = domain.KanjiStatistic{Kanji: "default"}

type kanjiStatisticsDocument struct {
	Statistics []kanjiStatisticRecord `json:"kanji_statistics_vec"`
}

type kanjiStatisticRecord struct {
	Kanji        string `json:"kanji"`
	OrderCounts  []int  `json:"order_counts"`
	LengthCounts []int  `json:"length_counts"`
}

// KanjiTable is an immutable in-memory kanji statistics repository.
type KanjiTable struct {
	entries map[rune]domain.KanjiStatistic
}

var _ repositories.KanjiStatisticsRepository = (*KanjiTable)(nil)

// LoadKanjiStatistics reads and parses the named statistics table from src.
func LoadKanjiStatistics(ctx context.Context, src storage.Source, name string) (*KanjiTable, error) {
	rc, err := openAsset(ctx, src, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseKanjiStatistics(name, rc)
}

// ParseKanjiStatistics decodes a `{"kanji_statistics_vec": [...]}` document. Every record must name a
// single character and carry 6 order counts and 8 length counts, all non-negative.
func ParseKanjiStatistics(asset string, r io.Reader) (*KanjiTable, error) {
	var doc kanjiStatisticsDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, repositories.Malformed(asset, "decode json: %v", err)
	}
	if len(doc.Statistics) == 0 {
		return nil, repositories.Malformed(asset, "kanji_statistics_vec is empty")
	}

	entries := make(map[rune]domain.KanjiStatistic, len(doc.Statistics))
	for i, record := range doc.Statistics {
		if utf8.RuneCountInString(record.Kanji) != 1 {
			return nil, repositories.Malformed(asset, "entry %d: kanji %q must be a single character", i, record.Kanji)
		}
		if len(record.OrderCounts) != domain.OrderClasses {
			return nil, repositories.Malformed(asset, "entry %d (%s): expected %d order counts, got %d", i, record.Kanji, domain.OrderClasses, len(record.OrderCounts))
		}
		if len(record.LengthCounts) != domain.LengthClasses {
			return nil, repositories.Malformed(asset, "entry %d (%s): expected %d length counts, got %d", i, record.Kanji, domain.LengthClasses, len(record.LengthCounts))
		}

		stat := domain.KanjiStatistic{Kanji: record.Kanji}
		for j, count := range record.OrderCounts {
			if count < 0 {
				return nil, repositories.Malformed(asset, "entry %d (%s): negative order count at %d", i, record.Kanji, j)
			}
			stat.OrderCounts[j] = count
		}
		for j, count := range record.LengthCounts {
			if count < 0 {
				return nil, repositories.Malformed(asset, "entry %d (%s): negative length count at %d", i, record.Kanji, j)
			}
			stat.LengthCounts[j] = count
		}

		r, _ := utf8.DecodeRuneInString(record.Kanji)
		entries[r] = stat
	}
	return &KanjiTable{entries: entries}, nil
}

// Lookup returns the statistic for kanji or DefaultKanji.
func (t *KanjiTable) Lookup(kanji rune) domain.KanjiStatistic {
	if t != nil {
		if stat, ok := t.entries[kanji]; ok {
			return stat
		}
	}
	return DefaultKanji
}

// Len reports the number of characters in the table.
func (t *KanjiTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func openAsset(ctx context.Context, src storage.Source, name string) (io.ReadCloser, error) {
	if src == nil {
		return nil, repositories.NewAssetError(name, fmt.Errorf("%w: no source configured", repositories.ErrAssetMissing))
	}
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, repositories.NewAssetError(name, fmt.Errorf("%w: %w", repositories.ErrAssetMissing, err))
	}
	return rc, nil
}
