// Package testsupport provides a miniature embedded asset set shared by tests across packages.
package testsupport

import (
	"context"
	"embed"
	"io/fs"
	"os"
	"testing"

	"github.com/hanko-field/namedivider/internal/platform/storage"
	"github.com/hanko-field/namedivider/internal/repositories/assets"
)

// Asset names inside the fixture bundle.
const (
	KanjiFile  = "kanji.json"
	FamilyFile = "family_names.txt"
)

//go:embed testdata/kanji.json testdata/family_names.txt
var bundle embed.FS

// FS returns the fixture bundle rooted at the asset directory.
func FS() fs.FS {
	sub, err := fs.Sub(bundle, "testdata")
	if err != nil {
		panic(err)
	}
	return sub
}

// Source returns a storage source serving the fixture bundle.
func Source() *storage.FSSource {
	return storage.NewFSSource(FS(), "testsupport")
}

// KanjiTable loads the fixture kanji statistics or fails the test.
func KanjiTable(tb testing.TB) *assets.KanjiTable {
	tb.Helper()
	table, err := assets.LoadKanjiStatistics(context.Background(), Source(), KanjiFile)
	if err != nil {
		tb.Fatalf("load fixture kanji statistics: %v", err)
	}
	return table
}

// FamilyRanking loads the fixture family-name ranking or fails the test.
func FamilyRanking(tb testing.TB) *assets.FamilyRanking {
	tb.Helper()
	ranking, err := assets.LoadFamilyNames(context.Background(), Source(), FamilyFile)
	if err != nil {
		tb.Fatalf("load fixture family names: %v", err)
	}
	return ranking
}

// CopyTo writes the fixture bundle into dir so directory-backed sources and watchers can use it.
func CopyTo(tb testing.TB, dir string) {
	tb.Helper()
	if err := os.CopyFS(dir, FS()); err != nil {
		tb.Fatalf("copy fixtures: %v", err)
	}
}
