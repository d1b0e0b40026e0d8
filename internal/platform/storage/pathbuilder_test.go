package storage

import (
	"errors"
	"testing"
)

func TestObjectPath(t *testing.T) {
	cases := []struct {
		name    string
		prefix  string
		version string
		file    string
		want    string
	}{
		{name: "versioned", prefix: "namedivider", version: "v1", file: "kanji.json", want: "namedivider/v1/kanji.json"},
		{name: "nested prefix without version", prefix: "/models/namedivider/", file: "gbdt_model_v1.txt", want: "models/namedivider/gbdt_model_v1.txt"},
		{name: "bare file", file: " family_names.txt ", want: "family_names.txt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ObjectPath(tc.prefix, tc.version, tc.file)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestObjectPathRejectsUnsafeSegments(t *testing.T) {
	cases := []struct {
		name    string
		prefix  string
		version string
		file    string
	}{
		{name: "traversal version", prefix: "namedivider", version: "..", file: "kanji.json"},
		{name: "traversal file", file: "../kanji.json"},
		{name: "empty file", prefix: "namedivider"},
		{name: "empty prefix segment", prefix: "a//b", file: "kanji.json"},
		{name: "backslash", file: `models\kanji.json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ObjectPath(tc.prefix, tc.version, tc.file); !errors.Is(err, ErrInvalidObjectPath) {
				t.Fatalf("expected ErrInvalidObjectPath, got %v", err)
			}
		})
	}
}
