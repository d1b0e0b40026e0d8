package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanko-field/namedivider/internal/platform/config"
	"github.com/hanko-field/namedivider/internal/services"
	"github.com/hanko-field/namedivider/internal/testsupport"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	testsupport.CopyTo(t, dir)

	a := &app{
		env: map[string]string{
			"API_DIVIDER_GBDT_ENABLED": "false",
		},
		configOptions: []config.Option{config.WithoutSystemEnv()},
	}
	cmd := newRootCommand(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", "", "--assets-dir", dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func TestNameCommand(t *testing.T) {
	out, err := execute(t, "name", "菅義偉")
	require.NoError(t, err)
	assert.Equal(t, "菅 義偉\n", out)

	out, err = execute(t, "name", "--mode", "two_char", "菅義偉")
	require.NoError(t, err)
	assert.Equal(t, "菅義 偉\n", out)
}

func TestNameCommandJSON(t *testing.T) {
	out, err := execute(t, "name", "--json", "菅義偉")
	require.NoError(t, err)

	var got dividedLine
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "菅", got.Family)
	assert.Equal(t, "義偉", got.Given)
	assert.Equal(t, " ", got.Separator)
	assert.Equal(t, "kanji_feature", got.Algorithm)
	assert.InDelta(t, 0.6871196586055194, got.Score, 1e-9)
}

func TestNameCommandErrors(t *testing.T) {
	_, err := execute(t, "name", "菅")
	require.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = execute(t, "name", "--mode", "gbdt", "菅義偉")
	require.ErrorIs(t, err, services.ErrUnknownMode)

	_, err = execute(t, "name")
	require.Error(t, err)
}

func TestFileCommand(t *testing.T) {
	path := writeLines(t, "菅義偉", "", "高橋太郎", "原敬")

	out, err := execute(t, "file", path)
	require.NoError(t, err)
	assert.Equal(t, "菅 義偉\n高橋 太郎\n原 敬\n", out)
}

func TestFileCommandReportsFailingName(t *testing.T) {
	path := writeLines(t, "菅義偉", "菅")

	_, err := execute(t, "file", path)
	require.ErrorIs(t, err, services.ErrInvalidInput)
	assert.Contains(t, err.Error(), "name 2")
}

func TestFileCommandMissingFile(t *testing.T) {
	_, err := execute(t, "file", filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestAccuracyCommand(t *testing.T) {
	path := writeLines(t, "菅 義偉", "高橋 太郎", "菅義 偉")

	out, err := execute(t, "accuracy", path)
	require.NoError(t, err)
	assert.Equal(t, "菅義 偉, 菅 義偉\n0.6666666666666667\n", out)
}

func TestAccuracyCommandEmptyFile(t *testing.T) {
	path := writeLines(t, "")

	_, err := execute(t, "accuracy", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no names")
}

func TestDivideAllChunksByBatchLimit(t *testing.T) {
	svc := &chunkRecorder{limit: 2}
	results, err := divideAll(context.Background(), svc, []string{"a", "b", "c", "d", "e"}, "basic")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, svc.sizes)
	require.Len(t, results, 5)
	assert.Equal(t, "e", results[4].Family)
}

func TestDivideAllOffsetsBatchErrorIndex(t *testing.T) {
	svc := &chunkRecorder{limit: 2, failAt: 3}
	_, err := divideAll(context.Background(), svc, []string{"a", "b", "c", "d"}, "basic")
	require.ErrorIs(t, err, services.ErrInvalidInput)
	assert.Contains(t, err.Error(), `name 4 ("d")`)
}

type chunkRecorder struct {
	limit  int
	failAt int
	seen   int
	sizes  []int
}

func (c *chunkRecorder) Divide(context.Context, services.DivideCommand) (services.DividedName, error) {
	return services.DividedName{}, nil
}

func (c *chunkRecorder) DivideBatch(_ context.Context, cmd services.DivideBatchCommand) (services.DivideBatchResult, error) {
	c.sizes = append(c.sizes, len(cmd.Names))
	results := make([]services.DividedName, len(cmd.Names))
	for i, name := range cmd.Names {
		c.seen++
		if c.failAt > 0 && c.seen == c.failAt+1 {
			return services.DivideBatchResult{}, &services.BatchError{Index: i, Name: name, Err: services.ErrInvalidInput}
		}
		results[i] = services.DividedName{Family: name}
	}
	return services.DivideBatchResult{Mode: cmd.Mode, Results: results}, nil
}

func (c *chunkRecorder) Modes() []string    { return []string{"basic"} }
func (c *chunkRecorder) DefaultMode() string { return "basic" }
func (c *chunkRecorder) MaxBatch() int       { return c.limit }
