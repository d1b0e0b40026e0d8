package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hanko-field/namedivider/internal/di"
	"github.com/hanko-field/namedivider/internal/platform/config"
	"github.com/hanko-field/namedivider/internal/platform/observability"
	"github.com/hanko-field/namedivider/internal/services"
)

// app holds the flag values shared by every subcommand.
type app struct {
	envFile   string
	assetsDir string
	mode      string
	jsonOut   bool
	verbose   bool

	// env seeds the configuration lookup ahead of the OS environment; flags override it.
	env           map[string]string
	configOptions []config.Option
}

type dividedLine struct {
	Family    string  `json:"family"`
	Given     string  `json:"given"`
	Separator string  `json:"separator"`
	Score     float64 `json:"score"`
	Algorithm string  `json:"algorithm"`
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "namedivider",
		Short:         "Divide Japanese full names into family and given names",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file with API_* overrides")
	flags.StringVar(&a.assetsDir, "assets-dir", "", "directory holding the kanji statistics, family names and model")
	flags.StringVarP(&a.mode, "mode", "m", "", "division mode (basic, gbdt, two_char); defaults to the configured mode")
	flags.BoolVar(&a.jsonOut, "json", false, "print one JSON object per name")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log engine loading to stderr")

	root.AddCommand(
		newNameCommand(a),
		newFileCommand(a),
		newAccuracyCommand(a),
	)
	return root
}

func newNameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "name <undivided-name>",
		Short: "Divide a single name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, divisions services.NameDivisionService) error {
				result, err := divisions.Divide(ctx, services.DivideCommand{Name: args[0], Mode: a.mode})
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), result)
			})
		},
	}
}

func newFileCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "file <path>",
		Short: "Divide every non-empty line of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := readLines(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), func(ctx context.Context, divisions services.NameDivisionService) error {
				results, err := divideAll(ctx, divisions, names, a.mode)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, result := range results {
					if err := a.print(out, result); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newAccuracyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accuracy <path>",
		Short: "Measure accuracy against lines of space-separated family and given names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readLines(args[0])
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return fmt.Errorf("accuracy: %s has no names", args[0])
			}
			undivided := make([]string, len(lines))
			for i, line := range lines {
				undivided[i] = strings.ReplaceAll(line, " ", "")
			}
			return a.run(cmd.Context(), func(ctx context.Context, divisions services.NameDivisionService) error {
				results, err := divideAll(ctx, divisions, undivided, a.mode)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				mismatches := 0
				for i, result := range results {
					family, given, _ := strings.Cut(lines[i], " ")
					if family == result.Family && given == result.Given {
						continue
					}
					mismatches++
					fmt.Fprintf(out, "%s, %s\n", lines[i], result.Family+" "+result.Given)
				}
				fmt.Fprintln(out, 1-float64(mismatches)/float64(len(results)))
				return nil
			})
		},
	}
}

// run loads the engine described by the flags and environment, then hands its division service to fn.
func (a *app) run(ctx context.Context, fn func(context.Context, services.NameDivisionService) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := zap.NewNop()
	if a.verbose {
		l, err := observability.NewLogger(observability.WithOutput("stderr"))
		if err != nil {
			return fmt.Errorf("initialise logger: %w", err)
		}
		defer func() {
			_ = l.Sync()
		}()
		logger = l.Named("cli")
	}

	env := make(map[string]string, len(a.env)+1)
	for key, value := range a.env {
		env[key] = value
	}
	if dir := strings.TrimSpace(a.assetsDir); dir != "" {
		env["API_ASSETS_DIR"] = dir
	}
	opts := append([]config.Option{config.WithEnvFile(a.envFile), config.WithEnvMap(env)}, a.configOptions...)

	cfg, err := config.Load(ctx, opts...)
	if err != nil {
		return err
	}
	// A one-shot command never reloads.
	cfg.Assets.Watch = false

	container, err := di.NewContainer(ctx, cfg, di.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		_ = container.Close(ctx)
	}()

	return fn(ctx, container.Services.Divisions)
}

func (a *app) print(out io.Writer, result services.DividedName) error {
	if !a.jsonOut {
		_, err := fmt.Fprintln(out, result.String())
		return err
	}
	return json.NewEncoder(out).Encode(dividedLine{
		Family:    result.Family,
		Given:     result.Given,
		Separator: result.Separator,
		Score:     result.Score,
		Algorithm: result.Algorithm,
	})
}

// divideAll divides names in chunks no larger than the service batch limit, preserving order.
func divideAll(ctx context.Context, divisions services.NameDivisionService, names []string, mode string) ([]services.DividedName, error) {
	chunk := divisions.MaxBatch()
	if chunk <= 0 {
		chunk = len(names)
	}
	results := make([]services.DividedName, 0, len(names))
	for start := 0; start < len(names); start += chunk {
		end := min(start+chunk, len(names))
		batch, err := divisions.DivideBatch(ctx, services.DivideBatchCommand{Names: names[start:end], Mode: mode})
		if err != nil {
			var batchErr *services.BatchError
			if errors.As(err, &batchErr) {
				return nil, fmt.Errorf("name %d (%q): %w", start+batchErr.Index+1, batchErr.Name, batchErr.Err)
			}
			return nil, err
		}
		results = append(results, batch.Results...)
	}
	return results, nil
}

// readLines returns the non-blank lines of path with surrounding whitespace trimmed.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
