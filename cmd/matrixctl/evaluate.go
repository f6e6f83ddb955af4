package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
)

type evaluateOptions struct {
	attributes string
	category   string
	confidence float64
	rationale  string
	logLevel   string
}

func newEvaluateCmd() *cobra.Command {
	var opts evaluateOptions

	cmd := &cobra.Command{
		Use:   "evaluate <file>",
		Short: "Apply a matrix to a baseline classification and print the evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.logLevel, _ = cmd.Flags().GetString("log-level")
			return runEvaluate(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.attributes, "attributes", "a", "", "JSON or YAML file of attribute values")
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "baseline category")
	cmd.Flags().Float64Var(&opts.confidence, "confidence", 0.5, "baseline confidence in [0, 1]")
	cmd.Flags().StringVar(&opts.rationale, "rationale", "", "baseline rationale")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func runEvaluate(out, errOut io.Writer, path string, opts evaluateOptions) error {
	m, err := loadMatrix(path)
	if err != nil {
		return err
	}
	if err := rules.Validate(m); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	category, err := taxonomy.ParseCategory(opts.category)
	if err != nil {
		return err
	}
	if opts.confidence < 0 || opts.confidence > 1 {
		return fmt.Errorf("confidence %v outside [0, 1]", opts.confidence)
	}

	values := rules.Values{}
	if opts.attributes != "" {
		data, err := os.ReadFile(opts.attributes)
		if err != nil {
			return fmt.Errorf("read attributes: %w", err)
		}
		raw, err := rules.DecodeValues(data)
		if err != nil {
			return err
		}

		var errs []error
		values, errs = rules.ValuesFromMap(m, raw)
		for _, e := range errs {
			fmt.Fprintf(errOut, "skipped: %v\n", e)
		}
	}

	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: parseLevel(opts.logLevel)}))
	evaluation := rules.NewEvaluator(logger).Evaluate(m, taxonomy.Classification{
		Category:   category,
		Confidence: opts.confidence,
		Rationale:  opts.rationale,
	}, values)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(evaluation)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelWarn
	}
	return level
}
