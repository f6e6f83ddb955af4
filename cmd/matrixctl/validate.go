package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/pathfinder/internal/rules"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a matrix definition for structural and semantic problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0])
		},
	}
}

func runValidate(out io.Writer, path string) error {
	m, err := loadMatrix(path)
	if err != nil {
		return err
	}

	if err := rules.Validate(m); err != nil {
		for _, issue := range rules.Issues(err) {
			fmt.Fprintf(out, "  - %s\n", issue)
		}
		return fmt.Errorf("%s: %w", path, rules.ErrInvalidMatrix)
	}

	fmt.Fprintf(out, "%s: ok (%d attributes, %d rules, %d active)\n",
		path, len(m.Attributes), len(m.Rules), len(m.ActiveRules()))
	return nil
}

func loadMatrix(path string) (*rules.Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read matrix: %w", err)
	}
	return rules.DecodeMatrix(data)
}
