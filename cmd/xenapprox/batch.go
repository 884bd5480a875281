package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/james-see/xenapprox/pkg/tuning"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type batchResult struct {
	input  string
	output string
}

func runBatch(cmd *cobra.Command, args []string) error {
	if parallel <= 0 {
		return fmt.Errorf("--parallel must be positive, got %d", parallel)
	}

	// inputs sharing a base name would overwrite each other in one export dir
	seen := make(map[string]string, len(args))
	for _, input := range args {
		key := filepath.Join(exportDir(input), strings.TrimSuffix(filepath.Base(input), ".scl"))
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%s and %s would both export to %s", prev, input, filepath.Dir(key))
		}
		seen[key] = input
	}

	results := make([]batchResult, len(args))

	g := new(errgroup.Group)
	g.SetLimit(parallel)

	for i, input := range args {
		g.Go(func() error {
			s, err := newSession(input)
			if err != nil {
				return err
			}

			output := filepath.Join(exportDir(input), s.ExportName())
			if err := tuning.WriteFile(output, s.Export("")); err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			logger.Debug("batch item done", "input", input, "output", output)

			results[i] = batchResult{input: input, output: output}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", r.input, r.output)
	}
	return nil
}
