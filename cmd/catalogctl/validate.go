package main

import (
	"context"
	"fmt"

	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// sourceResult is the validation outcome of one source
type sourceResult struct {
	Source  string
	Records int
	Summary types.ValidationSummary
}

func (cli *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <source>...",
		Short: "Validate the information items of one or more sources",
		Long: `Load each source, run every field and cross-record rule, and report the
error count per source. Sources are processed in parallel (--concurrency).
Exits non-zero when any source has errors.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := cli.validateSources(cmd.Context(), args)
			if err != nil {
				return WrapError("validate", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"source", "records", "errors", "status"})

			var invalid []string
			total := 0
			for _, r := range results {
				status := "ok"
				if !r.Summary.OK {
					status = "invalid"
					invalid = append(invalid, r.Source)
					total += r.Summary.ErrorCount
				}
				t.AppendRow(table.Row{r.Source, r.Records, r.Summary.ErrorCount, status})
			}
			t.Render()

			if len(invalid) > 0 {
				return NewValidationError("validate", invalid, total)
			}
			return nil
		},
	}
}

// validateSources validates each source with its own controller, at most
// settings.Concurrency at a time. Results follow the order of sources.
func (cli *CLI) validateSources(ctx context.Context, sources []string) ([]sourceResult, error) {
	client, err := cli.client()
	if err != nil {
		return nil, err
	}
	results := make([]sourceResult, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cli.settings.Concurrency)
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			c, err := cli.load(ctx, client, source)
			if err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}
			summary := c.ValidateAll()
			results[i] = sourceResult{Source: source, Records: c.Len(), Summary: summary}
			cli.logger.Debug("validated source",
				zap.String("source", source),
				zap.Int("errors", summary.ErrorCount))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
