package main

import (
	"fmt"
	"io"

	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Script is an event script: the events are dispatched in order
type Script struct {
	Events []types.EventSpec `yaml:"events"`
}

// parseScript reads a YAML event script. Either a document with an "events"
// list or a bare list of events is accepted.
func parseScript(r io.Reader) ([]types.EventSpec, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("script is empty")
	}

	var events []types.EventSpec
	if node.Content[0].Kind == yaml.SequenceNode {
		err = node.Content[0].Decode(&events)
	} else {
		var script Script
		err = node.Content[0].Decode(&script)
		events = script.Events
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	for i, e := range events {
		if _, ok := e.ToEvent(); !ok {
			return nil, fmt.Errorf("event %d: unknown type %q", i+1, e.Type)
		}
	}
	return events, nil
}

func (cli *CLI) applyCommand() *cobra.Command {
	var (
		submit  bool
		columns []string
	)
	cmd := &cobra.Command{
		Use:   "apply <source> <script.yaml|->",
		Short: "Apply a YAML event script to a source",
		Long: `Load a source into an editing session, dispatch the events of a script in
order, validate, and print the resulting view. With --submit the record set is
sent back to the catalog when it validates.

Script format:
  events:
    - type: field_edit
      key: item-002
      field: name
      value: Customer Full Name
    - type: enter_batch
      keys: [item-002, item-003]
    - type: batch_edit
      field: is_secret
      value: true
    - type: commit_batch`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			f, err := stdinOr(cmd, args[1])
			if err != nil {
				return WrapError("apply", err)
			}
			events, err := parseScript(f)
			_ = f.Close()
			if err != nil {
				return &CLIError{Operation: "apply", Cause: "invalid script", Details: err.Error(), Underlying: err}
			}

			c, err := cli.controller(cmd.Context(), source)
			if err != nil {
				return WrapError("apply to "+source, err)
			}
			for i, e := range events {
				if err := c.DispatchSpec(e); err != nil {
					return WrapError(fmt.Sprintf("apply event %d (%s)", i+1, e.Type), err)
				}
			}
			cli.logger.Info("applied script", zap.String("source", source), zap.Int("events", len(events)))

			summary := c.ValidateAll()
			if err := cli.render(cmd.OutOrStdout(), c.View(), columns); err != nil {
				return err
			}
			if !submit {
				return nil
			}
			if !summary.OK {
				return NewValidationError("submit", []string{source}, summary.ErrorCount)
			}

			ctx, cancel := cli.requestContext(cmd.Context())
			defer cancel()
			result, err := c.Submit(ctx)
			if err != nil {
				return WrapError("submit "+source, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted %d record(s) to %s (version %d)\n", len(result.IDs), source, result.Version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&submit, "submit", false, "submit the record set when it validates")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "fields to show")
	return cmd
}
