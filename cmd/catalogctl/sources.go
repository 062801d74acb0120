package main

import (
	"encoding/json"
	"fmt"

	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func (cli *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <source> <records.json|->",
		Short: "Import raw records into the local catalog",
		Long: `Replace the record set of a source in the local JSON catalog with the records
of a JSON file: either an array of records or an object with a "records" array.
Records without an id receive a generated one.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := stdinOr(cmd, args[1])
			if err != nil {
				return WrapError("import", err)
			}
			defer f.Close()

			var raw json.RawMessage
			if err := json.NewDecoder(f).Decode(&raw); err != nil {
				return &CLIError{Operation: "import", Cause: "invalid JSON", Details: err.Error(), Underlying: err}
			}
			records, err := decodeRecords(raw)
			if err != nil {
				return &CLIError{Operation: "import", Cause: "invalid records", Details: err.Error(), Underlying: err}
			}

			store, err := cli.localStore()
			if err != nil {
				return err
			}
			if err := store.Import(cmd.Context(), args[0], records); err != nil {
				return WrapError("import "+args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d record(s) into %s\n", len(records), args[0])
			return nil
		},
	}
}

func decodeRecords(raw json.RawMessage) ([]types.RawRecord, error) {
	var list []types.RawRecord
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Records []types.RawRecord `json:"records"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Records == nil {
		return nil, fmt.Errorf(`expected an array or an object with a "records" array`)
	}
	return wrapped.Records, nil
}

func (cli *CLI) sourcesCommand() *cobra.Command {
	var remove string
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the sources of the local catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cli.localStore()
			if err != nil {
				return err
			}
			if remove != "" {
				if err := store.Delete(cmd.Context(), remove); err != nil {
					return WrapError("delete "+remove, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", remove)
				return nil
			}

			list, err := store.Sources(cmd.Context())
			if err != nil {
				return WrapError("list sources", err)
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"source", "records", "version", "updated"})
			for _, s := range list {
				t.AppendRow(table.Row{s.ID, s.Records, s.Version, s.UpdatedAt.Format("2006-01-02 15:04:05")})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&remove, "delete", "", "delete this source instead of listing")
	return cmd
}
