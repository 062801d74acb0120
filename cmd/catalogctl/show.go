package main

import (
	"github.com/spf13/cobra"
)

func (cli *CLI) showCommand() *cobra.Command {
	var (
		search  string
		columns []string
		invalid bool
	)
	cmd := &cobra.Command{
		Use:   "show <source>",
		Short: "Show the information items of a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cli.controller(cmd.Context(), args[0])
			if err != nil {
				return WrapError("show "+args[0], err)
			}
			if invalid {
				c.ValidateAll()
			}
			if err := c.SetSearchFilter(search); err != nil {
				return WrapError("show "+args[0], err)
			}

			view := c.View()
			if invalid {
				kept := view.Records[:0]
				for _, r := range view.Records {
					if len(r.Errors) > 0 {
						kept = append(kept, r)
					}
				}
				view.Records = kept
			}
			return cli.render(cmd.OutOrStdout(), view, columns)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only show items whose name contains this text")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "fields to show (table, markdown and plaintext formats)")
	cmd.Flags().BoolVar(&invalid, "invalid", false, "validate and only show items with errors")
	return cmd
}
