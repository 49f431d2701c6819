package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/odvcencio/sitter/grammars"
)

func newLanguagesCmd() *cobra.Command {
	var reasons bool

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List registered grammars and whether they can parse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := make(map[string]grammars.LangEntry)
			for _, e := range grammars.AllLanguages() {
				entries[e.Name] = e
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tBACKEND\tSTATES\tSYMBOLS\tSCANNER\tEXTENSIONS\tDESCRIPTION")
			for _, r := range grammars.AuditParseSupport() {
				e := entries[r.Name]
				scanner := r.Scanner
				if scanner == "" {
					scanner = "-"
				}
				exts := strings.Join(e.Extensions, ",")
				if exts == "" {
					exts = "-"
				}
				desc := e.Description
				if reasons || r.Backend == grammars.ParseBackendUnsupported {
					desc = r.Reason
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
					r.Name, r.Backend, r.States, r.Symbols, scanner, exts, desc)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&reasons, "reasons", false, "show the support reason instead of the description")
	return cmd
}
