package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/sitter/gotreesitter"
	"github.com/odvcencio/sitter/grammars"
)

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Validate and convert parse table files",
	}
	cmd.AddCommand(newTablesValidateCmd())
	cmd.AddCommand(newTablesConvertCmd())
	cmd.AddCommand(newTablesDumpCmd())
	return cmd
}

func newTablesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check table files against the schema and for consistency",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bad := 0
			for _, path := range args {
				lang, err := loadTables(path)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %v\n", err)
					bad++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s: %s, %d states, %d symbols\n",
					path, lang.Name, lang.StateCount, lang.SymbolCount)
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d table files are invalid", bad, len(args))
			}
			return nil
		},
	}
}

func newTablesConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a table file between YAML and CBOR",
		Long: `Convert a table file. Formats are chosen by extension: .yaml or .yml
for YAML, .cbor for canonical CBOR. The input is validated before writing.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := loadTables(args[0])
			if err != nil {
				return err
			}
			data, err := encodeTables(lang, args[1])
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], data, 0o644)
		},
	}
}

func newTablesDumpCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump <language>",
		Short: "Write a registered grammar's tables to standard output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := grammars.Lookup(args[0])
			if err != nil {
				return err
			}
			data, err := encodeTables(entry.Language(), "out."+format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml, cbor)")
	return cmd
}

// encodeTables encodes lang in the format named by path's extension.
func encodeTables(lang *gotreesitter.Language, path string) ([]byte, error) {
	scanner := grammars.ScannerName(lang)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbor":
		return grammars.EncodeLanguageCBOR(lang, scanner)
	case ".yaml", ".yml":
		var buf bytes.Buffer
		if err := grammars.EncodeLanguageYAML(&buf, lang, scanner); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%s: unknown table format (want .yaml, .yml or .cbor)", path)
	}
}
