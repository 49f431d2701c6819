package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/odvcencio/sitter/gotreesitter"
	"github.com/odvcencio/sitter/grammars"
)

// options are the flags shared by every command.
type options struct {
	verbose  bool
	lang     string
	tables   string
	maxHeads int

	tablesOnce sync.Once
	tablesLang *gotreesitter.Language
	tablesErr  error
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "tsparse",
		Short:        "Parse and incrementally reparse text with table-driven grammars",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "trace parser actions to stderr")
	flags.StringVarP(&opts.lang, "lang", "l", "", "grammar name (default: detect from the file name)")
	flags.StringVar(&opts.tables, "tables", "", "load the grammar from a YAML or CBOR table file")
	flags.IntVar(&opts.maxHeads, "max-heads", gotreesitter.DefaultMaxStackHeads, "maximum live GLR stack versions")

	root.AddCommand(newParseCmd(opts))
	root.AddCommand(newEditCmd(opts))
	root.AddCommand(newWatchCmd(opts))
	root.AddCommand(newTablesCmd())
	root.AddCommand(newLanguagesCmd())
	return root
}

func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (o *options) parserOptions(cmd *cobra.Command) []gotreesitter.ParserOption {
	opts := []gotreesitter.ParserOption{gotreesitter.WithMaxStackHeads(o.maxHeads)}
	if o.verbose {
		opts = append(opts, gotreesitter.WithLogger(o.logger(cmd)))
	}
	return opts
}

// language resolves the grammar for a file: the --tables file, then
// --lang, then the file name, then a shebang on the first line.
func (o *options) language(path string, src []byte) (*gotreesitter.Language, error) {
	if o.tables != "" {
		o.tablesOnce.Do(func() {
			o.tablesLang, o.tablesErr = loadTables(o.tables)
		})
		return o.tablesLang, o.tablesErr
	}
	if o.lang != "" {
		entry, err := grammars.Lookup(o.lang)
		if err != nil {
			return nil, err
		}
		return entry.Language(), nil
	}
	if entry := grammars.DetectLanguage(path); entry != nil {
		return entry.Language(), nil
	}
	firstLine, _, _ := bytes.Cut(src, []byte("\n"))
	if entry := grammars.DetectLanguageByShebang(string(firstLine)); entry != nil {
		return entry.Language(), nil
	}
	return nil, fmt.Errorf("%s: no grammar for this file; use --lang or --tables", path)
}

// loadTables reads a table file, choosing the format by extension.
func loadTables(path string) (*gotreesitter.Language, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbor":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		lang, err := grammars.DecodeLanguageCBOR(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return lang, nil
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		lang, err := grammars.LoadLanguageYAML(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return lang, nil
	default:
		return nil, fmt.Errorf("%s: unknown table format (want .yaml, .yml or .cbor)", path)
	}
}

// readSource reads a file, or standard input for "-".
func readSource(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func printDiagnostics(w io.Writer, path string, tree *gotreesitter.Tree) {
	for _, d := range tree.Diagnostics() {
		p := d.Range.StartPoint
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", path, p.Row+1, p.Column+1, d.Kind, d.Message)
	}
}

func printStats(w io.Writer, s gotreesitter.ParseStats) {
	fmt.Fprintf(w, "rounds=%d forks=%d merges=%d max_heads=%d pruned=%d recoveries=%d reused=%d reused_bytes=%d\n",
		s.Rounds, s.Forks, s.Merges, s.MaxHeads, s.PrunedHeads, s.Recoveries, s.ReusedSubtrees, s.ReusedBytes)
}
