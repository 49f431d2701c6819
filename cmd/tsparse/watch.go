package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/odvcencio/sitter/gotreesitter"
)

// document is a file's current text and the tree parsed from it.
type document struct {
	path   string
	parser *gotreesitter.Parser
	src    []byte
	tree   *gotreesitter.Tree
}

// update reparses the document after its text changed to src, reusing the
// previous tree. It returns nil changes and false when src is unchanged.
func (d *document) update(ctx context.Context, src []byte) ([]gotreesitter.Range, bool, error) {
	edit, changed := diffEdit(d.src, src)
	if !changed {
		return nil, false, nil
	}
	tree, err := d.parser.ParseContext(ctx, src, d.tree.Edit(edit))
	if err != nil {
		return nil, false, err
	}
	ranges := gotreesitter.ChangedRanges(d.tree, tree)
	d.src, d.tree = src, tree
	return ranges, true, nil
}

func newWatchCmd(o *options) *cobra.Command {
	var printTree bool

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Reparse a file incrementally every time it changes",
		Long: `Parse the file, then watch it. Every time the file is written it is
reparsed reusing the previous tree, and the ranges whose syntax changed are
printed with any diagnostics. Stops on interrupt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Clean(args[0])
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			lang, err := o.language(path, src)
			if err != nil {
				return err
			}
			parser := gotreesitter.NewParser(lang, o.parserOptions(cmd)...)
			tree, err := parser.ParseContext(cmd.Context(), src, nil)
			if err != nil {
				return err
			}
			doc := &document{path: path, parser: parser, src: src, tree: tree}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tree.String())
			printDiagnostics(out, path, tree)

			w, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer w.Close()
			// Watch the directory so a file replaced by rename is still seen.
			if err := w.Add(filepath.Dir(path)); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return watchLoop(cmd.Context(), w, doc, out, o.logger(cmd), printTree)
		},
	}

	cmd.Flags().BoolVar(&printTree, "tree", false, "print the whole tree after every change")
	return cmd
}

// watchLoop reparses doc for every write to its file until ctx ends or the
// watcher closes.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, doc *document, out io.Writer, log *slog.Logger, printTree bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != doc.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			src, err := os.ReadFile(doc.path)
			if err != nil {
				log.Warn("read failed", "path", doc.path, "err", err)
				continue
			}
			ranges, changed, err := doc.update(ctx, src)
			if errors.Is(err, gotreesitter.ErrParseCancelled) {
				return nil
			}
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			log.Debug("reparsed", "path", doc.path, "bytes", len(src), "changed_ranges", len(ranges))
			if printTree {
				fmt.Fprintln(out, doc.tree.String())
			}
			printChanges(out, ranges, doc.tree.Stats())
			printDiagnostics(out, doc.path, doc.tree)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "err", err)
		}
	}
}
