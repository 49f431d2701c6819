package main

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/odvcencio/sitter/gotreesitter"
)

func newEditCmd(o *options) *cobra.Command {
	var stats bool

	cmd := &cobra.Command{
		Use:   "edit <file> <start> <end> <text>",
		Short: "Replace a byte range and reparse incrementally",
		Long: `Parse the file, replace bytes [start, end) with text, then reparse the
result reusing the first tree. Prints the new tree, the ranges whose syntax
changed and how much of the old tree was reused. The file is not modified.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			start, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			end, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("end: %w", err)
			}

			src, err := readSource(cmd, path)
			if err != nil {
				return err
			}
			lang, err := o.language(path, src)
			if err != nil {
				return err
			}
			newSrc, edit, err := replaceRange(src, start, end, args[3])
			if err != nil {
				return err
			}

			parser := gotreesitter.NewParser(lang, o.parserOptions(cmd)...)
			oldTree, err := parser.ParseContext(cmd.Context(), src, nil)
			if err != nil {
				return err
			}
			newTree, err := parser.ParseContext(cmd.Context(), newSrc, oldTree.Edit(edit))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, newTree.String())
			printDiagnostics(out, path, newTree)
			printChanges(out, gotreesitter.ChangedRanges(oldTree, newTree), newTree.Stats())
			if stats {
				printStats(out, newTree.Stats())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "print parse statistics of the reparse")
	return cmd
}

func printChanges(w io.Writer, changed []gotreesitter.Range, stats gotreesitter.ParseStats) {
	for _, r := range changed {
		fmt.Fprintf(w, "changed [%d, %d) %d:%d-%d:%d\n", r.StartByte, r.EndByte,
			r.StartPoint.Row+1, r.StartPoint.Column+1, r.EndPoint.Row+1, r.EndPoint.Column+1)
	}
	fmt.Fprintf(w, "reused %d subtrees (%d bytes)\n", stats.ReusedSubtrees, stats.ReusedBytes)
}

// replaceRange replaces src[start:end] with text and describes the change
// as an InputEdit.
func replaceRange(src []byte, start, end int, text string) ([]byte, gotreesitter.InputEdit, error) {
	if start < 0 || end < start || end > len(src) {
		return nil, gotreesitter.InputEdit{}, fmt.Errorf("range [%d, %d) out of bounds for %d bytes", start, end, len(src))
	}
	out := make([]byte, 0, len(src)-(end-start)+len(text))
	out = append(out, src[:start]...)
	out = append(out, text...)
	out = append(out, src[end:]...)
	return out, gotreesitter.InputEdit{
		StartByte:   uint32(start),
		OldEndByte:  uint32(end),
		NewEndByte:  uint32(start + len(text)),
		StartPoint:  pointAt(src, start),
		OldEndPoint: pointAt(src, end),
		NewEndPoint: pointAt(out, start+len(text)),
	}, nil
}

// diffEdit describes the change from before to after as one edit covering
// everything between their common prefix and common suffix. It reports false
// when the texts are equal.
func diffEdit(before, after []byte) (gotreesitter.InputEdit, bool) {
	n := min(len(before), len(after))
	prefix := 0
	for prefix < n && before[prefix] == after[prefix] {
		prefix++
	}
	if prefix == len(before) && prefix == len(after) {
		return gotreesitter.InputEdit{}, false
	}
	for prefix > 0 && prefix < len(before) && !utf8.RuneStart(before[prefix]) {
		prefix--
	}
	suffix := 0
	for suffix < n-prefix && before[len(before)-1-suffix] == after[len(after)-1-suffix] {
		suffix++
	}
	for suffix > 0 && !utf8.RuneStart(before[len(before)-suffix]) {
		suffix--
	}

	oldEnd, newEnd := len(before)-suffix, len(after)-suffix
	return gotreesitter.InputEdit{
		StartByte:   uint32(prefix),
		OldEndByte:  uint32(oldEnd),
		NewEndByte:  uint32(newEnd),
		StartPoint:  pointAt(before, prefix),
		OldEndPoint: pointAt(before, oldEnd),
		NewEndPoint: pointAt(after, newEnd),
	}, true
}

// pointAt returns the row and rune column of byte offset in src.
func pointAt(src []byte, offset int) gotreesitter.Point {
	var p gotreesitter.Point
	for i := 0; i < offset && i < len(src); {
		r, size := utf8.DecodeRune(src[i:])
		if r == '\n' {
			p.Row++
			p.Column = 0
		} else {
			p.Column++
		}
		i += size
	}
	return p
}
