package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/sitter/gotreesitter"
)

type parseJob struct {
	path string
	src  []byte
	lang *gotreesitter.Language
	tree *gotreesitter.Tree
}

func newParseCmd(o *options) *cobra.Command {
	var (
		stats bool
		check bool
		jobs  int
	)

	cmd := &cobra.Command{
		Use:   "parse [file...]",
		Short: "Parse files and print their syntax trees",
		Long: `Parse each file and print its syntax tree as an S-expression, followed by
any diagnostics as file:line:column lines. With no files, standard input is
parsed. Files are parsed concurrently and printed in argument order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			work := make([]*parseJob, len(args))
			for i, path := range args {
				src, err := readSource(cmd, path)
				if err != nil {
					return err
				}
				lang, err := o.language(path, src)
				if err != nil {
					return err
				}
				work[i] = &parseJob{path: path, src: src, lang: lang}
			}

			parserOpts := o.parserOptions(cmd)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(jobs, 1))
			for _, job := range work {
				g.Go(func() error {
					parser := gotreesitter.NewParser(job.lang, parserOpts...)
					tree, err := parser.ParseContext(ctx, job.src, nil)
					if err != nil {
						return fmt.Errorf("%s: %w", job.path, err)
					}
					job.tree = tree
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, job := range work {
				if len(work) > 1 {
					fmt.Fprintf(out, "==> %s <==\n", job.path)
				}
				fmt.Fprintln(out, job.tree.String())
				printDiagnostics(out, job.path, job.tree)
				if stats {
					printStats(out, job.tree.Stats())
				}
				if len(job.tree.Diagnostics()) > 0 {
					failed++
				}
			}
			if check && failed > 0 {
				return fmt.Errorf("%d of %d inputs have errors", failed, len(work))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "print parse statistics after each tree")
	cmd.Flags().BoolVar(&check, "check", false, "exit with an error if any input has diagnostics")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "number of files parsed at once")
	return cmd
}
