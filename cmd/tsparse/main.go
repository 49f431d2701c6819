// Command tsparse parses text with the registered table-driven grammars.
//
// It prints syntax trees, applies edits and reparses incrementally, converts
// table files between YAML and CBOR, audits the registered grammars and
// watches files, reparsing them as they change.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
