package gotreesitter

import (
	"log/slog"
	"sync/atomic"
)

const (
	// DefaultMaxStackHeads bounds how many stack versions a parse keeps alive.
	DefaultMaxStackHeads = 6
	// DefaultRecoveryLookahead is how many clean shifts a version needs after
	// a recovery before it is no longer considered in error.
	DefaultRecoveryLookahead = 3
	// DefaultRecoveryBudget bounds the number of recoveries per parse.
	DefaultRecoveryBudget = 4096
	// MaxCostDifference is how much costlier a version may be than a better
	// one, scaled by the better one's progress, before it is dropped.
	MaxCostDifference = 16 * errorCostPerSkippedTree
	// maxPopBackDepth bounds how far recovery pops to find a state that
	// accepts the failing token.
	maxPopBackDepth = 16
	// stepsPerByte scales the step budget with input length.
	stepsPerByte = 64
)

// ParserOption configures a Parser.
type ParserOption func(*parserConfig)

type parserConfig struct {
	maxStackHeads     int
	recoveryLookahead int
	recoveryBudget    int
	logger            *slog.Logger
	cancel            *atomic.Bool
}

func defaultParserConfig() parserConfig {
	return parserConfig{
		maxStackHeads:     DefaultMaxStackHeads,
		recoveryLookahead: DefaultRecoveryLookahead,
		recoveryBudget:    DefaultRecoveryBudget,
	}
}

// WithMaxStackHeads caps the number of live stack versions. Values below 1
// are treated as 1.
func WithMaxStackHeads(n int) ParserOption {
	return func(c *parserConfig) {
		if n < 1 {
			n = 1
		}
		c.maxStackHeads = n
	}
}

// WithRecoveryLookahead sets how many tokens must shift cleanly after a
// recovery before the version counts as recovered.
func WithRecoveryLookahead(n int) ParserOption {
	return func(c *parserConfig) {
		if n < 0 {
			n = 0
		}
		c.recoveryLookahead = n
	}
}

// WithRecoveryBudget bounds the number of error recoveries in one parse.
// Once spent, the best version is finalized and the rest of the input is
// wrapped in an ERROR node.
func WithRecoveryBudget(n int) ParserOption {
	return func(c *parserConfig) {
		if n < 0 {
			n = 0
		}
		c.recoveryBudget = n
	}
}

// WithLogger enables debug tracing of parser actions.
func WithLogger(l *slog.Logger) ParserOption {
	return func(c *parserConfig) {
		c.logger = l
	}
}

// WithCancellationFlag makes the parser stop between rounds once flag is
// set. The flag may be set from another goroutine.
func WithCancellationFlag(flag *atomic.Bool) ParserOption {
	return func(c *parserConfig) {
		c.cancel = flag
	}
}
