package gotreesitter

import (
	"errors"
	"fmt"
)

var (
	// ErrParseCancelled is returned with a partial tree when a parse stops
	// because its context ended or its cancellation flag was set.
	ErrParseCancelled = errors.New("gotreesitter: parse cancelled")
	// ErrIncompatibleLanguage is returned when a Language's table version is
	// outside what this runtime reads.
	ErrIncompatibleLanguage = errors.New("gotreesitter: incompatible language version")
	// ErrNoLanguage is returned when parsing without a language.
	ErrNoLanguage = errors.New("gotreesitter: no language")
	// ErrInvalidLanguage is returned by Language.Validate for tables that
	// are inconsistent with themselves.
	ErrInvalidLanguage = errors.New("gotreesitter: invalid language tables")
)

// ErrorKind classifies a parse diagnostic.
type ErrorKind uint8

const (
	// LexicalError: no lexer rule matched; the text became an error token.
	LexicalError ErrorKind = iota + 1
	// SyntacticError: no table action for the lookahead; recovery ran.
	SyntacticError
	// ScannerContractViolation: an external scanner reported a token
	// without consuming input. The offending stack version was dropped.
	ScannerContractViolation
	// ResourceExhausted: the stack version cap or the step budget forced
	// pruning or early finalization.
	ResourceExhausted
	// CancellationRequested: the parse was cancelled and the tree is partial.
	CancellationRequested
)

func (k ErrorKind) String() string {
	switch k {
	case LexicalError:
		return "LexicalError"
	case SyntacticError:
		return "SyntacticError"
	case ScannerContractViolation:
		return "ScannerContractViolation"
	case ResourceExhausted:
		return "ResourceExhausted"
	case CancellationRequested:
		return "CancellationRequested"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// Diagnostic records one problem found during a parse. Every diagnostic
// other than ResourceExhausted corresponds to an ERROR or MISSING node in
// the tree.
type Diagnostic struct {
	Kind    ErrorKind
	Range   Range
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %d:%d: %s", d.Kind, d.Range.StartPoint.Row, d.Range.StartPoint.Column, d.Message)
}

// ParseStats summarizes the work a parse did.
type ParseStats struct {
	Rounds         int // lockstep rounds over all stack versions
	Forks          int
	Merges         int
	MaxHeads       int // most stack versions alive at once
	PrunedHeads    int
	Recoveries     int
	ReusedSubtrees int
	ReusedBytes    uint32
}
