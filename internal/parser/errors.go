package parser

import "fmt"

// UnsupportedFormatError reports that no parser is registered for an
// institution + account-type dispatch key. Fatal to that import; the caller
// should pick a different pairing rather than retry.
type UnsupportedFormatError struct {
	Key string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("no parser registered for %q", e.Key)
}

// MalformedStatementError reports an export whose structure could not be
// recovered at all. Parsers degrade to empty results where possible; this
// error is reserved for statements from which nothing can be salvaged.
type MalformedStatementError struct {
	Parser string
	Reason string
}

func (e *MalformedStatementError) Error() string {
	return fmt.Sprintf("%s: malformed statement: %s", e.Parser, e.Reason)
}
