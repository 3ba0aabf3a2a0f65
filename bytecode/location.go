package bytecode

import "fmt"

// SourceLocation maps one instruction to its source position. The filename is
// stored once on the Code.
type SourceLocation struct {
	Line   int // 1-based line number
	Column int // 1-based column number, 0 when unknown
}

func (s SourceLocation) String() string {
	if s.Column == 0 {
		return fmt.Sprintf("%d", s.Line)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}
