package vcd

import "fmt"

// TokenKind represents the kind of a Token.
type TokenKind int

// Token kinds. Declaration kinds appear before $enddefinitions,
// simulation kinds after; TokenComment and TokenKeyword may appear in
// either phase.
const (
	TokenComment        TokenKind = iota // $comment text, whitespace-collapsed
	TokenDate                            // $date text
	TokenVersion                         // $version text
	TokenTimescale                       // $timescale declaration
	TokenScope                           // $scope declaration
	TokenUpscope                         // $upscope $end
	TokenVar                             // $var declaration
	TokenEndDefinitions                  // $enddefinitions $end
	TokenDumpVars                        // $dumpvars block start
	TokenDumpOn                          // $dumpon block start
	TokenDumpOff                         // $dumpoff block start
	TokenDumpAll                         // $dumpall block start
	TokenEnd                             // bare $end closing a dump block
	TokenTime                            // #N timestamp marker
	TokenScalarChange                    // one-digit value change
	TokenVectorChange                    // b<bits> <id> value change
	TokenRealChange                      // r<float> <id> value change
	TokenStringChange                    // s<text> <id> value change
	TokenKeyword                         // unrecognized $keyword passthrough
)

// String returns the kind name for diagnostics.
func (k TokenKind) String() string {
	switch k {
	case TokenComment:
		return "comment"
	case TokenDate:
		return "date"
	case TokenVersion:
		return "version"
	case TokenTimescale:
		return "timescale"
	case TokenScope:
		return "scope"
	case TokenUpscope:
		return "upscope"
	case TokenVar:
		return "var"
	case TokenEndDefinitions:
		return "enddefinitions"
	case TokenDumpVars:
		return "dumpvars"
	case TokenDumpOn:
		return "dumpon"
	case TokenDumpOff:
		return "dumpoff"
	case TokenDumpAll:
		return "dumpall"
	case TokenEnd:
		return "end"
	case TokenTime:
		return "time"
	case TokenScalarChange:
		return "scalar change"
	case TokenVectorChange:
		return "vector change"
	case TokenRealChange:
		return "real change"
	case TokenStringChange:
		return "string change"
	case TokenKeyword:
		return "keyword"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// Location is a 1-based line and column within the input.
type Location struct {
	Line   int // Line number, starting at 1
	Column int // Column number, starting at 1
}

// Span is the start and end location of a token.
type Span struct {
	Start Location // First character of the token
	End   Location // Position where scanning of the token stopped
}

// ScopeDecl is the payload of a $scope token.
type ScopeDecl struct {
	Kind ScopeKind // Scope kind
	Name string    // Scope name
}

// BitIndex is an optional bit select on a $var reference, either a
// single index ("ref [3]") or an MSB:LSB range ("ref [7:3]").
type BitIndex struct {
	MSB    int  // Single index, or most significant bit of a range
	LSB    int  // Least significant bit of a range
	Ranged bool // True for the [msb:lsb] form
}

// VarDecl is the payload of a $var token.
type VarDecl struct {
	Kind  VarKind   // Variable kind
	Size  int       // Declared bit size
	ID    string    // Identifier code used in the dump body
	Ref   string    // Reference name
	Index *BitIndex // Optional bit select
}

// RefString renders the reference name with its bit select suffix.
func (d VarDecl) RefString() string {
	switch {
	case d.Index == nil:
		return d.Ref
	case d.Index.Ranged:
		return fmt.Sprintf("%s[%d:%d]", d.Ref, d.Index.MSB, d.Index.LSB)
	default:
		return fmt.Sprintf("%s[%d]", d.Ref, d.Index.MSB)
	}
}

// Token is one lexical element of a VCD stream. Kind decides which
// payload fields are meaningful:
//
//   - TokenComment, TokenDate, TokenVersion: Text
//   - TokenKeyword: Keyword
//   - TokenScope: Scope
//   - TokenVar: Var
//   - TokenTimescale: Timescale
//   - TokenTime: Time
//   - TokenScalarChange, TokenVectorChange, TokenStringChange: ID, Value
//   - TokenRealChange: ID, Real
//
// The remaining kinds carry only their Span.
type Token struct {
	Kind      TokenKind // Token kind
	Span      Span      // Source location of the token
	Text      string    // Free text of header declarations
	Keyword   string    // Name of an unrecognized $keyword
	Scope     ScopeDecl // $scope payload
	Var       VarDecl   // $var payload
	Timescale Timescale // $timescale payload
	Time      uint64    // #N timestamp value
	ID        string    // Identifier code of a value change
	Value     string    // Scalar digit, vector bits, or string text
	Real      float64   // Real change value
}
