package vcd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Tokenizer scans a VCD stream into Tokens, one pull at a time.
//
// The scan has two phases split by the $enddefinitions keyword:
// declarations first, then the simulation body. Input is consumed
// incrementally off the reader, so arbitrarily large files can be
// tokenized without buffering; the sequence is forward-only and
// terminates at io.EOF or at the first ParseError.
type Tokenizer struct {
	r        *bufio.Reader
	err      error      // Sticky termination error
	scopes   []Location // Start locations of open $scope declarations
	pos      Location   // Location of the current byte
	ch       byte       // Current byte
	eof      bool       // Input exhausted
	simPhase bool       // Past $enddefinitions
}

// NewTokenizer creates a Tokenizer reading from r.
func NewTokenizer(r io.Reader) *Tokenizer {
	t := &Tokenizer{r: bufio.NewReader(r), pos: Location{Line: 1}}
	t.read()

	return t
}

// Next returns the next token. It returns io.EOF at a normal end of
// input and a ParseError on malformed input; either way every later
// call returns the same error.
func (t *Tokenizer) Next() (Token, error) {
	if t.err != nil {
		return Token{}, t.err
	}

	t.skipWS()
	if t.eof {
		if n := len(t.scopes); n > 0 {
			return Token{}, t.fail(t.scopes[n-1], "unterminated $scope reaches end of input")
		}
		t.err = io.EOF
		return Token{}, io.EOF
	}

	start := t.pos
	tok, err := t.scan(start)
	if err != nil {
		return Token{}, err
	}
	tok.Span = Span{Start: start, End: t.pos}

	return tok, nil
}

// scan tokenizes one element starting at the current byte.
func (t *Tokenizer) scan(start Location) (Token, error) {
	if t.ch == '$' {
		return t.scanKeyword(start)
	}
	if !t.simPhase {
		return Token{}, t.fail(start, fmt.Sprintf("unexpected character %q in declarations", t.ch))
	}

	switch {
	case t.ch == '#':
		t.read()
		n, err := t.takeUint()
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenTime, Time: n}, nil

	case t.ch == 'b' || t.ch == 'B':
		return t.scanVectorChange(start)

	case t.ch == 'r' || t.ch == 'R':
		return t.scanRealChange(start)

	case t.ch == 's' || t.ch == 'S':
		return t.scanStringChange()

	case isLogicChar(t.ch):
		c := t.ch
		t.read()
		id, err := t.takeIDCode()
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenScalarChange, ID: id, Value: string(c)}, nil
	}

	return Token{}, t.fail(start, fmt.Sprintf("unrecognized value change leading character %q", t.ch))
}

// scanVectorChange reads b<bits> <id>.
func (t *Tokenizer) scanVectorChange(start Location) (Token, error) {
	t.read()
	var bits []byte
	for !t.eof && isLogicChar(t.ch) {
		bits = append(bits, t.ch)
		t.read()
	}
	if len(bits) == 0 {
		return Token{}, t.fail(start, "expected bit string after 'b'")
	}
	if !t.eof && !isWS(t.ch) {
		return Token{}, t.fail(t.pos, "expected whitespace after vector value")
	}
	t.skipWS()
	id, err := t.takeIDCode()
	if err != nil {
		return Token{}, err
	}

	return Token{Kind: TokenVectorChange, ID: id, Value: string(bits)}, nil
}

// scanRealChange reads r<float> <id>.
func (t *Tokenizer) scanRealChange(start Location) (Token, error) {
	t.read()
	raw := t.takeNonWS()
	real, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Token{}, t.fail(start, fmt.Sprintf("expected real value, got %q", raw))
	}
	t.skipWS()
	id, err := t.takeIDCode()
	if err != nil {
		return Token{}, err
	}

	return Token{Kind: TokenRealChange, ID: id, Real: real}, nil
}

// scanStringChange reads s<text> <id>. The text is kept verbatim,
// escape sequences included.
func (t *Tokenizer) scanStringChange() (Token, error) {
	t.read()
	text := t.takeNonWS()
	t.skipWS()
	id, err := t.takeIDCode()
	if err != nil {
		return Token{}, err
	}

	return Token{Kind: TokenStringChange, ID: id, Value: text}, nil
}

// scanKeyword dispatches a $keyword construct.
func (t *Tokenizer) scanKeyword(start Location) (Token, error) {
	t.read()
	kw := t.takeWord()
	if kw == "" {
		return Token{}, t.fail(start, "expected keyword after '$'")
	}

	switch kw {
	case "comment":
		text, err := t.takeToEnd(start, kw)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenComment, Text: text}, nil

	case "date", "version":
		if err := t.declOnly(start, kw); err != nil {
			return Token{}, err
		}
		text, err := t.takeToEnd(start, kw)
		if err != nil {
			return Token{}, err
		}
		kind := TokenDate
		if kw == "version" {
			kind = TokenVersion
		}
		return Token{Kind: kind, Text: text}, nil

	case "enddefinitions":
		if err := t.declOnly(start, kw); err != nil {
			return Token{}, err
		}
		if err := t.takeEnd(start); err != nil {
			return Token{}, err
		}
		t.simPhase = true
		return Token{Kind: TokenEndDefinitions}, nil

	case "timescale":
		return t.scanTimescale(start, kw)

	case "scope":
		return t.scanScope(start, kw)

	case "upscope":
		if err := t.declOnly(start, kw); err != nil {
			return Token{}, err
		}
		if len(t.scopes) == 0 {
			return Token{}, t.fail(start, "$upscope without matching $scope")
		}
		t.scopes = t.scopes[:len(t.scopes)-1]
		if err := t.takeEnd(start); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenUpscope}, nil

	case "var":
		return t.scanVar(start, kw)

	case "dumpvars", "dumpon", "dumpoff", "dumpall":
		if !t.simPhase {
			return Token{}, t.fail(start, "$"+kw+" before $enddefinitions")
		}
		kind := TokenDumpVars
		switch kw {
		case "dumpon":
			kind = TokenDumpOn
		case "dumpoff":
			kind = TokenDumpOff
		case "dumpall":
			kind = TokenDumpAll
		}
		return Token{Kind: kind}, nil

	case "end":
		return Token{Kind: TokenEnd}, nil
	}

	return Token{Kind: TokenKeyword, Keyword: kw}, nil
}

// scanTimescale reads $timescale <magnitude> <unit> $end.
func (t *Tokenizer) scanTimescale(start Location, kw string) (Token, error) {
	if err := t.declOnly(start, kw); err != nil {
		return Token{}, err
	}
	if err := t.requireWS(kw); err != nil {
		return Token{}, err
	}
	magLoc := t.pos
	mag, err := t.takeUint()
	if err != nil {
		return Token{}, err
	}
	if !validMagnitude(int(mag)) {
		return Token{}, t.fail(magLoc, fmt.Sprintf("invalid $timescale magnitude %d, must be 1, 10, or 100", mag))
	}
	t.skipWS()
	unitLoc := t.pos
	unit := TimescaleUnit(t.takeWord())
	if !unit.Valid() {
		return Token{}, t.fail(unitLoc, fmt.Sprintf("invalid $timescale unit %q", string(unit)))
	}
	if err := t.takeEnd(start); err != nil {
		return Token{}, err
	}

	return Token{Kind: TokenTimescale, Timescale: Timescale{Magnitude: int(mag), Unit: unit}}, nil
}

// scanScope reads $scope <kind> <name> $end and tracks nesting depth
// so a truncated input is reported against the opening declaration.
func (t *Tokenizer) scanScope(start Location, kw string) (Token, error) {
	if err := t.declOnly(start, kw); err != nil {
		return Token{}, err
	}
	if err := t.requireWS(kw); err != nil {
		return Token{}, err
	}
	kindLoc := t.pos
	kind := ScopeKind(t.takeWord())
	if !kind.Valid() {
		return Token{}, t.fail(kindLoc, fmt.Sprintf("invalid $scope kind %q", string(kind)))
	}
	t.skipWS()
	name, err := t.takeName()
	if err != nil {
		return Token{}, err
	}
	if err := t.takeEnd(start); err != nil {
		return Token{}, err
	}
	t.scopes = append(t.scopes, start)

	return Token{Kind: TokenScope, Scope: ScopeDecl{Kind: kind, Name: name}}, nil
}

// scanVar reads $var <type> <size> <id> <ref>[ <index>] $end.
func (t *Tokenizer) scanVar(start Location, kw string) (Token, error) {
	if err := t.declOnly(start, kw); err != nil {
		return Token{}, err
	}
	if err := t.requireWS(kw); err != nil {
		return Token{}, err
	}
	kindLoc := t.pos
	kind := VarKind(t.takeWord())
	if !kind.Valid() {
		return Token{}, t.fail(kindLoc, fmt.Sprintf("invalid $var type %q", string(kind)))
	}
	t.skipWS()
	size, err := t.takeUint()
	if err != nil {
		return Token{}, err
	}
	t.skipWS()
	id, err := t.takeIDCode()
	if err != nil {
		return Token{}, err
	}
	t.skipWS()
	ref, err := t.takeName()
	if err != nil {
		return Token{}, err
	}

	decl := VarDecl{Kind: kind, Size: int(size), ID: id, Ref: ref}
	t.skipWS()
	if !t.eof && t.ch == '[' {
		t.read()
		decl.Index, err = t.takeBitIndex()
		if err != nil {
			return Token{}, err
		}
	}
	if err := t.takeEnd(start); err != nil {
		return Token{}, err
	}

	return Token{Kind: TokenVar, Var: decl}, nil
}

// takeBitIndex reads the remainder of a [msb] or [msb:lsb] suffix.
func (t *Tokenizer) takeBitIndex() (*BitIndex, error) {
	t.skipWS()
	msb, err := t.takeUint()
	if err != nil {
		return nil, err
	}
	idx := &BitIndex{MSB: int(msb), LSB: int(msb)}

	t.skipWS()
	if !t.eof && t.ch == ':' {
		t.read()
		t.skipWS()
		lsb, err := t.takeUint()
		if err != nil {
			return nil, err
		}
		idx.LSB = int(lsb)
		idx.Ranged = true
		t.skipWS()
	}
	if t.eof || t.ch != ']' {
		return nil, t.fail(t.pos, "expected bit index to terminate with ']'")
	}
	t.read()

	return idx, nil
}

// declOnly rejects declaration keywords in the simulation phase.
func (t *Tokenizer) declOnly(start Location, kw string) error {
	if t.simPhase {
		return t.fail(start, "$"+kw+" after $enddefinitions")
	}

	return nil
}

// read consumes the next byte, advancing the location counters.
func (t *Tokenizer) read() {
	c, err := t.r.ReadByte()
	if err != nil {
		t.eof = true
		t.ch = 0
		return
	}

	if c == '\n' {
		t.pos.Line++
		t.pos.Column = 0
	} else {
		t.pos.Column++
	}

	t.ch = c
}

// skipWS skips whitespace bytes.
func (t *Tokenizer) skipWS() {
	for !t.eof && isWS(t.ch) {
		t.read()
	}
}

// requireWS demands at least one whitespace byte after a keyword, then
// skips the rest of the run.
func (t *Tokenizer) requireWS(kw string) error {
	if t.eof || !isWS(t.ch) {
		return t.fail(t.pos, "expected whitespace after $"+kw)
	}
	t.skipWS()

	return nil
}

// takeUint reads a decimal integer.
func (t *Tokenizer) takeUint() (uint64, error) {
	loc := t.pos
	var digits []byte
	for !t.eof && t.ch >= '0' && t.ch <= '9' {
		digits = append(digits, t.ch)
		t.read()
	}
	if len(digits) == 0 {
		return 0, t.fail(loc, "expected decimal value")
	}

	n, err := strconv.ParseUint(string(digits), 10, 64)
	if err != nil {
		return 0, t.fail(loc, fmt.Sprintf("decimal value %s out of range", digits))
	}

	return n, nil
}

// takeIDCode reads an identifier code, a run of printable ASCII.
func (t *Tokenizer) takeIDCode() (string, error) {
	loc := t.pos
	var b []byte
	for !t.eof && t.ch >= '!' && t.ch <= '~' {
		b = append(b, t.ch)
		t.read()
	}
	if len(b) == 0 {
		return "", t.fail(loc, "expected identifier code")
	}

	return string(b), nil
}

// takeWord reads a run of letters, digits, and underscores.
func (t *Tokenizer) takeWord() string {
	var b []byte
	for !t.eof && isWordChar(t.ch) {
		b = append(b, t.ch)
		t.read()
	}

	return string(b)
}

// takeNonWS reads a run of non-whitespace bytes.
func (t *Tokenizer) takeNonWS() string {
	var b []byte
	for !t.eof && !isWS(t.ch) {
		b = append(b, t.ch)
		t.read()
	}

	return string(b)
}

// takeName reads a reference or scope name: either a simple identifier
// or an escaped identifier introduced by a backslash, which may contain
// any printable ASCII and runs to the next whitespace.
func (t *Tokenizer) takeName() (string, error) {
	loc := t.pos
	if t.eof {
		return "", t.fail(loc, "expected identifier")
	}

	if t.ch == '\\' {
		t.read()
		var b []byte
		for !t.eof && !isWS(t.ch) {
			if t.ch < '!' || t.ch > '~' {
				return "", t.fail(t.pos, "escaped identifier may only contain printable ASCII")
			}
			b = append(b, t.ch)
			t.read()
		}
		if len(b) == 0 {
			return "", t.fail(loc, "empty escaped identifier")
		}
		return string(b), nil
	}

	if !isNameStart(t.ch) {
		return "", t.fail(loc, "identifier must start with a letter or underscore")
	}
	var b []byte
	for !t.eof && isNameChar(t.ch) {
		b = append(b, t.ch)
		t.read()
	}

	return string(b), nil
}

// takeToEnd captures the free text of a $comment/$date/$version
// declaration up to the closing $end, collapsing whitespace runs.
func (t *Tokenizer) takeToEnd(start Location, kw string) (string, error) {
	if err := t.requireWS(kw); err != nil {
		return "", err
	}

	var words []string
	for {
		if t.eof {
			return "", t.fail(start, "unterminated $"+kw+" reaches end of input")
		}
		word := t.takeNonWS()
		if word == "$end" {
			break
		}
		words = append(words, word)
		t.skipWS()
	}

	return strings.Join(words, " "), nil
}

// takeEnd consumes the $end terminator of a declaration.
func (t *Tokenizer) takeEnd(start Location) error {
	t.skipWS()
	if t.eof {
		return t.fail(start, "unterminated declaration reaches end of input")
	}
	loc := t.pos
	if word := t.takeNonWS(); word != "$end" {
		return t.fail(loc, fmt.Sprintf("expected $end, got %q", word))
	}

	return nil
}

// fail records and returns a ParseError spanning loc to the current
// position. The tokenizer terminates: all later Next calls return the
// same error.
func (t *Tokenizer) fail(loc Location, msg string) error {
	err := &ParseError{Span: Span{Start: loc, End: t.pos}, Msg: msg}
	t.err = err

	return err
}

// isWS reports VCD token-separating whitespace.
func isWS(c byte) bool {
	return c == ' ' || (c >= '\t' && c <= '\r')
}

// isWordChar reports keyword characters.
func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// isNameStart reports valid first characters of a simple identifier.
func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

// isNameChar reports valid body characters of a simple identifier.
// '.', '(', and ')' are not in the standard but appear in dumps from
// real simulators.
func isNameChar(c byte) bool {
	return isWordChar(c) || c == '$' || c == '.' || c == '(' || c == ')'
}
