package vcd

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// tokenize collects every token until EOF, failing the test on a parse
// error.
func tokenize(t *testing.T, input string) []Token {
	t.Helper()
	tok := NewTokenizer(strings.NewReader(input))
	var out []Token
	for {
		tk, err := tok.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("tokenize: %v", err)
		}
		out = append(out, tk)
	}
}

// ignoreSpans drops source positions from token comparisons.
var ignoreSpans = cmpopts.IgnoreFields(Token{}, "Span")

func TestTokenizeVar(t *testing.T) {
	got := tokenize(t, "$var integer 8 ! counter $end\n$enddefinitions $end\n")
	want := []Token{
		{Kind: TokenVar, Var: VarDecl{Kind: VarInteger, Size: 8, ID: "!", Ref: "counter"}},
		{Kind: TokenEndDefinitions},
	}
	if diff := cmp.Diff(want, got, ignoreSpans); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeVarBitIndex(t *testing.T) {
	input := "$var wire 8 # data [7:0] $end\n" +
		"$var wire 1 $ flag [3] $end\n"
	got := tokenize(t, input)
	want := []Token{
		{Kind: TokenVar, Var: VarDecl{Kind: VarWire, Size: 8, ID: "#", Ref: "data", Index: &BitIndex{MSB: 7, LSB: 0, Ranged: true}}},
		{Kind: TokenVar, Var: VarDecl{Kind: VarWire, Size: 1, ID: "$", Ref: "flag", Index: &BitIndex{MSB: 3, LSB: 3}}},
	}
	if diff := cmp.Diff(want, got, ignoreSpans); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}

	if ref := got[0].Var.RefString(); ref != "data[7:0]" {
		t.Errorf("RefString() = %q, want %q", ref, "data[7:0]")
	}
	if ref := got[1].Var.RefString(); ref != "flag[3]" {
		t.Errorf("RefString() = %q, want %q", ref, "flag[3]")
	}
}

func TestTokenizeEscapedIdentifier(t *testing.T) {
	got := tokenize(t, `$var wire 1 ! \a.b[0] $end`)
	if len(got) != 1 || got[0].Var.Ref != "a.b[0]" {
		t.Fatalf("tokens = %+v, want one $var with ref %q", got, "a.b[0]")
	}
}

func TestTokenizeHeader(t *testing.T) {
	input := "$date Mon Jan 1 $end\n" +
		"$version\n\thand written\n$end\n" +
		"$comment hello\n\tworld $end\n" +
		"$timescale 100 ps $end\n" +
		"$scope module top $end\n" +
		"$upscope $end\n" +
		"$enddefinitions $end\n"
	got := tokenize(t, input)
	want := []Token{
		{Kind: TokenDate, Text: "Mon Jan 1"},
		{Kind: TokenVersion, Text: "hand written"},
		{Kind: TokenComment, Text: "hello world"},
		{Kind: TokenTimescale, Timescale: Timescale{Magnitude: 100, Unit: UnitPicosecond}},
		{Kind: TokenScope, Scope: ScopeDecl{Kind: ScopeModule, Name: "top"}},
		{Kind: TokenUpscope},
		{Kind: TokenEndDefinitions},
	}
	if diff := cmp.Diff(want, got, ignoreSpans); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeSimulation(t *testing.T) {
	input := "$enddefinitions $end\n" +
		"#12\n" +
		"$dumpvars\n" +
		"0!\n" +
		"bzx10 \"\n" +
		"r-999.9 #\n" +
		"srun $\n" +
		"$end\n" +
		"#13\n" +
		"1!\n" +
		"b101 \"\n"
	got := tokenize(t, input)
	want := []Token{
		{Kind: TokenEndDefinitions},
		{Kind: TokenTime, Time: 12},
		{Kind: TokenDumpVars},
		{Kind: TokenScalarChange, ID: "!", Value: "0"},
		{Kind: TokenVectorChange, ID: "\"", Value: "zx10"},
		{Kind: TokenRealChange, ID: "#", Real: -999.9},
		{Kind: TokenStringChange, ID: "$", Value: "run"},
		{Kind: TokenEnd},
		{Kind: TokenTime, Time: 13},
		{Kind: TokenScalarChange, ID: "!", Value: "1"},
		{Kind: TokenVectorChange, ID: "\"", Value: "101"},
	}
	if diff := cmp.Diff(want, got, ignoreSpans); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeDumpControls(t *testing.T) {
	got := tokenize(t, "$enddefinitions $end $dumpoff $end $dumpon $end $dumpall $end")
	want := []Token{
		{Kind: TokenEndDefinitions},
		{Kind: TokenDumpOff},
		{Kind: TokenEnd},
		{Kind: TokenDumpOn},
		{Kind: TokenEnd},
		{Kind: TokenDumpAll},
		{Kind: TokenEnd},
	}
	if diff := cmp.Diff(want, got, ignoreSpans); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeUnknownKeyword(t *testing.T) {
	got := tokenize(t, "$attrbegin $end\n$enddefinitions $end\n")
	want := []Token{
		{Kind: TokenKeyword, Keyword: "attrbegin"},
		{Kind: TokenEnd},
		{Kind: TokenEndDefinitions},
	}
	if diff := cmp.Diff(want, got, ignoreSpans); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeUnterminatedScope(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("$scope module top $end"))
	if _, err := tok.Next(); err != nil {
		t.Fatalf("scope token: %v", err)
	}

	_, err := tok.Next()
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Span.Start != (Location{Line: 1, Column: 1}) {
		t.Errorf("error start = %+v, want the $scope declaration", pe.Span.Start)
	}

	// The error is sticky.
	if _, again := tok.Next(); again != err {
		t.Errorf("second Next() = %v, want the same error", again)
	}
}

func TestTokenizeErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		line  int
		col   int
	}{
		{"value in declarations", "#5", 1, 1},
		{"declaration in simulation", "$enddefinitions $end $scope module a $end", 1, 22},
		{"dump before definitions", "$dumpvars", 1, 1},
		{"unbalanced upscope", "$upscope $end", 1, 1},
		{"bad var size", "$var wire x ! w $end", 1, 11},
		{"bad var type", "$var resistor 1 ! w $end", 1, 6},
		{"bad timescale magnitude", "$timescale 2 us $end", 1, 12},
		{"bad timescale unit", "$timescale 1 qs $end", 1, 14},
		{"bad scope kind", "$scope package top $end", 1, 8},
		{"unterminated comment", "$comment no end here", 1, 1},
		{"missing end", "$scope module top $stop", 1, 19},
		{"bad value char", "$enddefinitions $end\nq5 !", 2, 1},
		{"vector without bits", "$enddefinitions $end b !", 1, 22},
		{"bad real", "$enddefinitions $end rabc !", 1, 22},
		{"bare dollar", "$ ", 1, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tok := NewTokenizer(strings.NewReader(c.input))
			var err error
			for err == nil {
				_, err = tok.Next()
			}
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Span.Start.Line != c.line || pe.Span.Start.Column != c.col {
				t.Errorf("error at %d:%d, want %d:%d (%v)",
					pe.Span.Start.Line, pe.Span.Start.Column, c.line, c.col, err)
			}
		})
	}
}

func TestTokenizeSpans(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("$scope module top $end\n$upscope $end\n$enddefinitions $end\n"))
	tk, err := tok.Next()
	if err != nil {
		t.Fatalf("scope token: %v", err)
	}
	if tk.Span.Start != (Location{Line: 1, Column: 1}) {
		t.Errorf("scope start = %+v, want 1:1", tk.Span.Start)
	}
	tk, err = tok.Next()
	if err != nil {
		t.Fatalf("upscope token: %v", err)
	}
	if tk.Span.Start != (Location{Line: 2, Column: 1}) {
		t.Errorf("upscope start = %+v, want 2:1", tk.Span.Start)
	}
}

func TestTokenizeEOFSticky(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("$enddefinitions $end"))
	if _, err := tok.Next(); err != nil {
		t.Fatalf("enddefinitions: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := tok.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("Next() after end = %v, want io.EOF", err)
		}
	}
}
