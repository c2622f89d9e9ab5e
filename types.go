package vcd

import (
	"fmt"
	"strings"
)

// ScopeKind represents a valid VCD scope type.
type ScopeKind string

// Scope kinds.
const (
	ScopeBegin    ScopeKind = "begin"    // begin/end block
	ScopeFork     ScopeKind = "fork"     // fork/join block
	ScopeFunction ScopeKind = "function" // function
	ScopeModule   ScopeKind = "module"   // module instance
	ScopeTask     ScopeKind = "task"     // task
)

// Valid reports whether k is a known scope kind.
func (k ScopeKind) Valid() bool {
	switch k {
	case ScopeBegin, ScopeFork, ScopeFunction, ScopeModule, ScopeTask:
		return true
	}

	return false
}

// VarKind represents a valid VCD variable type.
type VarKind string

// Variable kinds. VarString is the GTKWave string extension, the rest
// follow IEEE 1364.
const (
	VarEvent     VarKind = "event"
	VarInteger   VarKind = "integer"
	VarLogic     VarKind = "logic"
	VarParameter VarKind = "parameter"
	VarReal      VarKind = "real"
	VarRealtime  VarKind = "realtime"
	VarReg       VarKind = "reg"
	VarString    VarKind = "string"
	VarSupply0   VarKind = "supply0"
	VarSupply1   VarKind = "supply1"
	VarTime      VarKind = "time"
	VarTri       VarKind = "tri"
	VarTriAnd    VarKind = "triand"
	VarTriOr     VarKind = "trior"
	VarTriReg    VarKind = "trireg"
	VarTri0      VarKind = "tri0"
	VarTri1      VarKind = "tri1"
	VarWAnd      VarKind = "wand"
	VarWire      VarKind = "wire"
	VarWOr       VarKind = "wor"
)

// Valid reports whether k is a known variable kind.
func (k VarKind) Valid() bool {
	switch k {
	case VarEvent, VarInteger, VarLogic, VarParameter, VarReal, VarRealtime,
		VarReg, VarString, VarSupply0, VarSupply1, VarTime, VarTri, VarTriAnd,
		VarTriOr, VarTriReg, VarTri0, VarTri1, VarWAnd, VarWire, VarWOr:
		return true
	}

	return false
}

// defaultSize returns the implied bit size for kinds that have one.
func (k VarKind) defaultSize() (int, bool) {
	switch k {
	case VarInteger, VarReal, VarRealtime, VarTime:
		return 64, true
	case VarEvent, VarString:
		return 1, true
	}

	return 0, false
}

// TimescaleUnit represents a valid VCD timescale unit.
type TimescaleUnit string

// Timescale units, seconds through femtoseconds.
const (
	UnitSecond      TimescaleUnit = "s"
	UnitMillisecond TimescaleUnit = "ms"
	UnitMicrosecond TimescaleUnit = "us"
	UnitNanosecond  TimescaleUnit = "ns"
	UnitPicosecond  TimescaleUnit = "ps"
	UnitFemtosecond TimescaleUnit = "fs"
)

// Valid reports whether u is a known timescale unit.
func (u TimescaleUnit) Valid() bool {
	switch u {
	case UnitSecond, UnitMillisecond, UnitMicrosecond, UnitNanosecond,
		UnitPicosecond, UnitFemtosecond:
		return true
	}

	return false
}

// Timescale is a $timescale magnitude and unit pair.
type Timescale struct {
	Magnitude int           // 1, 10, or 100
	Unit      TimescaleUnit // Unit of one timestamp tick
}

// validMagnitude reports whether m is an allowed timescale magnitude.
func validMagnitude(m int) bool {
	return m == 1 || m == 10 || m == 100
}

// ParseTimescale parses a timescale string such as "1 us", "100ps", or a
// bare unit like "ns" (implying magnitude 1).
func ParseTimescale(s string) (Timescale, error) {
	str := strings.TrimSpace(s)
	if u := TimescaleUnit(str); u.Valid() {
		return Timescale{Magnitude: 1, Unit: u}, nil
	}

	// Longest magnitude first so "100ps" is not read as "10" + "0ps".
	for _, mag := range []int{100, 10, 1} {
		prefix := fmt.Sprintf("%d", mag)
		rest, ok := strings.CutPrefix(str, prefix)
		if !ok {
			continue
		}
		u := TimescaleUnit(strings.TrimSpace(rest))
		if !u.Valid() {
			return Timescale{}, fmt.Errorf("%w: invalid timescale unit in %q", ErrUsage, s)
		}

		return Timescale{Magnitude: mag, Unit: u}, nil
	}

	return Timescale{}, fmt.Errorf("%w: invalid timescale %q", ErrUsage, s)
}

// String renders the timescale as written in a $timescale declaration.
func (t Timescale) String() string {
	return fmt.Sprintf("%d %s", t.Magnitude, t.Unit)
}
