package vcd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// writerPhase tracks the Writer lifecycle.
type writerPhase int

const (
	// phaseBuilding accepts scope and variable registration.
	phaseBuilding writerPhase = iota
	// phaseHeaderClosed has emitted the declarations; only value
	// changes and dump control are accepted.
	phaseHeaderClosed
	// phaseClosed is terminal.
	phaseClosed
)

// varClass groups variable kinds by their value-change encoding.
type varClass int

const (
	classScalar varClass = iota // One-bit, no space before the identifier
	classVector                 // b<bits> <id>
	classReal                   // r<float> <id>
	classString                 // s<text> <id>
	classEvent                  // Transient, never deduplicated
)

// classify maps a variable kind and size to its encoding class.
func classify(kind VarKind, size int) varClass {
	switch kind {
	case VarEvent:
		return classEvent
	case VarString:
		return classString
	case VarReal, VarRealtime:
		return classReal
	}
	if size == 1 {
		return classScalar
	}

	return classVector
}

// Variable is the handle returned by RegisterVar for use with Change.
// Aliases share one Variable; changing it changes every reference name
// bound to its identifier.
type Variable struct {
	ident string   // Identifier code in the dump body
	kind  VarKind  // Declared kind
	class varClass // Encoding class
	size  int      // Declared bit size
	last  string   // Last recorded payload, for deduplication
}

// ID returns the identifier code used in the dump body.
func (v *Variable) ID() string { return v.ident }

// Kind returns the declared variable kind.
func (v *Variable) Kind() VarKind { return v.kind }

// Size returns the declared bit size.
func (v *Variable) Size() int { return v.size }

// format renders a change payload for the variable's class.
func (v *Variable) format(val Value, check bool) (string, error) {
	switch v.class {
	case classScalar:
		return formatScalar(val, check)
	case classVector:
		return formatVector(val, v.size, check)
	case classReal:
		return formatReal(val, check)
	case classString:
		return formatString(val)
	default:
		return formatEvent(val)
	}
}

// initial resolves the registration-time value. A zero Value picks the
// class default ('x' for scalars and vectors, 0 for reals, the empty
// string for strings).
func (v *Variable) initial(init Value, check bool) (string, error) {
	if init.Kind == ValueNone {
		switch v.class {
		case classReal:
			return "0", nil
		case classString, classEvent:
			return "", nil
		default:
			return "x", nil
		}
	}
	if v.class == classEvent {
		// Events carry no state; just validate the trigger value.
		_, err := formatEvent(init)
		return "", err
	}

	return v.format(init, check)
}

// changeLine renders a full value-change line for v.
func changeLine(v *Variable, payload string) string {
	switch v.class {
	case classScalar, classEvent:
		return payload + v.ident
	case classVector:
		return "b" + payload + " " + v.ident
	case classReal:
		return "r" + payload + " " + v.ident
	default:
		return "s" + payload + " " + v.ident
	}
}

// Writer streams a Value Change Dump to an underlying io.Writer.
//
// A Writer starts in the registration phase, accepting RegisterVar,
// RegisterAlias, and SetScopeKind calls. The header is emitted once the
// timestamp first advances (or on Flush, Close, DumpOff, or DumpOn);
// after that no further registration is accepted. Close is idempotent
// and must be called to guarantee a flushed, complete stream.
type Writer struct {
	w            *bufio.Writer
	tree         *scopeTree
	opt          WriterOptions
	timescale    Timescale
	alloc        identAllocator
	vars         []*Variable // Distinct physical variables, in registration order
	phase        writerPhase
	dumping      bool
	timestamp    uint64
	lastDumpedTS uint64
	dumpedAny    bool
}

// NewWriter creates a Writer emitting to w.
func NewWriter(w io.Writer, opt *WriterOptions) (*Writer, error) {
	o := opt.normalize()
	ts, err := ParseTimescale(o.Timescale)
	if err != nil {
		return nil, err
	}
	if !o.DefaultScopeKind.Valid() {
		return nil, fmt.Errorf("%w: invalid scope kind %q", ErrUsage, o.DefaultScopeKind)
	}

	return &Writer{
		w:         bufio.NewWriter(w),
		tree:      newScopeTree(o.ScopeSep, o.DefaultScopeKind),
		opt:       o,
		timescale: ts,
		dumping:   !o.DumpOffAtStart,
		timestamp: o.InitTimestamp,
	}, nil
}

// RegisterVar declares a variable inside the given scope path and
// returns its handle. A size of 0 picks the kind's implied size (64 for
// integer, real, realtime, and time; 1 for event and string); other
// kinds require an explicit size. A zero init Value selects the class
// default initial value.
func (w *Writer) RegisterVar(scope, name string, kind VarKind, size int, init Value) (*Variable, error) {
	if err := w.checkRegistering(); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: invalid variable kind %q", ErrUsage, kind)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty variable name", ErrUsage)
	}
	if size == 0 {
		def, ok := kind.defaultSize()
		if !ok {
			return nil, fmt.Errorf("%w: size required for %s variables", ErrUsage, kind)
		}
		size = def
	}
	if size < 1 {
		return nil, fmt.Errorf("%w: invalid size %d for %q", ErrUsage, size, name)
	}
	if (kind == VarReal || kind == VarRealtime) && size != 64 {
		return nil, fmt.Errorf("%w: %s variables are fixed at 64 bits", ErrUsage, kind)
	}

	v := &Variable{kind: kind, class: classify(kind, size), size: size}
	last, err := v.initial(init, !w.opt.DisableValueCheck)
	if err != nil {
		return nil, err
	}
	v.last = last

	v.ident = w.alloc.alloc()
	if err := w.tree.declare(scope, varDecl{kind: kind, size: size, ident: v.ident, ref: name}); err != nil {
		return nil, err
	}
	w.vars = append(w.vars, v)

	return v, nil
}

// RegisterAlias declares an additional reference name for an existing
// variable, possibly in a different scope. The alias shares the
// variable's identifier, so a Change on v updates every name bound to
// it. The returned handle is v itself.
func (w *Writer) RegisterAlias(v *Variable, scope, name string) (*Variable, error) {
	if err := w.checkRegistering(); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%w: nil variable", ErrUsage)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty variable name", ErrUsage)
	}
	if err := w.tree.declare(scope, varDecl{kind: v.kind, size: v.size, ident: v.ident, ref: name}); err != nil {
		return nil, err
	}

	return v, nil
}

// SetScopeKind overrides the kind of the scope at path, creating it if
// needed. Only valid during registration.
func (w *Writer) SetScopeKind(scope string, kind ScopeKind) error {
	if err := w.checkRegistering(); err != nil {
		return err
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: invalid scope kind %q", ErrUsage, kind)
	}
	s, err := w.tree.get(scope)
	if err != nil {
		return err
	}
	s.Kind = kind

	return nil
}

// Change records a new value for v at the given timestamp.
//
// Timestamps must be non-decreasing across all calls; equal timestamps
// coalesce onto one #N line. A value equal to the variable's last
// recorded value is a silent no-op, except for event variables which
// always emit. The first timestamp advance closes the header; changes
// made before that seed the $dumpvars initial-value block.
func (w *Writer) Change(v *Variable, timestamp uint64, val Value) error {
	if w.phase == phaseClosed {
		return fmt.Errorf("%w: change after Close", ErrUsage)
	}
	if v == nil {
		return fmt.Errorf("%w: nil variable", ErrUsage)
	}

	// Format before mutating any state so a bad value leaves the
	// writer untouched.
	payload, err := v.format(val, !w.opt.DisableValueCheck)
	if err != nil {
		return err
	}

	if timestamp < w.timestamp {
		return fmt.Errorf("%w: out of order timestamp %d (current %d)", ErrUsage, timestamp, w.timestamp)
	}
	if timestamp > w.timestamp {
		if w.phase == phaseBuilding {
			if err := w.closeHeader(); err != nil {
				return err
			}
		}
		w.timestamp = timestamp
	}

	if v.class != classEvent && payload == v.last {
		return nil
	}
	v.last = payload

	if w.phase != phaseHeaderClosed || !w.dumping {
		return nil
	}
	if err := w.dumpTimestamp(); err != nil {
		return err
	}

	return w.writeLine(changeLine(v, payload))
}

// DumpOff suspends dumping. Scalar and vector variables are recorded
// as unknown in a $dumpoff block; real, string, and event variables
// have no unknown form and are skipped. Idempotent while off.
func (w *Writer) DumpOff(timestamp uint64) error {
	if w.phase == phaseClosed {
		return fmt.Errorf("%w: dump control after Close", ErrUsage)
	}
	if w.phase == phaseBuilding {
		if err := w.closeHeader(); err != nil {
			return err
		}
	}
	if err := w.setTime(timestamp); err != nil {
		return err
	}
	if !w.dumping {
		return nil
	}
	if err := w.dumpTimestamp(); err != nil {
		return err
	}
	if err := w.dumpBlock("$dumpoff"); err != nil {
		return err
	}
	w.dumping = false

	return nil
}

// DumpOn resumes dumping, re-emitting the current value of every
// variable in a $dumpon block so consumers resynchronize. Idempotent
// while on.
func (w *Writer) DumpOn(timestamp uint64) error {
	if w.phase == phaseClosed {
		return fmt.Errorf("%w: dump control after Close", ErrUsage)
	}
	if w.phase == phaseBuilding {
		if err := w.closeHeader(); err != nil {
			return err
		}
	}
	if err := w.setTime(timestamp); err != nil {
		return err
	}
	if w.dumping {
		return nil
	}
	w.dumping = true
	if err := w.dumpTimestamp(); err != nil {
		return err
	}

	return w.dumpBlock("$dumpon")
}

// Flush writes buffered data to the underlying writer, closing the
// header first if registration is still open.
func (w *Writer) Flush() error {
	if w.phase == phaseClosed {
		return fmt.Errorf("%w: flush after Close", ErrUsage)
	}
	if w.phase == phaseBuilding {
		if err := w.closeHeader(); err != nil {
			return err
		}
	}

	return w.w.Flush()
}

// Close finalizes the stream: the header is emitted if still pending
// and buffered data is flushed. Close is idempotent; any call after
// the first is a no-op. The underlying writer is not closed.
func (w *Writer) Close() error {
	if w.phase == phaseClosed {
		return nil
	}
	if w.phase == phaseBuilding {
		if err := w.closeHeader(); err != nil {
			return err
		}
	}
	err := w.w.Flush()
	w.phase = phaseClosed

	return err
}

// checkRegistering rejects registration outside the building phase.
func (w *Writer) checkRegistering() error {
	switch w.phase {
	case phaseClosed:
		return fmt.Errorf("%w: cannot register after Close", ErrUsage)
	case phaseHeaderClosed:
		return fmt.Errorf("%w: cannot register after the header is closed", ErrUsage)
	}

	return nil
}

// setTime advances the current timestamp, rejecting regressions.
func (w *Writer) setTime(timestamp uint64) error {
	if timestamp < w.timestamp {
		return fmt.Errorf("%w: out of order timestamp %d (current %d)", ErrUsage, timestamp, w.timestamp)
	}
	w.timestamp = timestamp

	return nil
}

// dumpTimestamp emits a #N line unless N was already emitted.
func (w *Writer) dumpTimestamp() error {
	if w.dumpedAny && w.timestamp == w.lastDumpedTS {
		return nil
	}
	w.dumpedAny = true
	w.lastDumpedTS = w.timestamp

	return w.writeLine("#" + strconv.FormatUint(w.timestamp, 10))
}

// closeHeader emits the declarations section and the initial dump
// block, then seals registration.
func (w *Writer) closeHeader() error {
	date := w.opt.Date
	if date == "today" {
		date = time.Now().Format(time.ANSIC)
	}
	if err := w.writeHeaderText("$date", date); err != nil {
		return err
	}
	if err := w.writeHeaderText("$version", w.opt.Version); err != nil {
		return err
	}
	if err := w.writeHeaderText("$comment", w.opt.Comment); err != nil {
		return err
	}
	if err := w.writeLine("$timescale " + w.timescale.String() + " $end"); err != nil {
		return err
	}

	for _, s := range w.tree.roots {
		if err := w.emitScope(s); err != nil {
			return err
		}
	}
	if err := w.writeLine("$enddefinitions $end"); err != nil {
		return err
	}

	w.phase = phaseHeaderClosed
	if len(w.vars) == 0 {
		return nil
	}
	if err := w.dumpTimestamp(); err != nil {
		return err
	}
	if w.dumping {
		return w.dumpBlock("$dumpvars")
	}

	return w.dumpBlock("$dumpoff")
}

// writeHeaderText emits a $date/$version/$comment declaration. Empty
// text omits the declaration; multi-line text is emitted as a keyword
// line, tab-indented body, and an $end line.
func (w *Writer) writeHeaderText(keyword, text string) error {
	if text == "" {
		return nil
	}
	if !strings.Contains(text, "\n") {
		return w.writeLine(keyword + " " + text + " $end")
	}

	if err := w.writeLine(keyword); err != nil {
		return err
	}
	for _, line := range strings.Split(text, "\n") {
		if err := w.writeLine("\t" + line); err != nil {
			return err
		}
	}

	return w.writeLine("$end")
}

// emitScope writes the scope declaration, its variables, its child
// scopes, and the closing $upscope, depth first.
func (w *Writer) emitScope(s *Scope) error {
	if err := w.writeLine("$scope " + string(s.Kind) + " " + s.Name + " $end"); err != nil {
		return err
	}
	for _, d := range s.vars {
		line := fmt.Sprintf("$var %s %d %s %s $end", d.kind, d.size, d.ident, d.ref)
		if err := w.writeLine(line); err != nil {
			return err
		}
	}
	for _, c := range s.children {
		if err := w.emitScope(c); err != nil {
			return err
		}
	}

	return w.writeLine("$upscope $end")
}

// dumpBlock emits a $dumpvars/$dumpon/$dumpoff block over all
// registered variables. Events are always skipped; $dumpoff lists only
// kinds with an unknown representation.
func (w *Writer) dumpBlock(keyword string) error {
	if err := w.writeLine(keyword); err != nil {
		return err
	}
	for _, v := range w.vars {
		var line string
		switch {
		case v.class == classEvent:
			continue
		case keyword != "$dumpoff":
			line = changeLine(v, v.last)
		case v.class == classScalar:
			line = changeLine(v, "x")
		case v.class == classVector:
			line = changeLine(v, "x")
		default:
			continue
		}
		if err := w.writeLine(line); err != nil {
			return err
		}
	}

	return w.writeLine("$end")
}

// writeLine writes s followed by a newline.
func (w *Writer) writeLine(s string) error {
	if _, err := w.w.WriteString(s); err != nil {
		return err
	}

	return w.w.WriteByte('\n')
}
