package vcd

// WriterOptions controls the VCD header and writer defaults.
type WriterOptions struct {
	// Timescale is the $timescale declaration, e.g. "1 us", "100ps", or
	// a bare unit like "ns" (default is "1 us").
	Timescale string
	// Date is the $date header text. Empty omits the declaration; the
	// literal "today" substitutes the current date and time.
	Date string
	// Version is the $version header text; empty omits it.
	Version string
	// Comment is the $comment header text; empty omits it.
	Comment string
	// DefaultScopeKind is used for scopes without an explicit
	// SetScopeKind call (default is ScopeModule).
	DefaultScopeKind ScopeKind
	// ScopeSep splits hierarchical scope paths (default is ".").
	ScopeSep string
	// InitTimestamp is the starting simulation time.
	InitTimestamp uint64
	// DumpOffAtStart begins the dump section with dumping suspended;
	// the header is followed by a $dumpoff block instead of $dumpvars.
	DumpOffAtStart bool
	// DisableValueCheck skips value shape checks in Change. Malformed
	// values are then emitted as-is and may corrupt the stream.
	DisableValueCheck bool
}

// normalize normalizes the WriterOptions.
func (o *WriterOptions) normalize() WriterOptions {
	out := WriterOptions{}
	if o != nil {
		out = *o
	}
	if out.Timescale == "" {
		out.Timescale = "1 us"
	}
	if out.DefaultScopeKind == "" {
		out.DefaultScopeKind = ScopeModule
	}
	if out.ScopeSep == "" {
		out.ScopeSep = "."
	}

	return out
}
