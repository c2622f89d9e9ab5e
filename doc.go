/*
Package vcd reads and writes Value Change Dump (VCD) files, the IEEE
1364-2005 text format for recording digital and analog signal changes
over simulated time.

It focuses on streaming in both directions: the writer emits the header
and value changes incrementally with last-value deduplication, and the
tokenizer pulls typed tokens off a reader one at a time with
line/column spans for diagnostics. The GTKWave string-variable
extension is supported on both sides.

Writer example:

	w, err := vcd.NewWriter(out, &vcd.WriterOptions{Timescale: "1 ns"})
	if err != nil {
		// handle error
	}
	counter, err := w.RegisterVar("top.cpu", "counter", vcd.VarInteger, 8, vcd.Value{})
	if err != nil {
		// handle error
	}
	_ = w.Change(counter, 0, vcd.Int(10))
	_ = w.Change(counter, 2, vcd.Int(12))
	_ = w.Close()

Reader example:

	tok := vcd.NewTokenizer(in)
	for {
		t, err := tok.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// handle error; a *vcd.ParseError carries the offending span
		}
		_ = t
	}

Alias example, exposing one physical signal under two names:

	clk, _ := w.RegisterVar("top", "clk", vcd.VarWire, 1, vcd.Value{})
	_, _ = w.RegisterAlias(clk, "top.cpu", "clk_i")
	_ = w.Change(clk, 0, vcd.Bit('1'))
*/
package vcd
