package vcd

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind represents the kind of a Value.
type ValueKind int

const (
	// ValueNone is the zero Value; registration treats it as the
	// variable's default initial value.
	ValueNone ValueKind = iota
	// ValueBit indicates a single four-state digit.
	ValueBit
	// ValueInt indicates an integer, rendered in binary within the
	// declared size.
	ValueInt
	// ValueBits indicates an explicit bit string, most significant
	// bit first.
	ValueBits
	// ValueReal indicates an IEEE-754 double.
	ValueReal
	// ValueString indicates text for GTKWave string variables.
	ValueString
)

// Value is the discriminated value accepted by Writer.Change. Kind
// decides which data field carries the payload.
type Value struct {
	Str  string    // ValueBits bit string or ValueString text
	Kind ValueKind // Value kind
	Int  int64     // ValueInt payload
	Real float64   // ValueReal payload
	Bit  byte      // ValueBit digit
}

// Bit makes a single four-state digit value ('0', '1', 'x', or 'z').
func Bit(b byte) Value {
	return Value{Kind: ValueBit, Bit: b}
}

// Int makes an integer value.
func Int(v int64) Value {
	return Value{Kind: ValueInt, Int: v}
}

// Bits makes an explicit bit string value, most significant bit first.
func Bits(s string) Value {
	return Value{Kind: ValueBits, Str: s}
}

// Real makes a floating point value.
func Real(f float64) Value {
	return Value{Kind: ValueReal, Real: f}
}

// Str makes a text value for string variables.
func Str(s string) Value {
	return Value{Kind: ValueString, Str: s}
}

// isScalarChar reports whether c is a four-state digit the writer
// accepts for scalar and vector values.
func isScalarChar(c byte) bool {
	switch c {
	case '0', '1', 'x', 'X', 'z', 'Z':
		return true
	}

	return false
}

// isVectorChar additionally allows '-', seen in compound dumps.
func isVectorChar(c byte) bool {
	return isScalarChar(c) || c == '-'
}

// isLogicChar covers the full reader-side value alphabet, including the
// strength digits some simulators emit.
func isLogicChar(c byte) bool {
	switch c {
	case '0', '1', 'x', 'X', 'z', 'Z', 'h', 'H', 'u', 'U', 'l', 'L', 'w', 'W', '-':
		return true
	}

	return false
}

// formatScalar renders a one-bit value as its single digit.
func formatScalar(val Value, check bool) (string, error) {
	switch val.Kind {
	case ValueBit:
		if check && !isScalarChar(val.Bit) {
			return "", fmt.Errorf("%w: invalid scalar value %q", ErrValue, val.Bit)
		}
		return string(val.Bit), nil

	case ValueBits:
		if len(val.Str) != 1 || (check && !isScalarChar(val.Str[0])) {
			return "", fmt.Errorf("%w: invalid scalar value %q", ErrValue, val.Str)
		}
		return val.Str, nil

	case ValueInt:
		if val.Int == 0 {
			return "0", nil
		}
		if check && val.Int != 1 {
			return "", fmt.Errorf("%w: value %d not representable in 1 bit", ErrValue, val.Int)
		}
		return "1", nil
	}

	return "", fmt.Errorf("%w: scalar variable expects a bit value", ErrValue)
}

// formatVector renders a multi-bit value as a bit string, most
// significant bit first. Integer values use two's complement within the
// declared size; bit strings shorter than the declared size are kept
// as-is (viewers left-extend them), longer ones are rejected.
func formatVector(val Value, size int, check bool) (string, error) {
	switch val.Kind {
	case ValueInt:
		return formatVectorInt(val.Int, size, check)

	case ValueBit:
		if check && !isVectorChar(val.Bit) {
			return "", fmt.Errorf("%w: invalid vector value %q", ErrValue, val.Bit)
		}
		return string(val.Bit), nil

	case ValueBits:
		if val.Str == "" {
			return "", fmt.Errorf("%w: empty bit string", ErrValue)
		}
		if check {
			if len(val.Str) > size {
				return "", fmt.Errorf("%w: bit string %q longer than %d bits", ErrValue, val.Str, size)
			}
			for i := 0; i < len(val.Str); i++ {
				if !isVectorChar(val.Str[i]) {
					return "", fmt.Errorf("%w: invalid vector value %q", ErrValue, val.Str)
				}
			}
		}
		return val.Str, nil
	}

	return "", fmt.Errorf("%w: vector variable expects an integer or bit string", ErrValue)
}

// formatVectorInt renders v in binary, applying two's complement for
// negatives within size bits.
func formatVectorInt(v int64, size int, check bool) (string, error) {
	if check && size < 64 {
		max := int64(1) << size
		// Compare without negating v, which overflows for MinInt64.
		if v >= max || v < -(max>>1) {
			return "", fmt.Errorf("%w: value %d not representable in %d bits", ErrValue, v, size)
		}
	}

	u := uint64(v)
	if size < 64 {
		u &= 1<<size - 1
	}

	return strconv.FormatUint(u, 2), nil
}

// formatReal renders a floating point value with round-trip precision.
func formatReal(val Value, check bool) (string, error) {
	switch val.Kind {
	case ValueReal:
		return strconv.FormatFloat(val.Real, 'g', -1, 64), nil
	case ValueInt:
		return strconv.FormatFloat(float64(val.Int), 'g', -1, 64), nil
	}

	if check {
		return "", fmt.Errorf("%w: real variable expects a numeric value", ErrValue)
	}

	return "0", nil
}

// stringEscaper escapes characters that would break the line-oriented
// VCD grammar inside string values.
var stringEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\t", "\\t",
	"\n", "\\n",
	"\r", "\\r",
	" ", "\\x20",
)

// formatString renders a text value with reserved characters escaped.
func formatString(val Value) (string, error) {
	switch val.Kind {
	case ValueNone:
		return "", nil
	case ValueString:
		return stringEscaper.Replace(val.Str), nil
	}

	return "", fmt.Errorf("%w: string variable expects a text value", ErrValue)
}

// formatEvent renders an event trigger. Events have no state; any
// non-zero value triggers, zero is an error.
func formatEvent(val Value) (string, error) {
	switch val.Kind {
	case ValueBit:
		if val.Bit == '1' {
			return "1", nil
		}
	case ValueInt:
		if val.Int != 0 {
			return "1", nil
		}
	}

	return "", fmt.Errorf("%w: invalid event value", ErrValue)
}
