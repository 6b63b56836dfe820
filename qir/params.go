package qir

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// piExprRegex matches pi expressions: pi, 2pi, 2*pi, pi/2, 3*pi/4, -pi/2.
var piExprRegex = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)

// parseDouble decodes the literal of an LLVM double operand.
//
// Accepted forms:
//   - decimal and exponent: "1.5", "-2.000000e-01", "3"
//   - LLVM hexadecimal IEEE-754 bit pattern: "0x3FF921FB54442D18"
//   - pi expressions for hand-written modules: "pi/2", "-3*pi/4"
func parseDouble(lit string) (float64, bool) {
	s := strings.TrimSpace(lit)
	if s == "" {
		return 0, false
	}

	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return parseHexDouble(s[2:])
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}

	m := piExprRegex.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, false
	}
	coeff := 1.0
	if m[2] != "" {
		c, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, false
		}
		coeff = c
	}
	v := coeff * math.Pi
	if m[3] != "" {
		d, err := strconv.ParseFloat(m[3], 64)
		if err != nil || d == 0 {
			return 0, false
		}
		v /= d
	}
	if m[1] == "-" {
		v = -v
	}
	return v, true
}

// parseHexDouble reads the 16 hex digits LLVM prints for a double that has
// no exact short decimal form.
func parseHexDouble(digits string) (float64, bool) {
	if len(digits) != 16 {
		return 0, false
	}
	bits, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, false
	}
	return math.Float64frombits(bits), true
}

// formatParam renders an angle, using pi notation for the common fractions.
func formatParam(val float64) string {
	piForms := []struct {
		value   float64
		display string
	}{
		{2 * math.Pi, "2*pi"},
		{math.Pi, "pi"},
		{math.Pi / 2, "pi/2"},
		{math.Pi / 3, "pi/3"},
		{math.Pi / 4, "pi/4"},
		{math.Pi / 8, "pi/8"},
		{3 * math.Pi / 4, "3*pi/4"},
		{3 * math.Pi / 2, "3*pi/2"},
	}
	for _, pf := range piForms {
		switch {
		case math.Abs(val-pf.value) < 1e-12:
			return pf.display
		case math.Abs(val+pf.value) < 1e-12:
			return "-" + pf.display
		}
	}
	return fmt.Sprintf("%g", val)
}
