package chart

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// siPrefixes covers exponents 10^-24 through 10^24 in steps of three.
var siPrefixes = []string{"y", "z", "a", "f", "p", "n", "µ", "m", "", "k", "M", "G", "T", "P", "E", "Z", "Y"}

const siPrecision = 6

// FormatCurrency renders v as a dollar amount with an SI magnitude suffix:
// 1200 -> "$1.2k", 45000 -> "$45k", 0 -> "$0".
func FormatCurrency(v float64) string {
	return "$" + FormatSI(v)
}

// FormatSI formats v to six significant digits with an SI prefix and trailing
// zeros removed.
func FormatSI(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 0) {
		if v < 0 {
			return "-Infinity"
		}
		return "Infinity"
	}

	neg := v < 0
	x := math.Abs(v)

	coef, exp := decimalParts(x, siPrecision)
	prefixExp := int(math.Max(-8, math.Min(8, math.Floor(float64(exp)/3))))
	i := exp - prefixExp*3 + 1
	n := len(coef)

	var s string
	switch {
	case i == n:
		s = coef
	case i > n:
		s = coef + strings.Repeat("0", i-n)
	case i > 0:
		s = coef[:i] + "." + coef[i:]
	default:
		c, _ := decimalParts(x, max(0, siPrecision+i-1))
		s = "0." + strings.Repeat("0", -i) + c
	}

	s = trimZeros(s)
	if s == "0" {
		return "0"
	}
	s += siPrefixes[8+prefixExp]
	if neg {
		return "-" + s
	}
	return s
}

// decimalParts returns the significant digits of x (no decimal point) and
// its base-10 exponent, rounded to p digits. p == 0 keeps all digits.
func decimalParts(x float64, p int) (string, int) {
	var str string
	if p > 0 {
		str = strconv.FormatFloat(x, 'e', p-1, 64)
	} else {
		str = strconv.FormatFloat(x, 'e', -1, 64)
	}
	mantissa, expPart, _ := strings.Cut(str, "e")
	exp, _ := strconv.Atoi(expPart)
	return strings.Replace(mantissa, ".", "", 1), exp
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatTimeTick labels t by its coarsest non-zero calendar field, in UTC.
func FormatTimeTick(t time.Time) string {
	t = t.UTC()
	switch {
	case t.Nanosecond() != 0:
		return t.Format(".000")
	case t.Second() != 0:
		return t.Format(":05")
	case t.Minute() != 0:
		return t.Format("03:04")
	case t.Hour() != 0:
		return t.Format("03 PM")
	case t.Day() != 1:
		if t.Weekday() != time.Sunday {
			return t.Format("Mon 02")
		}
		return t.Format("Jan 02")
	case t.Month() != time.January:
		return t.Format("January")
	default:
		return t.Format("2006")
	}
}
