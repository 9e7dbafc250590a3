package hibachi

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

var decimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Num parses a decimal literal, panicking on malformed input. It exists for
// call sites with constant literals; parse user input with decimal.NewFromString.
func Num(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("hibachi: invalid decimal literal " + s)
	}
	return d
}

// NumPtr is Num for the optional decimal parameters of order requests.
func NumPtr(s string) *decimal.Decimal {
	d := Num(s)
	return &d
}

// fullPrecisionString renders a decimal in plain positional notation, never
// scientific, matching what the exchange expects in request bodies.
func fullPrecisionString(d decimal.Decimal) string {
	return d.String()
}

// validDecimalString reports whether s is a plain non-negative decimal.
func validDecimalString(s string) bool {
	return decimalPattern.MatchString(s)
}

// newNonce returns the current epoch time in microseconds. The exchange
// requires strictly increasing nonces per account; microsecond resolution
// matches what its other SDKs send.
func newNonce() Nonce {
	return time.Now().UnixNano() / 1_000
}

// absoluteCreationDeadline converts a relative deadline in seconds to the
// absolute epoch-second deadline the exchange expects.
func absoluteCreationDeadline(seconds decimal.Decimal) int64 {
	return time.Now().Unix() + seconds.IntPart()
}
