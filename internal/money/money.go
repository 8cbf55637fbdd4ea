// Package money does billing arithmetic in integer centavos so installment
// sums never drift the way float math does.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Amount is a money value in minor units (centavos).
type Amount int64

// CeilDiv divides a by n rounding up to the next minor unit. Used for
// per-installment amounts so every installment but the last overestimates,
// never underestimates.
func CeilDiv(a Amount, n int64) Amount {
	if n <= 0 {
		return 0
	}
	return Amount((int64(a) + n - 1) / n)
}

// Parse converts a decimal string like "1234.56" to an Amount. At most two
// fractional digits are accepted.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac := s, ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole, frac = s[:idx], s[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	// ParseInt accepts a leading sign, so both parts must be checked for
	// stray signs first ("1.-5", "--1")
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	v := units*100 + cents
	if neg {
		v = -v
	}
	return Amount(v), nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String formats the amount as a plain decimal, e.g. 123456 -> "1234.56".
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON emits the decimal string form so API clients never see raw
// minor units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		// allow bare numbers like 2500 or 2500.50
		s = string(b)
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
