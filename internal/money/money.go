// Package money holds currency amounts as integer minor units (cents).
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAmount is returned when a value cannot be read as an amount with
// at most two decimal places.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a currency value in minor units. 1234.56 is Amount(123456).
type Amount int64

// FromMajor converts whole units to an Amount.
func FromMajor(units int64) Amount {
	return Amount(units * 100)
}

// Parse reads a decimal string such as "1500", "1500.5" or "-12.05".
// More than two decimal places is an error; amounts are never rounded.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && (!hasFrac || frac == "") {
		return 0, ErrInvalidAmount
	}
	if len(frac) > 2 || (hasFrac && frac == "") {
		return 0, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}

	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || major < 0 {
		return 0, ErrInvalidAmount
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || minor < 0 {
		return 0, ErrInvalidAmount
	}
	if major > (1<<63-1-minor)/100 {
		return 0, ErrInvalidAmount
	}

	v := major*100 + minor
	if neg {
		v = -v
	}
	return Amount(v), nil
}

// String formats the amount with two decimals and no grouping, e.g. "1234.50".
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Positive reports whether a is greater than zero.
func (a Amount) Positive() bool { return a > 0 }

// MarshalJSON renders the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	v, err := Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}
	*a = v
	return nil
}
