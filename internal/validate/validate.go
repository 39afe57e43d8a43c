package validate

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Canadian postal code (A1A 1A1, space optional) or US ZIP / ZIP+4
	rePostal = regexp.MustCompile(`^([A-Za-z][0-9][A-Za-z] ?[0-9][A-Za-z][0-9]|[0-9]{5}(-[0-9]{4})?)$`)
	reEmail  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

func PostalCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 10 {
		return "", false
	}
	return strings.ToUpper(s), rePostal.MatchString(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 100 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a simple resource identifier (product/package ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Qty accepts any positive quantity. Stock limits are enforced by the cart.
func Qty(n int) bool {
	return n >= 1
}

// Stock accepts a non-negative stock count.
func Stock(n int) bool {
	return n >= 0
}

// Amount parses a positive money amount with at most two decimal places.
func Amount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() || !d.Round(2).Equal(d) {
		return decimal.Zero, false
	}
	return d, true
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	return l >= 8 && l <= 64
}
