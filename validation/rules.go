package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"edusaas-checkout-api/services/card"
)

const MinPasswordLength = 8

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)
)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func Email(value string) bool {
	return emailPattern.MatchString(value)
}

func PasswordLength(value string) bool {
	return utf8.RuneCountInString(value) >= MinPasswordLength
}

func PasswordsMatch(a, b string) bool {
	return a == b
}

// CardNumber checks length against the brand and then the Luhn checksum.
// Known brands need their exact length; unknown brands accept 13 to 19 digits.
func CardNumber(value string, brand card.Brand) bool {
	digits := card.DigitsOnly(value)
	if brand.Known() {
		if len(digits) != brand.ExpectedLength() {
			return false
		}
	} else if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	return Luhn(digits)
}

// Luhn reports whether digits carries a valid mod-10 checksum.
func Luhn(digits string) bool {
	if digits == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Expiry validates an MM/YY string; the card stays valid through its expiry month.
func Expiry(value string, now time.Time) bool {
	if !expiryPattern.MatchString(value) {
		return false
	}
	month, _ := strconv.Atoi(value[:2])
	year, _ := strconv.Atoi(value[3:])
	if month < 1 || month > 12 {
		return false
	}

	currentYear := now.Year() % 100
	currentMonth := int(now.Month())
	if year < currentYear {
		return false
	}
	if year == currentYear && month < currentMonth {
		return false
	}
	return true
}

// CVV requires exactly the brand's security code length, all digits.
func CVV(value string, brand card.Brand) bool {
	want := brand.CVVLength()
	if len(value) != want {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
