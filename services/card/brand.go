package card

import "strings"

type Brand string

const (
	BrandUnknown    Brand = ""
	BrandVisa       Brand = "visa"
	BrandMastercard Brand = "mastercard"
	BrandAmex       Brand = "amex"
)

// Spec holds the display and length constraints of a card brand.
type Spec struct {
	Mask      string
	MaxLength int
	CVVLength int
	Groups    []int
}

var specs = map[Brand]Spec{
	BrandVisa:       {Mask: "XXXX XXXX XXXX XXXX", MaxLength: 16, CVVLength: 3, Groups: []int{4, 4, 4, 4}},
	BrandMastercard: {Mask: "XXXX XXXX XXXX XXXX", MaxLength: 16, CVVLength: 3, Groups: []int{4, 4, 4, 4}},
	BrandAmex:       {Mask: "XXXX XXXXXX XXXXX", MaxLength: 15, CVVLength: 4, Groups: []int{4, 6, 5}},
	// Unknown brands are grouped in fours up to the longest PAN length.
	BrandUnknown: {Mask: "XXXX XXXX XXXX XXXX", MaxLength: 19, CVVLength: 3, Groups: []int{4, 4, 4, 4, 3}},
}

// Detect maps the leading digits of a card number to a brand.
func Detect(digits string) Brand {
	if digits == "" {
		return BrandUnknown
	}
	switch digits[0] {
	case '4':
		return BrandVisa
	case '5':
		return BrandMastercard
	case '3':
		if len(digits) > 1 && (digits[1] == '4' || digits[1] == '7') {
			return BrandAmex
		}
	}
	return BrandUnknown
}

// SpecFor returns the constraints for b, falling back to the generic spec.
func SpecFor(b Brand) Spec {
	if s, ok := specs[b]; ok {
		return s
	}
	return specs[BrandUnknown]
}

// ExpectedLength is the exact digit count required for a known brand, or 0 when unknown.
func (b Brand) ExpectedLength() int {
	if b == BrandUnknown {
		return 0
	}
	return SpecFor(b).MaxLength
}

func (b Brand) CVVLength() int {
	return SpecFor(b).CVVLength
}

func (b Brand) Known() bool {
	_, ok := specs[b]
	return ok && b != BrandUnknown
}

// DigitsOnly strips every non-digit rune.
func DigitsOnly(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Format regroups raw input into the detected brand's grouping and truncates anything
// past the brand's maximum length.
func Format(raw string) (string, Brand) {
	digits := DigitsOnly(raw)
	brand := Detect(digits)
	spec := SpecFor(brand)
	if len(digits) > spec.MaxLength {
		digits = digits[:spec.MaxLength]
	}

	var sb strings.Builder
	pos := 0
	for _, size := range spec.Groups {
		if pos >= len(digits) {
			break
		}
		end := pos + size
		if end > len(digits) {
			end = len(digits)
		}
		if pos > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(digits[pos:end])
		pos = end
	}
	return sb.String(), brand
}

// FormatExpiry keeps up to four digits and inserts the MM/YY separator.
func FormatExpiry(raw string) string {
	digits := DigitsOnly(raw)
	if len(digits) > 4 {
		digits = digits[:4]
	}
	if len(digits) <= 2 {
		return digits
	}
	return digits[:2] + "/" + digits[2:]
}

// Mask hides everything but the last four digits, e.g. "XXXX XXXX XXXX 4242".
func Mask(number string) string {
	digits := DigitsOnly(number)
	if len(digits) < 4 {
		return ""
	}
	last4 := digits[len(digits)-4:]
	mask := SpecFor(Detect(digits)).Mask
	return mask[:len(mask)-4] + last4
}
