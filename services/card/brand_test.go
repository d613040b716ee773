package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		digits string
		want   Brand
	}{
		{"4242424242424242", BrandVisa},
		{"4", BrandVisa},
		{"5555555555554444", BrandMastercard},
		{"378282246310005", BrandAmex},
		{"341111111111111", BrandAmex},
		{"3", BrandUnknown},
		{"36", BrandUnknown},
		{"6011111111111117", BrandUnknown},
		{"", BrandUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.digits, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.digits))
		})
	}
}

func TestSpecFor(t *testing.T) {
	assert.Equal(t, 16, SpecFor(BrandVisa).MaxLength)
	assert.Equal(t, 3, BrandVisa.CVVLength())
	assert.Equal(t, 15, SpecFor(BrandAmex).MaxLength)
	assert.Equal(t, 4, BrandAmex.CVVLength())
	assert.Equal(t, "XXXX XXXXXX XXXXX", SpecFor(BrandAmex).Mask)
	assert.Equal(t, 0, BrandUnknown.ExpectedLength())
	assert.Equal(t, 16, BrandMastercard.ExpectedLength())
	assert.False(t, BrandUnknown.Known())
	assert.True(t, BrandAmex.Known())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      string
		wantBrand Brand
	}{
		{"partial visa", "42424", "4242 4", BrandVisa},
		{"full visa", "4242424242424242", "4242 4242 4242 4242", BrandVisa},
		{"visa truncated", "42424242424242429999", "4242 4242 4242 4242", BrandVisa},
		{"strips separators", "4242-4242 4242/4242", "4242 4242 4242 4242", BrandVisa},
		{"amex grouping", "378282246310005", "3782 822463 10005", BrandAmex},
		{"amex truncated", "3782822463100051234", "3782 822463 10005", BrandAmex},
		{"unknown", "6011111111111117", "6011 1111 1111 1117", BrandUnknown},
		{"empty", "", "", BrandUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, brand := Format(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantBrand, brand)
		})
	}
}

func TestFormatExpiry(t *testing.T) {
	assert.Equal(t, "1", FormatExpiry("1"))
	assert.Equal(t, "12", FormatExpiry("12"))
	assert.Equal(t, "12/2", FormatExpiry("122"))
	assert.Equal(t, "12/28", FormatExpiry("12/28"))
	assert.Equal(t, "12/28", FormatExpiry("122899"))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "XXXX XXXX XXXX 4242", Mask("4242 4242 4242 4242"))
	assert.Equal(t, "XXXX XXXXXX X0005", Mask("378282246310005"))
	assert.Equal(t, "", Mask("42"))
}
