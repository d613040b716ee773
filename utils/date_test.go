package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextBillingDate(t *testing.T) {
	from := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-11-16", FormatDate(NextBillingDate(from, false)))
	assert.Equal(t, "2027-10-16", FormatDate(NextBillingDate(from, true)))
}
