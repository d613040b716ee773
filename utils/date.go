package utils

import (
	"time"
)

// NextBillingDate is one billing period after from.
func NextBillingDate(from time.Time, annual bool) time.Time {
	if annual {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

func FormatDate(date time.Time) string {
	return date.Format("2006-01-02")
}
