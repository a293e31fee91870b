package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceMonthPrefix(t *testing.T) {
	cases := []struct {
		name     string
		instant  time.Time
		expected string
	}{
		{
			name:     "FirstJalaliMonth",
			instant:  time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC),
			expected: "401",
		},
		{
			name:     "MidYearMonth",
			instant:  time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC),
			expected: "405",
		},
		{
			name:     "YearDigitRollsOver",
			instant:  time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC),
			expected: "505",
		},
		{
			name:     "SecondHalfMonth",
			instant:  time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC),
			expected: "408",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, InvoiceMonthPrefix(tc.instant))
		})
	}
}

func TestJalaliYearMonth(t *testing.T) {
	year, month := JalaliYearMonth(time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, 1404, year)
	assert.Equal(t, 5, month)
}
