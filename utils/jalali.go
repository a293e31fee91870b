package utils

import (
	"fmt"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// InvoiceMonthPrefix derives the invoice code prefix for the given instant:
// the last digit of the Jalali year followed by the two-digit Jalali month,
// both computed in the Tehran timezone. Jalali 1404/05 yields "405".
func InvoiceMonthPrefix(t time.Time) string {
	jt := ptime.New(t.In(ptime.Iran()))
	return fmt.Sprintf("%d%02d", jt.Year()%10, int(jt.Month()))
}

// JalaliYearMonth returns the Jalali year and month for the given instant
// in the Tehran timezone.
func JalaliYearMonth(t time.Time) (int, int) {
	jt := ptime.New(t.In(ptime.Iran()))
	return jt.Year(), int(jt.Month())
}

// FormatJalali renders the given instant as a Jalali date string in the
// Tehran timezone, e.g. "1404/05/23 14:03".
func FormatJalali(t time.Time) string {
	jt := ptime.New(t.In(ptime.Iran()))
	return jt.Format("yyyy/MM/dd HH:mm")
}
