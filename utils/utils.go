// Package utils provides utility functions for the application.
package utils

func ToPtr[T any](v T) *T {
	return &v
}

func IsTrue(b *bool) bool {
	return b != nil && *b
}

// MaskPhone hides the middle digits of a phone number for display in
// responses and logs, e.g. "09123456789" becomes "0912***6789".
func MaskPhone(phone string) string {
	if len(phone) < 8 {
		return phone
	}
	return phone[:4] + "***" + phone[len(phone)-4:]
}
