package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400

	// OTPExpiry is the time-to-live for login OTP codes (2 minutes)
	OTPExpiry = 2 * time.Minute

	// OTPExpirySeconds is the time-to-live for login OTP codes in seconds
	OTPExpirySeconds = 120

	// OTPMaxAttempts is the maximum number of verification attempts per issued code
	OTPMaxAttempts = 5

	// OTPResendCooldown is the minimum interval between two OTP issuances for the same phone
	OTPResendCooldown = 90 * time.Second
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Domain constants
const (
	// DefaultCity is the city assigned to customers who do not specify one
	DefaultCity = "Isfahan"

	// InvoiceSequencePad is the minimum width of the monthly sequence part of an invoice code
	InvoiceSequencePad = 2
)
