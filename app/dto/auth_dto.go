package dto

// RequestOTPRequest is the payload for requesting a login code
type RequestOTPRequest struct {
	Phone string `json:"phone" validate:"required,mobile_format"`
}

// RequestOTPResponse reports a successfully issued login code
type RequestOTPResponse struct {
	OTPSent     bool   `json:"otpSent"`
	MaskedPhone string `json:"maskedPhone"`
	ExpiresIn   int    `json:"expiresIn"`
}

// VerifyOTPRequest is the payload for verifying a login code. PIN is only
// consulted for the configured admin phone.
type VerifyOTPRequest struct {
	Phone string  `json:"phone" validate:"required,mobile_format"`
	Code  string  `json:"code" validate:"required,len=6,numeric"`
	PIN   *string `json:"pin,omitempty" validate:"omitempty,min=4,max=32"`
}

// VerifyOTPResponse reports a successful login
type VerifyOTPResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresIn int          `json:"expiresIn"`
	Role      string       `json:"role"`
	Customer  *CustomerDTO `json:"customer,omitempty"`
}
