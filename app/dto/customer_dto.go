package dto

// CreateCustomerRequest is the payload for registering a new customer
type CreateCustomerRequest struct {
	FullName        string  `json:"fullName" validate:"required,min=2,max=255"`
	Phone           string  `json:"phone" validate:"required,mobile_format"`
	Address         string  `json:"address" validate:"required,min=5"`
	AltPhone        *string `json:"altPhone,omitempty" validate:"omitempty,mobile_format"`
	City            *string `json:"city,omitempty" validate:"omitempty,max=100"`
	BirthYear       *int    `json:"birthYear,omitempty" validate:"omitempty,gte=1300,lte=1450"`
	BirthMonth      *int    `json:"birthMonth,omitempty" validate:"omitempty,gte=1,lte=12"`
	BirthDay        *int    `json:"birthDay,omitempty" validate:"omitempty,gte=1,lte=31"`
	DiscountPercent *int    `json:"discountPercent,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// UpdateCustomerRequest is the payload for editing an existing customer.
// Phone and join timestamp are immutable and deliberately absent.
type UpdateCustomerRequest struct {
	FullName        *string `json:"fullName,omitempty" validate:"omitempty,min=2,max=255"`
	Address         *string `json:"address,omitempty" validate:"omitempty,min=5"`
	AltPhone        *string `json:"altPhone,omitempty" validate:"omitempty,mobile_format"`
	City            *string `json:"city,omitempty" validate:"omitempty,max=100"`
	BirthYear       *int    `json:"birthYear,omitempty" validate:"omitempty,gte=1300,lte=1450"`
	BirthMonth      *int    `json:"birthMonth,omitempty" validate:"omitempty,gte=1,lte=12"`
	BirthDay        *int    `json:"birthDay,omitempty" validate:"omitempty,gte=1,lte=31"`
	DiscountPercent *int    `json:"discountPercent,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// CustomerDTO is the API representation of a customer
type CustomerDTO struct {
	UUID            string  `json:"uuid"`
	FullName        string  `json:"fullName"`
	Phone           string  `json:"phone"`
	AltPhone        *string `json:"altPhone,omitempty"`
	Address         string  `json:"address"`
	City            string  `json:"city"`
	BirthYear       *int    `json:"birthYear,omitempty"`
	BirthMonth      *int    `json:"birthMonth,omitempty"`
	BirthDay        *int    `json:"birthDay,omitempty"`
	DiscountPercent *int    `json:"discountPercent,omitempty"`
	JoinedAt        string  `json:"joinedAt"`
}
