package dto

// CreateServiceRequestRequest is the payload for opening a new service request
type CreateServiceRequestRequest struct {
	Phone            string  `json:"phone" validate:"required,mobile_format"`
	IssueType        string  `json:"issueType" validate:"required,oneof=install maintenance repair connect visit other"`
	SourcePath       *string `json:"sourcePath,omitempty" validate:"omitempty,oneof=web_form phone_call whatsapp technician other"`
	IsFollowUp       bool    `json:"isFollowUp,omitempty"`
	RelatedToInvoice *string `json:"relatedToInvoice,omitempty" validate:"omitempty,min=5,max=16"`
	ScheduledAt      *string `json:"scheduledAt,omitempty" validate:"omitempty"`
}

// UpdateRequestStatusRequest is the payload for moving a request through its lifecycle
type UpdateRequestStatusRequest struct {
	Status     string  `json:"status" validate:"required,oneof=pending scheduled in_progress done canceled"`
	ResultNote *string `json:"resultNote,omitempty" validate:"omitempty,max=2000"`
}

// CustomerSnapshotDTO is the customer contact data frozen into a request
type CustomerSnapshotDTO struct {
	FullName string  `json:"fullName"`
	Phone    string  `json:"phone"`
	AltPhone *string `json:"altPhone,omitempty"`
	Address  string  `json:"address"`
	City     string  `json:"city"`
}

// ServiceRequestDTO is the API representation of a service request
type ServiceRequestDTO struct {
	InvoiceCode      string              `json:"invoiceCode"`
	Status           string              `json:"status"`
	SourcePath       string              `json:"sourcePath"`
	IssueType        string              `json:"issueType"`
	RelatedToInvoice *string             `json:"relatedToInvoice,omitempty"`
	ScheduledAt      *string             `json:"scheduledAt,omitempty"`
	ResultNote       *string             `json:"resultNote,omitempty"`
	CreatedAt        string              `json:"createdAt"`
	Snapshot         CustomerSnapshotDTO `json:"snapshot"`
}

// ActiveRequestDTO is the compact view returned by the active-request lookup
type ActiveRequestDTO struct {
	InvoiceCode string `json:"invoiceCode"`
	Status      string `json:"status"`
	SourcePath  string `json:"sourcePath"`
	IssueType   string `json:"issueType"`
	CreatedAt   string `json:"createdAt"`
}

// ActiveRequestResponse wraps the active-request lookup result; Active is
// null when the phone has no open request.
type ActiveRequestResponse struct {
	Active *ActiveRequestDTO `json:"active"`
}

// RequestHistoryResponse is a paginated list of a phone's service requests
type RequestHistoryResponse struct {
	Items    []ServiceRequestDTO `json:"items"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
	Total    int64               `json:"total"`
}
