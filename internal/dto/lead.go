package dto

// LeadSubmission is the JSON payload posted by the contact form.
type LeadSubmission struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,leademail"`
	Company  string `json:"company,omitempty"`
	Budget   string `json:"budget,omitempty"`
	Message  string `json:"message" validate:"required"`

	// Website is the hidden honeypot input. Humans never see it.
	Website string `json:"website,omitempty"`
}

// SuccessResponse is returned when a submission is accepted.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is returned for client and server failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse carries a plain informational message.
type StatusResponse struct {
	Message string `json:"message"`
}
