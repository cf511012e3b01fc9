package entity

import "time"

// Budget ranges offered by the contact form. Any other non-blank value is kept as free text.
const (
	BudgetUnder5k    = "<5k"
	Budget5To25k     = "5-25k"
	Budget25To100k   = "25-100k"
	BudgetOver100k   = "100k+"
	notAvailableText = "N/A"
)

// KnownBudgets lists the ranges in the order the form presents them.
var KnownBudgets = []string{BudgetUnder5k, Budget5To25k, Budget25To100k, BudgetOver100k}

// Lead is a normalized lead submission.
type Lead struct {
	FullName string  `json:"fullName"`
	Email    string  `json:"email"`
	Company  *string `json:"company,omitempty"`
	Budget   *string `json:"budget,omitempty"`
	Message  string  `json:"message"`
}

// CompanyOrNA returns the company or "N/A" when absent.
func (l Lead) CompanyOrNA() string {
	return valueOrNA(l.Company)
}

// BudgetOrNA returns the budget or "N/A" when absent.
func (l Lead) BudgetOrNA() string {
	return valueOrNA(l.Budget)
}

// IsKnownBudget reports whether the budget matches one of the form's ranges.
func (l Lead) IsKnownBudget() bool {
	if l.Budget == nil {
		return false
	}
	for _, b := range KnownBudgets {
		if *l.Budget == b {
			return true
		}
	}
	return false
}

// LeadRecord is what gets handed to recording sinks.
type LeadRecord struct {
	Lead
	ReceivedAt time.Time `json:"receivedAt"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	RequestID  string    `json:"requestId,omitempty"`
}

func valueOrNA(v *string) string {
	if v == nil || *v == "" {
		return notAvailableText
	}
	return *v
}
