package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/echoworks/lead-intake/internal/dto"
	"github.com/echoworks/lead-intake/internal/entity"
)

// EmailPattern accepts local@domain.tld shaped addresses without further TLD checks.
var EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	// MessageInvalidEmail is returned when the email fails the syntactic check.
	MessageInvalidEmail = "Invalid email format"

	missingFieldsPrefix = "Missing required fields: "
)

// ReasonKind classifies a field-level rejection.
type ReasonKind string

const (
	ReasonMissing      ReasonKind = "missing"
	ReasonInvalidEmail ReasonKind = "invalid_email"
)

// Reason explains why one field was rejected.
type Reason struct {
	Field string     `json:"field"`
	Kind  ReasonKind `json:"kind"`
}

// Outcome is the tag of a validation Result.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeRejected
	// OutcomeDiscarded marks a honeypot hit. Callers see it as a success.
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Result is either Accepted (Lead is set) or Rejected (Reasons and Message are set).
type Result struct {
	Outcome Outcome
	Lead    entity.Lead
	Reasons []Reason
	Message string
}

// Accepted reports whether the submission passed validation.
func (r Result) Accepted() bool {
	return r.Outcome == OutcomeAccepted
}

// LeadValidator applies the lead submission rules.
type LeadValidator struct {
	validate *validator.Validate
}

// NewLeadValidator builds a validator with the leademail tag registered.
func NewLeadValidator() *LeadValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("leademail", func(fl validator.FieldLevel) bool {
		return EmailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return &LeadValidator{validate: v}
}

var defaultValidator = NewLeadValidator()

// Validate checks a submission with the package default validator.
func Validate(submission dto.LeadSubmission) Result {
	return defaultValidator.Validate(submission)
}

// Validate checks required fields first and the email format second. It never fails with an error:
// every input maps to Accepted or Rejected.
func (v *LeadValidator) Validate(submission dto.LeadSubmission) Result {
	trimmed := trimSubmission(submission)

	err := v.validate.Struct(trimmed)
	if err == nil {
		return Result{Outcome: OutcomeAccepted, Lead: Normalize(submission)}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Struct-level misuse, not an input problem. Treat the payload as unusable.
		return Result{
			Outcome: OutcomeRejected,
			Message: missingFieldsPrefix + strings.Join(requiredFields, ", "),
			Reasons: missingReasons(requiredFields),
		}
	}

	var missing []string
	invalidEmail := false
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			missing = append(missing, fe.Field())
		case "leademail":
			invalidEmail = true
		}
	}

	if len(missing) > 0 {
		return Result{
			Outcome: OutcomeRejected,
			Message: missingFieldsPrefix + strings.Join(missing, ", "),
			Reasons: missingReasons(missing),
		}
	}
	if invalidEmail {
		return Result{
			Outcome: OutcomeRejected,
			Message: MessageInvalidEmail,
			Reasons: []Reason{{Field: "email", Kind: ReasonInvalidEmail}},
		}
	}

	return Result{Outcome: OutcomeRejected, Message: err.Error()}
}

var requiredFields = []string{"fullName", "email", "message"}

// Normalize trims every field, lowercases the email and drops blank optional fields.
func Normalize(submission dto.LeadSubmission) entity.Lead {
	t := trimSubmission(submission)
	return entity.Lead{
		FullName: t.FullName,
		Email:    strings.ToLower(t.Email),
		Company:  optional(t.Company),
		Budget:   optional(t.Budget),
		Message:  t.Message,
	}
}

// SubmissionFromLead converts a normalized lead back into its wire shape.
func SubmissionFromLead(lead entity.Lead) dto.LeadSubmission {
	sub := dto.LeadSubmission{
		FullName: lead.FullName,
		Email:    lead.Email,
		Message:  lead.Message,
	}
	if lead.Company != nil {
		sub.Company = *lead.Company
	}
	if lead.Budget != nil {
		sub.Budget = *lead.Budget
	}
	return sub
}

func trimSubmission(s dto.LeadSubmission) dto.LeadSubmission {
	return dto.LeadSubmission{
		FullName: strings.TrimSpace(s.FullName),
		Email:    strings.TrimSpace(s.Email),
		Company:  strings.TrimSpace(s.Company),
		Budget:   strings.TrimSpace(s.Budget),
		Message:  strings.TrimSpace(s.Message),
		Website:  strings.TrimSpace(s.Website),
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func missingReasons(fields []string) []Reason {
	reasons := make([]Reason, 0, len(fields))
	for _, f := range fields {
		reasons = append(reasons, Reason{Field: f, Kind: ReasonMissing})
	}
	return reasons
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}
