// Package contactform holds the state machine behind the public contact form:
// field values and errors, local validation, the honeypot and a single
// in-flight submission.
package contactform

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/echoworks/lead-intake/internal/dto"
	"github.com/echoworks/lead-intake/internal/service"
)

// Field names one form input.
type Field string

const (
	FieldFullName Field = "fullName"
	FieldEmail    Field = "email"
	FieldCompany  Field = "company"
	FieldBudget   Field = "budget"
	FieldMessage  Field = "message"
	FieldHoneypot Field = "honeypot"
)

const (
	ErrFullNameRequired = "Full name is required"
	ErrFullNameTooShort = "Full name must be at least 2 characters"
	ErrEmailRequired    = "Email is required"
	ErrEmailInvalid     = "Please enter a valid email address"
	ErrMessageRequired  = "Message is required"
	ErrMessageTooShort  = "Message must be at least 10 characters"

	minFullNameLength = 2
	minMessageLength  = 10
)

var (
	// ErrSubmitInFlight is returned while a previous Submit is still running.
	ErrSubmitInFlight = errors.New("contactform: submission already in flight")
	// ErrInvalidForm is returned when local validation fails.
	ErrInvalidForm = errors.New("contactform: form has validation errors")
)

// Variant styles a Notification.
type Variant string

const (
	VariantSuccess     Variant = "success"
	VariantDestructive Variant = "destructive"
)

// Notification is the toast shown after a submit attempt.
type Notification struct {
	Variant     Variant
	Title       string
	Description string
}

var (
	notifyInvalid = Notification{
		Variant:     VariantDestructive,
		Title:       "Validation Error",
		Description: "Please fill in all required fields correctly.",
	}
	notifySent = Notification{
		Variant:     VariantSuccess,
		Title:       "Message Sent!",
		Description: "Thank you for your inquiry. We'll get back to you within 24 hours.",
	}
)

const (
	failedTitle        = "Submission Failed"
	networkFailureText = "Something went wrong. Please try again later."
)

// Values are the raw form inputs.
type Values struct {
	FullName string
	Email    string
	Company  string
	Budget   string
	Message  string
	Honeypot string
}

// Form is safe for concurrent use.
type Form struct {
	poster       Poster
	logger       zerolog.Logger
	newRequestID func() string

	mu           sync.Mutex
	values       Values
	errors       map[Field]string
	notification *Notification

	inFlight atomic.Bool
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithLogger sets the logger for bot and submission failure lines.
func WithLogger(logger zerolog.Logger) FormOption {
	return func(f *Form) {
		f.logger = logger
	}
}

// WithRequestIDs overrides the request id generator.
func WithRequestIDs(gen func() string) FormOption {
	return func(f *Form) {
		if gen != nil {
			f.newRequestID = gen
		}
	}
}

// NewForm returns an empty form that submits through poster.
func NewForm(poster Poster, opts ...FormOption) *Form {
	f := &Form{
		poster:       poster,
		logger:       zerolog.Nop(),
		newRequestID: uuid.NewString,
		errors:       map[Field]string{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Set updates one field and clears its error.
func (f *Form) Set(field Field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case FieldFullName:
		f.values.FullName = value
	case FieldEmail:
		f.values.Email = value
	case FieldCompany:
		f.values.Company = value
	case FieldBudget:
		f.values.Budget = value
	case FieldMessage:
		f.values.Message = value
	case FieldHoneypot:
		f.values.Honeypot = value
	default:
		return
	}
	delete(f.errors, field)
}

// Values returns the current inputs.
func (f *Form) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Errors returns a copy of the current field errors.
func (f *Form) Errors() map[Field]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[Field]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Notification returns the last notification, if any.
func (f *Form) Notification() (Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notification == nil {
		return Notification{}, false
	}
	return *f.notification, true
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	return f.inFlight.Load()
}

// Validate runs the local checks, stores the resulting errors and reports
// whether the form is valid.
func (f *Form) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = validateValues(f.values)
	return len(f.errors) == 0
}

// Submit validates and posts the form. A filled honeypot ends the attempt
// silently with a nil error. Only one Submit runs at a time; overlapping
// calls get ErrSubmitInFlight and make no network call.
func (f *Form) Submit(ctx context.Context) error {
	if !f.inFlight.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer f.inFlight.Store(false)

	values := f.Values()
	if values.Honeypot != "" {
		f.logger.Warn().Msg("honeypot field filled, potential spam submission")
		return nil
	}

	if !f.Validate() {
		f.notify(notifyInvalid)
		return ErrInvalidForm
	}

	_, err := f.poster.PostLead(ctx, submissionFrom(values), f.newRequestID())
	if err != nil {
		f.logger.Error().Err(err).Msg("form submission error")

		description := networkFailureText
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			description = apiErr.Message
		}
		f.notify(Notification{Variant: VariantDestructive, Title: failedTitle, Description: description})
		return err
	}

	sent := notifySent
	f.mu.Lock()
	f.values = Values{}
	f.errors = map[Field]string{}
	f.notification = &sent
	f.mu.Unlock()
	return nil
}

func (f *Form) notify(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notification = &n
}

func validateValues(v Values) map[Field]string {
	errs := map[Field]string{}

	switch name := strings.TrimSpace(v.FullName); {
	case name == "":
		errs[FieldFullName] = ErrFullNameRequired
	case len([]rune(name)) < minFullNameLength:
		errs[FieldFullName] = ErrFullNameTooShort
	}

	switch email := strings.TrimSpace(v.Email); {
	case email == "":
		errs[FieldEmail] = ErrEmailRequired
	case !service.EmailPattern.MatchString(email):
		errs[FieldEmail] = ErrEmailInvalid
	}

	switch msg := strings.TrimSpace(v.Message); {
	case msg == "":
		errs[FieldMessage] = ErrMessageRequired
	case len([]rune(msg)) < minMessageLength:
		errs[FieldMessage] = ErrMessageTooShort
	}

	return errs
}

// submissionFrom trims every value; blank optional fields are omitted from the payload.
func submissionFrom(v Values) dto.LeadSubmission {
	return dto.LeadSubmission{
		FullName: strings.TrimSpace(v.FullName),
		Email:    strings.TrimSpace(v.Email),
		Company:  strings.TrimSpace(v.Company),
		Budget:   strings.TrimSpace(v.Budget),
		Message:  strings.TrimSpace(v.Message),
	}
}
