package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/echoworks/lead-intake/internal/contactform"
	"github.com/echoworks/lead-intake/internal/dto"
	"github.com/echoworks/lead-intake/internal/service"
)

type leadFlags struct {
	fullName string
	email    string
	company  string
	budget   string
	message  string
	website  string
}

func (f leadFlags) submission() dto.LeadSubmission {
	return dto.LeadSubmission{
		FullName: f.fullName,
		Email:    f.email,
		Company:  f.company,
		Budget:   f.budget,
		Message:  f.message,
		Website:  f.website,
	}
}

func bindLeadFlags(cmd *cobra.Command, f *leadFlags) {
	cmd.Flags().StringVar(&f.fullName, "name", "", "full name")
	cmd.Flags().StringVar(&f.email, "email", "", "email address")
	cmd.Flags().StringVar(&f.company, "company", "", "company (optional)")
	cmd.Flags().StringVar(&f.budget, "budget", "", "budget range: <5k, 5-25k, 25-100k, 100k+ (optional)")
	cmd.Flags().StringVar(&f.message, "message", "", "project description")
}

// NewRootCommand builds the leadctl command tree.
func NewRootCommand() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
		debug   bool
	)

	root := &cobra.Command{
		Use:          "leadctl",
		Short:        "Submit and inspect leads against the intake endpoint",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "url", envOr("LEADCTL_URL", "http://localhost:8080"), "site base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log form internals to stderr")

	newClient := func() (*contactform.Client, error) {
		return contactform.NewClient(&http.Client{Timeout: timeout}, baseURL)
	}
	newLogger := func(cmd *cobra.Command) zerolog.Logger {
		if !debug {
			return zerolog.Nop()
		}
		return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
	}

	root.AddCommand(
		newSubmitCommand(newClient, newLogger),
		newValidateCommand(),
		newStatusCommand(newClient),
	)
	return root
}

func newSubmitCommand(newClient func() (*contactform.Client, error), newLogger func(*cobra.Command) zerolog.Logger) *cobra.Command {
	var f leadFlags

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Fill the contact form from flags and submit it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			form := contactform.NewForm(client, contactform.WithLogger(newLogger(cmd)))
			form.Set(contactform.FieldFullName, f.fullName)
			form.Set(contactform.FieldEmail, f.email)
			form.Set(contactform.FieldCompany, f.company)
			form.Set(contactform.FieldBudget, f.budget)
			form.Set(contactform.FieldMessage, f.message)
			form.Set(contactform.FieldHoneypot, f.website)

			submitErr := form.Submit(cmd.Context())

			out := cmd.OutOrStdout()
			if n, ok := form.Notification(); ok {
				fmt.Fprintf(out, "%s: %s\n", n.Title, n.Description)
			}
			if errors.Is(submitErr, contactform.ErrInvalidForm) {
				for field, msg := range form.Errors() {
					fmt.Fprintf(out, "  %s: %s\n", field, msg)
				}
			}
			return submitErr
		},
	}
	bindLeadFlags(cmd, &f)
	cmd.Flags().StringVar(&f.website, "website", "", "honeypot value, for exercising bot handling")
	return cmd
}

func newValidateCommand() *cobra.Command {
	var f leadFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Apply the server validation rules locally and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result := service.Validate(f.submission())
			if err := writeJSON(cmd.OutOrStdout(), validateOutput{
				Outcome: result.Outcome.String(),
				Message: result.Message,
				Reasons: result.Reasons,
				Lead:    leadOutput(result),
			}); err != nil {
				return err
			}
			if !result.Accepted() {
				return errors.New(result.Message)
			}
			return nil
		},
	}
	bindLeadFlags(cmd, &f)
	return cmd
}

func newStatusCommand(newClient func() (*contactform.Client, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the lead endpoint is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status.Message)
			return nil
		},
	}
}

type validateOutput struct {
	Outcome string              `json:"outcome"`
	Message string              `json:"message,omitempty"`
	Reasons []service.Reason    `json:"reasons,omitempty"`
	Lead    *dto.LeadSubmission `json:"lead,omitempty"`
}

func leadOutput(result service.Result) *dto.LeadSubmission {
	if !result.Accepted() {
		return nil
	}
	sub := service.SubmissionFromLead(result.Lead)
	return &sub
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
