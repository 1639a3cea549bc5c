// Package admin validates settings entered by an administrator before they
// are saved, probing every source against the live API.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pders01/tweetsync/internal/config"
	"github.com/pders01/tweetsync/internal/importer"
	"github.com/pders01/tweetsync/internal/source"
)

// Form field names, matching the settings keys.
const (
	FieldImport         = "import"
	FieldUsernames      = "usernames"
	FieldCount          = "count"
	FieldExpire         = "expire"
	FieldConsumerKey    = "consumer_key"
	FieldConsumerSecret = "consumer_secret"
)

// Form is the raw settings input. Usernames is one space-separated string.
type Form struct {
	Import         bool
	Usernames      string
	Count          int
	Expire         int
	ConsumerKey    string
	ConsumerSecret string
}

// NewForm pre-fills a form from saved settings.
func NewForm(s config.Settings) Form {
	return Form{
		Import:         s.Import,
		Usernames:      strings.Join(s.Usernames, " "),
		Count:          s.Count,
		Expire:         s.Expire,
		ConsumerKey:    s.ConsumerKey,
		ConsumerSecret: s.ConsumerSecret,
	}
}

// Set assigns a field from its string form.
func (f *Form) Set(field, value string) error {
	switch field {
	case FieldImport:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		f.Import = b
	case FieldUsernames:
		f.Usernames = value
	case FieldCount, FieldExpire:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if field == FieldCount {
			f.Count = n
		} else {
			f.Expire = n
		}
	case FieldConsumerKey:
		f.ConsumerKey = value
	case FieldConsumerSecret:
		f.ConsumerSecret = value
	default:
		return fmt.Errorf("unknown setting %q", field)
	}
	return nil
}

// entries splits Usernames on single spaces, so doubled spaces leave an
// empty entry that validation reports.
func (f Form) entries() []string {
	trimmed := strings.TrimSpace(f.Usernames)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, " ")
}

// Settings converts the form to settings as they will be saved.
func (f Form) Settings() config.Settings {
	s := config.Settings{
		Import:         f.Import,
		Usernames:      f.entries(),
		Count:          f.Count,
		Expire:         f.Expire,
		ConsumerKey:    f.ConsumerKey,
		ConsumerSecret: f.ConsumerSecret,
	}
	s.Normalize()
	return s
}

// FieldError is a validation failure shown next to a form field. Source is
// set for errors about one entry of the usernames field.
type FieldError struct {
	Field   string
	Source  string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors is every problem found in one submission.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

// Connector builds an API client for a set of credentials.
type Connector func(consumerKey, consumerSecret string) importer.Fetcher

// Submit validates the form and, when the credentials are present, probes
// each source with a one-post fetch. It returns the settings to save, or
// Errors listing every problem.
func Submit(ctx context.Context, f Form, connect Connector) (config.Settings, error) {
	settings := f.Settings()
	var errs Errors

	// source problems are reported per entry below
	verr := settings.Validate()

	missingCredentials := errors.Is(verr, config.ErrMissingCredentials)
	if missingCredentials {
		if strings.TrimSpace(f.ConsumerKey) == "" {
			errs = append(errs, FieldError{Field: FieldConsumerKey, Message: "OAuth Consumer key field is required."})
		}
		if strings.TrimSpace(f.ConsumerSecret) == "" {
			errs = append(errs, FieldError{Field: FieldConsumerSecret, Message: "OAuth Consumer secret field is required."})
		}
	}
	if errors.Is(verr, config.ErrCountRange) {
		errs = append(errs, FieldError{Field: FieldCount, Message: config.ErrCountRange.Error()})
	}
	if errors.Is(verr, config.ErrExpireValue) {
		errs = append(errs, FieldError{Field: FieldExpire, Message: config.ErrExpireValue.Error()})
	}

	entries := f.entries()
	if len(entries) == 0 {
		errs = append(errs, FieldError{Field: FieldUsernames, Message: "Users for import field is required."})
	}

	var dispatcher *importer.Dispatcher
	if !missingCredentials && connect != nil {
		dispatcher = importer.NewDispatcher(connect(settings.ConsumerKey, settings.ConsumerSecret))
	}

	for _, raw := range entries {
		src, err := source.Parse(raw)
		if err != nil {
			errs = append(errs, FieldError{Field: FieldUsernames, Source: raw, Message: "Invalid user name."})
			continue
		}
		if dispatcher == nil {
			continue
		}
		if _, _, err := dispatcher.Fetch(ctx, src, 1, 0); err != nil {
			msg := err.Error()
			var fe *importer.FetchError
			if errors.As(err, &fe) {
				msg = fe.Message
			}
			errs = append(errs, FieldError{
				Field:   FieldUsernames,
				Source:  src.Raw,
				Message: fmt.Sprintf("Error: %q on user: %q", msg, src.Raw),
			})
		}
	}

	if len(errs) > 0 {
		return settings, errs
	}
	return settings, nil
}
