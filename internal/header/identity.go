package header

import (
	"fmt"
	"regexp"
	"strings"
)

// Identity names the participant, session, tracer and optional run a
// conversion belongs to.
type Identity struct {
	Subject string
	Session string
	Tracer  string
	Run     string
}

// MissingFieldError reports an identity field that was neither supplied nor
// derivable from the header.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s information could not be extracted from the header, provide it explicitly", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingIdentityField }

// Identity field names used in MissingFieldError.
const (
	FieldSubject = "subject ID"
	FieldSession = "session ID"
	FieldTracer  = "tracer"
)

var bracketed = regexp.MustCompile(`\[.*?\]`)

// NormalizeTracer removes every bracketed substring and upper-cases the
// rest. Surrounding whitespace is kept: "Fludeoxyglucose [18F]" becomes
// "FLUDEOXYGLUCOSE ".
func NormalizeTracer(s string) string {
	return strings.ToUpper(bracketed.ReplaceAllString(s, ""))
}

// DeriveIdentity fills the fields of explicit that are empty from seed.
// Explicit values always win and are used verbatim.
func DeriveIdentity(seed Seed, explicit Identity) (Identity, error) {
	id := explicit

	if id.Subject == "" {
		id.Subject = strings.TrimSpace(seed.Subject)
	}
	if id.Subject == "" {
		return Identity{}, &MissingFieldError{Field: FieldSubject}
	}

	if id.Session == "" {
		id.Session = strings.TrimSpace(seed.StudyDate)
	}
	if id.Session == "" {
		return Identity{}, &MissingFieldError{Field: FieldSession}
	}

	if id.Tracer == "" {
		id.Tracer = NormalizeTracer(seed.Radiopharmaceutical)
	}
	if strings.TrimSpace(id.Tracer) == "" {
		return Identity{}, &MissingFieldError{Field: FieldTracer}
	}

	for name, value := range map[string]string{
		FieldSubject: id.Subject,
		FieldSession: id.Session,
		FieldTracer:  id.Tracer,
		"run ID":     id.Run,
	} {
		if strings.ContainsAny(value, `/\`) || value == "." || value == ".." {
			return Identity{}, fmt.Errorf("%w: %s %q must not contain path separators", ErrInvalidHeader, name, value)
		}
	}
	return id, nil
}
