package contact

import (
	"fmt"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// ValidEmail reports whether s has the shape of an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Field names one of the three form inputs.
type Field int

const (
	FieldName Field = iota
	FieldEmail
	FieldMessage
)

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldEmail:
		return "email"
	case FieldMessage:
		return "message"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField maps a form input name to a Field. "fullName" is accepted for
// name, matching older markup.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name", "fullname":
		return FieldName, nil
	case "email":
		return FieldEmail, nil
	case "message":
		return FieldMessage, nil
	}
	return 0, fmt.Errorf("unknown field %q", s)
}

// Form is the contact form's field state.
type Form struct {
	Name    string
	Email   string
	Message string
}

// Validity holds the per-field checks derived from a Form.
type Validity struct {
	NameOK    bool
	EmailOK   bool
	MessageOK bool
}

// All reports whether every field passed.
func (v Validity) All() bool {
	return v.NameOK && v.EmailOK && v.MessageOK
}

// Get returns the value of field f.
func (f Form) Get(field Field) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldMessage:
		return f.Message
	}
	return ""
}

// With returns a copy of f with field set to value.
func (f Form) With(field Field, value string) Form {
	switch field {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldMessage:
		f.Message = value
	}
	return f
}

// Empty reports whether all fields are empty.
func (f Form) Empty() bool {
	return f.Name == "" && f.Email == "" && f.Message == ""
}

func (f Form) Validity() Validity {
	return Validity{
		NameOK:    f.Name != "",
		EmailOK:   f.Email != "" && ValidEmail(f.Email),
		MessageOK: f.Message != "",
	}
}

// Submittable reports whether the form may be sent.
func (f Form) Submittable() bool {
	return f.Validity().All()
}

// Validate returns a *ValidationError naming the first failing field.
// The email shape is checked first.
func (f Form) Validate() error {
	v := f.Validity()
	switch {
	case !v.EmailOK:
		return &ValidationError{Field: FieldEmail, Reason: MsgInvalidEmail}
	case !v.NameOK:
		return &ValidationError{Field: FieldName, Reason: MsgMissingFields}
	case !v.MessageOK:
		return &ValidationError{Field: FieldMessage, Reason: MsgMissingFields}
	}
	return nil
}

// Message is the payload handed to a Sender.
type Message struct {
	Name    string `json:"from_name"`
	Email   string `json:"from_email"`
	Message string `json:"message"`
}

// Payload converts the form into the Message handed to a Sender.
func (f Form) Payload() Message {
	return Message{Name: f.Name, Email: f.Email, Message: f.Message}
}

// TemplateParams returns the message keyed the way email templates expect.
func (m Message) TemplateParams() map[string]string {
	return map[string]string{
		"from_name":  m.Name,
		"from_email": m.Email,
		"message":    m.Message,
	}
}
