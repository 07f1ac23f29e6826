package contact

import (
	"errors"
	"fmt"
)

// Notification texts shown to the visitor.
const (
	MsgInvalidEmail  = "Please enter a valid email address."
	MsgMissingFields = "Please fill in all fields."
	MsgSent          = "Message sent successfully!"
	MsgSendFailed    = "Failed to send message. Please try again."
)

// ErrInFlight is returned when a submission arrives while another is
// still being delivered.
var ErrInFlight = errors.New("contact: submission already in flight")

// ValidationError is a client-side rejection. Nothing was sent.
type ValidationError struct {
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("contact: invalid %s: %s", e.Field, e.Reason)
}

// DeliveryError wraps a failure reported by the Sender.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("contact: delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDelivery reports whether err is a *DeliveryError.
func IsDelivery(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}
