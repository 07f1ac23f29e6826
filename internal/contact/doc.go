// Package contact implements the contact form: field state, validation,
// and a submission lifecycle that hands messages to an external Sender.
//
// A Workflow moves Idle -> Editing -> Submitting -> Succeeded|Failed and
// back to a resting state after ResetDelay. Validation failures never reach
// the Sender. Successful deliveries clear the form; failed ones keep it so
// the visitor can retry. Only one submission may be in flight at a time.
package contact
