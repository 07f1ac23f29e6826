// Package web serves the portfolio page with gin and renders it with
// gomponents. The navbar and the contact form are HTMX fragments: every
// interaction posts the client's state back and the handlers run a
// short-lived tracker.Tracker or contact.Workflow against it.
package web
