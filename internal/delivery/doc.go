// Package delivery implements contact.Sender for the providers the site can
// relay messages through: the EmailJS REST API, plain SMTP, and a log-only
// sender for development.
package delivery
