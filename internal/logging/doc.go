// Package logging wraps a global zap logger and provides the gin request
// logging middleware.
package logging
