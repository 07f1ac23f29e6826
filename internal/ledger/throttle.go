package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/saheer07/portfolio/internal/contact"
	"github.com/saheer07/portfolio/internal/logging"
)

type clientIPKey struct{}

// WithClientIP attaches the visitor's address to ctx for Throttle.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the address stored by WithClientIP.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// ThrottleError refuses a relay until RetryAt.
type ThrottleError struct {
	RetryAt time.Time
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("contact throttled until %s", e.RetryAt.Format(time.RFC3339))
}

// Notice is the text shown to the visitor.
func (e *ThrottleError) Notice() string {
	return "Too many messages. Please try again " + humanize.Time(e.RetryAt) + "."
}

// Throttle limits how many messages one client may relay per window and
// records every attempt it lets through.
type Throttle struct {
	Next   contact.Sender
	Ledger *Ledger
	Max    int
	Window time.Duration
}

func (t *Throttle) Send(ctx context.Context, msg contact.Message) error {
	ip := ClientIP(ctx)

	if t.Max > 0 {
		count, oldest, err := t.Ledger.Attempts(ctx, ip, t.Ledger.now().Add(-t.Window))
		if err != nil {
			// Lookup failures let the message through.
			logging.Warn("Throttle lookup failed", zap.Error(err))
		} else if count >= t.Max {
			return &ThrottleError{RetryAt: oldest.Add(t.Window)}
		}
	}

	sendErr := t.Next.Send(ctx, msg)
	if err := t.Ledger.RecordAttempt(ctx, ip, sendErr == nil); err != nil {
		logging.Warn("Recording contact attempt failed", zap.Error(err))
	}
	return sendErr
}
