package contact

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ResetDelay is how long a success or failure stays on display.
const ResetDelay = 3 * time.Second

// Sender delivers a message to the site owner.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Notifier shows transient notifications. Calls are fire-and-forget.
type Notifier interface {
	Success(text string)
	Error(text string)
}

// Noticer is implemented by Sender errors that carry their own
// visitor-facing text.
type Noticer interface {
	Notice() string
}

// Scheduler runs f after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// State is the workflow's position in the submission lifecycle.
type State int

const (
	StateIdle State = iota
	StateEditing
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the last delivery outcome still on display.
type Result int

const (
	ResultNone Result = iota
	ResultSuccess
	ResultFailure
)

// Status tags an Outcome.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusPending
)

// Outcome is the result of one Submit call. Err is a *ValidationError or
// *DeliveryError when Status is StatusFailed, and ErrInFlight when
// StatusPending.
type Outcome struct {
	Status Status
	Err    error
}

func (o Outcome) OK() bool { return o.Status == StatusSucceeded }

// Workflow owns a contact form and its submissions.
type Workflow struct {
	sender     Sender
	notifier   Notifier
	scheduler  Scheduler
	resetDelay time.Duration

	mu      sync.Mutex
	form    Form
	state   State
	loading bool
	last    Result
	gen     int
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithScheduler replaces time.AfterFunc for the display reset.
func WithScheduler(s Scheduler) Option {
	return func(w *Workflow) { w.scheduler = s }
}

// WithResetDelay overrides ResetDelay.
func WithResetDelay(d time.Duration) Option {
	return func(w *Workflow) { w.resetDelay = d }
}

// WithForm starts the workflow with pre-filled fields.
func WithForm(f Form) Option {
	return func(w *Workflow) { w.form = f }
}

func NewWorkflow(sender Sender, notifier Notifier, opts ...Option) *Workflow {
	w := &Workflow{
		sender:     sender,
		notifier:   notifier,
		scheduler:  timeScheduler{},
		resetDelay: ResetDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.state = restingState(w.form)
	return w
}

func restingState(f Form) State {
	if f.Empty() {
		return StateIdle
	}
	return StateEditing
}

// UpdateField assigns value to field.
func (w *Workflow) UpdateField(field Field, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form = w.form.With(field, value)
	switch w.state {
	case StateIdle, StateEditing, StateFailed:
		w.state = restingState(w.form)
	}
}

// Clear empties all three fields whatever the current state.
func (w *Workflow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form = Form{}
	if w.state == StateEditing || w.state == StateFailed {
		w.state = StateIdle
	}
}

func (w *Workflow) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Loading is true only while a submission is in flight.
func (w *Workflow) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

func (w *Workflow) LastResult() Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *Workflow) IsSubmittable() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form.Submittable()
}

// CanSubmit gates the submit button: submittable and not loading.
func (w *Workflow) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.loading && w.form.Submittable()
}

// Submit validates the form and hands it to the Sender. It blocks until
// the Sender returns. Fields are cleared on success and kept on failure.
func (w *Workflow) Submit(ctx context.Context) Outcome {
	w.mu.Lock()
	if w.loading {
		w.mu.Unlock()
		return Outcome{Status: StatusPending, Err: ErrInFlight}
	}
	if err := w.form.Validate(); err != nil {
		w.mu.Unlock()
		var ve *ValidationError
		errors.As(err, &ve)
		w.notifier.Error(ve.Reason)
		return Outcome{Status: StatusFailed, Err: err}
	}
	msg := w.form.Payload()
	w.state = StateSubmitting
	w.loading = true
	w.gen++
	gen := w.gen
	w.mu.Unlock()

	sendErr := w.sender.Send(ctx, msg)

	w.mu.Lock()
	w.loading = false
	if sendErr != nil {
		w.state = StateFailed
		w.last = ResultFailure
	} else {
		w.state = StateSucceeded
		w.last = ResultSuccess
		w.form = Form{}
	}
	w.mu.Unlock()

	w.scheduler.AfterFunc(w.resetDelay, func() { w.resetDisplay(gen) })

	if sendErr != nil {
		text := MsgSendFailed
		var n Noticer
		if errors.As(sendErr, &n) {
			text = n.Notice()
		}
		w.notifier.Error(text)
		return Outcome{Status: StatusFailed, Err: &DeliveryError{Err: sendErr}}
	}
	w.notifier.Success(MsgSent)
	return Outcome{Status: StatusSucceeded}
}

// resetDisplay returns to the resting state unless a newer submission has
// started since gen.
func (w *Workflow) resetDisplay(gen int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen || w.loading {
		return
	}
	w.last = ResultNone
	if w.state == StateSucceeded || w.state == StateFailed {
		w.state = restingState(w.form)
	}
}

// KeyEvent is a key press seen by the form.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
	Alt   bool
}

// SubmitChord reports whether e is Ctrl+Enter or Cmd+Enter.
func (e KeyEvent) SubmitChord() bool {
	return e.Key == "Enter" && (e.Ctrl || e.Meta)
}

// HandleKey submits on the submit chord when the form can be submitted.
// The bool reports whether a submission was attempted.
func (w *Workflow) HandleKey(ctx context.Context, e KeyEvent) (Outcome, bool) {
	if !e.SubmitChord() || !w.CanSubmit() {
		return Outcome{}, false
	}
	return w.Submit(ctx), true
}
