package web

import "time"

type toastKind string

const (
	toastSuccess toastKind = "success"
	toastError   toastKind = "error"
)

type toast struct {
	Kind toastKind
	Text string
}

// toasts collects notifications raised while handling one request so they
// can be rendered into the response fragment.
type toasts struct {
	items []toast
}

func (t *toasts) Success(text string) {
	t.items = append(t.items, toast{Kind: toastSuccess, Text: text})
}

func (t *toasts) Error(text string) {
	t.items = append(t.items, toast{Kind: toastError, Text: text})
}

// requestScheduler drops display resets: a fragment is rendered once and
// the browser times out the toast itself.
type requestScheduler struct{}

func (requestScheduler) AfterFunc(time.Duration, func()) {}

// scrollScheduler runs the scroll immediately and remembers the delay so it
// can be handed to the browser.
type scrollScheduler struct {
	delay time.Duration
}

func (s *scrollScheduler) AfterFunc(d time.Duration, f func()) {
	s.delay = d
	f()
}
