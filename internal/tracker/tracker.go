package tracker

import (
	"sync"
	"time"
)

const (
	// Lookback marks a section active slightly before its top reaches the
	// viewport, covering the fixed navbar.
	Lookback = 100.0
	// NavOffset is where NavigateTo aligns a section's top below the viewport top.
	NavOffset = 80.0
	// NearTop is the offset under which the navbar is always shown and drawn flat.
	NearTop = 10.0
	// ScrollTopThreshold is the offset past which the scroll-to-top control shows.
	ScrollTopThreshold = 300.0
	// MenuCloseDelay lets the mobile menu finish closing before scrolling.
	MenuCloseDelay = 300 * time.Millisecond
)

// Section is a statically declared, scroll-anchored content block.
type Section struct {
	ID    string
	Label string
}

// DefaultSections is the page's navigation order.
var DefaultSections = []Section{
	{ID: "home", Label: "Home"},
	{ID: "about", Label: "About"},
	{ID: "skills", Label: "Skills"},
	{ID: "projects", Label: "Projects"},
	{ID: "contact", Label: "Contact"},
}

// Viewport reads layout and scrolls the page.
type Viewport interface {
	ScrollY() float64
	// Bounds returns the rendered top offset and height of a section.
	Bounds(id string) (top, height float64, ok bool)
	// ScrollTo smooth-scrolls so that top is at the viewport top.
	ScrollTo(top float64)
}

// Scheduler runs f after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// RealScheduler schedules with time.AfterFunc.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// NavigationState is what the navbar renders from.
type NavigationState struct {
	ActiveSectionID       string
	MenuOpen              bool
	ScrolledPastThreshold bool
	NavVisible            bool
	ShowScrollTop         bool
}

// Tracker keeps NavigationState in sync with the scroll position.
type Tracker struct {
	sections  []Section
	viewport  Viewport
	scheduler Scheduler

	mu     sync.Mutex
	state  NavigationState
	prevY  float64
	nextID int
	subs   map[int]func(NavigationState)
}

// New returns a Tracker over sections. The first section starts active.
// A nil scheduler uses RealScheduler.
func New(sections []Section, vp Viewport, sched Scheduler) *Tracker {
	if sched == nil {
		sched = RealScheduler{}
	}
	t := &Tracker{
		sections:  append([]Section(nil), sections...),
		viewport:  vp,
		scheduler: sched,
		subs:      make(map[int]func(NavigationState)),
	}
	t.state.NavVisible = true
	if len(sections) > 0 {
		t.state.ActiveSectionID = sections[0].ID
	}
	return t
}

// Restore seeds the tracker with state carried over from a previous event,
// for callers that do not keep a Tracker alive between events.
func (t *Tracker) Restore(st NavigationState, prevY float64) {
	t.mu.Lock()
	if !t.known(st.ActiveSectionID) {
		st.ActiveSectionID = t.state.ActiveSectionID
	}
	t.state = st
	t.prevY = prevY
	t.mu.Unlock()
}

// State returns a snapshot of the current navigation state.
func (t *Tracker) State() NavigationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Sections returns the declared sections in order.
func (t *Tracker) Sections() []Section {
	return append([]Section(nil), t.sections...)
}

// Subscribe registers fn to receive every state change. The returned
// function removes it.
func (t *Tracker) Subscribe(fn func(NavigationState)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// OnScroll recomputes navbar visibility, the scroll-to-top control and the
// active section for the given offset.
func (t *Tracker) OnScroll(offset float64) {
	t.update(func(st *NavigationState) {
		st.ScrolledPastThreshold = offset > NearTop
		st.NavVisible = t.prevY > offset || offset < NearTop
		st.ShowScrollTop = offset > ScrollTopThreshold
		if id, ok := Resolve(t.sections, t.viewport.Bounds, offset); ok {
			st.ActiveSectionID = id
		}
		t.prevY = offset
	})
}

// NavigateTo closes the mobile menu and scrolls the section into place,
// waiting for the menu animation only when the menu was open.
func (t *Tracker) NavigateTo(id string) {
	var wasOpen bool
	t.update(func(st *NavigationState) {
		wasOpen = st.MenuOpen
		st.MenuOpen = false
	})

	scroll := func() {
		top, _, ok := t.viewport.Bounds(id)
		if !ok {
			return
		}
		t.viewport.ScrollTo(top - NavOffset)
	}
	if wasOpen {
		t.scheduler.AfterFunc(MenuCloseDelay, scroll)
		return
	}
	scroll()
}

// ScrollToTop scrolls to offset 0.
func (t *Tracker) ScrollToTop() {
	t.viewport.ScrollTo(0)
}

// ToggleMenu flips the mobile menu.
func (t *Tracker) ToggleMenu() {
	t.update(func(st *NavigationState) { st.MenuOpen = !st.MenuOpen })
}

// CloseMenu closes the mobile menu (Escape, click outside).
func (t *Tracker) CloseMenu() {
	t.update(func(st *NavigationState) { st.MenuOpen = false })
}

func (t *Tracker) update(fn func(*NavigationState)) {
	t.mu.Lock()
	before := t.state
	fn(&t.state)
	after := t.state
	var subs []func(NavigationState)
	if after != before {
		for _, s := range t.subs {
			subs = append(subs, s)
		}
	}
	t.mu.Unlock()

	for _, s := range subs {
		s(after)
	}
}

func (t *Tracker) known(id string) bool {
	for _, s := range t.sections {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Resolve returns the first section, in declaration order, whose
// [top-Lookback, top-Lookback+height) range contains offset. Sections that
// bounds cannot locate are skipped.
func Resolve(sections []Section, bounds func(id string) (top, height float64, ok bool), offset float64) (string, bool) {
	for _, s := range sections {
		top, height, ok := bounds(s.ID)
		if !ok {
			continue
		}
		start := top - Lookback
		if offset >= start && offset < start+height {
			return s.ID, true
		}
	}
	return "", false
}
