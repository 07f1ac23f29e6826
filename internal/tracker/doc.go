// Package tracker decides which page section is in view.
//
// A Tracker is fed scroll offsets and answers with a NavigationState: the
// active section, whether the navbar should show, and whether the
// scroll-to-top control is visible. Layout reads and scrolling go through the
// Viewport interface so the same logic runs against a live page or against
// geometry posted by the browser.
//
// Sections are checked in declaration order and the first whose range
// contains the offset wins. When nothing matches, the previous active
// section is kept.
package tracker
