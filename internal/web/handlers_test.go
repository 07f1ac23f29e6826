package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/saheer07/portfolio/internal/contact"
	"github.com/saheer07/portfolio/internal/content"
	"github.com/saheer07/portfolio/internal/ledger"
	"github.com/saheer07/portfolio/internal/logging"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type recordingSender struct {
	mu   sync.Mutex
	sent []contact.Message
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg contact.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func newTestServer(t *testing.T, sender contact.Sender, l *ledger.Ledger) http.Handler {
	t.Helper()
	p, err := content.Default()
	if err != nil {
		t.Fatalf("content.Default: %v", err)
	}
	srv, err := New(Options{Portfolio: p, Sender: sender, Ledger: l})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv.Handler()
}

func openLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(":memory:", "test-salt")
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func do(h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func doJSON(h http.Handler, target string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNew_RequiresSender(t *testing.T) {
	p, _ := content.Default()
	if _, err := New(Options{Portfolio: p}); err == nil {
		t.Error("Expected an error without a sender")
	}
	if _, err := New(Options{Sender: &recordingSender{}}); err == nil {
		t.Error("Expected an error without content")
	}
}

func TestIndex(t *testing.T) {
	l := openLedger(t)
	h := newTestServer(t, &recordingSender{}, l)

	w := do(h, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"Saheer Chungath",
		`id="home"`, `id="about"`, `id="skills"`, `id="projects"`, `id="contact"`,
		`data-active="home"`,
		`id="contact-form"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Unexpected content type %q", w.Header().Get("Content-Type"))
	}

	stats, err := l.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalVisitors != 1 {
		t.Errorf("Expected one recorded visit, got %d", stats.TotalVisitors)
	}
}

const testGeometry = "home:0:600,about:600:800,skills:1400:700,projects:2100:900,contact:3000:700"

func TestNavScroll(t *testing.T) {
	h := newTestServer(t, &recordingSender{}, nil)

	q := url.Values{
		"y":      {"700"},
		"prev":   {"200"},
		"active": {"home"},
		"open":   {"false"},
		"geom":   {testGeometry},
	}
	w := do(h, http.MethodGet, "/nav?"+q.Encode(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `data-active="about"`) {
		t.Errorf("Expected about to be active, got %s", body)
	}
	if !strings.Contains(body, `data-y="700"`) {
		t.Error("Expected the new offset to be carried in the fragment")
	}
	if !strings.Contains(body, "Scroll to top") {
		t.Error("Expected the scroll-to-top control past the threshold")
	}
	// Scrolling down hides the bar.
	if !strings.Contains(body, "-translate-y-full") {
		t.Error("Expected the navbar to hide while scrolling down")
	}
}

func TestNavScroll_NoMatchKeepsActive(t *testing.T) {
	h := newTestServer(t, &recordingSender{}, nil)

	q := url.Values{"y": {"50"}, "prev": {"100"}, "active": {"skills"}, "geom": {"home:500:100"}}
	w := do(h, http.MethodGet, "/nav?"+q.Encode(), nil)
	if !strings.Contains(w.Body.String(), `data-active="skills"`) {
		t.Errorf("Expected active section to be kept, got %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "-translate-y-full") {
		t.Error("Expected the navbar to show while scrolling up")
	}
}

func TestNavScroll_BadInput(t *testing.T) {
	h := newTestServer(t, &recordingSender{}, nil)

	for _, q := range []url.Values{
		{"geom": {"home:zero:600"}},
		{"y": {"down"}},
	} {
		w := do(h, http.MethodGet, "/nav?"+q.Encode(), nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%v: expected 400, got %d", q, w.Code)
		}
	}
}

func TestNavToggle(t *testing.T) {
	h := newTestServer(t, &recordingSender{}, nil)

	w := do(h, http.MethodPost, "/nav/toggle", url.Values{"open": {"false"}, "active": {"home"}})
	body := w.Body.String()
	if !strings.Contains(body, `data-open="true"`) || !strings.Contains(body, `id="mobile-menu"`) {
		t.Errorf("Expected the menu to open, got %s", body)
	}

	w = do(h, http.MethodPost, "/nav/toggle", url.Values{"open": {"true"}, "active": {"home"}})
	if !strings.Contains(w.Body.String(), `data-open="false"`) {
		t.Error("Expected the menu to close")
	}
}

func TestNavGoto(t *testing.T) {
	h := newTestServer(t, &recordingSender{}, nil)

	testCases := []struct {
		name        string
		section     string
		open        string
		wantTrigger string
	}{
		{"closed menu", "about", "false", `{"portfolio:scroll":{"top":520,"delayMs":0}}`},
		{"open menu waits", "projects", "true", `{"portfolio:scroll":{"top":2020,"delayMs":300}}`},
		{"top", "top", "false", `{"portfolio:scroll":{"top":0,"delayMs":0}}`},
		{"unknown section", "blog", "true", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			form := url.Values{"y": {"0"}, "active": {"home"}, "open": {tc.open}, "geom": {testGeometry}}
			w := do(h, http.MethodPost, "/nav/goto?section="+tc.section, form)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			if got := w.Header().Get("HX-Trigger"); got != tc.wantTrigger {
				t.Errorf("Expected trigger %q, got %q", tc.wantTrigger, got)
			}
			if !strings.Contains(w.Body.String(), `data-open="false"`) {
				t.Error("Expected navigation to close the menu")
			}
		})
	}
}

func formValues(name, email, message string) url.Values {
	return url.Values{"name": {name}, "email": {email}, "message": {message}}
}

func TestContactSubmit_Success(t *testing.T) {
	sender := &recordingSender{}
	h := newTestServer(t, sender, nil)

	w := do(h, http.MethodPost, "/contact", formValues("Ada", "ada@example.com", "Hello"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, contact.MsgSent) {
		t.Errorf("Expected success toast, got %s", body)
	}
	if strings.Contains(body, `value="Ada"`) {
		t.Error("Expected fields to be cleared after success")
	}
	if sender.count() != 1 || sender.sent[0].Email != "ada@example.com" {
		t.Errorf("Unexpected sends %+v", sender.sent)
	}
}

func TestContactSubmit_LegacyFieldName(t *testing.T) {
	sender := &recordingSender{}
	h := newTestServer(t, sender, nil)

	form := url.Values{"fullName": {"Ada"}, "email": {"ada@example.com"}, "message": {"Hi"}}
	do(h, http.MethodPost, "/contact", form)
	if sender.count() != 1 || sender.sent[0].Name != "Ada" {
		t.Errorf("Expected fullName to fill the name, got %+v", sender.sent)
	}
}

func TestContactSubmit_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		form url.Values
		want string
	}{
		{"bad email", formValues("Ada", "not-an-email", "Hello"), contact.MsgInvalidEmail},
		{"missing message", formValues("Ada", "ada@example.com", ""), contact.MsgMissingFields},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &recordingSender{}
			h := newTestServer(t, sender, nil)

			w := do(h, http.MethodPost, "/contact", tc.form)
			body := w.Body.String()
			if !strings.Contains(body, tc.want) {
				t.Errorf("Expected %q in %s", tc.want, body)
			}
			if !strings.Contains(body, `value="Ada"`) {
				t.Error("Expected fields to be kept")
			}
			if sender.count() != 0 {
				t.Error("Expected nothing to be sent")
			}
		})
	}
}

func TestContactSubmit_DeliveryFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("upstream down")}
	h := newTestServer(t, sender, nil)

	w := do(h, http.MethodPost, "/contact", formValues("Ada", "ada@example.com", "Hello"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, contact.MsgSendFailed) {
		t.Errorf("Expected failure toast, got %s", body)
	}
	if !strings.Contains(body, `value="Ada"`) || !strings.Contains(body, "Hello") {
		t.Error("Expected fields to be kept after a failure")
	}
}

func TestContactSubmit_Throttled(t *testing.T) {
	l := openLedger(t)
	sender := &recordingSender{}
	throttle := &ledger.Throttle{Next: sender, Ledger: l, Max: 1, Window: time.Hour}
	h := newTestServer(t, throttle, l)

	form := formValues("Ada", "ada@example.com", "Hello")
	do(h, http.MethodPost, "/contact", form)
	w := do(h, http.MethodPost, "/contact", form)

	if !strings.Contains(w.Body.String(), "Too many messages") {
		t.Errorf("Expected throttle notice, got %s", w.Body.String())
	}
	if sender.count() != 1 {
		t.Errorf("Expected one delivered message, got %d", sender.count())
	}
}

func TestContactClear(t *testing.T) {
	h := newTestServer(t, &recordingSender{}, nil)

	w := do(h, http.MethodPost, "/contact/clear", formValues("Ada", "ada@example.com", "Hello"))
	body := w.Body.String()
	if strings.Contains(body, `value="Ada"`) || strings.Contains(body, "ada@example.com") {
		t.Errorf("Expected empty fields, got %s", body)
	}
}

func TestContactValidate(t *testing.T) {
	h := newTestServer(t, &recordingSender{}, nil)

	w := do(h, http.MethodPost, "/contact/validate", formValues("Ada", "ada@", "Hello"))
	if !strings.Contains(w.Body.String(), "disabled") {
		t.Error("Expected a disabled button for an incomplete form")
	}

	w = do(h, http.MethodPost, "/contact/validate", formValues("Ada", "ada@example.com", "Hello"))
	if strings.Contains(w.Body.String(), "disabled") {
		t.Error("Expected an enabled button for a complete form")
	}
}

func TestAPIContact(t *testing.T) {
	valid := map[string]string{"name": "Ada", "email": "ada@example.com", "message": "Hello"}

	t.Run("sent", func(t *testing.T) {
		sender := &recordingSender{}
		w := doJSON(newTestServer(t, sender, nil), "/api/contact", valid)
		if w.Code != http.StatusOK || sender.count() != 1 {
			t.Errorf("Expected 200 and one send, got %d and %d", w.Code, sender.count())
		}
	})

	t.Run("invalid", func(t *testing.T) {
		body := map[string]string{"name": "Ada", "email": "nope", "message": "Hello"}
		w := doJSON(newTestServer(t, &recordingSender{}, nil), "/api/contact", body)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("Expected 422, got %d", w.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if resp["field"] != "email" || resp["error"] != contact.MsgInvalidEmail {
			t.Errorf("Unexpected response %v", resp)
		}
	})

	t.Run("delivery failure", func(t *testing.T) {
		sender := &recordingSender{err: errors.New("boom")}
		w := doJSON(newTestServer(t, sender, nil), "/api/contact", valid)
		if w.Code != http.StatusBadGateway {
			t.Errorf("Expected 502, got %d", w.Code)
		}
	})

	t.Run("throttled", func(t *testing.T) {
		l := openLedger(t)
		throttle := &ledger.Throttle{Next: &recordingSender{}, Ledger: l, Max: 1, Window: time.Hour}
		h := newTestServer(t, throttle, l)
		doJSON(h, "/api/contact", valid)
		w := doJSON(h, "/api/contact", valid)
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("Expected 429, got %d", w.Code)
		}
		if w.Header().Get("Retry-After") == "" {
			t.Error("Expected a Retry-After header")
		}
	})

	t.Run("bad body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newTestServer(t, &recordingSender{}, nil).ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestHealth(t *testing.T) {
	l := openLedger(t)
	h := newTestServer(t, &recordingSender{}, l)

	do(h, http.MethodGet, "/", nil)
	w := do(h, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp struct {
		Status string        `json:"status"`
		Stats  *ledger.Stats `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if resp.Status != "ok" || resp.Stats == nil || resp.Stats.TotalVisitors != 1 {
		t.Errorf("Unexpected health response %s", w.Body.String())
	}
}

func TestScrollTrigger(t *testing.T) {
	got, err := scrollTrigger(1234.5, 300*time.Millisecond)
	if err != nil {
		t.Fatalf("scrollTrigger: %v", err)
	}
	want := `{"portfolio:scroll":{"top":1234.5,"delayMs":300}}`
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestNavGoto_NonFiniteInput(t *testing.T) {
	h := newTestServer(t, &recordingSender{}, nil)

	for _, form := range []url.Values{
		{"geom": {"home:NaN:100"}},
		{"geom": {"home:0:+Inf"}},
		{"y": {"NaN"}, "geom": {testGeometry}},
		{"prev": {"-Inf"}, "geom": {testGeometry}},
	} {
		w := do(h, http.MethodPost, "/nav/goto?section=home", form)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%v: expected 400, got %d", form, w.Code)
		}
		if got := w.Header().Get("HX-Trigger"); got != "" {
			t.Errorf("%v: expected no trigger, got %q", form, got)
		}
	}
}

func TestNavGoto_TriggerIsJSON(t *testing.T) {
	h := newTestServer(t, &recordingSender{}, nil)

	form := url.Values{"y": {"0"}, "geom": {"home:0.25:100,about:612.75:800"}}
	w := do(h, http.MethodPost, "/nav/goto?section=about", form)
	var payload map[string]struct {
		Top     float64 `json:"top"`
		DelayMs int64   `json:"delayMs"`
	}
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &payload); err != nil {
		t.Fatalf("Unmarshal trigger: %v", err)
	}
	if got := payload["portfolio:scroll"].Top; got != 532.75 {
		t.Errorf("Expected top 532.75, got %v", got)
	}
}

func TestNavClose(t *testing.T) {
	h := newTestServer(t, &recordingSender{}, nil)

	w := do(h, http.MethodPost, "/nav/close", url.Values{"open": {"true"}, "active": {"skills"}, "y": {"900"}})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `data-open="false"`) || strings.Contains(body, `id="mobile-menu"`) {
		t.Errorf("Expected the menu to close, got %s", body)
	}
	if !strings.Contains(body, `data-active="skills"`) {
		t.Error("Expected the active section to be kept")
	}
	if got := w.Header().Get("HX-Trigger"); got != "" {
		t.Errorf("Expected no scroll, got %q", got)
	}
}

func TestNavStateChangesAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetLogger(zap.New(core))
	defer logging.SetLogger(nil)

	h := newTestServer(t, &recordingSender{}, nil)
	do(h, http.MethodPost, "/nav/toggle", url.Values{"open": {"false"}, "active": {"home"}})

	entries := logs.FilterMessage("Navigation state changed").All()
	if len(entries) != 1 {
		t.Fatalf("Expected one state change entry, got %d", len(entries))
	}
	if open, ok := entries[0].ContextMap()["menu_open"].(bool); !ok || !open {
		t.Errorf("Expected menu_open=true, got %v", entries[0].ContextMap())
	}
}

func chordValues(form url.Values, key string, ctrl bool) url.Values {
	form.Set("key", key)
	if ctrl {
		form.Set("ctrlKey", "true")
	} else {
		form.Set("ctrlKey", "false")
	}
	form.Set("metaKey", "false")
	return form
}

func TestContactSubmit_KeyChord(t *testing.T) {
	testCases := []struct {
		name      string
		form      url.Values
		wantSends int
		wantToast bool
	}{
		{"chord on incomplete form", chordValues(formValues("Jo", "jo@x", "hi"), "Enter", true), 0, false},
		{"chord on empty form", chordValues(formValues("", "", ""), "Enter", true), 0, false},
		{"enter without modifier", chordValues(formValues("Jo", "jo@x.com", "hi"), "Enter", false), 0, false},
		{"chord on complete form", chordValues(formValues("Jo", "jo@x.com", "hi"), "Enter", true), 1, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &recordingSender{}
			h := newTestServer(t, sender, nil)

			w := do(h, http.MethodPost, "/contact", tc.form)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			if sender.count() != tc.wantSends {
				t.Errorf("Expected %d sends, got %d", tc.wantSends, sender.count())
			}
			if got := strings.Contains(w.Body.String(), "data-toast="); got != tc.wantToast {
				t.Errorf("Expected toast %v, got %v in %s", tc.wantToast, got, w.Body.String())
			}
		})
	}
}

func TestIndex_SendingIndicator(t *testing.T) {
	h := newTestServer(t, &recordingSender{}, nil)

	body := do(h, http.MethodGet, "/", nil).Body.String()
	for _, want := range []string{
		`hx-indicator="#contact-submit"`,
		`class="sending-label"`,
		"Sending...",
		".htmx-request .sending-label",
		`id="menu-toggle"`,
		"/nav/close",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}
}
