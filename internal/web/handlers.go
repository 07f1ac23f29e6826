package web

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	g "maragu.dev/gomponents"

	"github.com/saheer07/portfolio/internal/contact"
	"github.com/saheer07/portfolio/internal/content"
	"github.com/saheer07/portfolio/internal/ledger"
	"github.com/saheer07/portfolio/internal/logging"
	"github.com/saheer07/portfolio/internal/tracker"
)

// Options configures a Server. Portfolio and Sender are required.
type Options struct {
	Portfolio *content.Portfolio
	Sections  []tracker.Section
	Sender    contact.Sender
	// Ledger is optional. Without it no visits are recorded.
	Ledger    *ledger.Ledger
	StaticDir string
}

// Server renders the portfolio page and answers its HTMX fragment requests.
type Server struct {
	portfolio *content.Portfolio
	about     []string
	sections  []tracker.Section
	sender    contact.Sender
	ledger    *ledger.Ledger
	staticDir string
}

func New(opts Options) (*Server, error) {
	if opts.Portfolio == nil {
		return nil, errors.New("web: portfolio content is required")
	}
	if opts.Sender == nil {
		return nil, errors.New("web: contact sender is required")
	}
	about, err := opts.Portfolio.AboutHTML()
	if err != nil {
		return nil, err
	}
	sections := opts.Sections
	if len(sections) == 0 {
		sections = tracker.DefaultSections
	}
	return &Server{
		portfolio: opts.Portfolio,
		about:     about,
		sections:  sections,
		sender:    opts.Sender,
		ledger:    opts.Ledger,
		staticDir: opts.StaticDir,
	}, nil
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware())
	if s.ledger != nil {
		r.Use(s.ledger.Middleware())
	}

	if s.staticDir != "" {
		if fi, err := os.Stat(s.staticDir); err == nil && fi.IsDir() {
			r.Static("/static", s.staticDir)
		}
	}

	r.GET("/", s.index)
	r.GET("/healthz", s.health)

	// Navbar fragments
	r.GET("/nav", s.navScroll)
	r.POST("/nav/toggle", s.navToggle)
	r.POST("/nav/goto", s.navGoto)
	r.POST("/nav/close", s.navClose)

	// Contact form fragments
	r.POST("/contact", s.contactSubmit)
	r.POST("/contact/clear", s.contactClear)
	r.POST("/contact/validate", s.contactValidate)

	r.POST("/api/contact", s.apiContact)

	return r
}

func (s *Server) index(c *gin.Context) {
	t := tracker.New(s.sections, &tracker.Layout{}, nil)
	render(c, http.StatusOK, page(pageData{
		Portfolio: s.portfolio,
		About:     s.about,
		Sections:  s.sections,
		Nav:       t.State(),
		Year:      currentYear(),
	}))
}

func (s *Server) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if s.ledger != nil {
		stats, err := s.ledger.Stats(c.Request.Context())
		if err != nil {
			logging.Error("Error reading ledger stats", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		resp["stats"] = stats
	}
	c.JSON(http.StatusOK, resp)
}

// navRequest is the navbar state posted back by the browser.
type navRequest struct {
	y       float64
	layout  *tracker.Layout
	tracker *tracker.Tracker
	sched   *scrollScheduler
}

func (s *Server) readNav(c *gin.Context) (*navRequest, error) {
	y, err := formFloat(c, "y")
	if err != nil {
		return nil, err
	}
	prev, err := formFloat(c, "prev")
	if err != nil {
		return nil, err
	}
	rects, err := tracker.ParseGeometry(c.Request.FormValue("geom"))
	if err != nil {
		return nil, err
	}
	open, _ := strconv.ParseBool(c.Request.FormValue("open"))

	layout := &tracker.Layout{Y: y, Rects: rects}
	sched := &scrollScheduler{}
	t := tracker.New(s.sections, layout, sched)
	t.Restore(tracker.NavigationState{
		ActiveSectionID:       c.Request.FormValue("active"),
		MenuOpen:              open,
		ScrolledPastThreshold: y > tracker.NearTop,
		NavVisible:            true,
		ShowScrollTop:         y > tracker.ScrollTopThreshold,
	}, prev)

	requestID := c.GetString("request_id")
	t.Subscribe(func(st tracker.NavigationState) {
		logging.Debug("Navigation state changed",
			zap.String("request_id", requestID),
			zap.String("active", st.ActiveSectionID),
			zap.Bool("menu_open", st.MenuOpen),
			zap.Bool("nav_visible", st.NavVisible),
		)
	})

	return &navRequest{y: y, layout: layout, tracker: t, sched: sched}, nil
}

func formFloat(c *gin.Context, key string) (float64, error) {
	v := c.Request.FormValue(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be a finite number", key)
	}
	return f, nil
}

func (s *Server) renderNav(c *gin.Context, nr *navRequest) {
	render(c, http.StatusOK, navbar(s.portfolio.Profile, s.sections, nr.tracker.State(), nr.y))
}

func (s *Server) navScroll(c *gin.Context) {
	nr, err := s.readNav(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	nr.tracker.OnScroll(nr.y)
	s.renderNav(c, nr)
}

func (s *Server) navToggle(c *gin.Context) {
	nr, err := s.readNav(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	nr.tracker.ToggleMenu()
	s.renderNav(c, nr)
}

// navClose handles Escape and clicks outside the open mobile menu.
func (s *Server) navClose(c *gin.Context) {
	nr, err := s.readNav(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	nr.tracker.CloseMenu()
	s.renderNav(c, nr)
}

// navGoto closes the menu and tells the browser where to scroll through an
// HX-Trigger event.
func (s *Server) navGoto(c *gin.Context) {
	nr, err := s.readNav(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	section := c.Query("section")
	if section == "top" {
		nr.tracker.ScrollToTop()
	} else {
		nr.tracker.NavigateTo(section)
	}

	if top, ok := nr.layout.Target(); ok {
		trigger, err := scrollTrigger(top, nr.sched.delay)
		if err != nil {
			logging.Error("Error encoding scroll trigger", zap.Error(err))
			c.String(http.StatusInternalServerError, "encoding scroll trigger failed")
			return
		}
		c.Header("HX-Trigger", trigger)
	}
	s.renderNav(c, nr)
}

func readForm(c *gin.Context) contact.Form {
	var f contact.Form
	for _, key := range []string{"fullName", "name", "email", "message"} {
		v, ok := c.GetPostForm(key)
		if !ok {
			continue
		}
		field, err := contact.ParseField(key)
		if err != nil {
			continue
		}
		f = f.With(field, v)
	}
	return f
}

// readKeyEvent returns the key press that triggered the request, if any.
func readKeyEvent(c *gin.Context) (contact.KeyEvent, bool) {
	key := c.PostForm("key")
	if key == "" {
		return contact.KeyEvent{}, false
	}
	return contact.KeyEvent{
		Key:   key,
		Ctrl:  c.PostForm("ctrlKey") == "true",
		Meta:  c.PostForm("metaKey") == "true",
		Shift: c.PostForm("shiftKey") == "true",
		Alt:   c.PostForm("altKey") == "true",
	}, true
}

func (s *Server) contactSubmit(c *gin.Context) {
	notes := &toasts{}
	w := contact.NewWorkflow(s.sender, notes,
		contact.WithForm(readForm(c)),
		contact.WithScheduler(requestScheduler{}),
	)

	ctx := ledger.WithClientIP(c.Request.Context(), c.ClientIP())
	var out contact.Outcome
	if e, ok := readKeyEvent(c); ok {
		var attempted bool
		out, attempted = w.HandleKey(ctx, e)
		if !attempted {
			render(c, http.StatusOK, contactForm(w.Form(), nil))
			return
		}
	} else {
		out = w.Submit(ctx)
	}
	if !out.OK() && contact.IsDelivery(out.Err) {
		logging.Warn("Contact delivery failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(out.Err),
		)
	}

	// HTMX only swaps 2xx responses, so failures are reported in the toast.
	render(c, http.StatusOK, contactForm(w.Form(), notes.items))
}

func (s *Server) contactClear(c *gin.Context) {
	w := contact.NewWorkflow(s.sender, &toasts{}, contact.WithForm(readForm(c)))
	w.Clear()
	render(c, http.StatusOK, contactForm(w.Form(), nil))
}

func (s *Server) contactValidate(c *gin.Context) {
	render(c, http.StatusOK, submitButton(readForm(c).Submittable()))
}

type contactRequest struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

// apiContact is the JSON variant of the contact form.
func (s *Server) apiContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	name := req.Name
	if name == "" {
		name = req.FullName
	}

	notes := &toasts{}
	w := contact.NewWorkflow(s.sender, notes,
		contact.WithForm(contact.Form{Name: name, Email: req.Email, Message: req.Message}),
		contact.WithScheduler(requestScheduler{}),
	)
	ctx := ledger.WithClientIP(c.Request.Context(), c.ClientIP())
	out := w.Submit(ctx)
	if out.OK() {
		c.JSON(http.StatusOK, gin.H{"status": "sent", "message": contact.MsgSent})
		return
	}

	var ve *contact.ValidationError
	var te *ledger.ThrottleError
	switch {
	case errors.As(out.Err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ve.Reason, "field": ve.Field.String()})
	case errors.As(out.Err, &te):
		c.Header("Retry-After", strconv.Itoa(int(time.Until(te.RetryAt).Seconds())+1))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": te.Notice(), "retry_at": te.RetryAt})
	default:
		logging.Warn("Contact delivery failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(out.Err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": contact.MsgSendFailed})
	}
}

func render(c *gin.Context, status int, n g.Node) {
	var buf bytes.Buffer
	if err := n.Render(&buf); err != nil {
		logging.Error("Error rendering view", zap.Error(err))
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
