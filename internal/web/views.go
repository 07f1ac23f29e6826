package web

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/saheer07/portfolio/internal/contact"
	"github.com/saheer07/portfolio/internal/content"
	"github.com/saheer07/portfolio/internal/tracker"
)

const (
	htmxSrc     = "https://unpkg.com/htmx.org@2.0.4"
	tailwindSrc = "https://cdn.tailwindcss.com"
)

// pageScript measures section geometry for the navbar requests, performs
// the scrolls the server asks for, and expires toasts.
const pageScript = `
function portfolioGeometry() {
  return Array.from(document.querySelectorAll('section[id]'))
    .map(function (s) { return s.id + ':' + s.offsetTop + ':' + s.offsetHeight; })
    .join(',');
}
function portfolioNav() {
  var n = document.getElementById('navbar');
  return {y: window.scrollY, prev: n.dataset.y, active: n.dataset.active, open: n.dataset.open, geom: portfolioGeometry()};
}
function portfolioKey(e) {
  if (!e || e.type !== 'keydown') { return {}; }
  return {key: e.key, ctrlKey: e.ctrlKey, metaKey: e.metaKey, shiftKey: e.shiftKey, altKey: e.altKey};
}
function portfolioCloseMenu() {
  var n = document.getElementById('navbar');
  if (!n || n.dataset.open !== 'true') { return; }
  htmx.ajax('POST', '/nav/close', {target: '#navbar', swap: 'outerHTML', values: portfolioNav()});
}
document.addEventListener('keyup', function (e) {
  if (e.key === 'Escape') { portfolioCloseMenu(); }
});
document.addEventListener('click', function (e) {
  if (!e.target.closest('#mobile-menu') && !e.target.closest('#menu-toggle')) { portfolioCloseMenu(); }
});
document.addEventListener('portfolio:scroll', function (e) {
  setTimeout(function () { window.scrollTo({top: e.detail.top, behavior: 'smooth'}); }, e.detail.delayMs);
});
document.addEventListener('htmx:afterSwap', function () {
  document.querySelectorAll('[data-toast]').forEach(function (t) {
    setTimeout(function () { t.remove(); }, parseInt(t.dataset.timeout, 10));
  });
});
`

// pageStyle swaps the submit label while a contact request is in flight.
const pageStyle = `
.sending-label { display: none; }
.htmx-request .sending-label { display: inline; }
.htmx-request .send-label { display: none; }
`

type pageData struct {
	Portfolio *content.Portfolio
	About     []string
	Sections  []tracker.Section
	Nav       tracker.NavigationState
	Form      contact.Form
	Year      int
}

func page(d pageData) g.Node {
	p := d.Portfolio
	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(g.Textf("%s | %s", p.Profile.Name, p.Profile.Title)),
				Script(Src(tailwindSrc)),
				Script(Src(htmxSrc)),
				Script(g.Raw(pageScript)),
				StyleEl(g.Raw(pageStyle)),
			),
			Body(
				Class("bg-gray-950 text-white"),
				navbar(p.Profile, d.Sections, d.Nav, 0),
				Main(
					Class("pt-16"),
					homeSection(p),
					aboutSection(p, d.About),
					skillsSection(p.Skills),
					projectsSection(p.Projects),
					contactSection(d.Form),
				),
				footer(p.Profile, d.Sections, d.Year),
			),
		),
	)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// navbar renders the fixed navigation. It carries its own state in data
// attributes so the next scroll request can send it back.
func navbar(profile content.Profile, sections []tracker.Section, st tracker.NavigationState, y float64) g.Node {
	barClass := "fixed top-0 w-full z-50 transition-all duration-300 bg-gray-950 py-4"
	if st.ScrolledPastThreshold {
		barClass = "fixed top-0 w-full z-50 transition-all duration-300 bg-black/70 backdrop-blur-lg shadow-lg py-2"
	}
	if !st.NavVisible {
		barClass += " -translate-y-full"
	}

	return Nav(
		ID("navbar"),
		Class(barClass),
		Data("active", st.ActiveSectionID),
		Data("open", strconv.FormatBool(st.MenuOpen)),
		Data("y", ftoa(y)),
		g.Attr("hx-get", "/nav"),
		g.Attr("hx-trigger", "scroll from:window throttle:150ms"),
		g.Attr("hx-vals", "js:portfolioNav()"),
		g.Attr("hx-swap", "outerHTML"),
		Div(
			Class("max-w-6xl mx-auto px-4 flex justify-between items-center"),
			navLink("home", "flex items-center gap-2 font-bold text-xl",
				Div(Class("w-10 h-10 bg-gradient-to-tr from-red-500 to-pink-500 rounded-full flex items-center justify-center font-extrabold"),
					g.Text(profile.LogoInitial())),
				Span(Class("text-red-500 text-2xl"), g.Text(profile.FirstName())),
			),
			Ul(
				Class("hidden md:flex gap-8 text-sm font-medium items-center"),
				g.Map(sections, func(s tracker.Section) g.Node {
					return Li(sectionLink(s, st.ActiveSectionID == s.ID))
				}),
			),
			Button(
				ID("menu-toggle"),
				Class("md:hidden"),
				Type("button"),
				Aria("label", menuLabel(st.MenuOpen)),
				Aria("expanded", strconv.FormatBool(st.MenuOpen)),
				Aria("controls", "mobile-menu"),
				g.Attr("hx-post", "/nav/toggle"),
				g.Attr("hx-vals", "js:portfolioNav()"),
				g.Attr("hx-target", "#navbar"),
				g.Attr("hx-swap", "outerHTML"),
				g.If(st.MenuOpen, g.Text("✕")),
				g.If(!st.MenuOpen, g.Text("☰")),
			),
		),
		g.If(st.MenuOpen,
			Div(
				ID("mobile-menu"),
				Class("fixed top-0 left-0 h-full w-64 bg-black/95 px-6 py-10 flex flex-col space-y-6 shadow-xl"),
				g.Map(sections, func(s tracker.Section) g.Node {
					return sectionLink(s, st.ActiveSectionID == s.ID)
				}),
				Div(Class("mt-auto flex gap-4 pt-6 border-t border-gray-700"), socialLinks(profile.Socials)),
			),
		),
		g.If(st.ShowScrollTop,
			Button(
				Class("fixed bottom-6 right-6 p-3 bg-red-500 rounded-full shadow-xl z-50 hover:bg-red-600"),
				Type("button"),
				Aria("label", "Scroll to top"),
				g.Attr("hx-post", "/nav/goto?section=top"),
				g.Attr("hx-vals", "js:portfolioNav()"),
				g.Attr("hx-target", "#navbar"),
				g.Attr("hx-swap", "outerHTML"),
				g.Text("↑"),
			),
		),
	)
}

func menuLabel(open bool) string {
	if open {
		return "Close menu"
	}
	return "Open menu"
}

func navLink(id, class string, children ...g.Node) g.Node {
	return A(
		Href("#"+id),
		Class(class),
		g.Attr("hx-post", "/nav/goto?section="+id),
		g.Attr("hx-vals", "js:portfolioNav()"),
		g.Attr("hx-target", "#navbar"),
		g.Attr("hx-swap", "outerHTML"),
		g.Group(children),
	)
}

func sectionLink(s tracker.Section, active bool) g.Node {
	class := "relative inline-block px-1 pb-1 transition-colors text-white hover:text-red-400"
	if active {
		class = "relative inline-block px-1 pb-1 transition-colors text-red-500 border-b-2 border-red-500"
	}
	return navLink(s.ID, class,
		g.If(active, Aria("current", "page")),
		g.Text(s.Label),
	)
}

func socialLinks(socials []content.Social) g.Node {
	return g.Map(socials, func(s content.Social) g.Node {
		return A(
			Href(s.URL),
			Target("_blank"),
			Rel("noopener noreferrer"),
			Aria("label", s.Label),
			Class("hover:text-red-400"),
			g.Text(s.Label),
		)
	})
}

func homeSection(p *content.Portfolio) g.Node {
	return Section(
		ID("home"),
		Class("min-h-screen flex flex-col md:flex-row items-center justify-center gap-10 px-6"),
		g.If(p.Profile.Image != "", Img(Src(p.Profile.Image), Alt("Profile"), Class("w-64 h-64 rounded-full object-cover"))),
		Div(
			H1(Class("text-5xl font-extrabold"), g.Text(p.Home.Greeting)),
			P(Class("mt-4 text-2xl text-red-500"), g.Text(p.Profile.Title)),
			P(Class("mt-4 max-w-xl text-gray-300"), g.Text(p.Home.Intro)),
			Div(
				Class("mt-6 flex gap-4"),
				navLink("projects", "px-6 py-3 bg-red-600 rounded-lg font-bold", g.Text("View Projects")),
				navLink("contact", "px-6 py-3 border border-red-600 rounded-lg font-bold", g.Text("Contact Me")),
			),
		),
	)
}

func aboutSection(p *content.Portfolio, paragraphs []string) g.Node {
	return Section(
		ID("about"),
		Class("py-20 px-6 max-w-5xl mx-auto"),
		H1(Class("text-5xl font-extrabold text-red-600 text-center mb-12"), g.Text("About Me")),
		H2(Class("text-3xl font-bold"), g.Text(p.Profile.Name)),
		P(Class("text-red-400"), g.Text(p.About.Role)),
		P(Class("text-gray-400"), g.Textf("Based in %s", p.Profile.Location)),
		Div(
			Class("mt-6 space-y-4 text-gray-300"),
			g.Map(paragraphs, func(html string) g.Node { return g.Raw(html) }),
		),
		g.If(p.Profile.Resume != "",
			A(Href(p.Profile.Resume), g.Attr("download"), Aria("label", "Download Resume"),
				Class("inline-block mt-8 px-6 py-3 bg-red-600 rounded-lg font-bold"),
				g.Text("Download Resume")),
		),
	)
}

func skillsSection(groups []content.SkillGroup) g.Node {
	return Section(
		ID("skills"),
		Class("py-20 px-6 max-w-6xl mx-auto"),
		H1(Class("text-5xl font-extrabold text-red-600 text-center mb-12"), g.Text("Skills")),
		g.Map(groups, func(grp content.SkillGroup) g.Node {
			return Div(
				Class("mb-10"),
				H2(Class("text-2xl font-bold capitalize mb-4"), g.Text(grp.Category)),
				Div(
					Class("grid gap-6 sm:grid-cols-2 lg:grid-cols-3"),
					g.Map(grp.Skills, skillCard),
				),
			)
		}),
	)
}

func skillCard(s content.Skill) g.Node {
	return Div(
		Class("rounded-xl bg-gray-900 p-6 shadow-lg"),
		g.Attr("title", s.Name),
		H3(Class("text-xl font-semibold"), g.Text(s.Name)),
		Div(
			Class("mt-4 h-3 w-full rounded-full bg-gray-700"),
			g.Attr("role", "progressbar"),
			Aria("valuenow", strconv.Itoa(s.Level)),
			Aria("valuemin", "0"),
			Aria("valuemax", "100"),
			Div(Class("h-3 rounded-full bg-red-600"), g.Attr("style", fmt.Sprintf("width: %d%%", s.Level))),
		),
		Span(Class("text-sm text-gray-400"), g.Textf("%d%%", s.Level)),
		P(Class("mt-4 text-sm text-gray-300"), g.Text(s.About)),
	)
}

func projectsSection(projects []content.Project) g.Node {
	return Section(
		ID("projects"),
		Class("py-20 px-6 max-w-6xl mx-auto"),
		H1(Class("text-5xl font-extrabold text-red-600 text-center mb-12"), g.Text("Projects")),
		Div(
			Class("grid gap-8 md:grid-cols-2"),
			g.Map(projects, projectCard),
		),
	)
}

func projectCard(pr content.Project) g.Node {
	return Div(
		Class("rounded-2xl bg-gray-900 overflow-hidden shadow-xl"),
		g.If(pr.Image != "", Img(Src(pr.Image), Alt(pr.Title), Class("w-full h-48 object-cover"), g.Attr("loading", "lazy"))),
		Div(
			Class("p-6"),
			Div(
				Class("flex items-center justify-between"),
				H3(Class("text-2xl font-bold"), g.Text(pr.Title)),
				g.If(pr.Tag != "", Span(Class("text-xs px-2 py-1 rounded bg-red-700"), g.Text(pr.Tag))),
			),
			P(Class("mt-3 text-gray-200 text-sm"), g.Text(pr.Description)),
			Ul(
				Class("mt-4 flex flex-wrap gap-2 text-xs"),
				g.Map(pr.Tech, func(t string) g.Node {
					return Li(Class("px-2 py-1 rounded bg-gray-800"), g.Text(t))
				}),
			),
			Div(
				Class("mt-6 flex gap-4"),
				g.If(pr.GitHub != "", A(Href(pr.GitHub), Target("_blank"), Rel("noopener noreferrer"), Class("text-red-400"), g.Text("GitHub"))),
				g.If(pr.Demo != "", A(Href(pr.Demo), Target("_blank"), Rel("noopener noreferrer"), Class("text-red-400"), g.Text("Live Demo"))),
			),
		),
	)
}

func contactSection(form contact.Form) g.Node {
	return Section(
		ID("contact"),
		Class("py-16 px-4"),
		Div(
			Class("max-w-3xl mx-auto text-center"),
			H1(Class("text-5xl font-extrabold text-red-600 mb-16"), g.Text("Contact Me")),
			contactForm(form, nil),
		),
	)
}

// contactForm is swapped in place after every submit or clear.
func contactForm(form contact.Form, notes []toast) g.Node {
	return Form(
		ID("contact-form"),
		Class("bg-gradient-to-br from-black via-gray-900 to-red-900 rounded-3xl p-8 space-y-8 text-left"),
		g.Attr("hx-post", "/contact"),
		g.Attr("hx-swap", "outerHTML"),
		g.Attr("hx-disabled-elt", "#contact-submit"),
		g.Attr("hx-indicator", "#contact-submit"),
		g.Attr("hx-trigger", "submit, keydown[(ctrlKey||metaKey)&&key=='Enter']"),
		// The chord is posted as a key event so the server can ignore it
		// while the form is not submittable.
		g.Attr("hx-vals", "js:portfolioKey(event)"),
		toastRegion(notes),
		field("name", "Name:", Input(ID("name"), Name("name"), Type("text"), Placeholder("Your Name"), Value(form.Name), Required(), inputClass())),
		field("email", "Email:", Input(ID("email"), Name("email"), Type("email"), Placeholder("Your Email"), Value(form.Email), Required(), inputClass())),
		field("message", "Message:", Textarea(ID("message"), Name("message"), Placeholder("Your Message"), g.Attr("rows", "6"), Required(), inputClass(), g.Text(form.Message))),
		Div(
			Class("flex justify-between gap-4"),
			Button(
				Type("button"),
				Class("w-1/2 bg-gray-700 hover:bg-gray-600 font-bold py-3 rounded-lg"),
				g.Attr("hx-post", "/contact/clear"),
				g.Attr("hx-target", "#contact-form"),
				g.Attr("hx-swap", "outerHTML"),
				g.Text("Clear All"),
			),
			submitSlot(form.Submittable()),
		),
	)
}

func field(id, label string, input g.Node) g.Node {
	return Div(
		g.El("label", g.Attr("for", id), Class("block mb-2 text-red-400 font-semibold"), g.Text(label)),
		input,
	)
}

func inputClass() g.Node {
	return Class("w-full p-4 rounded-lg bg-gray-800 border border-gray-700 focus:outline-none focus:ring-2 focus:ring-red-500")
}

// submitSlot re-validates on every input event and swaps in a fresh button.
func submitSlot(enabled bool) g.Node {
	return Div(
		ID("submit-slot"),
		Class("w-1/2"),
		g.Attr("hx-post", "/contact/validate"),
		g.Attr("hx-trigger", "input from:#contact-form"),
		g.Attr("hx-include", "#contact-form"),
		g.Attr("hx-target", "this"),
		g.Attr("hx-swap", "innerHTML"),
		submitButton(enabled),
	)
}

// submitButton is disabled until the form can be sent.
func submitButton(enabled bool) g.Node {
	class := "w-full font-bold py-3 rounded-lg bg-red-400 cursor-not-allowed"
	if enabled {
		class = "w-full font-bold py-3 rounded-lg bg-red-600 hover:bg-red-700"
	}
	return Button(
		ID("contact-submit"),
		Type("submit"),
		Class(class),
		g.If(!enabled, Disabled()),
		Span(Class("send-label"), g.Text("Send Message")),
		Span(Class("sending-label"), g.Text("Sending...")),
	)
}

func toastRegion(notes []toast) g.Node {
	return Div(
		ID("toasts"),
		Class("fixed top-4 left-1/2 -translate-x-1/2 space-y-2 z-50"),
		g.Attr("role", "status"),
		g.Map(notes, func(t toast) g.Node {
			class := "px-4 py-3 rounded-lg shadow-xl bg-gradient-to-br from-red-700 to-gray-800"
			if t.Kind == toastError {
				class = "px-4 py-3 rounded-lg shadow-xl bg-red-700"
			}
			return Div(
				Class(class),
				Data("toast", string(t.Kind)),
				Data("timeout", strconv.FormatInt(contact.ResetDelay.Milliseconds(), 10)),
				g.Text(t.Text),
			)
		}),
	)
}

func footer(profile content.Profile, sections []tracker.Section, year int) g.Node {
	return Footer(
		Class("bg-black py-10 px-6"),
		Div(
			Class("max-w-6xl mx-auto grid gap-8 md:grid-cols-3"),
			Div(
				navLink("home", "text-2xl font-bold text-red-500", g.Text(profile.FirstName())),
				P(Class("mt-2 text-gray-400"), g.Text(profile.Tagline)),
			),
			Nav(
				Aria("label", "Footer"),
				Ul(Class("space-y-2"), g.Map(sections, func(s tracker.Section) g.Node {
					return Li(navLink(s.ID, "hover:text-red-400", g.Text(s.Label)))
				})),
			),
			Div(Class("flex gap-4"), socialLinks(profile.Socials)),
		),
		P(Class("mt-8 text-center text-sm text-gray-500"),
			g.Textf("© %d %s. All rights reserved.", year, profile.Name)),
	)
}

func currentYear() int {
	return time.Now().Year()
}

type scrollEvent struct {
	Top     float64 `json:"top"`
	DelayMs int64   `json:"delayMs"`
}

// scrollTrigger builds the HX-Trigger header asking the browser to scroll.
func scrollTrigger(top float64, delay time.Duration) (string, error) {
	data, err := json.Marshal(map[string]scrollEvent{
		"portfolio:scroll": {Top: top, DelayMs: delay.Milliseconds()},
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
