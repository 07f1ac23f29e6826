package content

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Portfolio is everything the page renders besides the navigation and the
// contact form.
type Portfolio struct {
	Profile  Profile      `yaml:"profile"`
	Home     Home         `yaml:"home"`
	About    About        `yaml:"about"`
	Skills   []SkillGroup `yaml:"skills"`
	Projects []Project    `yaml:"projects"`
}

type Profile struct {
	Name     string   `yaml:"name"`
	Initial  string   `yaml:"initial"`
	Title    string   `yaml:"title"`
	Location string   `yaml:"location"`
	Image    string   `yaml:"image"`
	Resume   string   `yaml:"resume"`
	Tagline  string   `yaml:"tagline"`
	Socials  []Social `yaml:"socials"`
}

type Social struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type Home struct {
	Greeting string `yaml:"greeting"`
	Intro    string `yaml:"intro"`
}

// About paragraphs are Markdown.
type About struct {
	Role       string   `yaml:"role"`
	Paragraphs []string `yaml:"paragraphs"`
}

type SkillGroup struct {
	Category string  `yaml:"category"`
	Skills   []Skill `yaml:"skills"`
}

// Skill level is a percentage.
type Skill struct {
	Name  string `yaml:"name"`
	Level int    `yaml:"level"`
	About string `yaml:"about"`
}

type Project struct {
	Title       string   `yaml:"title"`
	Tag         string   `yaml:"tag"`
	Image       string   `yaml:"image"`
	Description string   `yaml:"description"`
	Tech        []string `yaml:"tech"`
	GitHub      string   `yaml:"github"`
	Demo        string   `yaml:"demo"`
}

// Default returns the built-in portfolio.
func Default() (*Portfolio, error) {
	return Parse(defaultYAML)
}

// Load reads the portfolio from path, or returns Default when path is empty.
func Load(path string) (*Portfolio, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading content %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Portfolio, error) {
	var p Portfolio
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding content: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Portfolio) Validate() error {
	if p.Profile.Name == "" {
		return fmt.Errorf("profile.name is required")
	}
	for _, g := range p.Skills {
		if g.Category == "" {
			return fmt.Errorf("skill group without category")
		}
		for _, s := range g.Skills {
			if s.Name == "" {
				return fmt.Errorf("skill in %s without name", g.Category)
			}
			if s.Level < 0 || s.Level > 100 {
				return fmt.Errorf("skill %s: level %d outside 0-100", s.Name, s.Level)
			}
		}
	}
	for i, pr := range p.Projects {
		if pr.Title == "" {
			return fmt.Errorf("project %d without title", i)
		}
	}
	return nil
}

// LogoInitial returns the logo letter, derived from the name when unset.
func (p *Profile) LogoInitial() string {
	if p.Initial != "" {
		return p.Initial
	}
	if r, size := utf8.DecodeRuneInString(p.Name); size > 0 {
		return string(r)
	}
	return ""
}

// FirstName is the first word of the name.
func (p *Profile) FirstName() string {
	for i, r := range p.Name {
		if r == ' ' {
			return p.Name[:i]
		}
	}
	return p.Name
}

// Markdown renders src to HTML.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// AboutHTML renders every About paragraph.
func (p *Portfolio) AboutHTML() ([]string, error) {
	out := make([]string, 0, len(p.About.Paragraphs))
	for _, para := range p.About.Paragraphs {
		html, err := Markdown(para)
		if err != nil {
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}
