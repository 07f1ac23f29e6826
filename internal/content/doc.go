// Package content holds the portfolio copy: profile, about text, skills and
// projects. The built-in copy is embedded YAML; a file can replace it.
package content
