// Package config loads the site configuration: built-in defaults, then an
// optional YAML file, then PORTFOLIO_* environment variables.
package config
