package config

import "errors"

// Sentinel errors for the configuration layer. Callers distinguish a missing
// or unreadable file (ErrLoad) from malformed TOML (ErrParse) and from
// well-formed but out-of-range values (ErrValidation) using errors.Is.
var (
	ErrLoad       = errors.New("config load error")
	ErrParse      = errors.New("config parse error")
	ErrValidation = errors.New("config validation error")
	ErrWrite      = errors.New("config write error")
)
