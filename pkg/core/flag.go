// pkg/core/flag.go
package core

import "strings"

// Flag is a boolean config value that may also be unset
type Flag int8

const (
	FlagUnset Flag = iota
	FlagFalse
	FlagTrue
)

// FlagOf converts a bool
func FlagOf(b bool) Flag {
	if b {
		return FlagTrue
	}
	return FlagFalse
}

// ParseFlag reads the persisted form. Anything other than an empty
// string or a case-insensitive "true" is false.
func ParseFlag(s string) Flag {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return FlagUnset
	case strings.EqualFold(s, "true"):
		return FlagTrue
	default:
		return FlagFalse
	}
}

// String returns "", "False" or "True"
func (f Flag) String() string {
	switch f {
	case FlagTrue:
		return "True"
	case FlagFalse:
		return "False"
	default:
		return ""
	}
}

func (f Flag) IsTrue() bool  { return f == FlagTrue }
func (f Flag) IsUnset() bool { return f == FlagUnset }
