package robot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned for a mode name that does not exist.
var ErrUnknownMode = errors.New("unknown robot mode")

// Mode is the robot's operating mode.
type Mode int

const (
	// ModeDisabled stops the drive and keeps re-seeding the module encoders.
	ModeDisabled Mode = iota
	// ModeTeleop drives from operator intent.
	ModeTeleop
)

func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeTeleop:
		return "teleop"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a mode name, ignoring case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled":
		return ModeDisabled, nil
	case "teleop":
		return ModeTeleop, nil
	default:
		return ModeDisabled, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
