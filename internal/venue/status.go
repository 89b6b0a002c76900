package venue

import "git.home.luguber.info/inful/venuestatus/internal/foundation/normalization"

// Status is the open/closed state a venue displays.
type Status string

const (
	StatusOpeningSoon Status = "opening_soon"
	StatusOpen        Status = "open"
	StatusClosingSoon Status = "closing_soon"
	StatusClosed      Status = "closed"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusOpeningSoon, StatusOpen, StatusClosingSoon, StatusClosed}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpeningSoon, StatusOpen, StatusClosingSoon, StatusClosed:
		return true
	default:
		return false
	}
}

// IsSoon reports whether s is one of the lead-time statuses.
func (s Status) IsSoon() bool {
	return s == StatusOpeningSoon || s == StatusClosingSoon
}

func (s Status) String() string { return string(s) }

var statuses = normalization.WithFunc(map[string]Status{
	"opening_soon": StatusOpeningSoon,
	"open":         StatusOpen,
	"closing_soon": StatusClosingSoon,
	"closed":       StatusClosed,
}, "", normalization.Identifier)

// ParseStatus accepts the canonical names case-insensitively, with '-' or ' '
// in place of '_'.
func ParseStatus(raw string) (Status, error) {
	s := statuses.Normalize(raw)
	if s == "" {
		return "", ErrInvalidStatus.WithContext("status", raw)
	}
	return s, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
