package parse

import (
	"strings"
	"time"
)

// RawRecord is one export entry as supplied by the reader. It is never
// modified once read.
type RawRecord struct {
	ID               string
	SenderID         string
	DisplayName      string
	ArrivalTimestamp string // ISO-8601
	TypeTag          string
	RawContent       string
	ConversationID   string
	Properties       map[string]any
}

type Kind int

const (
	KindText Kind = iota
	KindSystem
	KindCall
	KindNotice
	KindMedia
)

var kindNames = [...]string{"text", "system", "call", "notice", "media"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "text"
}

// ParseKind is the inverse of Kind.String; unknown names map to KindText.
func ParseKind(s string) Kind {
	for i, n := range kindNames {
		if n == s {
			return Kind(i)
		}
	}
	return KindText
}

// Message is the normalized, display-ready form of a RawRecord.
// Content is sanitized HTML except for legacy "Text" records.
type Message struct {
	ID              string
	DisplayName     *string
	Timestamp       time.Time
	Content         string
	Kind            Kind
	SenderID        string
	IsOwner         bool
	OriginalTypeTag string
	MediaRef        *string
}

// Name returns the display name or "" when there is none.
func (m Message) Name() string {
	if m.DisplayName == nil {
		return ""
	}
	return *m.DisplayName
}

// ViewContext is the per-pass view of one conversation. SkipIDs is written
// by translation pairing and read by the classifier within the same pass.
type ViewContext struct {
	ViewerID           string
	CounterpartID      string
	PerspectiveSwapped bool
	SkipIDs            map[string]struct{}
}

func NewViewContext(viewerID, counterpartID string, swapped bool) *ViewContext {
	return &ViewContext{
		ViewerID:           viewerID,
		CounterpartID:      counterpartID,
		PerspectiveSwapped: swapped,
		SkipIDs:            make(map[string]struct{}),
	}
}

func (v *ViewContext) Skip(id string) {
	if v.SkipIDs == nil {
		v.SkipIDs = make(map[string]struct{})
	}
	v.SkipIDs[id] = struct{}{}
}

func (v *ViewContext) Skipped(id string) bool {
	_, ok := v.SkipIDs[id]
	return ok
}

// IsOwner reports whether senderID is the viewer, flipped when the
// perspective is swapped.
func (v *ViewContext) IsOwner(senderID string) bool {
	return (senderID == v.ViewerID) != v.PerspectiveSwapped
}

// EffectiveViewer is the identity shown as "You": the counterpart when the
// perspective is swapped, the viewer otherwise.
func (v *ViewContext) EffectiveViewer() string {
	if v.PerspectiveSwapped {
		return v.CounterpartID
	}
	return v.ViewerID
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

// ParseTimestamp parses an export arrival time, returning the zero time when
// the value is missing or malformed.
func ParseTimestamp(s string) time.Time {
	return parseTimestamp(s)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
