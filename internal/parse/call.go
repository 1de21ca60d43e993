package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/skype-export-viewer/internal/sanitize"
)

var (
	callTypeRe     = regexp.MustCompile(`(?is)<partlist\b[^>]*\btype="([^"]*)"`)
	callPartRe     = regexp.MustCompile(`(?is)<part\b([^>]*)>(.*?)</part>`)
	callIdentityRe = regexp.MustCompile(`(?is)\bidentity="([^"]*)"`)
	callNameRe     = regexp.MustCompile(`(?is)<name>(.*?)</name>`)
	callDurationRe = regexp.MustCompile(`(?is)<duration>\s*([0-9]+(?:\.[0-9]+)?)\s*</duration>`)
	identityLikeRe = regexp.MustCompile(`^[0-9]+:`)
)

const unknownParticipant = "Unknown participant"

type callParticipant struct {
	identity string
	name     string
}

// Call is the parsed form of an Event/Call record.
type Call struct {
	Type         string
	Participants []string
	Duration     float64 // seconds, longest segment
	HasDuration  bool
}

// ParseCall extracts the outcome, participants and duration of a call
// event. viewer is the identity to label "You"; "" disables substitution.
func ParseCall(raw, viewer string) Call {
	var call Call
	if m := callTypeRe.FindStringSubmatch(raw); m != nil {
		call.Type = strings.TrimSpace(m[1])
	}

	var parts []callParticipant
	seen := make(map[string]bool)
	for _, seg := range callPartRe.FindAllStringSubmatch(raw, -1) {
		attrs, body := seg[1], seg[2]
		var p callParticipant
		if m := callIdentityRe.FindStringSubmatch(attrs); m != nil {
			p.identity = sanitize.Unescape(m[1])
		}
		if m := callNameRe.FindStringSubmatch(body); m != nil {
			p.name = m[1]
		}
		if m := callDurationRe.FindStringSubmatch(body); m != nil {
			if d, err := strconv.ParseFloat(m[1], 64); err == nil {
				if !call.HasDuration || d > call.Duration {
					call.Duration = d
				}
				call.HasDuration = true
			}
		}

		// Parts without an identity cannot be told apart and are all kept.
		if key := strings.ToLower(strings.TrimSpace(p.identity)); key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		parts = append(parts, p)
	}

	for _, p := range parts {
		label := participantLabel(p)
		if viewer != "" && sameIdentity(p.identity, viewer) {
			label = "You"
		}
		call.Participants = append(call.Participants, label)
	}
	return call
}

func participantLabel(p callParticipant) string {
	if n := cleanName(p.name); n != "" {
		return n
	}
	if id := stripNamespace(p.identity); id != "" {
		return id
	}
	if n := strings.TrimSpace(p.name); n != "" {
		return n
	}
	if id := strings.TrimSpace(p.identity); id != "" {
		return id
	}
	return unknownParticipant
}

// cleanName strips markup and, for names that are really identities, the
// namespace prefix.
func cleanName(name string) string {
	n := strings.TrimSpace(sanitize.StripTags(name))
	if identityLikeRe.MatchString(n) {
		n = stripNamespace(n)
	}
	return n
}

func sameIdentity(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b) || strings.EqualFold(stripNamespace(a), stripNamespace(b))
}

// FormatDuration renders whole seconds as "2m 5s" from a minute up and
// "42s" below.
func FormatDuration(seconds float64) string {
	s := int(seconds)
	if s >= 60 {
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	}
	return fmt.Sprintf("%ds", s)
}

// Text assembles the one-line summary shown for the call.
func (c Call) Text() string {
	segments := make([]string, 0, 3)
	switch c.Type {
	case "started":
		segments = append(segments, "Call started")
	case "missed":
		segments = append(segments, "Missed call")
	case "ended":
		segments = append(segments, "Call ended")
		if c.HasDuration {
			segments = append(segments, FormatDuration(c.Duration))
		}
	case "":
		segments = append(segments, "Call")
	default:
		segments = append(segments, "Call "+c.Type)
	}
	if len(c.Participants) > 0 {
		segments = append(segments, strings.Join(c.Participants, ", "))
	}
	return strings.Join(segments, " • ")
}
