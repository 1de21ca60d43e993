// Package group buckets normalized messages by calendar day and decides
// which neighbours render as one visual block.
package group

import (
	"time"

	"github.com/Zuo-Peng/skype-export-viewer/internal/parse"
)

// DefaultWindow is the largest gap between two messages that still groups them.
const DefaultWindow = 5 * time.Minute

const unknownDate = "Unknown date"

// Entry is one message within a date bucket. Continued is true when the
// message joins the block started by the entry before it.
type Entry struct {
	Index     int // position in the input sequence
	Message   parse.Message
	Continued bool
}

type DateGroup struct {
	Key     string // 2006-01-02, "" for messages without a timestamp
	Label   string
	Entries []Entry
}

// ShouldGroup reports whether cur continues the block of prev.
func ShouldGroup(prev, cur parse.Message, window time.Duration) bool {
	if prev.Kind == parse.KindSystem || cur.Kind == parse.KindSystem {
		return false
	}
	if prev.SenderID != cur.SenderID || prev.Kind != cur.Kind {
		return false
	}
	d := cur.Timestamp.Sub(prev.Timestamp)
	if d < 0 {
		d = -d
	}
	return d < window
}

// ByDate buckets msgs by day in loc, keeping buckets in first-seen order.
// Grouping is decided against the previous entry of the same bucket.
func ByDate(msgs []parse.Message, loc *time.Location, window time.Duration) []DateGroup {
	if loc == nil {
		loc = time.Local
	}
	if window <= 0 {
		window = DefaultWindow
	}

	var groups []DateGroup
	byKey := make(map[string]int)
	for i, m := range msgs {
		key, label := dateKey(m.Timestamp, loc)
		gi, ok := byKey[key]
		if !ok {
			gi = len(groups)
			byKey[key] = gi
			groups = append(groups, DateGroup{Key: key, Label: label})
		}
		g := &groups[gi]
		e := Entry{Index: i, Message: m}
		if n := len(g.Entries); n > 0 {
			e.Continued = ShouldGroup(g.Entries[n-1].Message, m, window)
		}
		g.Entries = append(g.Entries, e)
	}
	return groups
}

func dateKey(ts time.Time, loc *time.Location) (key, label string) {
	if ts.IsZero() {
		return "", unknownDate
	}
	t := ts.In(loc)
	return t.Format("2006-01-02"), t.Format("2 January 2006")
}
