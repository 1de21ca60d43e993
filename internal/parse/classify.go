// Package parse classifies raw Skype export records into normalized,
// display-ready messages.
package parse

import (
	"context"
	"log/slog"

	"github.com/Zuo-Peng/skype-export-viewer/internal/sanitize"
)

// Classifier turns raw records into messages. Its zero value is usable;
// Logger receives diagnostics about unrecognised record types.
type Classifier struct {
	Logger *slog.Logger
}

func NewClassifier(logger *slog.Logger) *Classifier {
	return &Classifier{Logger: logger}
}

func (c *Classifier) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Classify normalizes rec. next is the record following rec in the
// conversation, or nil at the end. ok is false when rec produces no message.
func (c *Classifier) Classify(rec, next *RawRecord, view *ViewContext) (msg Message, ok bool) {
	if view.Skipped(rec.ID) {
		return Message{}, false
	}

	tag := ParseTag(rec.TypeTag)
	switch tag {
	case TagMediaAlbum:
		return Message{}, false

	case TagTranslation:
		return c.resolveTranslation(rec, next, view), true

	case TagURIObject, TagMediaVideo:
		msg = c.base(rec, view)
		info := ParseFileInfo(rec.RawContent)
		msg.Content = sanitize.Text(info.Label())
		if id := ExtractMediaID(rec.RawContent); id != "" {
			msg.Kind = KindMedia
			msg.MediaRef = optional(id)
		}
		return msg, true

	case TagGenericFile:
		msg = c.base(rec, view)
		msg.Content = sanitize.Text(ParseFileInfo(rec.RawContent).Label())
		msg.MediaRef = optional(ExtractMediaID(rec.RawContent))
		return msg, true

	case TagRichText:
		msg = c.base(rec, view)
		msg.Content = sanitize.HTML(rec.RawContent)
		return msg, true

	case TagThreadActivity:
		text, found := ParseThreadActivity(rec.TypeTag, rec.RawContent)
		if !found {
			return Message{}, false
		}
		msg = c.system(rec, view)
		msg.Content = sanitize.Text(text)
		return msg, true

	case TagCallEvent:
		msg = c.base(rec, view)
		msg.Kind = KindCall
		msg.Content = sanitize.Text(ParseCall(rec.RawContent, view.EffectiveViewer()).Text())
		return msg, true

	case TagNotice:
		msg = c.base(rec, view)
		msg.Kind = KindNotice
		msg.Content = sanitize.Text(ParseNotice(rec.RawContent, noticeFallback))
		return msg, true

	case TagPopCard:
		msg = c.base(rec, view)
		msg.Kind = KindNotice
		msg.Content = sanitize.Text(ParseNotice(rec.RawContent, popCardFallback))
		return msg, true

	case TagInviteFreeRelationship:
		msg = c.system(rec, view)
		msg.Content = sanitize.HTML(rec.RawContent)
		return msg, true

	case TagText:
		msg = c.base(rec, view)
		msg.Content = rec.RawContent
		return msg, true

	case TagUnknown:
		c.logger().Debug("unrecognised message type",
			"type", rec.TypeTag,
			"id", rec.ID,
			"conversation", rec.ConversationID,
		)
	}

	msg = c.base(rec, view)
	msg.Content = sanitize.HTML(rec.RawContent)
	return msg, true
}

func (c *Classifier) base(rec *RawRecord, view *ViewContext) Message {
	return Message{
		ID:              rec.ID,
		DisplayName:     optional(rec.DisplayName),
		Timestamp:       parseTimestamp(rec.ArrivalTimestamp),
		Kind:            KindText,
		SenderID:        rec.SenderID,
		IsOwner:         view.IsOwner(rec.SenderID),
		OriginalTypeTag: rec.TypeTag,
	}
}

// system messages never carry a name and never belong to the viewer.
func (c *Classifier) system(rec *RawRecord, view *ViewContext) Message {
	msg := c.base(rec, view)
	msg.Kind = KindSystem
	msg.DisplayName = nil
	msg.IsOwner = false
	return msg
}

// ClassifyAll runs one complete pass over a conversation's records.
func (c *Classifier) ClassifyAll(records []RawRecord, view *ViewContext) []Message {
	p := c.NewPass(records, view)
	p.Step(len(records))
	return p.Messages()
}

// Pass is a resumable classification pass over one conversation. The skip
// set in its ViewContext belongs to this pass alone.
type Pass struct {
	c       *Classifier
	records []RawRecord
	view    *ViewContext
	pos     int
	out     []Message
}

func (c *Classifier) NewPass(records []RawRecord, view *ViewContext) *Pass {
	return &Pass{
		c:       c,
		records: records,
		view:    view,
		out:     make([]Message, 0, len(records)),
	}
}

// Step classifies up to n further records and reports whether the pass is
// complete.
func (p *Pass) Step(n int) bool {
	if n <= 0 {
		n = 1
	}
	for end := p.pos + n; p.pos < len(p.records) && p.pos < end; p.pos++ {
		var next *RawRecord
		if p.pos+1 < len(p.records) {
			next = &p.records[p.pos+1]
		}
		if msg, ok := p.c.Classify(&p.records[p.pos], next, p.view); ok {
			p.out = append(p.out, msg)
		}
	}
	return p.Done()
}

func (p *Pass) Done() bool {
	return p.pos >= len(p.records)
}

// Progress returns how many records have been processed so far.
func (p *Pass) Progress() (done, total int) {
	return p.pos, len(p.records)
}

func (p *Pass) Messages() []Message {
	return p.out
}

// Run steps through the remaining records chunk at a time, checking ctx
// between chunks.
func (p *Pass) Run(ctx context.Context, chunk int) ([]Message, error) {
	for !p.Done() {
		if err := ctx.Err(); err != nil {
			return p.out, err
		}
		p.Step(chunk)
	}
	return p.out, nil
}
