package parse

import "github.com/Zuo-Peng/skype-export-viewer/internal/sanitize"

// resolveTranslation handles a Translation record and the RichText record
// that carries the same message in its original language.
//
// When the viewer sent the translation, the original-language record is
// shown in its place. Otherwise the translated text is shown. Either way the
// RichText partner is added to the skip set so it never surfaces on its own.
func (c *Classifier) resolveTranslation(rec, next *RawRecord, view *ViewContext) Message {
	paired := next != nil && ParseTag(next.TypeTag) == TagRichText

	if paired && rec.SenderID == view.ViewerID {
		view.Skip(next.ID)
		return Message{
			ID:              next.ID,
			DisplayName:     optional(next.DisplayName),
			Timestamp:       parseTimestamp(next.ArrivalTimestamp),
			Content:         sanitize.HTML(next.RawContent),
			Kind:            KindText,
			SenderID:        rec.SenderID,
			IsOwner:         view.IsOwner(rec.SenderID),
			OriginalTypeTag: rec.TypeTag,
		}
	}

	text := translationText(rec.RawContent)
	if text == "" {
		text = rec.RawContent
	}
	if paired {
		view.Skip(next.ID)
	}
	msg := c.base(rec, view)
	msg.Kind = KindText
	msg.Content = sanitize.HTML(text)
	return msg
}
