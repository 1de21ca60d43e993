package parse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "8:live:alice"
	bob   = "8:bob"
)

func rec(id, from, tag, content string) RawRecord {
	return RawRecord{
		ID:               id,
		SenderID:         from,
		DisplayName:      map[string]string{alice: "Alice", bob: "Bob"}[from],
		ArrivalTimestamp: "2021-03-04T10:00:0" + id + "Z",
		TypeTag:          tag,
		RawContent:       content,
		ConversationID:   bob,
	}
}

func classify(records []RawRecord, swapped bool) []Message {
	return NewClassifier(nil).ClassifyAll(records, NewViewContext(alice, bob, swapped))
}

func TestClassifyDispatch(t *testing.T) {
	tests := []struct {
		name    string
		record  RawRecord
		kind    Kind
		content string
	}{
		{"rich text", rec("1", bob, "RichText", "<b>hi</b>"), KindText, "<strong>hi</strong>"},
		{"legacy text is verbatim", rec("1", bob, "Text", "<b>raw</b>"), KindText, "<b>raw</b>"},
		{"unknown tag", rec("1", bob, "RichText/Media_AudioMsg", "<span>voice</span>"), KindText, "voice"},
		{"notice", rec("1", bob, "Notice", `[{"attachments":[{"content":{"title":"Alert","text":"Storage low"}}]}]`), KindNotice, "Alert: Storage low"},
		{"malformed notice", rec("1", bob, "Notice", `[{"attachments":`), KindNotice, "System Notice"},
		{"popcard fallback", rec("1", bob, "PopCard", `{}`), KindNotice, "System Message"},
		{"call", rec("1", bob, "Event/Call", `<partlist type="missed"><part identity="8:bob"><name>Bob</name></part></partlist>`), KindCall, "Missed call • Bob"},
		{"invite free relationship", rec("1", bob, "InviteFreeRelationshipChanged/Initialized", "<b>joined</b>"), KindSystem, "<strong>joined</strong>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := classify([]RawRecord{tt.record}, false)
			require.Len(t, out, 1)
			assert.Equal(t, tt.kind, out[0].Kind)
			assert.Equal(t, tt.content, out[0].Content)
			assert.Equal(t, tt.record.TypeTag, out[0].OriginalTypeTag)
		})
	}
}

func TestClassifyDropsAlbumMarkers(t *testing.T) {
	out := classify([]RawRecord{
		rec("1", bob, "RichText/Media_Album", "<URIObject/>"),
		rec("2", bob, "RichText", "after"),
	}, false)
	require.Len(t, out, 1)
	assert.Equal(t, "2", out[0].ID)
}

func TestClassifyAddMember(t *testing.T) {
	content := `<addmember><eventtime>1</eventtime><initiator>8:live:alice</initiator><target>8:alice</target><target>8:bob</target></addmember>`
	out := classify([]RawRecord{rec("1", alice, "ThreadActivity/AddMember", content)}, false)
	require.Len(t, out, 1)
	assert.Equal(t, "Added alice, bob to the conversation", out[0].Content)
	assert.Equal(t, KindSystem, out[0].Kind)
	assert.Nil(t, out[0].DisplayName)
	assert.False(t, out[0].IsOwner)
}

func TestClassifyDropsEmptyThreadActivity(t *testing.T) {
	out := classify([]RawRecord{
		rec("1", alice, "ThreadActivity/AddMember", "<addmember></addmember>"),
		rec("2", alice, "ThreadActivity/PictureUpdate", "<pictureupdate/>"),
	}, false)
	assert.Empty(t, out)
}

func TestClassifySystemIgnoresPerspective(t *testing.T) {
	content := `<historydisclosedupdate><value>true</value></historydisclosedupdate>`
	for _, swapped := range []bool{false, true} {
		out := classify([]RawRecord{rec("1", alice, "ThreadActivity/HistoryDisclosedUpdate", content)}, swapped)
		require.Len(t, out, 1)
		assert.False(t, out[0].IsOwner)
		assert.Nil(t, out[0].DisplayName)
	}
}

func TestClassifyOwnership(t *testing.T) {
	records := []RawRecord{
		rec("1", alice, "RichText", "mine"),
		rec("2", bob, "RichText", "theirs"),
	}
	out := classify(records, false)
	require.Len(t, out, 2)
	assert.True(t, out[0].IsOwner)
	assert.False(t, out[1].IsOwner)

	out = classify(records, true)
	assert.False(t, out[0].IsOwner)
	assert.True(t, out[1].IsOwner)
}

func TestClassifyMediaPath(t *testing.T) {
	content := `<URIObject type="Picture.1" uri="https://api.asm.skype.com/v1/objects/0-weu-d1-abc" url_thumbnail="https://api.asm.skype.com/v1/objects/0-weu-d1-abc/views/imgt1"><OriginalName v="cat.jpg"/><FileSize v="2048"/></URIObject>`
	out := classify([]RawRecord{rec("1", bob, "RichText/UriObject", content)}, false)
	require.Len(t, out, 1)
	assert.Equal(t, KindMedia, out[0].Kind)
	require.NotNil(t, out[0].MediaRef)
	assert.Equal(t, "0-weu-d1-abc", *out[0].MediaRef)
	assert.Equal(t, "🖼 cat.jpg (2.0 KB)", out[0].Content)
}

func TestClassifyMediaWithoutIDFallsBackToText(t *testing.T) {
	out := classify([]RawRecord{rec("1", bob, "RichText/Media_Video", `<URIObject type="Video.1"><OriginalName v="clip.mp4"/></URIObject>`)}, false)
	require.Len(t, out, 1)
	assert.Equal(t, KindText, out[0].Kind)
	assert.Nil(t, out[0].MediaRef)
	assert.Equal(t, "🎬 clip.mp4", out[0].Content)
}

func TestClassifyGenericFile(t *testing.T) {
	content := `<URIObject type="File.1" uri="https://api.asm.skype.com/v1/objects/0-file-1"><OriginalName v="report.pdf"/><FileSize v="3145728"/></URIObject>`
	out := classify([]RawRecord{rec("1", bob, "RichText/Media_GenericFile", content)}, false)
	require.Len(t, out, 1)
	assert.Equal(t, KindText, out[0].Kind)
	assert.Equal(t, "📎 report.pdf (3.0 MB)", out[0].Content)
	require.NotNil(t, out[0].MediaRef)
	assert.Equal(t, "0-file-1", *out[0].MediaRef)
}

func TestTranslationFromViewerShowsOriginal(t *testing.T) {
	records := []RawRecord{
		rec("1", alice, "Translation", `{"translations":[{"translation":"Hola"}]}`),
		rec("2", alice, "RichText", "<b>Hello</b>"),
		rec("3", bob, "RichText", "reply"),
	}
	out := classify(records, false)
	require.Len(t, out, 2)

	assert.Equal(t, "2", out[0].ID)
	assert.Equal(t, "<strong>Hello</strong>", out[0].Content)
	assert.Equal(t, alice, out[0].SenderID)
	assert.Equal(t, "Alice", out[0].Name())
	assert.Equal(t, time.Date(2021, 3, 4, 10, 0, 2, 0, time.UTC), out[0].Timestamp)

	for _, m := range out[1:] {
		assert.NotEqual(t, "2", m.ID)
	}
}

func TestTranslationFromOtherShowsTranslation(t *testing.T) {
	records := []RawRecord{
		rec("1", bob, "Translation", `{"translations":[{"translation":"Hello"}]}`),
		rec("2", bob, "RichText", "Hola"),
	}
	out := classify(records, false)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "Hello", out[0].Content)
	assert.Equal(t, bob, out[0].SenderID)
}

func TestTranslationMalformedPayloadFallsBack(t *testing.T) {
	out := classify([]RawRecord{rec("1", bob, "Translation", "not json")}, false)
	require.Len(t, out, 1)
	assert.Equal(t, "not json", out[0].Content)
}

func TestTranslationWithoutRichTextPartner(t *testing.T) {
	records := []RawRecord{
		rec("1", alice, "Translation", `{"translations":[{"translation":"Hola"}]}`),
		rec("2", bob, "Notice", "[]"),
	}
	out := classify(records, false)
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "Hola", out[0].Content)
	assert.Equal(t, "2", out[1].ID)
}

func TestClassifyOutputBoundedAndStable(t *testing.T) {
	records := []RawRecord{
		rec("1", alice, "RichText", "a"),
		rec("2", alice, "RichText/Media_Album", ""),
		rec("3", bob, "Translation", `{"translations":[{"translation":"b"}]}`),
		rec("4", bob, "RichText", "b-original"),
		rec("5", bob, "Event/Call", `<partlist type="started"></partlist>`),
		rec("6", alice, "Something/New", "c"),
	}
	first := classify(records, false)
	second := classify(records, false)

	assert.LessOrEqual(t, len(first), len(records))
	assert.Equal(t, first, second)

	var ids []string
	for _, m := range first {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"1", "3", "5", "6"}, ids)
}

func TestPassResumesInChunks(t *testing.T) {
	var records []RawRecord
	for i := 0; i < 7; i++ {
		records = append(records, rec(string(rune('0'+i)), bob, "RichText", "m"))
	}
	c := NewClassifier(nil)
	p := c.NewPass(records, NewViewContext(alice, bob, false))

	assert.False(t, p.Step(3))
	done, total := p.Progress()
	assert.Equal(t, 3, done)
	assert.Equal(t, 7, total)

	out, err := p.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, out, 7)
	assert.Equal(t, c.ClassifyAll(records, NewViewContext(alice, bob, false)), out)
}

func TestPassRunStopsOnCancelledContext(t *testing.T) {
	records := []RawRecord{rec("1", bob, "RichText", "a"), rec("2", bob, "RichText", "b")}
	p := NewClassifier(nil).NewPass(records, NewViewContext(alice, bob, false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, p.Done())
}

func TestParseTag(t *testing.T) {
	assert.Equal(t, TagRichText, ParseTag("RichText"))
	assert.Equal(t, TagGenericFile, ParseTag("RichText/Media_GenericFile"))
	assert.Equal(t, TagThreadActivity, ParseTag("ThreadActivity/TopicUpdate"))
	assert.Equal(t, TagCallEvent, ParseTag("Event/Call"))
	assert.Equal(t, TagUnknown, ParseTag("richtext"))
	assert.Equal(t, TagUnknown, ParseTag("RichText/Contacts"))
}
