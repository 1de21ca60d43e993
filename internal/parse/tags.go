package parse

import "strings"

// Tag is the closed set of message types the classifier understands.
// Anything else is TagUnknown and takes the generic text path.
type Tag int

const (
	TagUnknown Tag = iota
	TagText
	TagRichText
	TagMediaAlbum
	TagTranslation
	TagURIObject
	TagMediaVideo
	TagGenericFile
	TagThreadActivity
	TagCallEvent
	TagNotice
	TagPopCard
	TagInviteFreeRelationship
)

var exactTags = map[string]Tag{
	"Text":                       TagText,
	"RichText":                   TagRichText,
	"RichText/Media_Album":       TagMediaAlbum,
	"Translation":                TagTranslation,
	"RichText/UriObject":         TagURIObject,
	"RichText/Media_Video":       TagMediaVideo,
	"RichText/Media_GenericFile": TagGenericFile,
	"Notice":                     TagNotice,
	"PopCard":                    TagPopCard,
}

var prefixTags = []struct {
	prefix string
	tag    Tag
}{
	{"ThreadActivity", TagThreadActivity},
	{"Event/Call", TagCallEvent},
	{"InviteFreeRelationshipChanged", TagInviteFreeRelationship},
}

// ParseTag maps a raw type tag, case-sensitively, to a Tag.
func ParseTag(s string) Tag {
	if t, ok := exactTags[s]; ok {
		return t
	}
	for _, p := range prefixTags {
		if strings.HasPrefix(s, p.prefix) {
			return p.tag
		}
	}
	return TagUnknown
}

func (t Tag) String() string {
	for name, tag := range exactTags {
		if tag == t {
			return name
		}
	}
	for _, p := range prefixTags {
		if p.tag == t {
			return p.prefix + "*"
		}
	}
	return "unknown"
}
