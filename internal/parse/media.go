package parse

import "regexp"

// mediaIDPatterns are tried in order; the first capture wins.
var mediaIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/objects/([^/"'\s<>?&]+)`),
	regexp.MustCompile(`[?&;]pic=([^&"'\s<>]+)`),
	regexp.MustCompile(`[?&;]file=([^&"'\s<>]+)`),
}

// ExtractMediaID returns the media store id referenced by raw content, or
// "" when none of the known forms is present.
func ExtractMediaID(content string) string {
	for _, re := range mediaIDPatterns {
		if m := re.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	return ""
}
