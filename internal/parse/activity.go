package parse

import (
	"regexp"
	"strings"

	"github.com/Zuo-Peng/skype-export-viewer/internal/sanitize"
)

var (
	activityTargetRe = regexp.MustCompile(`(?is)<target>(.*?)</target>`)
	activityValueRe  = regexp.MustCompile(`(?is)<value>(.*?)</value>`)
)

// toggleSentences maps an activity subtype to its [false, true] sentences.
var toggleSentences = map[string][2]string{
	"HistoryDisclosedUpdate": {
		"Chat history was hidden from new members",
		"Chat history was made visible to new members",
	},
	"JoiningEnabledUpdate": {
		"Joining this conversation using a link was disabled",
		"Joining this conversation using a link was enabled",
	},
}

// ParseThreadActivity renders a ThreadActivity/* record as one sentence of
// plain text. ok is false when the record has nothing worth showing.
func ParseThreadActivity(typeTag, raw string) (text string, ok bool) {
	subtype := strings.TrimPrefix(strings.TrimPrefix(typeTag, "ThreadActivity"), "/")

	switch subtype {
	case "AddMember":
		members := memberList(raw)
		if members == "" {
			return "", false
		}
		return "Added " + members + " to the conversation", true

	case "DeleteMember":
		members := memberList(raw)
		if members == "" {
			return "", false
		}
		return "Removed " + members + " from the conversation", true

	case "TopicUpdate":
		value, found := activityValue(raw)
		if !found || value == "" {
			return "", false
		}
		return `Changed the conversation topic to "` + value + `"`, true
	}

	if sentences, known := toggleSentences[subtype]; known {
		value, found := activityValue(raw)
		if !found {
			return "", false
		}
		if value == "true" {
			return sentences[1], true
		}
		return sentences[0], true
	}
	return "", false
}

// memberList joins the distinct, namespace-stripped <target> values.
func memberList(raw string) string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range activityTargetRe.FindAllStringSubmatch(raw, -1) {
		name := stripNamespace(sanitize.StripTags(m[1]))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func activityValue(raw string) (string, bool) {
	m := activityValueRe.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(sanitize.StripTags(m[1])), true
}

// stripNamespace drops an identity prefix such as "8:" or "8:live:".
func stripNamespace(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, ":"); i >= 0 {
		id = id[i+1:]
	}
	return strings.TrimSpace(id)
}
