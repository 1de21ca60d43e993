package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/skype-export-viewer/internal/index"
)

// Result is one matching message. Snippet marks the hit with >>> and <<<.
type Result struct {
	ConversationID string
	DisplayName    string
	MessageID      string
	Seq            int
	Timestamp      string
	Sender         string
	Snippet        string
	Rank           float64
}

type Options struct {
	Query        string
	Swapped      bool
	Conversation string // "" = all
	Limit        int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	qRunes := []rune(query)
	runePos := indexFold(runes, qRunes)
	if runePos < 0 {
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}
	start := max(runePos-contextChars, 0)
	end := min(runePos+len(qRunes)+contextChars, len(runes))

	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

// indexFold finds needle in haystack by rune, ignoring case.
func indexFold(haystack, needle []rune) int {
	if len(needle) == 0 {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if unicode.ToLower(haystack[i+j]) != unicode.ToLower(r) {
				continue outer
			}
		}
		return i
	}
	return -1
}

// ftsQuery quotes each whitespace-separated term so user input is never
// parsed as FTS5 syntax. Terms are ANDed.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// Search finds messages across the cached conversations, keeping the best
// hit per conversation unless opts names a single conversation.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, nil
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// Fetch more results before dedup so we still have enough after
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	// within one conversation every hit is wanted
	if opts.Conversation != "" {
		return results[:min(len(results), origLimit)], nil
	}

	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.ConversationID] {
			continue
		}
		seen[r.ConversationID] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

func filters(opts Options) ([]string, []any) {
	conditions := []string{"m.swapped = ?"}
	args := []any{opts.Swapped}
	if opts.Conversation != "" {
		conditions = append(conditions, "m.conversation_id = ?")
		args = append(args, opts.Conversation)
	}
	return conditions, args
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	conditions = append([]string{"messages_fts MATCH ?"}, conditions...)
	args = append([]any{ftsQuery(opts.Query)}, args...)

	query := fmt.Sprintf(`
		SELECT
			m.conversation_id,
			c.display_name,
			m.message_id,
			m.seq,
			m.ts,
			COALESCE(m.display_name, m.sender_id),
			snippet(messages_fts, 0, '>>>', '<<<', '...', 40) AS snip,
			bm25(messages_fts) AS rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN conversations c ON c.conversation_id = m.conversation_id
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	// LIKE match for CJK substring search
	conditions = append(conditions, "m.plain LIKE ? ESCAPE '\\'")
	args = append(args, "%"+escapeLike(opts.Query)+"%")

	query := fmt.Sprintf(`
		SELECT
			m.conversation_id,
			c.display_name,
			m.message_id,
			m.seq,
			m.ts,
			COALESCE(m.display_name, m.sender_id),
			m.plain,
			0.0
		FROM messages m
		JOIN conversations c ON c.conversation_id = m.conversation_id
		WHERE %s
		ORDER BY m.ts DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Snippet = makeSnippet(results[i].Snippet, opts.Query, 30)
	}
	return results, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.ConversationID, &r.DisplayName, &r.MessageID, &r.Seq,
			&r.Timestamp, &r.Sender, &r.Snippet, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListAll returns the cached conversations as results without a query,
// most recent first. Snippet holds the newest message of the perspective.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 1000
	}
	rows, err := db.Raw().Query(`
		SELECT
			c.conversation_id,
			c.display_name,
			COALESCE(m.message_id, ''),
			COALESCE(m.seq, 0),
			c.last_ts,
			COALESCE(m.display_name, m.sender_id, ''),
			COALESCE(m.plain, ''),
			0.0
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.conversation_id
			AND m.swapped = ?
			AND m.seq = (SELECT MAX(seq) FROM messages WHERE conversation_id = c.conversation_id AND swapped = ?)
		ORDER BY c.last_ts DESC, c.conversation_id
		LIMIT ?
	`, opts.Swapped, opts.Swapped, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Snippet = makeSnippet(results[i].Snippet, "", 40)
	}
	return results, nil
}
