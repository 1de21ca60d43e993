package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/skype-export-viewer/internal/index"
	"github.com/Zuo-Peng/skype-export-viewer/internal/parse"
)

func seededDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.OpenDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.PutConversation(index.ConversationRow{ConversationID: "8:bob", DisplayName: "Bob", LastTs: "2023-06-02T00:00:00Z"}))
	require.NoError(t, db.PutConversation(index.ConversationRow{ConversationID: "8:carol", DisplayName: "Carol", LastTs: "2023-06-03T00:00:00Z"}))
	require.NoError(t, db.PutConversation(index.ConversationRow{ConversationID: "8:dave", DisplayName: "Dave", LastTs: "2023-06-01T00:00:00Z"}))

	ts := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	bob := "Bob"
	require.NoError(t, db.StoreMessages("8:bob", false, []parse.Message{
		{ID: "b1", DisplayName: &bob, Timestamp: ts, Content: "Shall we have <strong>lunch</strong> today?", SenderID: "8:bob"},
		{ID: "b2", Timestamp: ts.Add(time.Minute), Content: "lunch lunch lunch", SenderID: "8:live:alice"},
	}))
	require.NoError(t, db.StoreMessages("8:carol", false, []parse.Message{
		{ID: "c1", Timestamp: ts, Content: "我们明天吃午饭吧", SenderID: "8:carol"},
		{ID: "c2", Timestamp: ts.Add(time.Hour), Content: "dinner instead", SenderID: "8:carol"},
	}))
	return db
}

func TestSearchFTS(t *testing.T) {
	db := seededDB(t)

	results, err := Search(db, Options{Query: "lunch"})
	require.NoError(t, err)
	require.Len(t, results, 1, "one result per conversation")
	assert.Equal(t, "8:bob", results[0].ConversationID)
	assert.Equal(t, "Bob", results[0].DisplayName)
	assert.Contains(t, results[0].Snippet, ">>>lunch<<<")
	assert.NotContains(t, results[0].Snippet, "<strong>")
}

func TestSearchQuotesSyntax(t *testing.T) {
	db := seededDB(t)

	results, err := Search(db, Options{Query: `dinner" OR "lunch`})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = Search(db, Options{Query: "NOT"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchCJK(t *testing.T) {
	db := seededDB(t)

	results, err := Search(db, Options{Query: "午饭"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "8:carol", results[0].ConversationID)
	assert.Equal(t, "c1", results[0].MessageID)
	assert.Equal(t, "我们明天吃>>>午饭<<<吧", results[0].Snippet)
}

func TestSearchPerspectiveAndConversation(t *testing.T) {
	db := seededDB(t)

	results, err := Search(db, Options{Query: "lunch", Swapped: true})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = Search(db, Options{Query: "dinner", Conversation: "8:bob"})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = Search(db, Options{Query: "lunch", Conversation: "8:bob"})
	require.NoError(t, err)
	assert.Len(t, results, 2, "no dedup within one conversation")

	results, err = Search(db, Options{Query: "   "})
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestListAll(t *testing.T) {
	db := seededDB(t)

	results, err := ListAll(db, Options{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"8:carol", "8:bob", "8:dave"},
		[]string{results[0].ConversationID, results[1].ConversationID, results[2].ConversationID})
	assert.Equal(t, "dinner instead", results[0].Snippet)
	assert.Equal(t, "c2", results[0].MessageID)
	assert.Equal(t, "", results[2].Snippet, "uncached conversation")
}

func TestMakeSnippet(t *testing.T) {
	assert.Equal(t, "...fox >>>Jumps<<< ove...", makeSnippet("the quick brown fox Jumps over the dog", "jumps", 4))
	assert.Equal(t, "short", makeSnippet("short", "missing", 10))
	assert.Equal(t, "abcd...", makeSnippet("abcdefgh", "", 2))
}
