package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/skype-export-viewer/internal/export"
	"github.com/Zuo-Peng/skype-export-viewer/internal/parse"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testExport() *export.Export {
	return &export.Export{
		UserID: "8:live:alice",
		Conversations: []export.Conversation{
			{
				ID:          "8:bob",
				DisplayName: "Bob",
				Records: []parse.RawRecord{
					{ID: "1", SenderID: "8:live:alice", DisplayName: "Alice", ArrivalTimestamp: "2023-06-01T10:00:00Z", TypeTag: "RichText", RawContent: "hello <b>bob</b>", ConversationID: "8:bob"},
					{ID: "2", SenderID: "8:bob", DisplayName: "Bob", ArrivalTimestamp: "2023-06-01T10:01:00Z", TypeTag: "RichText", RawContent: "lunch tomorrow?", ConversationID: "8:bob"},
					{ID: "3", SenderID: "8:bob", ArrivalTimestamp: "2023-06-01T10:02:00Z", TypeTag: "RichText/Media_Album", RawContent: "", ConversationID: "8:bob"},
				},
			},
			{
				ID: "19:team@thread.skype",
				Records: []parse.RawRecord{
					{ID: "10", SenderID: "8:carol", DisplayName: "Carol", ArrivalTimestamp: "2023-07-01T09:00:00Z", TypeTag: "RichText", RawContent: "lunch is ready", ConversationID: "19:team@thread.skype"},
				},
			},
		},
	}
}

func TestStoreAndLoadMessages(t *testing.T) {
	db := openTestDB(t)

	_, cached, err := db.Messages("8:bob", false)
	require.NoError(t, err)
	assert.False(t, cached)

	name := "Bob"
	ref := "0-weu-d1-abc"
	in := []parse.Message{
		{ID: "1", DisplayName: &name, Timestamp: time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC), Content: "<strong>hi</strong>", Kind: parse.KindText, SenderID: "8:bob", OriginalTypeTag: "RichText"},
		{ID: "2", Timestamp: time.Date(2023, 6, 1, 10, 1, 0, 0, time.UTC), Content: "photo.jpg", Kind: parse.KindMedia, SenderID: "8:bob", IsOwner: true, OriginalTypeTag: "RichText/UriObject", MediaRef: &ref},
	}
	require.NoError(t, db.StoreMessages("8:bob", false, in))

	out, cached, err := db.Messages("8:bob", false)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, in, out)

	// other perspective is cached separately
	_, cached, err = db.Messages("8:bob", true)
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestStoreMessagesLastWriterWins(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.StoreMessages("c", false, []parse.Message{{ID: "a", Content: "one"}, {ID: "b", Content: "two"}}))
	require.NoError(t, db.StoreMessages("c", false, []parse.Message{{ID: "z", Content: "three"}}))

	out, cached, err := db.Messages("c", false)
	require.NoError(t, err)
	assert.True(t, cached)
	require.Len(t, out, 1)
	assert.Equal(t, "z", out[0].ID)

	n, err := db.MessageCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEmptyPassIsCached(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.StoreMessages("empty", false, nil))

	out, cached, err := db.Messages("empty", false)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Empty(t, out)
}

func TestLibraryConversation(t *testing.T) {
	db := openTestDB(t)
	lib, err := NewLibrary(db, testExport(), "", nil)
	require.NoError(t, err)

	convs, err := db.Conversations()
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "19:team@thread.skype", convs[0].ConversationID, "most recent first")
	assert.Equal(t, "8:bob", convs[1].CounterpartID)
	assert.Equal(t, "", convs[0].CounterpartID)

	msgs, err := lib.Conversation(context.Background(), "8:bob", false)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsOwner)
	assert.Equal(t, "hello <strong>bob</strong>", msgs[0].Content)

	swapped, err := lib.Conversation(context.Background(), "8:bob", true)
	require.NoError(t, err)
	assert.False(t, swapped[0].IsOwner)
	assert.True(t, swapped[1].IsOwner)

	again, err := lib.Conversation(context.Background(), "8:bob", false)
	require.NoError(t, err)
	assert.Equal(t, msgs, again)

	_, err = lib.Conversation(context.Background(), "8:nobody", false)
	assert.Error(t, err)
}

func TestLibraryIndexAll(t *testing.T) {
	db := openTestDB(t)
	lib, err := NewLibrary(db, testExport(), "", nil)
	require.NoError(t, err)

	stats, err := lib.IndexAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Conversations)
	assert.Equal(t, 4, stats.Records)
	assert.Equal(t, 3, stats.Messages)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, "conversations=2 records=4 messages=3 dropped=1 errors=0", stats.String())

	counts, err := db.KindCounts(false)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"text": 3}, counts)
}

func TestLibraryIndexAllCancelled(t *testing.T) {
	db := openTestDB(t)
	lib, err := NewLibrary(db, testExport(), "", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = lib.IndexAll(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
}
