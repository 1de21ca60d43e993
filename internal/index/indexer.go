package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Zuo-Peng/skype-export-viewer/internal/export"
	"github.com/Zuo-Peng/skype-export-viewer/internal/parse"
)

const DefaultChunkSize = 500

// Library pairs a loaded export with the message cache. Each conversation is
// classified at most once per perspective.
type Library struct {
	DB         *DB
	Export     *export.Export
	Classifier *parse.Classifier
	ViewerID   string
	ChunkSize  int
	Logger     *slog.Logger
}

// NewLibrary registers every conversation of exp in db. viewerID overrides
// the export's own user id when set.
func NewLibrary(db *DB, exp *export.Export, viewerID string, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if viewerID == "" {
		viewerID = exp.UserID
	}
	lib := &Library{
		DB:         db,
		Export:     exp,
		Classifier: parse.NewClassifier(logger),
		ViewerID:   viewerID,
		ChunkSize:  DefaultChunkSize,
		Logger:     logger,
	}

	for _, c := range exp.Conversations {
		row := ConversationRow{
			ConversationID: c.ID,
			DisplayName:    c.Title(),
			CounterpartID:  c.Counterpart(viewerID),
			RecordCount:    len(c.Records),
		}
		if n := len(c.Records); n > 0 {
			row.LastTs = formatTs(parse.ParseTimestamp(c.Records[n-1].ArrivalTimestamp))
		}
		if err := db.PutConversation(row); err != nil {
			return nil, fmt.Errorf("register %s: %w", c.ID, err)
		}
	}
	return lib, nil
}

// Conversation returns the normalized messages of one conversation, running
// a classification pass on the first request for that perspective.
func (l *Library) Conversation(ctx context.Context, id string, swapped bool) ([]parse.Message, error) {
	msgs, cached, err := l.DB.Messages(id, swapped)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	if cached {
		return msgs, nil
	}

	conv, ok := l.Export.Find(id)
	if !ok {
		return nil, fmt.Errorf("conversation not found: %s", id)
	}

	view := parse.NewViewContext(l.ViewerID, conv.Counterpart(l.ViewerID), swapped)
	pass := l.Classifier.NewPass(conv.Records, view)
	msgs, err = pass.Run(ctx, l.chunkSize())
	if err != nil {
		return nil, err
	}

	if err := l.DB.StoreMessages(id, swapped, msgs); err != nil {
		return nil, fmt.Errorf("store %s: %w", id, err)
	}
	l.Logger.Debug("classified conversation",
		"conversation", id,
		"swapped", swapped,
		"records", len(conv.Records),
		"messages", len(msgs),
	)
	return msgs, nil
}

func (l *Library) chunkSize() int {
	if l.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return l.ChunkSize
}

type Stats struct {
	Conversations int
	Records       int
	Messages      int
	Dropped       int
	Errors        int
}

func (s Stats) String() string {
	return fmt.Sprintf("conversations=%d records=%d messages=%d dropped=%d errors=%d",
		s.Conversations, s.Records, s.Messages, s.Dropped, s.Errors)
}

// IndexAll classifies every conversation for one perspective so the whole
// export becomes searchable.
func (l *Library) IndexAll(ctx context.Context, swapped bool) (Stats, error) {
	var stats Stats
	for _, c := range l.Export.Conversations {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Conversations++
		stats.Records += len(c.Records)

		msgs, err := l.Conversation(ctx, c.ID, swapped)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Errors++
			l.Logger.Warn("index conversation", "conversation", c.ID, "err", err)
			continue
		}
		stats.Messages += len(msgs)
		stats.Dropped += len(c.Records) - len(msgs)
	}
	return stats, nil
}
