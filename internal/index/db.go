package index

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/skype-export-viewer/internal/parse"
	"github.com/Zuo-Peng/skype-export-viewer/internal/sanitize"
)

// The database only ever lives in memory; it caches normalized messages per
// (conversation, perspective) for the lifetime of the process.
const memoryDSN = ":memory:"

const schema = `
PRAGMA cache_size = -64000;

CREATE TABLE IF NOT EXISTS conversations (
    conversation_id TEXT PRIMARY KEY,
    display_name    TEXT NOT NULL DEFAULT '',
    counterpart_id  TEXT NOT NULL DEFAULT '',
    record_count    INTEGER NOT NULL DEFAULT 0,
    last_ts         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS passes (
    conversation_id TEXT NOT NULL,
    swapped         INTEGER NOT NULL,
    message_count   INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (conversation_id, swapped)
);

CREATE TABLE IF NOT EXISTS messages (
    conversation_id TEXT NOT NULL,
    swapped         INTEGER NOT NULL,
    seq             INTEGER NOT NULL,
    message_id      TEXT NOT NULL,
    display_name    TEXT,
    ts              TEXT NOT NULL DEFAULT '',
    kind            TEXT NOT NULL DEFAULT 'text',
    sender_id       TEXT NOT NULL DEFAULT '',
    is_owner        INTEGER NOT NULL DEFAULT 0,
    type_tag        TEXT NOT NULL DEFAULT '',
    media_ref       TEXT,
    content         TEXT NOT NULL,
    plain           TEXT NOT NULL,
    PRIMARY KEY (conversation_id, swapped, seq)
);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    plain,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, plain) VALUES (new.rowid, new.plain);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, plain) VALUES('delete', old.rowid, old.plain);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, plain) VALUES('delete', old.rowid, old.plain);
    INSERT INTO messages_fts(rowid, plain) VALUES (new.rowid, new.plain);
END;
`

type DB struct {
	db *sql.DB
}

// OpenDB creates an empty in-memory message cache.
func OpenDB() (*DB, error) {
	db, err := sql.Open("sqlite", memoryDSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// every pooled connection to :memory: would be a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type ConversationRow struct {
	ConversationID string
	DisplayName    string
	CounterpartID  string
	RecordCount    int
	LastTs         string
}

func (d *DB) PutConversation(c ConversationRow) error {
	_, err := d.db.Exec(
		`INSERT INTO conversations (conversation_id, display_name, counterpart_id, record_count, last_ts)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(conversation_id) DO UPDATE SET
		   display_name = excluded.display_name,
		   counterpart_id = excluded.counterpart_id,
		   record_count = excluded.record_count,
		   last_ts = excluded.last_ts`,
		c.ConversationID, c.DisplayName, c.CounterpartID, c.RecordCount, c.LastTs,
	)
	return err
}

func (d *DB) GetConversation(id string) (*ConversationRow, error) {
	var c ConversationRow
	err := d.db.QueryRow(
		"SELECT conversation_id, display_name, counterpart_id, record_count, last_ts FROM conversations WHERE conversation_id = ?",
		id,
	).Scan(&c.ConversationID, &c.DisplayName, &c.CounterpartID, &c.RecordCount, &c.LastTs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Conversations lists every conversation, most recently active first.
func (d *DB) Conversations() ([]ConversationRow, error) {
	rows, err := d.db.Query(
		"SELECT conversation_id, display_name, counterpart_id, record_count, last_ts FROM conversations ORDER BY last_ts DESC, conversation_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConversationRow
	for rows.Next() {
		var c ConversationRow
		if err := rows.Scan(&c.ConversationID, &c.DisplayName, &c.CounterpartID, &c.RecordCount, &c.LastTs); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// StoreMessages replaces the cached result of one pass. The latest call for
// a (conversation, perspective) pair wins.
func (d *DB) StoreMessages(conversationID string, swapped bool, msgs []parse.Message) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE conversation_id = ? AND swapped = ?", conversationID, swapped); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO messages (conversation_id, swapped, seq, message_id, display_name, ts, kind, sender_id, is_owner, type_tag, media_ref, content, plain)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range msgs {
		_, err := stmt.Exec(
			conversationID,
			swapped,
			i,
			m.ID,
			nullable(m.DisplayName),
			formatTs(m.Timestamp),
			m.Kind.String(),
			m.SenderID,
			m.IsOwner,
			m.OriginalTypeTag,
			nullable(m.MediaRef),
			m.Content,
			sanitize.StripTags(m.Content),
		)
		if err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO passes (conversation_id, swapped, message_count) VALUES (?, ?, ?)
		 ON CONFLICT(conversation_id, swapped) DO UPDATE SET message_count = excluded.message_count`,
		conversationID, swapped, len(msgs),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Messages returns the cached pass for a conversation. cached is false when
// no pass has been stored for that perspective yet.
func (d *DB) Messages(conversationID string, swapped bool) (msgs []parse.Message, cached bool, err error) {
	var n int
	err = d.db.QueryRow(
		"SELECT message_count FROM passes WHERE conversation_id = ? AND swapped = ?",
		conversationID, swapped,
	).Scan(&n)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := d.db.Query(
		`SELECT message_id, display_name, ts, kind, sender_id, is_owner, type_tag, media_ref, content
		 FROM messages WHERE conversation_id = ? AND swapped = ? ORDER BY seq`,
		conversationID, swapped,
	)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	msgs = make([]parse.Message, 0, n)
	for rows.Next() {
		var (
			m              parse.Message
			name, mediaRef sql.NullString
			ts, kind       string
		)
		if err := rows.Scan(&m.ID, &name, &ts, &kind, &m.SenderID, &m.IsOwner, &m.OriginalTypeTag, &mediaRef, &m.Content); err != nil {
			return nil, false, err
		}
		m.DisplayName = fromNull(name)
		m.MediaRef = fromNull(mediaRef)
		m.Timestamp = parseTs(ts)
		m.Kind = parse.ParseKind(kind)
		msgs = append(msgs, m)
	}
	return msgs, true, rows.Err()
}

func (d *DB) ConversationCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&n)
	return n, err
}

func (d *DB) MessageCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

// KindCounts returns the number of cached messages per kind for one perspective.
func (d *DB) KindCounts(swapped bool) (map[string]int, error) {
	rows, err := d.db.Query("SELECT kind, COUNT(*) FROM messages WHERE swapped = ? GROUP BY kind", swapped)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		counts[k] = n
	}
	return counts, rows.Err()
}

func formatTs(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTs(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
