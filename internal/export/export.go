// Package export reads Skype chat exports into raw records.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Zuo-Peng/skype-export-viewer/internal/parse"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

type Export struct {
	UserID        string
	ExportDate    string
	Conversations []Conversation
}

type Conversation struct {
	ID          string
	DisplayName string
	Records     []parse.RawRecord
}

// Counterpart returns the other party of a one-to-one conversation, or ""
// for group threads.
func (c Conversation) Counterpart(userID string) string {
	if strings.HasPrefix(c.ID, "19:") || c.ID == userID {
		return ""
	}
	return c.ID
}

// Title is the display name, falling back to the conversation id.
func (c Conversation) Title() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.ID
}

// Find returns the conversation with the given id.
func (e *Export) Find(id string) (*Conversation, bool) {
	for i := range e.Conversations {
		if e.Conversations[i].ID == id {
			return &e.Conversations[i], true
		}
	}
	return nil, false
}

// RecordCount is the number of raw records across all conversations.
func (e *Export) RecordCount() int {
	n := 0
	for _, c := range e.Conversations {
		n += len(c.Records)
	}
	return n
}

// messages.json as written by the Skype export tool
type skypeExport struct {
	UserID        string              `json:"userId"`
	ExportDate    string              `json:"exportDate"`
	Conversations []skypeConversation `json:"conversations"`
}

type skypeConversation struct {
	ID          string         `json:"id"`
	DisplayName *string        `json:"displayName"`
	MessageList []skypeMessage `json:"MessageList"`
}

type skypeMessage struct {
	ID                  string          `json:"id"`
	DisplayName         *string         `json:"displayName"`
	OriginalArrivalTime string          `json:"originalarrivaltime"`
	MessageType         string          `json:"messagetype"`
	Content             string          `json:"content"`
	ConversationID      string          `json:"conversationid"`
	From                string          `json:"from"`
	Properties          json.RawMessage `json:"properties"`
}

func (m skypeMessage) record() parse.RawRecord {
	r := parse.RawRecord{
		ID:               m.ID,
		SenderID:         m.From,
		ArrivalTimestamp: m.OriginalArrivalTime,
		TypeTag:          m.MessageType,
		RawContent:       m.Content,
		ConversationID:   m.ConversationID,
	}
	if m.DisplayName != nil {
		r.DisplayName = *m.DisplayName
	}
	if len(m.Properties) > 0 && gjson.ParseBytes(m.Properties).IsObject() {
		var props map[string]any
		if err := json.Unmarshal(m.Properties, &props); err == nil {
			r.Properties = props
		}
	}
	return r
}

// Read loads an export file. Files ending in .jsonl are read as one message
// per line; anything else as a messages.json document.
func Read(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return ReadJSONL(f)
	}
	return ReadJSON(f)
}

// ReadJSON decodes a messages.json document.
func ReadJSON(r io.Reader) (*Export, error) {
	var doc skypeExport
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}

	exp := &Export{UserID: doc.UserID, ExportDate: doc.ExportDate}
	for _, sc := range doc.Conversations {
		conv := Conversation{ID: sc.ID}
		if sc.DisplayName != nil {
			conv.DisplayName = *sc.DisplayName
		}
		// MessageList is newest first.
		for i := len(sc.MessageList) - 1; i >= 0; i-- {
			rec := sc.MessageList[i].record()
			if rec.ConversationID == "" {
				rec.ConversationID = sc.ID
			}
			conv.Records = append(conv.Records, rec)
		}
		sortRecords(conv.Records)
		exp.Conversations = append(exp.Conversations, conv)
	}
	return exp, nil
}

// ReadJSONL reads one message object per line. An optional header line
// carrying userId/exportDate may appear anywhere. Malformed lines are skipped.
func ReadJSONL(r io.Reader) (*Export, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	exp := &Export{}
	byID := make(map[string]int)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !gjson.ValidBytes(line) {
			continue
		}

		if header := gjson.GetBytes(line, "userId"); header.Exists() {
			exp.UserID = header.String()
			exp.ExportDate = gjson.GetBytes(line, "exportDate").String()
			continue
		}

		var m skypeMessage
		if err := json.Unmarshal(line, &m); err != nil {
			continue
		}
		rec := m.record()

		ci, ok := byID[rec.ConversationID]
		if !ok {
			ci = len(exp.Conversations)
			byID[rec.ConversationID] = ci
			exp.Conversations = append(exp.Conversations, Conversation{ID: rec.ConversationID})
		}
		exp.Conversations[ci].Records = append(exp.Conversations[ci].Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	for i := range exp.Conversations {
		sortRecords(exp.Conversations[i].Records)
	}
	return exp, nil
}

// sortRecords orders records by arrival time, oldest first. Unparseable
// times sort before every valid one. Records with equal times keep their
// input order.
func sortRecords(records []parse.RawRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return parse.ParseTimestamp(records[i].ArrivalTimestamp).
			Before(parse.ParseTimestamp(records[j].ArrivalTimestamp))
	})
}
