package query

import (
	"encoding/json"
	"fmt"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const logPrefix = "query:message"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewMessageID generates a time-ordered message id.
func NewMessageID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Message is a read-only host query message.
type Message struct {
	queryID    string
	messageID  string
	isResponse bool
	data       []Data
}

type wireMessage struct {
	QueryID           string `json:"QueryId"`
	MessageID         string `json:"MessageId"`
	IsResponseMessage bool   `json:"IsResponseMessage"`
	Data              []Data `json:"Data"`
}

// CreateMessage builds a message from explicit fields.
func CreateMessage(queryID, messageID string, isResponse bool, data []Data) *Message {
	return &Message{queryID: queryID, messageID: messageID, isResponse: isResponse, data: copyData(data)}
}

// CreateMessageWithGeneratedID builds a request message with a fresh message id.
func CreateMessageWithGeneratedID(queryID string, data []Data) *Message {
	return CreateMessage(queryID, NewMessageID(), false, data)
}

// CreateResponseFor builds the response to original: same query and message
// ids, flagged as a response. A nil original yields a response with empty ids.
func CreateResponseFor(original *Message, data []Data) *Message {
	if original == nil {
		return CreateMessage("", "", true, data)
	}
	return CreateMessage(original.queryID, original.messageID, true, data)
}

// QueryID returns the query identifier.
func (m *Message) QueryID() string { return m.queryID }

// MessageID returns the message identifier.
func (m *Message) MessageID() string { return m.messageID }

// IsResponseMessage reports whether m answers another message.
func (m *Message) IsResponseMessage() bool { return m.isResponse }

// Data returns a copy of the data records.
func (m *Message) Data() []Data { return copyData(m.data) }

// Edit returns an editable copy of m.
func (m *Message) Edit() *EditableMessage {
	return &EditableMessage{Message: *CreateMessage(m.queryID, m.messageID, m.isResponse, m.data)}
}

// MarshalJSON encodes the host wire shape.
func (m *Message) MarshalJSON() ([]byte, error) {
	data := m.data
	if data == nil {
		data = []Data{}
	}
	return json.Marshal(wireMessage{
		QueryID:           m.queryID,
		MessageID:         m.messageID,
		IsResponseMessage: m.isResponse,
		Data:              data,
	})
}

// UnmarshalJSON decodes the host wire shape.
func (m *Message) UnmarshalJSON(raw []byte) error {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("%s - decode message: %w", logPrefix, err)
	}
	*m = Message{queryID: w.QueryID, messageID: w.MessageID, isResponse: w.IsResponseMessage, data: w.Data}
	return nil
}

// Parse decodes a message payload.
func Parse(payload string) (*Message, error) {
	m := &Message{}
	if err := json.Unmarshal([]byte(payload), m); err != nil {
		return nil, err
	}
	return m, nil
}

// EditableMessage is a Message that accepts more data records.
type EditableMessage struct {
	Message
}

// NewEditableMessage creates an empty editable message.
func NewEditableMessage(queryID, messageID string, isResponse bool) *EditableMessage {
	return &EditableMessage{Message: Message{queryID: queryID, messageID: messageID, isResponse: isResponse}}
}

// AddData appends a record.
func (e *EditableMessage) AddData(d Data) *EditableMessage {
	e.data = append(e.data, d.clone())
	return e
}

// Freeze returns a read-only copy.
func (e *EditableMessage) Freeze() *Message {
	return CreateMessage(e.queryID, e.messageID, e.isResponse, e.data)
}

func copyData(in []Data) []Data {
	if in == nil {
		return nil
	}
	out := make([]Data, len(in))
	for i, d := range in {
		out[i] = d.clone()
	}
	return out
}
