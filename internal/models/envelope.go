package models

import "strconv"

// ReceiveItem is one element of the messaging gateway's receive response.
type ReceiveItem struct {
	Envelope Envelope `json:"envelope"`
}

// Envelope wraps a single inbound unit from the messaging gateway: either a
// directly received message (DataMessage) or an echo of a message the
// monitored account sent from another device (SyncMessage).
type Envelope struct {
	Source      string       `json:"source"`
	Timestamp   int64        `json:"timestamp"`
	DataMessage *DataMessage `json:"dataMessage,omitempty"`
	SyncMessage *SyncMessage `json:"syncMessage,omitempty"`
}

type DataMessage struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type SyncMessage struct {
	SentMessage *SentMessage `json:"sentMessage,omitempty"`
}

type SentMessage struct {
	Message     string `json:"message"`
	Destination string `json:"destination"`
}

// Message is the canonical normalized form of an envelope.
type Message struct {
	Source    string
	Timestamp int64
	Text      string
}

// Normalize flattens the two envelope shapes into one Message. The second
// return is false when the envelope carries no message payload at all
// (receipts, typing indicators and the like). For sync echoes the source is
// the destination of the sent message, so notifications go back to the peer
// the account was talking to.
func (e *Envelope) Normalize() (Message, bool) {
	if e.DataMessage != nil {
		return Message{Source: e.Source, Timestamp: e.Timestamp, Text: e.DataMessage.Message}, true
	}
	if e.SyncMessage != nil && e.SyncMessage.SentMessage != nil {
		source := e.SyncMessage.SentMessage.Destination
		if source == "" {
			source = e.Source
		}
		return Message{Source: source, Timestamp: e.Timestamp, Text: e.SyncMessage.SentMessage.Message}, true
	}
	return Message{}, false
}

// DedupKey is the process-lifetime identity used to suppress duplicate
// deliveries of the same envelope.
func (m Message) DedupKey() string {
	return m.Source + "-" + strconv.FormatInt(m.Timestamp, 10)
}
