package domain

import "time"

// TimestampLayout is how entry timestamps are rendered.
const TimestampLayout = "15:04:05"

// ConversationEntry is one query/response pair in a transcript. It is
// created when a reply arrives and never modified afterwards.
type ConversationEntry struct {
	ID        string
	Query     string
	Response  string
	AudioData string // base64, empty when the reply carried no audio
	AudioURL  string
	Timestamp string
}

func (e ConversationEntry) HasAudio() bool {
	return e.AudioData != ""
}

func NewEntry(id string, reply *Reply, now time.Time) ConversationEntry {
	return ConversationEntry{
		ID:        id,
		Query:     reply.Query,
		Response:  reply.Response,
		AudioData: reply.AudioBase64,
		Timestamp: now.Format(TimestampLayout),
	}
}

// Reply is the decoded answer of the conversation API.
type Reply struct {
	Query       string
	Response    string
	AudioBase64 string
}
