package models

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConversationID identifies the conversation between two users. It is the
// same for both orderings of the pair and doubles as the relay room id.
type ConversationID string

func NewConversationID(a, b string) ConversationID {
	ids := []string{a, b}
	sort.Strings(ids)
	return ConversationID(strings.Join(ids, "_"))
}

// Participants returns the two user ids of the conversation, or false when
// the id is not a well-formed pair.
func (c ConversationID) Participants() (string, string, bool) {
	a, b, ok := strings.Cut(string(c), "_")
	if !ok || a == "" || b == "" || strings.Contains(b, "_") {
		return "", "", false
	}
	return a, b, true
}

// Includes reports whether userID is one of the two participants of a
// canonical id, the one NewConversationID builds for the pair.
func (c ConversationID) Includes(userID string) bool {
	a, b, ok := c.Participants()
	return ok && a < b && (a == userID || b == userID)
}

type Message struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Conversation ConversationID     `bson:"conversation" json:"conversation"`
	Sender       primitive.ObjectID `bson:"sender" json:"sender"`
	Receiver     primitive.ObjectID `bson:"receiver" json:"receiver"`
	Content      string             `bson:"content" json:"content"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
