// Raw long-poll update decoding.
//
// The wire shape of the Bots Long Poll protocol stays inside this file;
// everything downstream works with game.Event values.
package vk

import (
	"github.com/quizhub/go-trivia-bot/internal/game"
)

// eventMessageNew is the only update type that reaches the classifier.
const eventMessageNew = "message_new"

// rawUpdate mirrors one entry of a long-poll batch.
type rawUpdate struct {
	Type   string `json:"type"`
	Object struct {
		Message rawMessage `json:"message"`
	} `json:"object"`
}

// rawMessage is the inbound message payload inside a message_new update.
type rawMessage struct {
	ID      int64      `json:"id"`
	FromID  int64      `json:"from_id"`
	PeerID  int64      `json:"peer_id"`
	Text    string     `json:"text"`
	Payload string     `json:"payload"`
	Action  *rawAction `json:"action"`
}

// rawAction is a chat service action attached to a message (invites etc.).
type rawAction struct {
	Type     string `json:"type"`
	MemberID int64  `json:"member_id"`
}

// toEvents converts a raw batch into classifier events, preserving arrival
// order and dropping every update kind except new messages.
func toEvents(updates []rawUpdate) []game.Event {
	out := make([]game.Event, 0, len(updates))
	for _, u := range updates {
		if u.Type != eventMessageNew {
			continue
		}
		m := u.Object.Message
		ev := game.Event{
			MessageID: m.ID,
			FromID:    m.FromID,
			PeerID:    m.PeerID,
			Body:      m.Text,
			Payload:   m.Payload,
		}
		if m.Action != nil {
			ev.Action = &game.MemberAction{Type: m.Action.Type, MemberID: m.Action.MemberID}
		}
		out = append(out, ev)
	}
	return out
}
