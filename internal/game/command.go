// Package game implements the trivia bot's decision core: classifying raw
// inbound chat events into typed commands and advancing the per-chat game
// state machine. The package owns no I/O of its own; persistence and
// message delivery are injected behind narrow interfaces so transitions can
// be exercised deterministically in tests.
package game

import (
	"regexp"
	"strconv"
)

// Event is one raw inbound chat event as decoded by the transport layer.
// Only "new message" events reach the classifier.
type Event struct {
	MessageID int64
	// FromID is the sender; PeerID is the chat. VK marks direct messages by
	// FromID == PeerID, which the game ignores entirely.
	FromID int64
	PeerID int64
	// Body is the literal message text; classification never fuzzy-matches.
	Body string
	// Payload carries the structured payload of a pressed keyboard button.
	Payload string
	// Action is set when the message represents a chat service action such
	// as a member being invited.
	Action *MemberAction
}

// MemberAction describes a chat service action attached to a message.
type MemberAction struct {
	Type     string
	MemberID int64
}

// ActionChatInviteUser is the VK action type for a member being added.
const ActionChatInviteUser = "chat_invite_user"

// PayloadJoinReady is the structured payload the "Join" keyboard button
// carries; a press classifies exactly like a literal /join.
const PayloadJoinReady = `{"game":"ready"}`

// CommandKind enumerates the typed commands a chat event can map to.
type CommandKind int

const (
	// CmdOther is a chat-directed message that matched no rule. It is
	// acknowledged but produces no state change.
	CmdOther CommandKind = iota
	// CmdInviteBot fires when the bot itself is added to a chat.
	CmdInviteBot
	// CmdStartGame creates a new game lobby (/start).
	CmdStartGame
	// CmdReadyUp closes the lobby and begins play (/ready).
	CmdReadyUp
	// CmdJoin adds the sender to the lobby (/join or keyboard press).
	CmdJoin
	// CmdTagRespondent is the captain mentioning the player who answers.
	CmdTagRespondent
	// CmdSubmitAnswer carries an /answer submission.
	CmdSubmitAnswer
)

// Command is the ephemeral, typed result of classification. Commands are
// produced per event, consumed by the engine, and never persisted.
type Command struct {
	Kind     CommandKind
	PeerID   int64
	SenderID int64
	// TargetVKID is the mentioned user's external id for CmdTagRespondent.
	TargetVKID int64
	// Text is the raw answer remainder for CmdSubmitAnswer, or the full
	// mention body for CmdTagRespondent (echoed back on confirmation).
	// Case is preserved here; folding happens only at comparison time.
	Text string
}

var (
	// mentionRE matches an exact VK mention like [id123|Display Name].
	mentionRE = regexp.MustCompile(`^\[id(\d+)\|.+\]$`)
	// answerRE matches "/answer <text>" and captures the remainder.
	answerRE = regexp.MustCompile(`^/answer (.+)$`)
)

// Classify maps one raw inbound event to its commands. botMemberID is the
// identity the transport reports when the bot itself is added to a chat (VK
// encodes a group as the negated group id).
//
// Rules are checked in priority order against the literal body; patterns
// are mutually exclusive, so the first match wins. Direct messages yield no
// commands at all.
func Classify(ev Event, botMemberID int64) []Command {
	if ev.FromID == ev.PeerID {
		return nil
	}

	cmd := Command{PeerID: ev.PeerID, SenderID: ev.FromID}

	switch {
	case ev.Action != nil && ev.Action.Type == ActionChatInviteUser && ev.Action.MemberID == botMemberID:
		cmd.Kind = CmdInviteBot
	case ev.Body == "/start":
		cmd.Kind = CmdStartGame
	case ev.Body == "/ready":
		cmd.Kind = CmdReadyUp
	case mentionRE.MatchString(ev.Body):
		// A digit run too long for int64 is not a real VK id; the body
		// stops being a mention rather than tagging a garbage target.
		id, valid := parseMentionID(ev.Body)
		if !valid {
			cmd.Kind = CmdOther
			break
		}
		cmd.Kind = CmdTagRespondent
		cmd.TargetVKID = id
		cmd.Text = ev.Body
	case answerRE.MatchString(ev.Body):
		cmd.Kind = CmdSubmitAnswer
		cmd.Text = answerRE.FindStringSubmatch(ev.Body)[1]
	case ev.Body == "/join" || ev.Payload == PayloadJoinReady:
		cmd.Kind = CmdJoin
	default:
		cmd.Kind = CmdOther
	}

	return []Command{cmd}
}

// parseMentionID extracts the numeric id from a body already known to match
// mentionRE. It reports false when the digits do not fit an int64.
func parseMentionID(body string) (int64, bool) {
	m := mentionRE.FindStringSubmatch(body)
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
