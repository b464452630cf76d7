// Outbound message composition.
//
// Every transition that talks back to the chat produces OutboundMessage
// values; the engine never sends anything itself. Dispatch failures are
// thereby isolated from state transitions: state is already committed by
// the time a message is handed to the sender.
package game

import (
	"fmt"

	"github.com/quizhub/go-trivia-bot/internal/domain"
)

// OutboundMessage is one chat reply produced by a transition. Delivery order
// within a chat must match emission order; the dispatcher owns the send.
type OutboundMessage struct {
	PeerID     int64
	Text       string
	Keyboard   *Keyboard
	Attachment string
}

// Keyboard is a VK inline reply keyboard descriptor, serialized verbatim by
// the transport when sending.
type Keyboard struct {
	OneTime bool       `json:"one_time"`
	Buttons [][]Button `json:"buttons"`
}

// Button is a single keyboard button.
type Button struct {
	Action ButtonAction `json:"action"`
}

// ButtonAction describes what a button press produces.
type ButtonAction struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Payload string `json:"payload,omitempty"`
}

// joinKeyboard builds the one-time "Join" keyboard attached to lobby
// messages. Pressing it delivers PayloadJoinReady, which classifies as Join.
func joinKeyboard() *Keyboard {
	return &Keyboard{
		OneTime: true,
		Buttons: [][]Button{{{
			Action: ButtonAction{Type: "text", Label: "Join the game", Payload: PayloadJoinReady},
		}}},
	}
}

// mention formats a VK mention that renders as a tappable user link.
func mention(vkID int64, name string) string {
	if name == "" {
		name = "player"
	}
	return fmt.Sprintf("[id%d|%s]", vkID, name)
}

func reply(peerID int64, text string) OutboundMessage {
	return OutboundMessage{PeerID: peerID, Text: text}
}

func msgWelcome(peerID int64) OutboundMessage {
	return reply(peerID, "Hi! I host rounds of the quiz game What? Where? When? "+
		"Grant me admin rights and write /start to open a game.")
}

func msgLobbyOpened(peerID int64) OutboundMessage {
	m := reply(peerID, "The game starts as soon as someone writes /ready! "+
		"To join, press the button or write /join.")
	m.Keyboard = joinKeyboard()
	return m
}

func msgCannotStart(peerID int64) OutboundMessage {
	return reply(peerID, "You cannot start a new game until the previous one has finished!")
}

func msgJoined(peerID, vkID int64, name string) OutboundMessage {
	m := reply(peerID, fmt.Sprintf("%s joined the game!", mention(vkID, name)))
	m.Keyboard = joinKeyboard()
	return m
}

func msgAlreadyJoined(peerID int64) OutboundMessage {
	return reply(peerID, "You have already joined the game.")
}

func msgCannotJoin(peerID int64) OutboundMessage {
	return reply(peerID, "There is no game to join right now.")
}

func msgCannotReady(peerID int64) OutboundMessage {
	return reply(peerID, "You cannot launch the game right now!")
}

func msgNobodyJoined(peerID int64) OutboundMessage {
	return reply(peerID, "Nobody has joined yet. The game needs at least one player.")
}

func msgCaptainChosen(peerID, vkID int64, name string, window string) OutboundMessage {
	return reply(peerID, fmt.Sprintf(
		"The players are ready, let the game begin!\n\n"+
			"Team captain: %s\n\n"+
			"After each question the captain has %s to tag (via mention) the player who answers.",
		mention(vkID, name), window))
}

func msgQuestion(peerID int64, q *domain.Question) OutboundMessage {
	return reply(peerID, q.Title)
}

func msgNotCaptain(peerID int64) OutboundMessage {
	return reply(peerID, "Only the team captain may choose who answers!")
}

func msgNotInGame(peerID int64) OutboundMessage {
	return reply(peerID, "That player is not part of the game!")
}

func msgRespondentChosen(peerID int64, mentionBody string) OutboundMessage {
	return reply(peerID, fmt.Sprintf("%s answers the question.", mentionBody))
}

func msgNotChosen(peerID, vkID int64, name string) OutboundMessage {
	return reply(peerID, fmt.Sprintf(
		"%s, you were not chosen to answer this question!", mention(vkID, name)))
}

func msgAnswerExpired(peerID int64, g *domain.Game, window string) OutboundMessage {
	return reply(peerID, fmt.Sprintf(
		"More than %s passed, the answer does not count.\n\n%s", window, scoreLine(g)))
}

func msgAnswerCorrect(peerID int64, g *domain.Game) OutboundMessage {
	return reply(peerID, "That is the correct answer!\n\n"+scoreLine(g))
}

func msgAnswerWrong(peerID int64, g *domain.Game) OutboundMessage {
	return reply(peerID, "That is the wrong answer!\n\n"+scoreLine(g))
}

func msgAnswerDescription(peerID int64, q *domain.Question) OutboundMessage {
	return reply(peerID, q.AnswerDescription)
}

func msgPlayersWin(peerID int64) OutboundMessage {
	return reply(peerID, "Congratulations, your team won!")
}

func msgBotWins(peerID int64) OutboundMessage {
	return reply(peerID, "Alas, you lost this one!")
}

func msgPoolExhausted(peerID int64) OutboundMessage {
	return reply(peerID, "The question bank has run dry. The game ends in a draw.")
}

func scoreLine(g *domain.Game) string {
	return fmt.Sprintf("Your team %d : %d Bot", g.PlayersScore, g.BotScore)
}
