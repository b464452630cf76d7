// Game state machine.
//
// The engine advances one chat's game per command: it validates the command
// against the persisted snapshot, applies the transition through the Store,
// and returns the outbound messages the transition produced. Precondition
// violations (answering out of turn, starting over an unfinished game) are
// not faults: they are legal rejected transitions that leave state
// untouched and still answer the chat. Only persistence failures surface as
// errors, in which case no partial state is observable and the event is
// safe to replay.
//
// Callers must serialize commands per chat; the engine itself assumes the
// read-validate-write sequence of a transition runs without interleaving
// for a given chat.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"

	"github.com/quizhub/go-trivia-bot/internal/domain"
)

// ErrNoActiveGame is returned by Store.ActiveGame when the chat has no
// unfinished game.
var ErrNoActiveGame = errors.New("no active game")

// Store is the persistence gateway the engine drives. Every method is a
// single atomic read or write against the store; implementations translate
// their own not-found errors into ErrNoActiveGame where the contract says
// so.
type Store interface {
	// ResolveChat returns the chat for an external id, creating it on first
	// sight. ResolveUser does the same for users.
	ResolveChat(ctx context.Context, vkChatID int64) (*domain.Chat, error)
	ResolveUser(ctx context.Context, vkUserID int64) (*domain.User, error)

	// ActiveGame returns the unique unfinished game for the chat with
	// players and asked questions loaded, or ErrNoActiveGame.
	ActiveGame(ctx context.Context, chatID uint) (*domain.Game, error)
	CreateGame(ctx context.Context, chatID uint) (*domain.Game, error)

	// AddPlayer reports false when the user already joined.
	AddPlayer(ctx context.Context, gameID, userID uint) (bool, error)
	StartGame(ctx context.Context, gameID uint) error
	SetCaptain(ctx context.Context, gameID, userID uint) error
	SetRespondent(ctx context.Context, gameID, userID uint) error

	// RecordQuestionAsked atomically appends to the asked set and stamps
	// the current question plus the answer-window start.
	RecordQuestionAsked(ctx context.Context, gameID, questionID uint, at time.Time) error
	// ApplyScore increments one side's score and returns the updated game.
	ApplyScore(ctx context.Context, gameID uint, playersSide bool) (*domain.Game, error)
	FinishGame(ctx context.Context, gameID uint) error

	// ApprovedQuestionIDs lists draw-eligible question ids minus exclusions.
	ApprovedQuestionIDs(ctx context.Context, exclude []uint) ([]uint, error)
	Question(ctx context.Context, id uint) (*domain.Question, error)
}

// Rand is the injected randomness source for captain choice and question
// draws. *math/rand/v2.Rand satisfies it; tests supply a seeded one.
type Rand interface {
	IntN(n int) int
}

// Profiles resolves display names for mentions. Implementations are
// best-effort; an empty result falls back to a generic label. A nil
// Profiles is valid.
type Profiles interface {
	Name(ctx context.Context, vkID int64) string
}

// Engine is the per-chat game state machine.
type Engine struct {
	Store    Store
	Rand     Rand
	Profiles Profiles

	// Now is the clock used for the answer window; defaults to time.Now.
	Now func() time.Time
	// AnswerWindow is how long the respondent has after a question is
	// asked. Submissions past the deadline count as incorrect regardless
	// of content.
	AnswerWindow time.Duration
	// WinScore finishes the game the instant either side reaches it.
	WinScore int
}

const (
	// DefaultAnswerWindow matches the classic 1.5 minute round timer.
	DefaultAnswerWindow = 90 * time.Second
	// DefaultWinScore is the first-to-six match format.
	DefaultWinScore = 6
)

// NewEngine constructs an Engine with the default match settings.
func NewEngine(store Store, rnd Rand) *Engine {
	return &Engine{
		Store:        store,
		Rand:         rnd,
		Now:          time.Now,
		AnswerWindow: DefaultAnswerWindow,
		WinScore:     DefaultWinScore,
	}
}

// foldCaser folds answer text for comparison; Unicode case folding rather
// than a plain ToLower so that answers in any script compare correctly.
var foldCaser = cases.Fold()

// foldAnswer normalizes a submission or stored answer for membership
// comparison. Storage keeps the original casing.
func foldAnswer(s string) string {
	return foldCaser.String(strings.TrimSpace(s))
}

// HandleCommand runs one transition. It returns the outbound messages to
// dispatch in order. A nil message slice with nil error means the command
// was acknowledged without a reply (e.g. CmdOther).
func (e *Engine) HandleCommand(ctx context.Context, cmd Command) ([]OutboundMessage, error) {
	tr := otel.Tracer("game/Engine")
	ctx, span := tr.Start(ctx, "HandleCommand",
		trace.WithAttributes(
			attribute.Int("command.kind", int(cmd.Kind)),
			attribute.Int64("chat.peer_id", cmd.PeerID),
		),
	)
	defer span.End()

	switch cmd.Kind {
	case CmdInviteBot:
		return e.inviteBot(ctx, cmd)
	case CmdStartGame:
		return e.startGame(ctx, cmd)
	case CmdJoin:
		return e.join(ctx, cmd)
	case CmdReadyUp:
		return e.readyUp(ctx, cmd)
	case CmdTagRespondent:
		return e.tagRespondent(ctx, cmd)
	case CmdSubmitAnswer:
		return e.submitAnswer(ctx, cmd)
	default:
		return nil, nil
	}
}

// inviteBot registers the chat on first sight and greets it. Re-invites are
// idempotent: the chat row is immutable and the greeting repeats.
func (e *Engine) inviteBot(ctx context.Context, cmd Command) ([]OutboundMessage, error) {
	if _, err := e.Store.ResolveChat(ctx, cmd.PeerID); err != nil {
		return nil, err
	}
	return []OutboundMessage{msgWelcome(cmd.PeerID)}, nil
}

// startGame opens a lobby when the chat has no unfinished game.
func (e *Engine) startGame(ctx context.Context, cmd Command) ([]OutboundMessage, error) {
	chat, err := e.Store.ResolveChat(ctx, cmd.PeerID)
	if err != nil {
		return nil, err
	}
	_, err = e.Store.ActiveGame(ctx, chat.ID)
	switch {
	case err == nil:
		return []OutboundMessage{msgCannotStart(cmd.PeerID)}, nil
	case errors.Is(err, ErrNoActiveGame):
		if _, err := e.Store.CreateGame(ctx, chat.ID); err != nil {
			return nil, err
		}
		return []OutboundMessage{msgLobbyOpened(cmd.PeerID)}, nil
	default:
		return nil, err
	}
}

// join adds the sender to an open lobby. Joining twice is a no-op that
// answers "already joined" instead of duplicating membership.
func (e *Engine) join(ctx context.Context, cmd Command) ([]OutboundMessage, error) {
	chat, err := e.Store.ResolveChat(ctx, cmd.PeerID)
	if err != nil {
		return nil, err
	}
	g, err := e.Store.ActiveGame(ctx, chat.ID)
	if errors.Is(err, ErrNoActiveGame) {
		return []OutboundMessage{msgCannotJoin(cmd.PeerID)}, nil
	}
	if err != nil {
		return nil, err
	}
	if g.IsStarted {
		return []OutboundMessage{msgCannotJoin(cmd.PeerID)}, nil
	}

	user, err := e.Store.ResolveUser(ctx, cmd.SenderID)
	if err != nil {
		return nil, err
	}
	added, err := e.Store.AddPlayer(ctx, g.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if !added {
		return []OutboundMessage{msgAlreadyJoined(cmd.PeerID)}, nil
	}
	return []OutboundMessage{msgJoined(cmd.PeerID, cmd.SenderID, e.name(ctx, cmd.SenderID))}, nil
}

// readyUp closes the lobby: it starts the game, picks a captain uniformly
// at random from the joined players, and asks the first question.
func (e *Engine) readyUp(ctx context.Context, cmd Command) ([]OutboundMessage, error) {
	chat, err := e.Store.ResolveChat(ctx, cmd.PeerID)
	if err != nil {
		return nil, err
	}
	g, err := e.Store.ActiveGame(ctx, chat.ID)
	if errors.Is(err, ErrNoActiveGame) {
		return []OutboundMessage{msgCannotReady(cmd.PeerID)}, nil
	}
	if err != nil {
		return nil, err
	}
	if g.IsStarted {
		return []OutboundMessage{msgCannotReady(cmd.PeerID)}, nil
	}
	if len(g.Players) == 0 {
		return []OutboundMessage{msgNobodyJoined(cmd.PeerID)}, nil
	}

	if err := e.Store.StartGame(ctx, g.ID); err != nil {
		return nil, err
	}
	captain := g.Players[e.Rand.IntN(len(g.Players))]
	if err := e.Store.SetCaptain(ctx, g.ID, captain.ID); err != nil {
		return nil, err
	}

	msgs := []OutboundMessage{
		msgCaptainChosen(cmd.PeerID, captain.VKID, e.name(ctx, captain.VKID), e.AnswerWindow.String()),
	}
	qMsgs, _, err := e.drawQuestion(ctx, g.ID, cmd.PeerID, g.AskedQuestionIDs())
	if err != nil {
		return nil, err
	}
	return append(msgs, qMsgs...), nil
}

// tagRespondent lets the captain pick who answers. Mentions outside a
// running game are swallowed without a reply, matching the bot's behavior
// for ordinary chatter that happens to be a mention.
func (e *Engine) tagRespondent(ctx context.Context, cmd Command) ([]OutboundMessage, error) {
	chat, err := e.Store.ResolveChat(ctx, cmd.PeerID)
	if err != nil {
		return nil, err
	}
	g, err := e.Store.ActiveGame(ctx, chat.ID)
	if errors.Is(err, ErrNoActiveGame) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !g.IsStarted || g.CaptainID == nil {
		return nil, nil
	}

	captain := findPlayer(g, *g.CaptainID)
	if captain == nil || captain.VKID != cmd.SenderID {
		return []OutboundMessage{msgNotCaptain(cmd.PeerID)}, nil
	}
	target := findPlayerByVKID(g, cmd.TargetVKID)
	if target == nil {
		return []OutboundMessage{msgNotInGame(cmd.PeerID)}, nil
	}
	if err := e.Store.SetRespondent(ctx, g.ID, target.ID); err != nil {
		return nil, err
	}
	return []OutboundMessage{msgRespondentChosen(cmd.PeerID, cmd.Text)}, nil
}

// submitAnswer scores the respondent's submission. The answer window is
// enforced server-side: past the deadline the content is irrelevant and
// the bot scores. Exactly one side's score grows per submission, and the
// game finishes the instant a side reaches the win threshold.
func (e *Engine) submitAnswer(ctx context.Context, cmd Command) ([]OutboundMessage, error) {
	chat, err := e.Store.ResolveChat(ctx, cmd.PeerID)
	if err != nil {
		return nil, err
	}
	g, err := e.Store.ActiveGame(ctx, chat.ID)
	if errors.Is(err, ErrNoActiveGame) {
		return e.rejectAnswer(ctx, cmd), nil
	}
	if err != nil {
		return nil, err
	}
	if !g.IsStarted || g.RespondentID == nil {
		return e.rejectAnswer(ctx, cmd), nil
	}
	respondent := findPlayer(g, *g.RespondentID)
	if respondent == nil || respondent.VKID != cmd.SenderID {
		return e.rejectAnswer(ctx, cmd), nil
	}
	if g.CurrentQuestionID == nil || g.QuestionAskedAt == nil {
		return nil, fmt.Errorf("game %d is started but has no current question", g.ID)
	}

	q, err := e.Store.Question(ctx, *g.CurrentQuestionID)
	if err != nil {
		return nil, err
	}

	elapsed := e.Now().Sub(*g.QuestionAskedAt)
	expired := elapsed > e.AnswerWindow
	correct := !expired && isAcceptedAnswer(q, cmd.Text)

	updated, err := e.Store.ApplyScore(ctx, g.ID, correct)
	if err != nil {
		return nil, err
	}

	var msgs []OutboundMessage
	switch {
	case expired:
		msgs = append(msgs, msgAnswerExpired(cmd.PeerID, updated, e.AnswerWindow.String()))
	case correct:
		msgs = append(msgs, msgAnswerCorrect(cmd.PeerID, updated))
	default:
		msgs = append(msgs, msgAnswerWrong(cmd.PeerID, updated))
	}
	msgs = append(msgs, msgAnswerDescription(cmd.PeerID, q))

	// Win detection happens on the score update that could have caused it,
	// never later.
	if updated.PlayersScore >= e.WinScore || updated.BotScore >= e.WinScore {
		if err := e.Store.FinishGame(ctx, g.ID); err != nil {
			return nil, err
		}
		if updated.PlayersScore >= e.WinScore {
			msgs = append(msgs, msgPlayersWin(cmd.PeerID))
		} else {
			msgs = append(msgs, msgBotWins(cmd.PeerID))
		}
		return msgs, nil
	}

	qMsgs, _, err := e.drawQuestion(ctx, g.ID, cmd.PeerID, g.AskedQuestionIDs())
	if err != nil {
		return nil, err
	}
	return append(msgs, qMsgs...), nil
}

// rejectAnswer composes the out-of-turn reply for a sender who is not the
// chosen respondent.
func (e *Engine) rejectAnswer(ctx context.Context, cmd Command) []OutboundMessage {
	return []OutboundMessage{msgNotChosen(cmd.PeerID, cmd.SenderID, e.name(ctx, cmd.SenderID))}
}

// drawQuestion picks the next question uniformly at random from approved
// questions not yet asked this game, records it atomically with the window
// start, and announces it. When the pool is exhausted the game is finished
// and declared a draw instead.
func (e *Engine) drawQuestion(ctx context.Context, gameID uint, peerID int64, exclude []uint) ([]OutboundMessage, bool, error) {
	ids, err := e.Store.ApprovedQuestionIDs(ctx, exclude)
	if err != nil {
		return nil, false, err
	}
	if len(ids) == 0 {
		if err := e.Store.FinishGame(ctx, gameID); err != nil {
			return nil, false, err
		}
		return []OutboundMessage{msgPoolExhausted(peerID)}, true, nil
	}

	qid := ids[e.Rand.IntN(len(ids))]
	if err := e.Store.RecordQuestionAsked(ctx, gameID, qid, e.Now()); err != nil {
		return nil, false, err
	}
	q, err := e.Store.Question(ctx, qid)
	if err != nil {
		return nil, false, err
	}
	return []OutboundMessage{msgQuestion(peerID, q)}, false, nil
}

// isAcceptedAnswer performs case-folded exact membership against the
// question's acceptable answers. No substring or fuzzy matching.
func isAcceptedAnswer(q *domain.Question, submitted string) bool {
	folded := foldAnswer(submitted)
	for _, a := range q.Answers {
		if foldAnswer(a.Title) == folded {
			return true
		}
	}
	return false
}

// name resolves a display name for mentions, tolerating a nil Profiles.
func (e *Engine) name(ctx context.Context, vkID int64) string {
	if e.Profiles == nil {
		return ""
	}
	return e.Profiles.Name(ctx, vkID)
}

func findPlayer(g *domain.Game, id uint) *domain.User {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

func findPlayerByVKID(g *domain.Game, vkID int64) *domain.User {
	for i := range g.Players {
		if g.Players[i].VKID == vkID {
			return &g.Players[i]
		}
	}
	return nil
}
