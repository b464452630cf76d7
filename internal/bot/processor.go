// Package bot connects the transport to the game core: it classifies inbound
// events into commands, runs them through the state machine, and dispatches
// the resulting replies. Commands for the same chat are strictly serialized
// and processed in arrival order; distinct chats proceed concurrently.
package bot

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/quizhub/go-trivia-bot/internal/game"
)

var (
	commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_commands_total",
		Help: "Commands processed, by classified kind.",
	}, []string{"kind"})
	commandFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_command_failures_total",
		Help: "Commands whose transition returned an error.",
	})
	sendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_send_failures_total",
		Help: "Outbound messages that could not be delivered.",
	})
)

func init() {
	prometheus.MustRegister(commandsTotal, commandFailures, sendFailures)
}

var kindNames = map[game.CommandKind]string{
	game.CmdOther:         "other",
	game.CmdInviteBot:     "invite",
	game.CmdStartGame:     "start",
	game.CmdReadyUp:       "ready",
	game.CmdJoin:          "join",
	game.CmdTagRespondent: "tag",
	game.CmdSubmitAnswer:  "answer",
}

// CommandHandler runs one classified command and returns the replies to
// dispatch. *game.Engine satisfies it.
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd game.Command) ([]game.OutboundMessage, error)
}

// Sender delivers one outbound message. *vk.Client satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, m game.OutboundMessage) error
}

// Processor fans inbound events out to one worker goroutine per chat. Within
// a chat, each command is fully handled (transition plus reply dispatch)
// before the next one starts, which is the serialization the state machine
// requires. Reply order within a chat therefore matches emission order.
type Processor struct {
	handler     CommandHandler
	sender      Sender
	botMemberID int64
	log         zerolog.Logger

	mu     sync.Mutex
	queues map[int64]chan queued
	wg     sync.WaitGroup
	closed bool
}

type queued struct {
	ctx context.Context
	cmd game.Command
}

// queueDepth bounds per-chat backlog. A human chat never comes close; the
// bound only guards against a stuck store call pinning unbounded memory.
const queueDepth = 64

// NewProcessor constructs a Processor. botMemberID is the member id VK uses
// for the bot itself in chat actions.
func NewProcessor(h CommandHandler, s Sender, botMemberID int64, log zerolog.Logger) *Processor {
	return &Processor{
		handler:     h,
		sender:      s,
		botMemberID: botMemberID,
		log:         log.With().Str("component", "processor").Logger(),
		queues:      make(map[int64]chan queued),
	}
}

// HandleEvents classifies a batch and enqueues each recognized command on its
// chat's queue. It is the vk.Handler the poller drives.
func (p *Processor) HandleEvents(ctx context.Context, events []game.Event) {
	for _, ev := range events {
		for _, cmd := range game.Classify(ev, p.botMemberID) {
			commandsTotal.WithLabelValues(kindName(cmd.Kind)).Inc()
			if cmd.Kind == game.CmdOther {
				continue
			}
			p.enqueue(ctx, cmd)
		}
	}
}

func kindName(k game.CommandKind) string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "other"
}

// enqueue places the command on its chat's queue, spawning the chat worker on
// first use. A full queue drops the command rather than stalling other chats.
func (p *Processor) enqueue(ctx context.Context, cmd game.Command) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	q, ok := p.queues[cmd.PeerID]
	if !ok {
		q = make(chan queued, queueDepth)
		p.queues[cmd.PeerID] = q
		p.wg.Add(1)
		go p.worker(q)
	}
	p.mu.Unlock()

	select {
	case q <- queued{ctx: ctx, cmd: cmd}:
	default:
		p.log.Warn().Int64("peer_id", cmd.PeerID).Msg("chat queue full, dropping command")
	}
}

// worker drains one chat's queue until Close.
func (p *Processor) worker(q chan queued) {
	defer p.wg.Done()
	for item := range q {
		p.process(item.ctx, item.cmd)
	}
}

// process runs a single command end to end. Transition failures are logged
// and counted; the event is lost but state is unchanged, so the chat can
// simply repeat the command.
func (p *Processor) process(ctx context.Context, cmd game.Command) {
	msgs, err := p.handler.HandleCommand(ctx, cmd)
	if err != nil {
		commandFailures.Inc()
		p.log.Error().Err(err).
			Int64("peer_id", cmd.PeerID).
			Str("kind", kindName(cmd.Kind)).
			Msg("command failed")
		return
	}
	for _, m := range msgs {
		if err := p.sender.SendMessage(ctx, m); err != nil {
			sendFailures.Inc()
			p.log.Error().Err(err).Int64("peer_id", m.PeerID).Msg("send failed")
		}
	}
}

// Close stops accepting new commands and waits for every chat queue to
// drain.
func (p *Processor) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
