package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quizhub/go-trivia-bot/internal/game"
)

// scriptedHandler records the commands it sees and answers each with a single
// reply naming the command, so ordering is observable end to end.
type scriptedHandler struct {
	mu   sync.Mutex
	seen []game.Command
	err  error
}

func (h *scriptedHandler) HandleCommand(_ context.Context, cmd game.Command) ([]game.OutboundMessage, error) {
	h.mu.Lock()
	h.seen = append(h.seen, cmd)
	h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	return []game.OutboundMessage{{PeerID: cmd.PeerID, Text: cmd.Text}}, nil
}

func (h *scriptedHandler) commands() []game.Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]game.Command(nil), h.seen...)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []game.OutboundMessage
	err  error
}

func (s *recordingSender) SendMessage(_ context.Context, m game.OutboundMessage) error {
	s.mu.Lock()
	s.sent = append(s.sent, m)
	s.mu.Unlock()
	return s.err
}

func (s *recordingSender) messages() []game.OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]game.OutboundMessage(nil), s.sent...)
}

const botID = int64(-222001122)

func newTestProcessor(h CommandHandler, s Sender) *Processor {
	return NewProcessor(h, s, botID, zerolog.Nop())
}

func TestProcessor_SerializesPerChat_InArrivalOrder(t *testing.T) {
	h := &scriptedHandler{}
	s := &recordingSender{}
	p := newTestProcessor(h, s)

	const peer = int64(2000000001)
	var events []game.Event
	for i := 0; i < 20; i++ {
		events = append(events, game.Event{
			FromID: 42, PeerID: peer,
			Body: fmt.Sprintf("/answer guess %d", i),
		})
	}
	p.HandleEvents(context.Background(), events)
	p.Close()

	cmds := h.commands()
	if len(cmds) != 20 {
		t.Fatalf("expected 20 commands handled, got %d", len(cmds))
	}
	for i, cmd := range cmds {
		want := fmt.Sprintf("guess %d", i)
		if cmd.Kind != game.CmdSubmitAnswer || cmd.Text != want {
			t.Fatalf("command %d out of order: kind=%v text=%q want %q", i, cmd.Kind, cmd.Text, want)
		}
	}

	msgs := s.messages()
	if len(msgs) != 20 {
		t.Fatalf("expected 20 replies, got %d", len(msgs))
	}
	for i, m := range msgs {
		if want := fmt.Sprintf("guess %d", i); m.Text != want {
			t.Fatalf("reply %d out of order: %q want %q", i, m.Text, want)
		}
	}
}

func TestProcessor_MultipleChats_AllProcessed(t *testing.T) {
	h := &scriptedHandler{}
	s := &recordingSender{}
	p := newTestProcessor(h, s)

	var events []game.Event
	for peer := int64(2000000001); peer <= 2000000005; peer++ {
		for i := 0; i < 4; i++ {
			events = append(events, game.Event{FromID: 42, PeerID: peer, Body: "/start"})
		}
	}
	p.HandleEvents(context.Background(), events)
	p.Close()

	if got := len(h.commands()); got != 20 {
		t.Fatalf("expected all 20 commands handled across chats, got %d", got)
	}
	// Within each chat, replies stay contiguous per command; across chats
	// interleaving is free, so only the totals are asserted.
	if got := len(s.messages()); got != 20 {
		t.Fatalf("expected 20 replies, got %d", got)
	}
}

func TestProcessor_DropsUnrecognizedAndDirectMessages(t *testing.T) {
	h := &scriptedHandler{}
	s := &recordingSender{}
	p := newTestProcessor(h, s)

	p.HandleEvents(context.Background(), []game.Event{
		{FromID: 42, PeerID: 2000000001, Body: "just chatting"}, // CmdOther
		{FromID: 42, PeerID: 42, Body: "/start"},                // direct message
	})
	p.Close()

	if got := len(h.commands()); got != 0 {
		t.Fatalf("nothing should reach the handler, got %d commands", got)
	}
}

func TestProcessor_HandlerError_NoSend(t *testing.T) {
	h := &scriptedHandler{err: errors.New("store down")}
	s := &recordingSender{}
	p := newTestProcessor(h, s)

	p.HandleEvents(context.Background(), []game.Event{
		{FromID: 42, PeerID: 2000000001, Body: "/start"},
	})
	p.Close()

	if got := len(h.commands()); got != 1 {
		t.Fatalf("expected the command to be attempted, got %d", got)
	}
	if got := len(s.messages()); got != 0 {
		t.Fatalf("failed transitions must not send, got %d messages", got)
	}
}

func TestProcessor_SendFailure_DoesNotStopQueue(t *testing.T) {
	h := &scriptedHandler{}
	s := &recordingSender{err: errors.New("network flake")}
	p := newTestProcessor(h, s)

	p.HandleEvents(context.Background(), []game.Event{
		{FromID: 42, PeerID: 2000000001, Body: "/start"},
		{FromID: 42, PeerID: 2000000001, Body: "/ready"},
	})
	p.Close()

	if got := len(h.commands()); got != 2 {
		t.Fatalf("send failures must not block later commands, handled %d", got)
	}
}

func TestProcessor_Close_Idempotent_AndRejectsLateEvents(t *testing.T) {
	h := &scriptedHandler{}
	s := &recordingSender{}
	p := newTestProcessor(h, s)

	p.Close()
	p.Close() // second close is a no-op

	p.HandleEvents(context.Background(), []game.Event{
		{FromID: 42, PeerID: 2000000001, Body: "/start"},
	})
	if got := len(h.commands()); got != 0 {
		t.Fatalf("events after Close must be dropped, got %d", got)
	}
}
