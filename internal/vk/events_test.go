package vk

import (
	"encoding/json"
	"testing"
)

func TestToEvents_DecodesAndFilters(t *testing.T) {
	// A realistic batch: a message, an unrelated update type, and an invite
	// action. Order of surviving events must match arrival order.
	raw := `[
		{"type": "message_new", "object": {"message": {
			"id": 101, "from_id": 42, "peer_id": 2000000001,
			"text": "/answer a towel", "payload": ""
		}}},
		{"type": "message_typing_state", "object": {}},
		{"type": "message_new", "object": {"message": {
			"id": 102, "from_id": 43, "peer_id": 2000000001,
			"text": "", "payload": "{\"game\":\"ready\"}"
		}}},
		{"type": "message_new", "object": {"message": {
			"id": 103, "from_id": 42, "peer_id": 2000000002,
			"text": "",
			"action": {"type": "chat_invite_user", "member_id": -222001122}
		}}}
	]`

	var updates []rawUpdate
	if err := json.Unmarshal([]byte(raw), &updates); err != nil {
		t.Fatalf("unmarshal batch: %v", err)
	}

	events := toEvents(updates)
	if len(events) != 3 {
		t.Fatalf("expected 3 events (typing state dropped), got %d", len(events))
	}

	if e := events[0]; e.MessageID != 101 || e.FromID != 42 || e.PeerID != 2000000001 || e.Body != "/answer a towel" {
		t.Fatalf("first event mismatch: %+v", e)
	}
	if e := events[1]; e.MessageID != 102 || e.Payload != `{"game":"ready"}` {
		t.Fatalf("second event mismatch: %+v", e)
	}
	if e := events[2]; e.Action == nil || e.Action.Type != "chat_invite_user" || e.Action.MemberID != -222001122 {
		t.Fatalf("invite action not carried: %+v", e.Action)
	}
	if events[0].Action != nil || events[1].Action != nil {
		t.Fatalf("plain messages must have a nil action")
	}
}

func TestToEvents_EmptyBatch(t *testing.T) {
	if got := toEvents(nil); len(got) != 0 {
		t.Fatalf("empty batch should yield no events, got %d", len(got))
	}
}
