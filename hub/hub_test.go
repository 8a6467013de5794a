package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/wsutil"
	"github.com/silently/wsmock"
)

func testRoomConfig() config.RoomConfig {
	return config.RoomConfig{PingIntervalSec: 20, PongTimeoutSec: 30}
}

func relayMessage(kind string, fields map[string]interface{}) wsutil.MessageIn {
	payload, _ := json.Marshal(fields)
	return wsutil.MessageIn{Kind: kind, Payload: string(payload)}
}

func TestSoloJoinReceivesAssignIdThenEmptyExistingParticipants(t *testing.T) {
	h := New()
	conn, rec := wsmock.NewGorillaMockAndRecorder(t)

	go RunConnection("room1", conn, h, testRoomConfig())

	rec.AssertReceivedContains("assign_id")
	rec.AssertReceivedContains("existing_participants")
	rec.Run(time.Second)
}

func TestSecondJoinerSeesFirstAndFirstIsNotifiedOfSecond(t *testing.T) {
	h := New()

	connA, recA := wsmock.NewGorillaMockAndRecorder(t)
	go RunConnection("room1", connA, h, testRoomConfig())
	recA.AssertReceivedContains("assign_id")
	recA.Run(time.Second)

	connB, recB := wsmock.NewGorillaMockAndRecorder(t)
	go RunConnection("room1", connB, h, testRoomConfig())

	recA.AssertReceivedContains("new_participant")
	recB.AssertReceivedContains("existing_participants")
	recA.Run(time.Second)
	recB.Run(time.Second)
}

func TestTargetedRelayReachesOnlyTargetWithServerAttributedSenderId(t *testing.T) {
	h := New()
	cfg := testRoomConfig()

	connA, recA := wsmock.NewGorillaMockAndRecorder(t)
	go RunConnection("room1", connA, h, cfg)
	recA.AssertReceivedContains("assign_id")
	recA.Run(time.Second)

	connB, recB := wsmock.NewGorillaMockAndRecorder(t)
	go RunConnection("room1", connB, h, cfg)
	recB.AssertReceivedContains("assign_id")
	recB.Run(time.Second)

	connC, recC := wsmock.NewGorillaMockAndRecorder(t)
	go RunConnection("room1", connC, h, cfg)
	recC.AssertReceivedContains("assign_id")
	recC.Run(time.Second)

	h.mu.Lock()
	r := h.rooms["room1"]
	h.mu.Unlock()
	r.mu.Lock()
	order := append([]string(nil), r.order...)
	r.mu.Unlock()
	if len(order) != 3 {
		t.Fatalf("expected 3 joined participants, got %d", len(order))
	}
	idA, idC := order[0], order[2]

	// A relays straight to C via target_id. Only C should receive it, B
	// should see nothing from this relay, and the delivered sender_id must
	// be A's real, hub-assigned id rather than the spoofed one the client
	// supplied.
	connA.Send(relayMessage("signal", map[string]interface{}{
		"target_id": idC,
		"sender_id": "spoofed",
		"data":      map[string]int{"x": 2},
	}))

	recC.AssertReceivedContains("\"sender_id\":\"" + idA + "\"")
	recC.AssertReceivedContains("\"x\":2")
	recC.Run(time.Second)

	recB.AssertNotReceivedContains("\"x\":2")
	recB.Run(time.Second)
}

func TestTargetedRelayToUnknownTargetIsANoOp(t *testing.T) {
	h := New()
	cfg := testRoomConfig()

	connA, recA := wsmock.NewGorillaMockAndRecorder(t)
	go RunConnection("room1", connA, h, cfg)
	recA.AssertReceivedContains("assign_id")
	recA.Run(time.Second)

	connB, recB := wsmock.NewGorillaMockAndRecorder(t)
	go RunConnection("room1", connB, h, cfg)
	recB.AssertReceivedContains("assign_id")
	recB.Run(time.Second)

	// target_id resolves against the hub's own participant ids; a value
	// that never joined must be silently dropped rather than broadcast.
	connA.Send(relayMessage("signal", map[string]interface{}{
		"target_id": "does-not-exist",
		"data":      map[string]int{"x": 9},
	}))

	recB.AssertNotReceivedContains("\"x\":9")
	recB.Run(time.Second)
}

func TestRoomIsRemovedOnceEveryoneLeaves(t *testing.T) {
	h := New()
	cfg := testRoomConfig()

	connA, recA := wsmock.NewGorillaMockAndRecorder(t)
	go RunConnection("room1", connA, h, cfg)
	recA.AssertReceivedContains("assign_id")
	recA.Run(time.Second)

	connA.Close()

	time.Sleep(50 * time.Millisecond)

	h.mu.Lock()
	_, exists := h.rooms["room1"]
	h.mu.Unlock()
	if exists {
		t.Fatalf("expected room1 to be removed once its last participant left")
	}
}
