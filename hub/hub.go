// Package hub implements the signaling plane: a per-room participant
// registry and message relay over persistent bidirectional connections,
// independent of any recording session.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/coursecast/coursecast/wsutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Participant is one connected member of a room; destroyed on disconnect.
type Participant struct {
	ID     string
	RoomID string
	conn   *wsutil.Conn
}

// room is a named group of participants over the bidirectional channel; it
// exists only while non-empty, so there's no explicit "room not found"
// state to track beyond the index entry itself.
type room struct {
	mu           sync.Mutex
	id           string
	participants map[string]*Participant
	order        []string // join order, for existing_participants
}

func newRoom(id string) *room {
	return &room{id: id, participants: make(map[string]*Participant)}
}

// broadcast sends kind/payload to every participant except excludeID
// (pass "" to exclude no one). Delivery is at-most-once: a write failure
// just logs and moves on, it never retries or blocks the caller.
func (r *room) broadcast(kind string, payload interface{}, excludeID string) {
	r.mu.Lock()
	targets := make([]*Participant, 0, len(r.participants))
	for id, p := range r.participants {
		if id == excludeID {
			continue
		}
		targets = append(targets, p)
	}
	r.mu.Unlock()

	for _, p := range targets {
		if err := p.conn.SendWithPayload(kind, payload); err != nil {
			log.Warn().Str("context", "hub").Str("room", r.id).Str("participant", p.ID).Err(err).Msg("broadcast_delivery_failed")
		}
	}
}

// Hub is the explicitly constructed signaling service: no package-level
// singleton, callers pass it wherever a websocket handler needs to join,
// leave, or relay.
type Hub struct {
	mu              sync.Mutex
	rooms           map[string]*room
	participantRoom map[string]string
}

// New constructs an empty Hub.
func New() *Hub {
	return &Hub{
		rooms:           make(map[string]*room),
		participantRoom: make(map[string]string),
	}
}

// Join allocates a fresh participant_id in roomID (creating the room if
// absent), sends assign_id then existing_participants to the new
// participant, and broadcasts new_participant to everyone already there.
func (h *Hub) Join(roomID string, conn *wsutil.Conn) string {
	participantID := uuid.NewString()
	p := &Participant{ID: participantID, RoomID: roomID, conn: conn}

	h.mu.Lock()
	r, ok := h.rooms[roomID]
	if !ok {
		r = newRoom(roomID)
		h.rooms[roomID] = r
	}
	h.participantRoom[participantID] = roomID
	h.mu.Unlock()

	r.mu.Lock()
	existing := make([]string, len(r.order))
	copy(existing, r.order)
	r.participants[participantID] = p
	r.order = append(r.order, participantID)
	r.mu.Unlock()

	log.Info().Str("context", "hub").Str("room", roomID).Str("participant", participantID).Msg("participant_joined")

	_ = conn.SendWithPayload("assign_id", map[string]string{"id": participantID})
	_ = conn.SendWithPayload("existing_participants", map[string][]string{"participant_ids": existing})
	r.broadcast("new_participant", map[string]string{"id": participantID}, participantID)

	return participantID
}

// Leave removes participantID from its room, broadcasts participant_left
// to whoever remains, and drops the room once it's empty.
func (h *Hub) Leave(participantID string) {
	h.mu.Lock()
	roomID, ok := h.participantRoom[participantID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.participantRoom, participantID)
	r := h.rooms[roomID]
	h.mu.Unlock()
	if r == nil {
		return
	}

	r.mu.Lock()
	delete(r.participants, participantID)
	for i, id := range r.order {
		if id == participantID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	empty := len(r.participants) == 0
	r.mu.Unlock()

	r.broadcast("participant_left", map[string]string{"id": participantID}, "")

	if empty {
		h.mu.Lock()
		delete(h.rooms, roomID)
		h.mu.Unlock()
		log.Info().Str("context", "hub").Str("room", roomID).Msg("room_removed")
	}
}

// Relay delivers a client-originated message from senderID. If payload
// (a JSON object) carries a target_id, delivery is unicast to that
// participant only (a no-op if absent); otherwise it's broadcast to every
// other room member. sender_id is always set to the true sender,
// overwriting whatever the client supplied.
func (h *Hub) Relay(senderID, kind, rawPayload string) {
	h.mu.Lock()
	roomID, ok := h.participantRoom[senderID]
	r := h.rooms[roomID]
	h.mu.Unlock()
	if !ok || r == nil {
		return
	}

	var payload map[string]interface{}
	if rawPayload != "" {
		if err := json.Unmarshal([]byte(rawPayload), &payload); err != nil {
			log.Warn().Str("context", "hub").Str("participant", senderID).Err(err).Msg("relay_payload_invalid")
			return
		}
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	targetID, _ := payload["target_id"].(string)
	delete(payload, "target_id")
	payload["sender_id"] = senderID

	if targetID != "" {
		r.mu.Lock()
		target, ok := r.participants[targetID]
		r.mu.Unlock()
		if !ok {
			return // target disconnected or never existed: silent no-op
		}
		if err := target.conn.SendWithPayload(kind, payload); err != nil {
			log.Warn().Str("context", "hub").Str("participant", targetID).Err(err).Msg("relay_delivery_failed")
		}
		return
	}

	r.broadcast(kind, payload, senderID)
}
