package hub

import (
	"time"

	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/wsutil"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// RunConnection is the per-participant task: it joins roomID, reads
// messages until the connection dies or fails a liveness check, relaying
// each one, then leaves. One goroutine per connected participant, exactly
// as many as there are open signaling channels.
func RunConnection(roomID string, unsafeConn *websocket.Conn, h *Hub, cfg config.RoomConfig) {
	conn := wsutil.New(
		unsafeConn,
		roomID,
		time.Duration(cfg.PingIntervalSec)*time.Second,
		time.Duration(cfg.PongTimeoutSec)*time.Second,
	)
	defer conn.Close()

	participantID := h.Join(roomID, conn)
	defer h.Leave(participantID)

	dead := conn.StartLiveness()

	msgCh := make(chan wsutil.MessageIn)
	errCh := make(chan error, 1)
	go func() {
		for {
			m, err := conn.Read()
			if err != nil {
				errCh <- err
				return
			}
			msgCh <- m
		}
	}()

	for {
		select {
		case <-dead:
			log.Info().Str("context", "hub").Str("room", roomID).Str("participant", participantID).Msg("participant_liveness_timeout")
			return
		case <-errCh:
			return
		case m := <-msgCh:
			h.Relay(participantID, m.Kind, m.Payload)
		}
	}
}
