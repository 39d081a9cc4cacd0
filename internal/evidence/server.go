// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package evidence

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

// Server upgrades incoming HTTP connections to a dedicated, point-to-point
// evidence stream: one playout session per connection, messages processed
// strictly in order, one ack sent per message. This is a different shape
// from internal/websocket's Hub/Client, which fans a single message out to
// many broadcast subscribers — evidence has exactly one reader and one
// writer per connection and must never reorder or drop a message, so it
// gets its own minimal handler built directly on gorilla/websocket rather
// than reusing the broadcast hub.
type Server struct {
	processor *Processor
	upgrader  websocket.Upgrader
	log       zerolog.Logger
}

func NewServer(processor *Processor, log zerolog.Logger) *Server {
	return &Server{
		processor: processor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// ServeHTTP upgrades the connection and drives one evidence stream session.
// channelID/sessionID come from the mounting router's URL params, e.g. a
// chi route at /evidence/{channelID}/{sessionID}.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request, channelID, sessionID string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Str("channel_id", channelID).Msg("evidence: websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.log.With().Str("channel_id", channelID).Str("playout_session_id", sessionID).Logger()
	ss := s.processor.NewStream(channelID, sessionID)
	defer func() {
		if err := s.processor.Close(ss); err != nil {
			log.Error().Err(err).Msg("evidence: error closing as-run writer")
		}
	}()

	log.Info().Msg("evidence: stream connected")

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			log.Error().Err(err).Msg("evidence: set read deadline")
			return
		}

		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("evidence: stream closed unexpectedly")
			} else {
				log.Info().Msg("evidence: stream closed")
			}
			return
		}

		ack, err := s.processor.Process(ss, msg)
		if err != nil {
			log.Error().Err(err).Int64("sequence", msg.Sequence).Str("payload", string(msg.Payload)).
				Msg("evidence: failed to durably process message")
			return
		}

		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			log.Error().Err(err).Msg("evidence: set write deadline")
			return
		}
		if err := conn.WriteJSON(ack); err != nil {
			log.Error().Err(err).Msg("evidence: failed to send ack")
			return
		}

		if msg.Payload == PayloadChannelTerminated {
			return
		}
	}
}
