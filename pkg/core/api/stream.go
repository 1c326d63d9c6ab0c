/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/devicewatch/pkg/models"
)

const (
	defaultStreamPingInterval = 30 * time.Second
	streamWriteTimeout        = 10 * time.Second
	streamReadLimit           = 512

	messageTypeStatus  = "status"
	messageTypeRemoved = "removed"
	messageTypePing    = "ping"
)

// StreamMessage represents a message sent over the WebSocket
type StreamMessage struct {
	Type      string               `json:"type"` // "status", "removed", "ping"
	DeviceID  string               `json:"device_id,omitempty"`
	Status    *models.DeviceStatus `json:"status,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

func streamMessageFor(ev models.StatusEvent, now time.Time) StreamMessage {
	if ev.Removed {
		return StreamMessage{Type: messageTypeRemoved, DeviceID: ev.DeviceID, Timestamp: now}
	}

	status := ev.Status

	return StreamMessage{Type: messageTypeStatus, DeviceID: ev.DeviceID, Status: &status, Timestamp: now}
}

// handleStream pushes status changes to a websocket client until it
// disconnects or the server shuts down.
func (s *APIServer) handleStream(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}

	// the server's read and write timeouts must not apply to a long-lived stream
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkWebSocketOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Str("origin", r.Header.Get("Origin")).
			Msg("Failed to upgrade to WebSocket")

		return
	}

	defer func() {
		s.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("Closing WebSocket connection")
		_ = conn.Close()
	}()

	s.logger.Info().Str("remote_addr", r.RemoteAddr).Msg("WebSocket stream established")

	events, unsubscribe := s.service.Subscribe()
	defer unsubscribe()

	clientGone := make(chan struct{})

	go s.drainClient(conn, clientGone)

	ping := time.NewTicker(s.streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-s.done:
			s.closeStream(conn, websocket.CloseGoingAway, "server shutting down")
			return
		case <-clientGone:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			if err := s.writeStreamMessage(conn, streamMessageFor(ev, time.Now())); err != nil {
				return
			}
		case now := <-ping.C:
			if err := s.writeStreamMessage(conn, StreamMessage{Type: messageTypePing, Timestamp: now}); err != nil {
				return
			}
		}
	}
}

// drainClient reads and discards client frames so control frames are
// processed, and signals when the connection is closed.
func (s *APIServer) drainClient(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)

	conn.SetReadLimit(streamReadLimit)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Err(err).Msg("WebSocket client disconnected unexpectedly")
			}

			return
		}
	}
}

func (s *APIServer) writeStreamMessage(conn *websocket.Conn, msg StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}

	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Debug().Err(err).Str("type", msg.Type).Msg("Failed to write stream message")
		return err
	}

	return nil
}

func (s *APIServer) closeStream(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(streamWriteTimeout)

	if err := conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to send close frame")
	}
}

// checkWebSocketOrigin applies the CORS origin list to websocket upgrades.
// Requests without an Origin header (non-browser clients) are allowed.
func (s *APIServer) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	allowed := s.corsConfig.AllowedOrigins
	if len(allowed) == 0 || slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
		return true
	}

	// same-origin requests are always fine
	u, err := url.Parse(origin)

	return err == nil && u.Host == r.Host
}
