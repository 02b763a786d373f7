package eventbridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kingrea/todoboard/internal/statechan"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		writeJSON(w, http.StatusOK, s.state.Snapshot())
	case http.MethodPut:
		body, ok := s.readBody(w, r)
		if !ok {
			return
		}
		snap, err := statechan.DecodeSnapshot(body)
		if err != nil {
			s.logger.Printf("eventbridge: rejected state: %v", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.state.WriteFrom(snap.State(), snap.Origin)
		writeJSON(w, http.StatusOK, stateResponse{Status: "replaced", Revision: s.state.Snapshot().Revision})
	default:
		w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodHead, http.MethodPut}, ", "))
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("eventbridge: websocket upgrade failed: %v", err)
		return
	}
	s.streams.Add(1)
	defer s.streams.Done()
	defer conn.Close()
	// The http.Server deadlines survive the hijack; the pumps manage their own.
	conn.SetReadLimit(s.settings.MaxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	sub := s.state.Subscribe()
	defer sub.Close()

	s.logger.Printf("eventbridge: stream opened from %s", r.RemoteAddr)
	errCh := make(chan error, 2)
	go func() { errCh <- s.pushSnapshots(ctx, conn, sub) }()
	go func() { errCh <- s.pullSnapshots(conn) }()

	var first error
	select {
	case <-ctx.Done():
	case first = <-errCh:
	}
	cancel()
	// Unblock whichever pump is still running.
	_ = conn.Close()
	<-errCh
	if first != nil && !isClosedConn(first) {
		s.logger.Printf("eventbridge: stream from %s ended: %v", r.RemoteAddr, first)
	}
}

// pushSnapshots writes the current snapshot, then every later one.
func (s *Server) pushSnapshots(ctx context.Context, conn *websocket.Conn, sub *statechan.Subscription) error {
	if err := writeFrame(conn, s.state.Snapshot()); err != nil {
		return err
	}
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "bridge closing"))
			return nil
		case snap, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			if err := writeFrame(conn, snap); err != nil {
				return err
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// pullSnapshots applies inbound frames. Invalid frames are logged and
// skipped without closing the stream.
func (s *Server) pullSnapshots(conn *websocket.Conn) error {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage {
			continue
		}
		snap, err := statechan.DecodeSnapshot(data)
		if err != nil {
			s.logger.Printf("eventbridge: ignored stream frame: %v", err)
			continue
		}
		s.state.WriteFrom(snap.State(), snap.Origin)
	}
}

func writeFrame(conn *websocket.Conn, snap statechan.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(snap); err != nil {
		return fmt.Errorf("eventbridge: write snapshot: %w", err)
	}
	return nil
}

func isClosedConn(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return true
	}
	return errors.Is(err, net.ErrClosed)
}

func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Host, r.Host)
}
