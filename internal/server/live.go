package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/tocsync/internal/session"
	"github.com/ziadkadry99/tocsync/internal/toc"
)

// Message types exchanged on /ws.
const (
	MsgClick     = "click"
	MsgHighlight = "highlight"
	MsgFragment  = "fragment"
	MsgNavigate  = "navigate"
	MsgState     = "state"
	MsgError     = "error"
)

// ClientMessage is an event reported by the browser. Href is a TOC link
// target, a fragment, or a page reference for navigate.
type ClientMessage struct {
	Type string `json:"type"`
	Href string `json:"href"`
}

// ServerMessage carries the TOC state after each event, or an error.
type ServerMessage struct {
	Type    string     `json:"type"`
	Session string     `json:"session,omitempty"`
	State   *toc.State `json:"state,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// handleLive runs one session per websocket. Events are applied in arrival
// order and each is answered with the resulting state.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := session.New(ctx, s.loader, s.cfg.Schema, s.log)
	if err != nil {
		s.log.Error("opening session", zap.Error(err))
		return
	}
	defer sess.Close()
	s.track(sess, conn)
	defer s.untrack(sess)

	log := s.log.With(zap.String("session", sess.ID))
	log.Debug("live session opened", zap.String("remote", r.RemoteAddr))

	if page := r.URL.Query().Get("page"); page != "" {
		if err := sess.Navigate(ctx, page); err != nil {
			_ = conn.WriteJSON(ServerMessage{Type: MsgError, Session: sess.ID, Error: err.Error()})
		} else if err := s.sendState(ctx, conn, sess); err != nil {
			return
		}
	}

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		if err := apply(ctx, sess, msg); err != nil {
			log.Debug("event rejected", zap.String("type", msg.Type), zap.String("href", msg.Href), zap.Error(err))
			if err := conn.WriteJSON(ServerMessage{Type: MsgError, Session: sess.ID, Error: err.Error()}); err != nil {
				return
			}
			continue
		}
		if err := s.sendState(ctx, conn, sess); err != nil {
			return
		}
	}
}

func apply(ctx context.Context, sess *session.Session, msg ClientMessage) error {
	switch msg.Type {
	case MsgClick:
		return sess.Click(ctx, msg.Href)
	case MsgHighlight:
		return sess.Highlight(ctx, msg.Href)
	case MsgFragment:
		return sess.SetFragment(ctx, msg.Href)
	case MsgNavigate:
		return sess.Navigate(ctx, msg.Href)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (s *Server) sendState(ctx context.Context, conn *websocket.Conn, sess *session.Session) error {
	st, err := sess.State(ctx)
	if err != nil {
		return conn.WriteJSON(ServerMessage{Type: MsgError, Session: sess.ID, Error: err.Error()})
	}
	return conn.WriteJSON(ServerMessage{Type: MsgState, Session: sess.ID, State: &st})
}
