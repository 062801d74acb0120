package server

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin:     s.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// checkOrigin accepts requests without an Origin header, same-origin
// requests and origins listed through WithAllowedOrigins
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return s.allowedOrigins["*"] || s.allowedOrigins[normalizeOrigin(origin)]
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

// StreamMessage is one frame sent to a websocket client
type StreamMessage struct {
	Type    string         `json:"type"` // "view", "changes" or "error"
	View    *types.View    `json:"view,omitempty"`
	Changes []types.Change `json:"changes,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// wsConn serializes writes to one websocket connection
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) send(msg StreamMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteJSON(msg)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// streamChanges upgrades to a websocket that pushes the current view, then
// every debounced change batch. Frames received from the client are event
// objects (or {"events": [...]}) dispatched to the session.
func (s *Server) streamChanges(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade to websocket", zap.Error(err))
		return
	}
	ws := &wsConn{conn: conn}
	logger := s.logger.With(zap.String("session", sess.ID))

	changes, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	view := sess.Controller.View()
	if err := ws.send(StreamMessage{Type: "view", View: &view}); err != nil {
		logger.Debug("failed to send initial view", zap.Error(err))
		_ = conn.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// inbound frames count as session use
		touch := func() error {
			_, err := s.sessions.Get(sess.ID)
			return err
		}
		s.readEvents(ws, touch, sess.Controller.DispatchSpec, logger)
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			_ = conn.Close()
			return
		case batch, open := <-changes:
			if !open {
				// session closed
				_ = ws.send(StreamMessage{Type: "error", Error: "session closed"})
				_ = conn.Close()
				<-done
				return
			}
			if err := ws.send(StreamMessage{Type: "changes", Changes: batch}); err != nil {
				logger.Debug("websocket write failed", zap.Error(err))
				_ = conn.Close()
				<-done
				return
			}
		case <-ticker.C:
			if err := ws.ping(); err != nil {
				logger.Debug("websocket ping failed", zap.Error(err))
				_ = conn.Close()
				<-done
				return
			}
		}
	}
}

func (s *Server) readEvents(ws *wsConn, touch func() error, dispatch func(types.EventSpec) error, logger *zap.Logger) {
	for {
		_, raw, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		if err := touch(); err != nil {
			_ = ws.send(StreamMessage{Type: "error", Error: err.Error()})
			return
		}

		events, err := decodeEvents(raw)
		if err != nil {
			_ = ws.send(StreamMessage{Type: "error", Error: err.Error()})
			continue
		}
		for _, spec := range events {
			if err := dispatch(spec); err != nil {
				_ = ws.send(StreamMessage{Type: "error", Error: err.Error()})
				break
			}
		}
	}
}
