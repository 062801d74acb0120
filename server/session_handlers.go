package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JourneyJu/dsg-sub010/catalogapi"
	"github.com/JourneyJu/dsg-sub010/sessions"
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/gin-gonic/gin"
)

// SessionInfo describes a live session and its current view
type SessionInfo struct {
	ID        string      `json:"id"`
	SourceID  string      `json:"source_id"`
	CreatedAt time.Time   `json:"created_at"`
	LastUsed  time.Time   `json:"last_used"`
	View      *types.View `json:"view,omitempty"`
}

// CreateSessionRequest is the body of POST /sessions
type CreateSessionRequest struct {
	SourceID string `json:"source_id" binding:"required"`
}

// EventsRequest is the body of POST /sessions/:id/events; a single bare
// event object is accepted too. Events are dispatched in order and the first
// failure stops the batch.
type EventsRequest struct {
	Events []types.EventSpec `json:"events"`
}

// EventsResponse reports how many events were applied and the resulting view
type EventsResponse struct {
	Applied int        `json:"applied"`
	View    types.View `json:"view"`
}

// ValidateResponse is the answer of POST /sessions/:id/validate
type ValidateResponse struct {
	Summary types.ValidationSummary `json:"summary"`
	View    types.View              `json:"view"`
}

func info(sess *sessions.Session, withView bool) SessionInfo {
	out := SessionInfo{
		ID:        sess.ID,
		SourceID:  sess.SourceID,
		CreatedAt: sess.CreatedAt,
		LastUsed:  sess.LastUsed(),
	}
	if withView {
		v := sess.Controller.View()
		out.View = &v
	}
	return out
}

func (s *Server) session(c *gin.Context) (*sessions.Session, bool) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) listSessions(c *gin.Context) {
	list := s.sessions.List()
	out := make([]SessionInfo, len(list))
	for i, sess := range list {
		out[i] = info(sess, false)
	}
	c.JSON(http.StatusOK, catalogapi.Success(out))
}

func (s *Server) createSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.backendContext(c)
	defer cancel()
	sess, err := s.sessions.Create(ctx, req.SourceID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, catalogapi.Success(info(sess, true)))
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, catalogapi.Success(info(sess, true)))
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.sessions.Close(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogapi.Success(nil))
}

func (s *Server) postEvents(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}
	events, err := decodeEvents(raw)
	if err != nil {
		badRequest(c, err)
		return
	}

	for i, spec := range events {
		if err := sess.Controller.DispatchSpec(spec); err != nil {
			s.fail(c, fmt.Errorf("event %d (%s): %w", i, spec.Type, err))
			return
		}
	}
	c.JSON(http.StatusOK, catalogapi.Success(EventsResponse{Applied: len(events), View: sess.Controller.View()}))
}

func (s *Server) validateSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	summary := sess.Controller.ValidateAll()
	c.JSON(http.StatusOK, catalogapi.Success(ValidateResponse{Summary: summary, View: sess.Controller.View()}))
}

func (s *Server) getPayload(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, catalogapi.Success(catalogapi.SubmitPayload{Records: sess.Controller.SubmissionPayload()}))
}

func (s *Server) submitSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	ctx, cancel := s.backendContext(c)
	defer cancel()
	result, err := sess.Controller.Submit(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogapi.Success(result))
}

// decodeEvents accepts either {"events": [...]} or a bare event object
func decodeEvents(raw []byte) ([]types.EventSpec, error) {
	var req EventsRequest
	if err := json.Unmarshal(raw, &req); err == nil && len(req.Events) > 0 {
		return req.Events, nil
	}
	var single types.EventSpec
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	if single.Type == "" {
		return nil, errors.New("event type is required")
	}
	return []types.EventSpec{single}, nil
}
