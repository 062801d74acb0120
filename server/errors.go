package server

import (
	"errors"
	"net/http"

	"github.com/JourneyJu/dsg-sub010/catalogapi"
	"github.com/JourneyJu/dsg-sub010/recordset"
	"github.com/JourneyJu/dsg-sub010/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// classify maps an error to its HTTP status and envelope code
func classify(err error) (int, int) {
	var (
		loadErr   *recordset.LoadError
		submitErr *recordset.SubmitError
		failed    *recordset.ValidationFailedError
	)
	switch {
	case errors.Is(err, sessions.ErrSessionNotFound):
		return http.StatusNotFound, catalogapi.CodeSourceNotFound
	case errors.Is(err, recordset.ErrModeConflict):
		return http.StatusConflict, catalogapi.CodeModeConflict
	case errors.As(err, &failed):
		return http.StatusUnprocessableEntity, catalogapi.CodeInvalidSubmission
	case errors.As(err, &loadErr), errors.As(err, &submitErr):
		return http.StatusBadGateway, catalogapi.CodeUpstream
	case errors.Is(err, catalogapi.ErrSourceNotFound):
		return http.StatusNotFound, catalogapi.CodeSourceNotFound
	case errors.Is(err, catalogapi.ErrInvalidSubmission):
		return http.StatusUnprocessableEntity, catalogapi.CodeInvalidSubmission
	case errors.Is(err, recordset.ErrUnknownEvent),
		errors.Is(err, recordset.ErrIndexOutOfRange),
		errors.Is(err, recordset.ErrNotBatchField),
		errors.Is(err, recordset.ErrNotLoaded):
		return http.StatusBadRequest, catalogapi.CodeBadRequest
	}
	return http.StatusInternalServerError, catalogapi.CodeInternal
}

func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, catalogapi.Failure(code, err.Error()))
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, catalogapi.Failure(catalogapi.CodeBadRequest, err.Error()))
}
