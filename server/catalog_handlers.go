package server

import (
	"net/http"

	"github.com/JourneyJu/dsg-sub010/catalogapi"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) getRecords(c *gin.Context) {
	sourceID := c.Param("source")
	ctx, cancel := s.backendContext(c)
	defer cancel()

	records, err := s.catalog.FetchRecords(ctx, sourceID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogapi.Success(catalogapi.RecordsPayload{SourceID: sourceID, Records: records}))
}

func (s *Server) putRecords(c *gin.Context) {
	sourceID := c.Param("source")
	var body catalogapi.SubmitPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.backendContext(c)
	defer cancel()
	result, err := s.catalog.SubmitRecords(ctx, sourceID, body.Records)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.logger.Info("records replaced", zap.String("source", sourceID), zap.Int("count", len(body.Records)))
	c.JSON(http.StatusOK, catalogapi.Success(result))
}
