package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	batchdomain "github.com/paperlane/paperlane/internal/batch/domain"
)

func (s *Server) CreateBatchJob(c *gin.Context) {
	var req batchdomain.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.batchSvc.Create(c.Request.Context(), currentUserID(c), currentSubscription(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
