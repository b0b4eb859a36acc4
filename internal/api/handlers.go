package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/errors"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/metrics"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/validation"
	"github.com/FarmCreditInc/FarmCreditAI/internal/models"
	"github.com/FarmCreditInc/FarmCreditAI/internal/scoring"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// Response is the envelope of every scoring response.
type Response struct {
	ResponseCode    int                          `json:"responseCode"`
	ResponseMessage string                       `json:"responseMessage"`
	Data            *models.ScoreResult          `json:"data,omitempty"`
	Error           *errors.StandardError        `json:"error,omitempty"`
	Errors          []validation.ValidationError `json:"errors,omitempty"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"Status": "OK", "Message": "Welcome to the Credit Score API!"})
}

func (s *Server) calculateCreditScore(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.writeError(c, errors.NewInvalidProfileJSONError(err))
		return
	}

	if s.validator != nil {
		result, err := s.validator.Validate(body)
		if err != nil {
			s.writeError(c, errors.NewInvalidProfileJSONError(err))
			return
		}
		if !result.Valid {
			c.JSON(http.StatusUnprocessableEntity, Response{
				ResponseCode:    http.StatusUnprocessableEntity,
				ResponseMessage: "Profile validation failed",
				Errors:          result.Errors,
			})
			return
		}
	}

	result, err := scoring.NewEngine(s.now()).ProcessJSON(body)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeScore(c, result)
}

func (s *Server) farmerCreditScore(c *gin.Context) {
	if s.profiles == nil {
		c.JSON(http.StatusServiceUnavailable, Response{
			ResponseCode:    http.StatusServiceUnavailable,
			ResponseMessage: "Profile store not configured",
		})
		return
	}

	farmerID := c.Param("farmerId")
	profile, err := s.profiles.Load(c.Request.Context(), farmerID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result, err := scoring.NewEngine(s.now()).SafeCalculate(profile)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeScore(c, result)
}

func (s *Server) writeScore(c *gin.Context, result *models.ScoreResult) {
	metrics.ObserveScore(metrics.SourceAPI, result.CreditRating, result.CreditScore)
	s.obs.RecordScore(c.Request.Context(), metrics.SourceAPI, result.CreditRating)

	c.JSON(http.StatusOK, Response{
		ResponseCode:    http.StatusOK,
		ResponseMessage: "Credit score calculated successfully",
		Data:            result,
	})
}

func (s *Server) writeError(c *gin.Context, err error) {
	stdErr := errors.Normalize(err)
	status := statusFor(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("credit score request failed", map[string]interface{}{
			"code":    stdErr.Code,
			"details": stdErr.Details,
		})
	}

	message := stdErr.Message
	if stdErr.Code == errors.ErrCodeInvalidProfileJSON {
		message = "Invalid JSON input"
	}
	c.JSON(status, Response{
		ResponseCode:    status,
		ResponseMessage: message,
		Error:           stdErr,
	})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidProfileJSON:
		return http.StatusBadRequest
	case errors.ErrCodeProfileValidationFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeProfileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeQueryTimeout, errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeDatabaseConnectionFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for name := range failed {
			names = append(names, name)
		}
		s.logger.Warn("readiness check failed", map[string]interface{}{
			"dependencies": strings.Join(names, ","),
		})
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
