package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"panicconf/pkg/domain"
)

// violationPayload is the JSON shape of a rule violation.
type violationPayload struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Entity   string `json:"entity,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
}

func violationsPayload(violations []domain.Violation) []violationPayload {
	out := make([]violationPayload, 0, len(violations))
	for _, v := range violations {
		out = append(out, violationPayload{
			Rule:     v.Rule,
			Severity: string(v.Severity),
			Message:  v.Message,
			Entity:   string(v.Entity),
			EntityID: v.EntityID,
		})
	}
	return out
}

// warnings extracts the non-blocking violations for successful responses.
func warnings(result domain.Result) []violationPayload {
	var warn []domain.Violation
	for _, v := range result.Violations {
		if v.Severity != domain.SeverityBlock {
			warn = append(warn, v)
		}
	}
	if len(warn) == 0 {
		return nil
	}
	return violationsPayload(warn)
}

// respondError maps domain errors to HTTP statuses. Validation failures
// get 422 with the field map, blocked transactions get 409 with the
// violations, everything else is a 500 with a generic body. The attached
// gin error is logged by the request middleware, never echoed to clients.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var validation domain.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"entity": string(validation.Entity),
			"fields": validation.Fields,
		})
		return
	}

	var blocked domain.RuleViolationError
	if errors.As(err, &blocked) {
		c.JSON(http.StatusConflict, gin.H{
			"error":      "blocked by rules",
			"violations": violationsPayload(blocked.Result.Violations),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func respondBadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

func respondNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}
