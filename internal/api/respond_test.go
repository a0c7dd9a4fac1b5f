package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panicconf/pkg/domain"
)

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	respondError(c, errors.New("pq: password authentication failed for user \"panicconf\""))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	// The original error stays attached for the logging middleware.
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors[0].Error(), "authentication failed")
}

func TestRespondErrorMapsDomainErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	fields := domain.FieldErrors{}
	fields.Add("name", "must not be empty")
	respondError(c, domain.ValidationError{Entity: domain.EntityChain, Fields: fields})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	respondError(c, domain.RuleViolationError{Result: domain.Result{Violations: []domain.Violation{
		{Rule: "reference_integrity", Severity: domain.SeverityBlock, Message: "chain missing"},
	}}})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
