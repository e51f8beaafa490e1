package api

import (
	"context"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateCast/internal/usecase"
)

type capturingEnqueuer struct {
	msgType string
	payload interface{}
	err     error
}

func (q *capturingEnqueuer) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	q.msgType = msgType
	q.payload = payload
	return q.err
}

func newAnalysisServer(t *testing.T, enqueuer RefitEnqueuer) *echo.Echo {
	t.Helper()
	h := NewAnalysisEchoHandler(testLogger(t), usecase.NewArtifactHolder(), usecase.NewFitErrorLog(10),
		nil, nil, enqueuer, nil, time.Hour)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func TestRefitEndpointEnqueuesJob(t *testing.T) {
	q := &capturingEnqueuer{}
	e := newAnalysisServer(t, q)

	rec := postJSON(e, "/api/analysis/refit", `{"property_id":"prop-9"}`)

	assert.Contains(t, rec.Body.String(), `"status":202`)
	assert.Contains(t, rec.Body.String(), `"queued"`)
	assert.Equal(t, usecase.RefitJobType, q.msgType)
	require.IsType(t, map[string]string{}, q.payload)
	assert.Equal(t, "prop-9", q.payload.(map[string]string)["property_id"])
}

func TestRefitEndpointRequiresProperty(t *testing.T) {
	q := &capturingEnqueuer{}
	e := newAnalysisServer(t, q)

	rec := postJSON(e, "/api/analysis/refit", `{}`)

	assert.Contains(t, rec.Body.String(), `"status":400`)
	assert.Empty(t, q.msgType)
}

func TestRefitEndpointReportsEnqueueFailure(t *testing.T) {
	q := &capturingEnqueuer{err: context.DeadlineExceeded}
	e := newAnalysisServer(t, q)

	rec := postJSON(e, "/api/analysis/refit", `{"property_id":"prop-9"}`)
	assert.Contains(t, rec.Body.String(), `"status":500`)
}

func TestRefitEndpointWithoutQueueOrPipeline(t *testing.T) {
	e := newAnalysisServer(t, nil)

	rec := postJSON(e, "/api/analysis/refit", `{"property_id":"prop-9"}`)
	assert.Contains(t, rec.Body.String(), `"status":500`)
	assert.Contains(t, rec.Body.String(), "not configured")
}
