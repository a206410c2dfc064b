package web_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio-agent/internal/adapters/web"
	"portfolio-agent/internal/app"
	"portfolio-agent/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	rows := []core.LedgerRow{
		{Property: "Building 120", Period: core.Period{Year: 2024}, Category: core.CategoryRevenue, LedgerGroup: "Rent", Amount: decimal.RequireFromString("500.00")},
		{Property: "Building 120", Period: core.Period{Year: 2024}, Category: core.CategoryExpense, LedgerGroup: "Maintenance", Amount: decimal.RequireFromString("-120.00")},
		{Property: "Building 121", Period: core.Period{Year: 2024}, Category: core.CategoryRevenue, LedgerGroup: "Rent", Amount: decimal.RequireFromString("300.00")},
	}
	ds, err := core.NewDataset(rows)
	require.NoError(t, err)
	pipeline := core.NewPipeline(ds, core.NewValidator())
	svc := app.NewAppService(ds, pipeline)
	return web.NewHandler(svc, "", zap.NewNop())
}

func postChat(t *testing.T, h http.Handler, sessionID, message string) (*httptest.ResponseRecorder, app.ChatResult) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"session_id": sessionID, "message": message})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var result app.ChatResult
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	}
	return rec, result
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status     string `json:"status"`
		Properties int    `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, 2, body.Properties)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestChatTurnAndFollowUp(t *testing.T) {
	h := newTestHandler(t)

	rec, first := postChat(t, h, "", "What's the P&L for Building 120?")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, first.SessionID)
	require.Equal(t, core.IntentPropertySummary, first.Intent)
	require.NotNil(t, first.Result)
	require.Contains(t, first.Reply, "$380.00")

	rec, second := postChat(t, h, first.SessionID, "what about revenue?")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, first.SessionID, second.SessionID)
	require.Contains(t, second.Reply, "$500.00")
}

func TestChatClarification(t *testing.T) {
	h := newTestHandler(t)

	rec, result := postChat(t, h, "", "P&L for 123 Main St")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, result.Result)
	require.NotNil(t, result.Clarification)
	require.Equal(t, core.ClarifyUnresolvableEntity, result.Clarification.Reason)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	h := newTestHandler(t)

	rec, _ := postChat(t, h, "", "   ")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatRejectsBadJSON(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryAndReset(t *testing.T) {
	h := newTestHandler(t)

	_, first := postChat(t, h, "", "list properties")

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+first.SessionID+"/history", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var history struct {
		Messages []core.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Messages, 2)

	req = httptest.NewRequest(http.MethodPost, "/api/sessions/"+first.SessionID+"/reset", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+first.SessionID+"/history", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProperties(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/properties", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body app.PropertyListResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"Building 120", "Building 121"}, body.Properties)
}
