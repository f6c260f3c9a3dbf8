package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bankroll-tracker/internal/bankroll-service/dto"
)

// servidor mínimo para os handlers puros (não tocam banco/kafka)
func newTestServer() *Server {
	return NewServer(zap.NewNop(), nil, nil, nil, nil, nil, "R$", "bank_updates_broadcast")
}

func TestAnalysisHandler(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	body := `{"probability_pct":60,"odd_value":2.0,"margin_pct":0}`
	req := httptest.NewRequest(http.MethodPost, "/analysis", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 20, resp.ExpectedValuePct, 1e-9)
	assert.InDelta(t, 10, resp.EdgePP, 1e-9)
	assert.Nil(t, resp.CombinedProbabilityPct)
}

func TestAnalysisHandlerCombined(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	body := `{"probability_pct":60,"odd_value":2.0,"margin_pct":5,"probability2_pct":70}`
	req := httptest.NewRequest(http.MethodPost, "/analysis", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.CombinedProbabilityPct)
	assert.InDelta(t, 42, *resp.CombinedProbabilityPct, 1e-9)
}

func TestAnalysisHandlerRejectsInvalid(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	tests := []struct {
		name string
		body string
	}{
		{"odd abaixo de 1", `{"probability_pct":60,"odd_value":0.9}`},
		{"probabilidade acima de 100", `{"probability_pct":120,"odd_value":2.0}`},
		{"json quebrado", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/analysis", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestProjectionHandler(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	body := `{"userId":"u1","days":3,"initial_investment":100,"default_odds":2.0}`
	req := httptest.NewRequest(http.MethodPost, "/leverage/projection", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ProjectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Valid)
	require.Len(t, resp.Rows, 3)
	assert.True(t, resp.Rows[1].Investment.Equal(resp.Rows[0].Return))
	assert.True(t, resp.Rows[2].Investment.Equal(resp.Rows[1].Return))
}

func TestProjectionHandlerStructuredValidationError(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	// Parâmetro inválido volta 200 com {valid:false}: a UI renderiza inline.
	body := `{"userId":"u1","days":45,"initial_investment":100,"default_odds":2.0}`
	req := httptest.NewRequest(http.MethodPost, "/leverage/projection", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ProjectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Error)
	assert.Empty(t, resp.Rows)
}

func TestMethodGuards(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/analysis"},
		{http.MethodGet, "/leverage/projection"},
		{http.MethodDelete, "/bets"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tt.method, tt.path)
	}
}
