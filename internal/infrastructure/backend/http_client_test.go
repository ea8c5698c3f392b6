package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(domain.BackendSettings{BaseURL: srv.URL + "/", QueryPath: "query", Timeout: "5s"}, logger.NewZapAdapter(zaptest.NewLogger(t)))
}

func TestQueryPostsQuestion(t *testing.T) {
	var gotBody map[string]any
	var gotContentType, gotPath, gotMethod string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"question":"top region?","summary":"North leads.","data_result":[["North",24250]]}`))
	})

	resp, err := client.Query(context.Background(), "top region?")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/query", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]any{"question": "top region?"}, gotBody)
	assert.Equal(t, "top region?", resp.Question)
	assert.JSONEq(t, `"North leads."`, string(resp.Summary))
	assert.JSONEq(t, `[["North",24250]]`, string(resp.DataResult))
}

func TestQueryNonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"agent failed"}`))
	})

	_, err := client.Query(context.Background(), "anything")
	require.Error(t, err)

	var statusErr *domain.HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 500, statusErr.StatusCode)
	assert.Equal(t, "HTTP error! Status: 500", err.Error())
}

func TestQueryInvalidJSONBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})

	_, err := client.Query(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestQueryHonoursContext(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Query(ctx, "slow")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestDecodeResponse(t *testing.T) {
	resp, err := DecodeResponse([]byte(`[1,2]`))
	require.NoError(t, err)
	assert.Empty(t, resp.Summary)
	assert.Empty(t, resp.DataResult)

	resp, err = DecodeResponse([]byte(`{"summary":null,"data_result":"[('a', 1)]","question":7}`))
	require.NoError(t, err)
	assert.Equal(t, "null", string(resp.Summary))
	assert.Equal(t, `"[('a', 1)]"`, string(resp.DataResult))
	assert.Empty(t, resp.Question)

	_, err = DecodeResponse(nil)
	assert.Error(t, err)

	_, err = DecodeResponse([]byte(" null\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "body is null")
}

func TestQueryNullBodyFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "null")
	})

	_, err := client.Query(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "body is null")
}

func TestNewHTTPClientDefaults(t *testing.T) {
	client := NewHTTPClient(domain.BackendSettings{}, logger.NewNop())
	assert.Equal(t, "http://localhost:8000/query", client.Endpoint())
	assert.Equal(t, domain.DefaultBackendTimeout, client.httpClient.Timeout)
}

func TestProbe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	status, err := client.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}
