package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/datatalk/internal/domain"
)

func TestMain(m *testing.M) {
	pterm.DisableColor()
	os.Exit(m.Run())
}

type env struct {
	configPath string
	dir        string
	calls      *atomic.Int32
}

func newEnv(t *testing.T, cacheEnabled bool) env {
	t.Helper()
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		calls.Add(1)
		var req domain.QueryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Question == "break" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"summary":"Answer to `+req.Question+`","data_result":[["north","42"],["south","7"]]}`)
	}))
	t.Cleanup(backend.Close)

	dir := t.TempDir()
	config := fmt.Sprintf(`backend:
  base_url: %s
logging:
  level: error
cache:
  enabled: %t
  dir: %s
history:
  enabled: true
  path: %s
`, backend.URL, cacheEnabled, filepath.Join(dir, "cache"), filepath.Join(dir, "history.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))
	return env{configPath: path, dir: dir, calls: &calls}
}

func (e env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return e.runContext(t, context.Background(), strings.NewReader(stdin), args...)
}

func (e env) runContext(t *testing.T, ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(Options{})
	defer root.Close()

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(stdin)
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestAskPrintsSummaryAndTable(t *testing.T) {
	e := newEnv(t, false)

	out, err := e.run(t, "", "ask", "sales", "by", "region")
	require.NoError(t, err)
	assert.Contains(t, out, "Answer to sales by region")
	assert.Contains(t, out, "north")
	assert.Contains(t, out, "42")
	assert.Equal(t, int32(1), e.calls.Load())
}

func TestRootArgsActAsAsk(t *testing.T) {
	e := newEnv(t, false)

	out, err := e.run(t, "", "top", "regions")
	require.NoError(t, err)
	assert.Contains(t, out, "Answer to top regions")
}

func TestAskHTML(t *testing.T) {
	e := newEnv(t, false)

	out, err := e.run(t, "", "ask", "--html", "q")
	require.NoError(t, err)
	assert.Contains(t, out, "<table><tr><td>north</td><td>42</td></tr><tr><td>south</td><td>7</td></tr></table>")
}

func TestAskBlankSendsNothing(t *testing.T) {
	e := newEnv(t, false)

	out, err := e.run(t, "", "ask", "   ")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, e.calls.Load())
}

func TestAskFailure(t *testing.T) {
	e := newEnv(t, false)

	out, err := e.run(t, "", "ask", "break")
	require.Error(t, err)
	assert.Contains(t, out, "An error occurred: HTTP error! Status: 500")
}

func TestChatLoop(t *testing.T) {
	e := newEnv(t, false)

	out, err := e.run(t, "first\n\n   \nsecond\n/exit\nnever\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Answer to first")
	assert.Contains(t, out, "Answer to second")
	assert.NotContains(t, out, "Answer to never")
	assert.Equal(t, int32(2), e.calls.Load())
}

func TestChatReturnsWhenContextCancelled(t *testing.T) {
	e := newEnv(t, false)
	stdin, feed := io.Pipe()
	t.Cleanup(func() { _ = feed.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := e.runContext(t, ctx, stdin, "chat")
		done <- err
	}()

	_, err := io.WriteString(feed, "first\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return e.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("chat kept waiting for input after cancellation")
	}
}

func TestCacheAvoidsSecondCall(t *testing.T) {
	e := newEnv(t, true)

	_, err := e.run(t, "", "ask", "Cached question")
	require.NoError(t, err)
	out, err := e.run(t, "", "ask", "cached   QUESTION")
	require.NoError(t, err)
	assert.Contains(t, out, "served from cache")
	assert.Equal(t, int32(1), e.calls.Load())

	out, err = e.run(t, "", "cache", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Cached question")

	_, err = e.run(t, "", "cache", "clear")
	require.NoError(t, err)
	out, err = e.run(t, "", "cache", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No cached responses.")
}

func TestCacheCommandsWhenDisabled(t *testing.T) {
	e := newEnv(t, false)

	_, err := e.run(t, "", "cache", "list")
	assert.ErrorIs(t, err, domain.ErrCacheDisabled)

	out, err := e.run(t, "", "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Enabled: false")
}

func TestHistoryCommands(t *testing.T) {
	e := newEnv(t, false)

	out, err := e.run(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No history recorded yet.")

	_, err = e.run(t, "", "ask", "revenue")
	require.NoError(t, err)
	_, _ = e.run(t, "", "ask", "break")

	out, err = e.run(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "revenue")
	assert.Contains(t, out, "break")

	out, err = e.run(t, "", "history", "search", "--query", "reven")
	require.NoError(t, err)
	assert.Contains(t, out, "revenue")
	assert.NotContains(t, out, "break")

	out, err = e.run(t, "", "history", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Entries analyzed: 2")
	assert.Contains(t, out, "Success rate: 50.0%")

	export := filepath.Join(e.dir, "export.jsonl")
	_, err = e.run(t, "", "history", "export", export)
	require.NoError(t, err)
	raw, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(string(raw)), "\n")+1)

	_, err = e.run(t, "", "history", "retain", "--days", "10")
	require.NoError(t, err)
	out, err = e.run(t, "", "config", "get", "history.retention_days")
	require.NoError(t, err)
	assert.Equal(t, "10\n", out)

	_, err = e.run(t, "", "history", "clear")
	require.NoError(t, err)
	out, err = e.run(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No history recorded yet.")

	_, err = e.run(t, "", "history", "search")
	assert.Error(t, err)
}

func TestConfigCommands(t *testing.T) {
	e := newEnv(t, false)

	out, err := e.run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, e.configPath+"\n", out)

	_, err = e.run(t, "", "config", "set", "server.listen", "0.0.0.0:9000")
	require.NoError(t, err)
	out, err = e.run(t, "", "config", "get", "server.listen")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000\n", out)

	_, err = e.run(t, "", "config", "set", "no.such.key", "1")
	assert.Error(t, err)
	_, err = e.run(t, "", "config", "set", "logging.level", "loud")
	assert.Error(t, err)

	out, err = e.run(t, "", "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")

	out, err = e.run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_url:")
}

func TestDoctorAndVersion(t *testing.T) {
	e := newEnv(t, false)

	out, err := e.run(t, "", "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] Backend")
	assert.Contains(t, out, "[OK] History")

	out, err = e.run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "DataTalk version")
}
