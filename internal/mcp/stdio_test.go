package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"plaingov/internal/dispatch"
	"plaingov/internal/mcp/mocks"
)

func newStdioServer(t *testing.T) (*Server, *mocks.MockDispatcher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	d := mocks.NewMockDispatcher(ctrl)
	srv, err := NewServer(d, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return srv, d
}

// syncBuffer lets the test read output while the server writes.
type syncBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

func responsesByID(t *testing.T, out string) map[string]Response {
	t.Helper()
	got := make(map[string]Response)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var resp Response
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp), scanner.Text())
		got[string(resp.ID)] = resp
	}
	return got
}

func TestServeStdio(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv, _ := newStdioServer(t)
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
		`not json`,
	}, "\n")
	var out syncBuffer

	err := srv.ServeStdio(context.Background(), strings.NewReader(in), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)

	got := responsesByID(t, out.String())
	assert.Contains(t, got, "1")
	assert.Contains(t, got, "2")
	require.Contains(t, got, "null")
	assert.Equal(t, CodeParseError, got["null"].Error.Code)
}

func TestServeStdioHandlesRequestsConcurrently(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv, d := newStdioServer(t)
	release := make(chan struct{})
	d.EXPECT().Call(gomock.Any(), "slow", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ json.RawMessage) (*dispatch.Result, error) {
			<-release
			return &dispatch.Result{Text: "slow done"}, nil
		})

	pr, pw := io.Pipe()
	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- srv.ServeStdio(context.Background(), pr, &out) }()

	_, err := io.WriteString(pw, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"slow","arguments":{}}}`+"\n")
	require.NoError(t, err)
	_, err = io.WriteString(pw, `{"jsonrpc":"2.0","id":2,"method":"ping"}`+"\n")
	require.NoError(t, err)

	// ping answers while the tool call is still blocked
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"id":2`)
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, out.String(), "slow done")

	close(release)
	require.NoError(t, pw.Close())
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), "slow done")
}

func TestServeStdioRejectsOversizedMessage(t *testing.T) {
	srv, _ := newStdioServer(t)
	huge := `{"jsonrpc":"2.0","id":1,"method":"ping","params":{"pad":"` + strings.Repeat("x", maxMessageBytes) + `"}}`

	err := srv.ServeStdio(context.Background(), strings.NewReader(huge), io.Discard)

	assert.ErrorContains(t, err, "read messages")
}
