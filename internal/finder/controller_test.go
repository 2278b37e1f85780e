package finder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/five82/portfolio-finder/internal/pam"
	"github.com/five82/portfolio-finder/internal/portfolio"
	"github.com/five82/portfolio-finder/internal/session"
	"github.com/five82/portfolio-finder/internal/state"
	"github.com/five82/portfolio-finder/internal/task"
)

type fakeConnector struct {
	mu      sync.Mutex
	handler func(session.Event)
	open    bool
	opens   int
	reject  string
	openErr error
}

func (f *fakeConnector) OnEvent(fn func(session.Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = fn
}

func (f *fakeConnector) Open(context.Context) error {
	f.mu.Lock()
	f.opens++
	handler, reject, openErr := f.handler, f.reject, f.openErr
	if reject == "" && openErr == nil {
		f.open = true
	}
	f.mu.Unlock()

	if reject != "" {
		handler(session.Event{Code: session.EventAuthenticationFailed, Message: reject})
		return nil
	}
	if openErr != nil {
		return openErr
	}
	handler(session.Event{Code: session.EventAuthenticationSucceeded})
	return nil
}

func (f *fakeConnector) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

type fakeSearcher struct {
	mu       sync.Mutex
	calls    []pam.Criteria
	headers  []portfolio.Header
	err      error
	blocking chan struct{}
}

func (f *fakeSearcher) Search(_ context.Context, criteria pam.Criteria) ([]portfolio.Header, error) {
	f.mu.Lock()
	f.calls = append(f.calls, criteria)
	block := f.blocking
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.headers, f.err
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func await(t *testing.T, ch <-chan task.Result[Outcome]) task.Result[Outcome] {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatalf("no result delivered")
		return task.Result[Outcome]{}
	}
}

func TestController_FirstSearchConnects(t *testing.T) {
	conn := &fakeConnector{}
	searcher := &fakeSearcher{headers: []portfolio.Header{{ID: "a"}, {ID: "b"}}}
	connected := 0
	c := New(conn, searcher, nil, WithOnConnected(func() { connected++ }))

	require.Equal(t, state.Uninitialized, c.Phase())

	ch, err := c.Submit(context.Background(), pam.Criteria{Category: pam.CategoryIndices})
	require.NoError(t, err)
	res := await(t, ch)
	require.NoError(t, res.Err)
	require.True(t, res.Value.Connected)
	require.Len(t, res.Value.Headers, 2)
	require.Equal(t, state.Connected, c.Phase())
	require.Equal(t, 1, connected)

	ch, err = c.Submit(context.Background(), pam.Criteria{Query: "x"})
	require.NoError(t, err)
	res = await(t, ch)
	require.NoError(t, res.Err)
	require.False(t, res.Value.Connected, "session is reused")
	require.Equal(t, 1, conn.opens)
	require.Equal(t, 1, connected)
	require.Equal(t, 2, searcher.callCount())
}

func TestController_AuthFailureAbortsSearch(t *testing.T) {
	msg := "Session authentication failed: Invalid username or password. Refer to the config file for setting credentials."
	conn := &fakeConnector{reject: msg}
	searcher := &fakeSearcher{}
	c := New(conn, searcher, nil)

	ch, err := c.Submit(context.Background(), pam.Criteria{})
	require.NoError(t, err)
	res := await(t, ch)

	var authErr *AuthError
	require.ErrorAs(t, res.Err, &authErr)
	require.Equal(t, msg, res.Err.Error())
	require.Equal(t, state.Error, c.Phase())
	require.Equal(t, 0, searcher.callCount(), "data request must not be made")

	// A later submission retries the connection.
	conn.mu.Lock()
	conn.reject = ""
	conn.mu.Unlock()
	ch, err = c.Submit(context.Background(), pam.Criteria{})
	require.NoError(t, err)
	res = await(t, ch)
	require.NoError(t, res.Err)
	require.Equal(t, state.Connected, c.Phase())
	require.Equal(t, 2, conn.opens)
}

func TestController_OpenErrorAbortsSearch(t *testing.T) {
	conn := &fakeConnector{openErr: errors.New("dial tcp: refused")}
	searcher := &fakeSearcher{}
	c := New(conn, searcher, nil)

	ch, err := c.Submit(context.Background(), pam.Criteria{})
	require.NoError(t, err)
	res := await(t, ch)
	var connErr *ConnectError
	require.ErrorAs(t, res.Err, &connErr)
	require.Equal(t, "Failed to connect. dial tcp: refused", res.Err.Error())
	require.Equal(t, state.Error, c.Phase())
	require.Equal(t, 0, searcher.callCount())
	require.Equal(t, 1, c.Snapshot().ConsecutiveFailures)
}

func TestController_SearchErrorReturnsToConnected(t *testing.T) {
	searchErr := &pam.Error{Kind: pam.KindHTTP, StatusCode: 404, Reason: "Not Found"}
	c := New(&fakeConnector{}, &fakeSearcher{err: searchErr}, nil)

	ch, err := c.Submit(context.Background(), pam.Criteria{})
	require.NoError(t, err)
	res := await(t, ch)
	require.Same(t, searchErr, res.Err)
	require.Equal(t, state.Connected, c.Phase())
}

func TestController_RejectsWhileBusy(t *testing.T) {
	searcher := &fakeSearcher{blocking: make(chan struct{})}
	c := New(&fakeConnector{}, searcher, nil)

	ch, err := c.Submit(context.Background(), pam.Criteria{})
	require.NoError(t, err)
	require.True(t, c.Busy())

	_, err = c.Submit(context.Background(), pam.Criteria{})
	require.ErrorIs(t, err, ErrBusy)

	close(searcher.blocking)
	res := await(t, ch)
	require.NoError(t, res.Err)
	require.False(t, c.Busy())
	require.Equal(t, 1, searcher.callCount())
}
