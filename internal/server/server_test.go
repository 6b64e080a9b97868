package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/freepath/internal/config"
	"github.com/gravitas-games/freepath/internal/gamemap"
	"github.com/gravitas-games/freepath/internal/network"
	"github.com/gravitas-games/freepath/internal/routecache"
	"github.com/gravitas-games/freepath/internal/simulation"
	"github.com/gravitas-games/freepath/pkg/hex"
	"github.com/gravitas-games/freepath/pkg/models"
)

func pt(q, r int) hex.Axial { return hex.Axial{Q: q, R: r} }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.JWT.Disabled = true
	cfg.World.Layout = []string{
		". . . . . . . .",
		". . . . . . . .",
		". . ~ ~ ~ . . .",
		". . ~ ~ ~ . . .",
		". . . . . . . .",
		". . . . . . . .",
		". . . . . . . .",
		". . . . . . . .",
	}
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv, err := newServer(ctx, cancel, testConfig(), openAuthenticator{}, nil)
	require.NoError(t, err)
	return srv
}

func TestSessionFindPath(t *testing.T) {
	s := newTestServer(t).session
	ctx := context.Background()

	res, err := s.FindPath(ctx, network.FindPathPayload{RequestID: "1", Start: pt(0, 0), Dest: pt(3, 0)})
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "1", res.RequestID)
	assert.Equal(t, []hex.Direction{hex.East, hex.East, hex.East}, res.Route)
	require.NotNil(t, res.FirstDir)
	assert.Equal(t, hex.East, *res.FirstDir)

	first, err := s.FindPath(ctx, network.FindPathPayload{Start: pt(0, 0), Dest: pt(3, 0), FirstOnly: true})
	require.NoError(t, err)
	assert.Nil(t, first.Route)
	assert.Equal(t, 3, first.Length)

	ship, err := s.FindPath(ctx, network.FindPathPayload{Kind: "ship", Start: pt(2, 2), Dest: pt(4, 3)})
	require.NoError(t, err)
	assert.True(t, ship.Found)

	_, err = s.FindPath(ctx, network.FindPathPayload{Start: pt(1, 1), Dest: pt(1, 1)})
	assert.ErrorIs(t, err, errBadRequest)
	_, err = s.FindPath(ctx, network.FindPathPayload{Start: pt(0, 0), Dest: pt(20, 0)})
	assert.ErrorIs(t, err, gamemap.ErrOutOfBounds)
	_, err = s.FindPath(ctx, network.FindPathPayload{Kind: "balloon", Start: pt(0, 0), Dest: pt(1, 0)})
	assert.ErrorIs(t, err, errUnknownKind)
}

func TestSessionRejectsAliasedEndpoints(t *testing.T) {
	cfg := testConfig()
	cfg.World.Wrap = true
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv, err := newServer(ctx, cancel, cfg, openAuthenticator{}, nil)
	require.NoError(t, err)
	s := srv.session

	for _, dest := range []hex.Axial{pt(8, 0), pt(0, 8), pt(-8, -8)} {
		_, err := s.FindPath(ctx, network.FindPathPayload{Start: pt(0, 0), Dest: dest})
		assert.ErrorIs(t, err, errBadRequest, "dest %v", dest)

		_, _, err = s.DebugRoute(ctx, "human", pt(0, 0), dest)
		assert.ErrorIs(t, err, errBadRequest, "dest %v", dest)
	}

	res, err := s.FindPath(ctx, network.FindPathPayload{Start: pt(0, 0), Dest: pt(7, 0)})
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []hex.Direction{hex.West}, res.Route)
}

func TestSessionScopesRouteCache(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	store := routecache.NewMemoryCache()
	first, err := newServer(ctx, cancel, testConfig(), openAuthenticator{}, store)
	require.NoError(t, err)
	second, err := newServer(ctx, cancel, testConfig(), openAuthenticator{}, store)
	require.NoError(t, err)

	key := routecache.Key("human", pt(0, 0), pt(3, 0))
	first.session.Do(func(w *simulation.World) {
		_, ok := w.Router().CachedHumanRoute(ctx, pt(0, 0), pt(3, 0))
		require.True(t, ok)
	})
	_, ok, err := store.Get(ctx, first.session.ID+":"+key)
	require.NoError(t, err)
	assert.True(t, ok, "route stored under the session id")

	var searches uint64
	second.session.Do(func(w *simulation.World) {
		_, ok := w.Router().CachedHumanRoute(ctx, pt(0, 0), pt(3, 0))
		require.True(t, ok)
		searches = w.Router().Stats().Searches
	})
	assert.Equal(t, uint64(1), searches, "other sessions must not reuse the route")
	assert.Equal(t, 2, store.Len())
}

func TestSessionCheckRoute(t *testing.T) {
	s := newTestServer(t).session
	ctx := context.Background()
	route := []hex.Direction{hex.SouthEast, hex.SouthEast, hex.SouthEast}

	st, err := s.CheckRoute(ctx, network.CheckRoutePayload{Start: pt(5, 0), Route: route})
	require.NoError(t, err)
	assert.True(t, st.Valid)
	assert.Equal(t, pt(5, 3), st.End)

	st, err = s.CheckRoute(ctx, network.CheckRoutePayload{Start: pt(2, 0), Route: route})
	require.NoError(t, err)
	assert.False(t, st.Valid)
	assert.Equal(t, 1, st.BrokenAt)
	assert.Equal(t, pt(2, 1), st.End)

	_, err = s.CheckRoute(ctx, network.CheckRoutePayload{Start: pt(2, 0), Route: route, Pos: 3})
	assert.ErrorIs(t, err, errBadRequest)
}

func TestSessionAgents(t *testing.T) {
	s := newTestServer(t).session
	alice := &models.Player{ID: "alice"}
	bob := &models.Player{ID: "bob"}

	goal := pt(7, 7)
	view, err := s.SpawnAgent(alice, network.SpawnAgentPayload{Kind: "worker", Pos: pt(0, 0), Goal: &goal})
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Owner)
	require.NotNil(t, view.Goal)

	_, err = s.SpawnAgent(alice, network.SpawnAgentPayload{Kind: "worker", Pos: pt(3, 3)})
	assert.ErrorIs(t, err, simulation.ErrBadPosition)

	err = s.SetGoal(bob, network.SetGoalPayload{AgentID: view.ID, Goal: pt(1, 1)})
	assert.ErrorIs(t, err, errNotPermitted)
	err = s.SetGoal(alice, network.SetGoalPayload{AgentID: "nope"})
	assert.ErrorIs(t, err, errBadRequest)

	for i := 0; i < 3; i++ {
		s.Step(context.Background())
	}
	status := s.GetStatus()
	assert.Equal(t, int64(3), status.ServerTick)
	assert.Equal(t, 1, status.AgentCount)

	require.NoError(t, s.RemoveAgent(alice, network.RemoveAgentPayload{AgentID: view.ID}))
	assert.Zero(t, s.GetStatus().AgentCount)
}

func TestSessionEditMap(t *testing.T) {
	s := newTestServer(t).session
	before := s.MapState()

	change, err := s.EditMap(network.EditMapPayload{Pos: pt(1, 1), Object: "tree"})
	require.NoError(t, err)
	assert.Equal(t, "T", change.Symbol)
	assert.Greater(t, change.Revision, before.Revision)

	east := hex.East
	blocked := true
	_, err = s.EditMap(network.EditMapPayload{Pos: pt(0, 0), Dir: &east, Barrier: &blocked})
	require.NoError(t, err)
	res, err := s.FindPath(context.Background(), network.FindPathPayload{Start: pt(0, 0), Dest: pt(1, 0)})
	require.NoError(t, err)
	assert.Greater(t, res.Length, 1)

	_, err = s.EditMap(network.EditMapPayload{Pos: pt(0, 0), Road: "normal"})
	assert.ErrorIs(t, err, errBadRequest)
	_, err = s.EditMap(network.EditMapPayload{Pos: pt(0, 0), Terrain: "cheese"})
	assert.ErrorIs(t, err, gamemap.ErrUnknownValue)

	state := s.MapState()
	assert.Equal(t, 8, state.Width)
	assert.Equal(t, "T", string(state.Layout[1][1]))
}

func TestHTTPRoutes(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/route/human?from=0,0&to=3,0", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/route/human?from=0,0&to=3,0&player=dev", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "LineString")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/route/ship?from=0,0&to=3,0&player=dev", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/route/human?from=0&to=3,0&player=dev", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/map?player=dev", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func readMessage(t *testing.T, ws *websocket.Conn) network.ServerMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	return network.ServerMessage{Type: msg.Type, Payload: msg.Payload}
}

func send(t *testing.T, ws *websocket.Conn, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(network.ClientMessage{Type: msgType, Payload: raw}))
}

func TestWebSocketSession(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?player=p1"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	send(t, ws, network.MsgTypeFindPath, network.FindPathPayload{Start: pt(0, 0), Dest: pt(1, 0)})
	msg := readMessage(t, ws)
	assert.Equal(t, network.MsgTypeError, msg.Type, "must join first")

	send(t, ws, network.MsgTypeJoin, struct{}{})
	msg = readMessage(t, ws)
	require.Equal(t, network.MsgTypeWelcome, msg.Type)
	var welcome network.WelcomePayload
	require.NoError(t, json.Unmarshal(msg.Payload.(json.RawMessage), &welcome))
	assert.Equal(t, "p1", welcome.PlayerID)
	assert.Equal(t, 8, welcome.Map.Height)

	send(t, ws, network.MsgTypeFindPath, network.FindPathPayload{RequestID: "r1", Start: pt(0, 0), Dest: pt(0, 5)})
	msg = readMessage(t, ws)
	require.Equal(t, network.MsgTypePathResult, msg.Type)
	var result network.PathResultPayload
	require.NoError(t, json.Unmarshal(msg.Payload.(json.RawMessage), &result))
	assert.Equal(t, "r1", result.RequestID)
	assert.True(t, result.Found)
	assert.Equal(t, 5, result.Length)
	assert.Len(t, result.Route, 5)

	send(t, ws, network.MsgTypeSpawnAgent, network.SpawnAgentPayload{Kind: "soldier", Pos: pt(0, 7)})
	// the spawn event may arrive before or after the reply
	var spawned bool
	for i := 0; i < 2; i++ {
		msg = readMessage(t, ws)
		if msg.Type == network.MsgTypeAgentSpawned {
			spawned = true
		} else {
			assert.Equal(t, network.MsgTypeAgentEvent, msg.Type)
		}
	}
	assert.True(t, spawned)
	assert.Equal(t, 1, srv.session.GetStatus().AgentCount)
}
