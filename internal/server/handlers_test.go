package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/gorelay/internal/server"
	"github.com/Tyrowin/gorelay/internal/testhelpers"
)

func httpURL(srv *server.Server, path string) string {
	return "http://" + srv.HTTPAddr().String() + path
}

func wsURL(srv *server.Server) string {
	return "ws://" + srv.HTTPAddr().String() + "/ws"
}

func TestHealthHandler_ReportsParticipants(t *testing.T) {
	req := require.New(t)
	srv := startRelay(t, nil)
	join(t, srv, 2)

	resp := testhelpers.MakeRequest(t, http.MethodGet, httpURL(srv, "/"))

	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("text/plain", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.Equal("GoRelay server is running! Participants: 2", string(body))
}

func TestParticipantsHandler_ListsRoster(t *testing.T) {
	req := require.New(t)
	srv := startRelay(t, nil)
	peers := join(t, srv, 2)

	peers[0].Send("name erin")
	peers[0].Expect("User has changed their name from: Unknown User to erin")

	resp := testhelpers.MakeRequest(t, http.MethodGet, httpURL(srv, "/participants"))

	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("application/json", resp.Header.Get("Content-Type"))
	var roster []server.Participant
	req.NoError(json.NewDecoder(resp.Body).Decode(&roster))
	req.Len(roster, 2)
	req.Equal(server.DefaultName, roster[0].Name)
	req.Equal("erin", roster[1].Name)
	req.True(strings.HasPrefix(roster[1].Addr, "127.0.0.1:"))
}

func TestTestPageHandler_ServesHTML(t *testing.T) {
	req := require.New(t)
	srv := startRelay(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, httpURL(srv, "/test"))

	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("text/html", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.Contains(string(body), "GoRelay WebSocket Test")
	req.Contains(string(body), "location.host + '/ws'")
}

func TestWebSocketHandler_RejectsNonGet(t *testing.T) {
	srv := startRelay(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodPost, httpURL(srv, "/ws"))
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWebSocketHandler_RejectsForeignOrigin(t *testing.T) {
	req := require.New(t)
	srv := startRelay(t, nil)

	conn, resp, err := testhelpers.ConnectWebSocket(wsURL(srv), "http://evil.example")

	req.ErrorIs(err, websocket.ErrBadHandshake)
	req.Nil(conn)
	req.Equal(http.StatusForbidden, resp.StatusCode)
	req.Zero(srv.Hub().Participants())
}
