package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/outplayedgg/garrison-server/internal/api"
	"github.com/outplayedgg/garrison-server/internal/api/response"
	"github.com/outplayedgg/garrison-server/internal/model"
	"github.com/outplayedgg/garrison-server/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app    *TestApp
	server *httptest.Server
	conns  []*websocket.Conn
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	router := api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		AuthService: s.app.AuthService,
		Coordinator: s.app.Coordinator,
		Storage:     s.app.Storage,
		SocketHub:   s.app.Hub,
	})
	s.server = httptest.NewServer(router)
	s.conns = nil
}

func (s *IntegrationSuite) TearDownTest() {
	for _, conn := range s.conns {
		conn.Close()
	}
	s.server.Close()
}

func (s *IntegrationSuite) wsURL(query string) string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?" + query
}

func (s *IntegrationSuite) dial(query string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(s.wsURL(query), nil)
	s.Require().NoError(err)
	s.conns = append(s.conns, conn)
	return conn
}

func (s *IntegrationSuite) send(conn *websocket.Conn, event string, payload any) {
	env := struct {
		Event   string `json:"event"`
		Payload any    `json:"payload,omitempty"`
	}{Event: event, Payload: payload}
	data, err := json.Marshal(env)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, data))
}

// awaitEvent reads frames until one matches the wanted event name,
// returning its raw payload
func (s *IntegrationSuite) awaitEvent(conn *websocket.Conn, event string) json.RawMessage {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
		_, data, err := conn.ReadMessage()
		s.Require().NoError(err)

		var env struct {
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
		}
		s.Require().NoError(json.Unmarshal(data, &env))
		if env.Event == event {
			return env.Payload
		}
	}
	s.Require().FailNowf("event not received", "wanted %s", event)
	return nil
}

func (s *IntegrationSuite) post(path string, body any) *http.Response {
	data, err := json.Marshal(body)
	s.Require().NoError(err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(data))
	s.Require().NoError(err)
	return resp
}

func (s *IntegrationSuite) TestNewRejectsUnknownStorageType() {
	_, err := New(Config{StorageType: "postgres"})
	s.Error(err)
}

func (s *IntegrationSuite) TestNewRequiresRedisConfigForRedis() {
	_, err := New(Config{StorageType: StorageTypeRedis})
	s.Error(err)
}

// Test: full flow from account creation through a match to the recorded
// summary, across the REST API and the websocket.
func (s *IntegrationSuite) TestFullMatchFlow() {
	// Host registers an account over REST so the result attaches to it
	resp := s.post("/api/v1/players/guest", map[string]string{"display_name": "alice"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var auth response.AuthResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&auth))
	resp.Body.Close()
	s.Require().NotEmpty(auth.SessionToken)

	// Host connects with the session token, guest opponent without one
	s.app.MockRandom.QueueString("ROOM01")
	host := s.dial("token=" + auth.SessionToken)
	s.send(host, "create-lobby", map[string]string{"name": "skirmish"})

	var lobby model.LobbyState
	s.Require().NoError(json.Unmarshal(s.awaitEvent(host, "lobby-created"), &lobby))
	s.Equal("alice", lobby.Players[0].Name)

	guest := s.dial("name=bob")
	s.send(guest, "join-room", map[string]any{"roomId": string(lobby.ID)})
	s.awaitEvent(guest, "connected")

	// The lobby shows up in the public directory
	dirResp, err := http.Get(s.server.URL + "/api/v1/lobbies")
	s.Require().NoError(err)
	var dir []response.Lobby
	s.Require().NoError(json.NewDecoder(dirResp.Body).Decode(&dir))
	dirResp.Body.Close()
	s.Require().Len(dir, 1)
	s.Equal(string(lobby.ID), dir[0].ID)
	s.Equal(2, dir[0].PlayerCount)

	// Host starts the game; drive the countdown ticker by hand
	s.send(host, "start-game", nil)
	s.awaitEvent(host, "countdown")
	s.Require().Eventually(func() bool {
		return s.app.MockClock.Ticker(0) != nil
	}, 2*time.Second, 10*time.Millisecond)
	for i := 0; i < 5; i++ {
		s.app.MockClock.Ticker(0).Tick()
	}
	s.awaitEvent(host, "game-start")
	s.awaitEvent(guest, "game-start")

	// Both leave; the room empties and the match summary is recorded
	s.send(guest, "leave-room", nil)
	s.send(host, "leave-room", nil)

	s.Require().Eventually(func() bool {
		matches, err := s.app.Storage.ListRecentMatches(context.Background(), 10)
		return err == nil && len(matches) == 1
	}, 2*time.Second, 10*time.Millisecond)

	matches, err := s.app.Storage.ListRecentMatches(context.Background(), 10)
	s.Require().NoError(err)
	summary := matches[0]
	s.Equal("skirmish", summary.RoomName)
	s.Require().NotEmpty(summary.Results)
	s.Equal("alice", summary.Results[0].Name)
	s.Equal(auth.Player.ID, string(summary.Results[0].PlayerID))

	// And it is readable over REST
	matchResp, err := http.Get(s.server.URL + "/api/v1/matches/" + string(summary.ID))
	s.Require().NoError(err)
	s.Equal(http.StatusOK, matchResp.StatusCode)
	matchResp.Body.Close()
}
