package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/outplayedgg/garrison-server/internal/model"
	"github.com/outplayedgg/garrison-server/internal/services/session"
)

// Envelope is the wire format: every frame in either direction is a named
// event with a JSON payload
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// IdentityResolver maps a session token to an account. It returns the
// player id, the account's display name, and whether the token was valid.
type IdentityResolver func(token string) (model.PlayerID, string, bool)

// Hub owns every live websocket connection and implements the
// coordinator's Sender. Sends never block: a connection whose buffer is
// full is closed and dropped.
type Hub struct {
	coordinator *session.Coordinator
	resolver    IdentityResolver
	logger      *slog.Logger
	upgrader    websocket.Upgrader

	mu      sync.RWMutex
	clients map[model.ConnectionID]*client
}

var _ session.Sender = (*Hub)(nil)

// NewHub creates an unbound hub. Bind must be called with the coordinator
// before serving connections; the two reference each other.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checking is the reverse proxy's concern in this deployment
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[model.ConnectionID]*client),
	}
}

// Bind attaches the coordinator the hub relays inbound events to
func (h *Hub) Bind(c *session.Coordinator) {
	h.coordinator = c
}

// SetIdentityResolver enables account attachment via the "token" query
// parameter. Call before serving connections; it is not synchronized.
func (h *Hub) SetIdentityResolver(resolver IdentityResolver) {
	h.resolver = resolver
}

// ServeHTTP upgrades the request and runs the connection's pumps. The
// optional "name" query parameter sets the player's display name; an
// optional "token" parameter attaches a logged-in account, so match
// results record against it. Invalid tokens fall back to anonymous.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	name := r.URL.Query().Get("name")

	var playerID model.PlayerID
	if token := r.URL.Query().Get("token"); token != "" && h.resolver != nil {
		if id, accountName, ok := h.resolver(token); ok {
			playerID = id
			if name == "" {
				name = accountName
			}
		}
	}
	if name == "" {
		name = "anonymous"
	}

	cl := &client{
		id:   model.ConnectionID(uuid.NewString()),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()

	h.coordinator.Register(cl.id, name, playerID)

	go cl.writePump()
	go cl.readPump()
}

// Send implements session.Sender. The frame is queued on the connection's
// buffer; a full buffer drops the connection rather than blocking the
// caller.
func (h *Hub) Send(connID model.ConnectionID, event string, payload any) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		h.logger.Error("failed to encode frame",
			slog.String("event", event),
			slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	cl, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case cl.send <- data:
	default:
		// Close the socket only. Sends race each other for the same
		// client, so the channel may not be closed here; readPump owns
		// the single remove + disconnect cleanup and runs it once its
		// read fails.
		h.logger.Warn("slow consumer dropped", slog.String("conn", string(connID)))
		cl.conn.Close()
	}
}

func encodeFrame(event string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return json.Marshal(Envelope{Event: event, Payload: raw})
}

// remove deregisters a client and releases its outbound queue
func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[cl.id]; ok && current == cl {
		delete(h.clients, cl.id)
		close(cl.send)
	}
}
