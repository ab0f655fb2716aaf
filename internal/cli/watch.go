package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool
	var name string

	cmd := &cobra.Command{
		Use:   "watch <room-id>",
		Short: "Spectate a room's event stream over the websocket",
		Long: `Connect to the server's websocket, join the room as a spectator and
print every event the server sends for it.

Events include:
  - lobby-state: Room membership or ready flags changed
  - countdown: Pre-match countdown tick
  - game-start / unpause: Match began or resumed
  - game-state: Periodic match snapshot
  - chat-message: All-channel chat
  - player-joined / player-left: Membership changes

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchRoom(args[0], name, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().StringVar(&name, "name", "observer", "Spectator display name")

	return cmd
}

// watchEvent is one printed frame
type watchEvent struct {
	Time    time.Time       `json:"time"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func watchRoom(roomID, name string, jsonOutput bool) error {
	wsURL, err := socketURL(cfg.ServerURL, name, cfg.Token)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Join as spectator
	join := map[string]any{
		"event": "join-room",
		"payload": map[string]any{
			"roomId":    roomID,
			"spectator": true,
		},
	}
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	// Handle interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		_ = conn.Close()
	}()

	if !jsonOutput {
		fmt.Printf("Watching room %s\n", roomID)
	}

	for {
		var env watchEvent
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}
		env.Time = time.Now()
		printWatchEvent(env, jsonOutput)
	}
}

// socketURL derives the ws:// endpoint from the configured server URL
func socketURL(serverURL, name, token string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"

	q := u.Query()
	q.Set("name", name)
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func printWatchEvent(env watchEvent, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(env)
		fmt.Println(string(data))
		return
	}

	timestamp := env.Time.Format("2006-01-02 15:04:05")
	display := string(env.Payload)
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	display = strings.ReplaceAll(display, "\n", " ")
	fmt.Printf("[%s] %s: %s\n", timestamp, env.Event, display)
}
