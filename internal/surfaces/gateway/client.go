// Package gateway maintains a persistent websocket session with a chat
// gateway and routes slash commands from moderators into the command
// dispatcher. Replies go back over the gateway's REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gridironmods/sideline/internal/commands"
	"github.com/gridironmods/sideline/internal/notify"
	"github.com/gridironmods/sideline/internal/platform"
)

const (
	opDispatch  = 0
	opHeartbeat = 1
	opIdentify  = 2
	opHello     = 10
	opAck       = 11

	reconnectDelay = 5 * time.Second
)

// Client runs the gateway session.
type Client struct {
	Dispatcher *commands.Dispatcher
	Platform   *platform.Client
	Log        *logrus.Logger

	Community  string
	GatewayURL string
	RestURL    string
	Token      string

	httpClient *http.Client
}

type payload struct {
	Op   int             `json:"op"`
	Type string          `json:"t,omitempty"`
	Seq  *int64          `json:"s,omitempty"`
	Data json.RawMessage `json:"d,omitempty"`
}

type helloData struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type messageCreate struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	ChannelID string `json:"channel_id"`
	Author    struct {
		Username string `json:"username"`
		Bot      bool   `json:"bot"`
	} `json:"author"`
}

// Run connects to the gateway and reconnects on failure until the
// context is done.
func (c *Client) Run(ctx context.Context) error {
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	for {
		if err := c.session(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Log.WithError(err).Warn("gateway session ended, reconnecting")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// session runs one connect-identify-read loop.
func (c *Client) session(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.GatewayURL, nil)
	if err != nil {
		return fmt.Errorf("dialing gateway: %w", err)
	}
	defer conn.Close()

	var hello payload
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("reading hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", hello.Op)
	}
	var helloD helloData
	if err := json.Unmarshal(hello.Data, &helloD); err != nil {
		return fmt.Errorf("decoding hello: %w", err)
	}

	identify, _ := json.Marshal(map[string]any{
		"op": opIdentify,
		"d": map[string]any{
			"token":   c.Token,
			"intents": 1 << 9, // guild messages
			"properties": map[string]string{
				"os":      "linux",
				"browser": "sideline",
				"device":  "sideline",
			},
		},
	})
	if err := conn.WriteMessage(websocket.TextMessage, identify); err != nil {
		return fmt.Errorf("sending identify: %w", err)
	}
	c.Log.Info("gateway session established")

	var lastSeq atomic.Int64
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Unblocks the read loop when the context is cancelled.
	go func() {
		<-sessionCtx.Done()
		conn.Close()
	}()
	go c.heartbeat(sessionCtx, conn, time.Duration(helloD.HeartbeatInterval)*time.Millisecond, &lastSeq)

	for {
		var event payload
		if err := conn.ReadJSON(&event); err != nil {
			return fmt.Errorf("reading gateway event: %w", err)
		}
		if event.Seq != nil {
			lastSeq.Store(*event.Seq)
		}
		if event.Op != opDispatch || event.Type != "MESSAGE_CREATE" {
			continue
		}
		var msg messageCreate
		if err := json.Unmarshal(event.Data, &msg); err != nil {
			c.Log.WithError(err).Warn("could not decode message event")
			continue
		}
		c.handleMessage(ctx, msg)
	}
}

func (c *Client) heartbeat(ctx context.Context, conn *websocket.Conn, interval time.Duration, seq *atomic.Int64) {
	if interval <= 0 {
		interval = 41250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			beat, _ := json.Marshal(map[string]any{"op": opHeartbeat, "d": seq.Load()})
			if err := conn.WriteMessage(websocket.TextMessage, beat); err != nil {
				c.Log.WithError(err).Warn("heartbeat failed")
				conn.Close()
				return
			}
		}
	}
}

func (c *Client) handleMessage(ctx context.Context, msg messageCreate) {
	text := strings.TrimSpace(msg.Content)
	if msg.Author.Bot || !strings.HasPrefix(text, "/") {
		return
	}

	go func() {
		cmdCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		isMod, err := c.Platform.IsModerator(cmdCtx, c.Community, msg.Author.Username)
		if err != nil {
			c.Log.WithError(err).WithField("user", msg.Author.Username).Warn("moderator check failed")
			return
		}
		if !isMod {
			c.Log.WithField("user", msg.Author.Username).Info("ignoring command from non-moderator")
			return
		}

		c.Log.WithFields(logrus.Fields{"user": msg.Author.Username, "command": text}).Info("running command")
		c.Dispatcher.Dispatch(cmdCtx, text, c.notifier(msg.ChannelID))
	}()
}

// notifier sends replies into the originating channel over REST.
func (c *Client) notifier(channelID string) notify.Notifier {
	return notify.Func(func(ctx context.Context, text string) error {
		body, err := json.Marshal(map[string]string{"content": text})
		if err != nil {
			return err
		}
		url := fmt.Sprintf("%s/channels/%s/messages", strings.TrimRight(c.RestURL, "/"), channelID)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bot "+c.Token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending reply: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("reply rejected with status %d", resp.StatusCode)
		}
		return nil
	})
}
