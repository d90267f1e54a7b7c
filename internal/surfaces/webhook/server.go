// Package webhook receives chat-service callbacks over HTTP and routes
// slash commands from moderators into the command dispatcher.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/gridironmods/sideline/internal/commands"
	"github.com/gridironmods/sideline/internal/config"
	"github.com/gridironmods/sideline/internal/notify"
	"github.com/gridironmods/sideline/internal/platform"
)

const dedupeWindow = 10

// ChatClient posts bot replies back into a chat channel.
type ChatClient struct {
	httpClient *http.Client
	baseURL    string
	botID      string
	token      string
}

// NewChatClient builds a reply client from the environment.
func NewChatClient(env config.Env) *ChatClient {
	return &ChatClient{
		httpClient: &http.Client{Timeout: env.HTTPTimeout},
		baseURL:    strings.TrimRight(env.ChatBaseURL, "/"),
		botID:      env.ChatBotID,
		token:      env.ChatToken,
	}
}

// Send posts a message to the channel as the bot user.
func (c *ChatClient) Send(ctx context.Context, channelURL, text string) error {
	payload, err := json.Marshal(map[string]string{
		"channel_url": channelURL,
		"message":     text,
	})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/v3/bots/%s/send", c.baseURL, c.botID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending chat message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("chat service returned status %d", resp.StatusCode)
	}
	return nil
}

// Notifier adapts the client into a notifier bound to one channel.
func (c *ChatClient) Notifier(channelURL string) notify.Notifier {
	return notify.Func(func(ctx context.Context, text string) error {
		return c.Send(ctx, channelURL, text)
	})
}

// Server handles incoming chat webhooks.
type Server struct {
	Dispatcher *commands.Dispatcher
	Platform   *platform.Client
	Chat       *ChatClient
	Log        *logrus.Logger

	Community string

	mu   sync.Mutex
	seen []int64
}

type chatEvent struct {
	Message struct {
		MessageID int64  `json:"message_id"`
		Text      string `json:"text"`
	} `json:"message"`
	Channel struct {
		ChannelURL string `json:"channel_url"`
	} `json:"channel"`
	Sender struct {
		Nickname string `json:"nickname"`
	} `json:"sender"`
}

// Router builds the HTTP routes for the webhook surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	r.Post("/webhook", s.handleEvent)
	return r
}

// handleEvent acknowledges the callback immediately and runs any command
// in the background, so slow commands never trip the chat service's
// delivery timeout.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var event chatEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.Log.WithError(err).Warn("could not decode chat event")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	text := strings.TrimSpace(event.Message.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	if s.alreadySeen(event.Message.MessageID) {
		s.Log.WithField("message_id", event.Message.MessageID).Debug("duplicate event dropped")
		return
	}

	go s.runCommand(event, text)
}

func (s *Server) runCommand(event chatEvent, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	send := s.Chat.Notifier(event.Channel.ChannelURL)

	isMod, err := s.Platform.IsModerator(ctx, s.Community, event.Sender.Nickname)
	if err != nil {
		s.Log.WithError(err).WithField("user", event.Sender.Nickname).Warn("moderator check failed")
		return
	}
	if !isMod {
		s.Log.WithField("user", event.Sender.Nickname).Info("ignoring command from non-moderator")
		return
	}

	s.Log.WithFields(logrus.Fields{"user": event.Sender.Nickname, "command": text}).Info("running command")
	s.Dispatcher.Dispatch(ctx, text, send)
}

// alreadySeen records the message ID in a fixed-size window and reports
// whether it was already there. Chat services redeliver webhooks on
// slow responses.
func (s *Server) alreadySeen(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, prev := range s.seen {
		if prev == id {
			return true
		}
	}
	s.seen = append(s.seen, id)
	if len(s.seen) > dedupeWindow {
		s.seen = s.seen[len(s.seen)-dedupeWindow:]
	}
	return false
}
