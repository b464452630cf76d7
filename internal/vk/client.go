// Package vk implements the VK Bots API transport: the long-poll event
// source the game consumes and the outbound message sender it hands replies
// to. The game core never touches this package directly; it sees events
// and emits messages as values; everything wire-shaped lives here.
package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/quizhub/go-trivia-bot/internal/game"
)

// apiBase is the VK method endpoint prefix.
const apiBase = "https://api.vk.com/method/"

// defaultVersion is the VK API version every call pins.
const defaultVersion = "5.131"

// APIError is a structured error returned by the VK API itself (as opposed
// to a transport failure).
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

// Client is a minimal VK Bots API client covering the four methods the bot
// needs: long-poll session setup, the long-poll fetch, message sending, and
// user name lookup. Sends are throttled with a token bucket to stay inside
// the API's per-group rate limit.
//
// Client is safe for concurrent use.
type Client struct {
	// HTTP is the underlying client; timeouts must exceed the long-poll
	// wait or every fetch will be cut short.
	HTTP    *http.Client
	Token   string
	GroupID int64
	Version string

	limiter *rate.Limiter
	log     zerolog.Logger

	mu    sync.Mutex
	names map[int64]string
}

// NewClient constructs a Client for the given group token. sendRPS bounds
// outbound messages per second (VK allows 20/s per group token).
func NewClient(token string, groupID int64, sendRPS float64, log zerolog.Logger) *Client {
	if sendRPS <= 0 {
		sendRPS = 20
	}
	return &Client{
		HTTP:    &http.Client{Timeout: 90 * time.Second},
		Token:   token,
		GroupID: groupID,
		Version: defaultVersion,
		limiter: rate.NewLimiter(rate.Limit(sendRPS), 1),
		log:     log.With().Str("component", "vk").Logger(),
		names:   make(map[int64]string),
	}
}

// BotMemberID is the identity VK reports in chat actions when the bot
// itself is the affected member (groups appear as negated group ids).
func (c *Client) BotMemberID() int64 { return -c.GroupID }

// call performs one VK API method call and decodes the "response" envelope
// into out. API-level failures come back as *APIError.
func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	params.Set("access_token", c.Token)
	params.Set("v", c.Version)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+method, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = params.Encode()

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("vk %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Response json.RawMessage `json:"response"`
		Error    *APIError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("vk %s: decode: %w", method, err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if out != nil && len(envelope.Response) > 0 {
		return json.Unmarshal(envelope.Response, out)
	}
	return nil
}

// LongPollSession identifies one long-poll connection: where to poll, the
// session key, and the resumption token to start from.
type LongPollSession struct {
	Server string `json:"server"`
	Key    string `json:"key"`
	TS     string `json:"ts"`
}

// LongPollServer obtains a fresh long-poll session for the group.
func (c *Client) LongPollServer(ctx context.Context) (*LongPollSession, error) {
	params := url.Values{}
	params.Set("group_id", strconv.FormatInt(c.GroupID, 10))
	var s LongPollSession
	if err := c.call(ctx, "groups.getLongPollServer", params, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// pollResponse is the raw long-poll fetch result. A non-zero Failed code
// signals session trouble: 1 = history lost (take the new ts), 2/3 = the
// key or session expired (obtain a new session).
type pollResponse struct {
	TS      string      `json:"ts"`
	Failed  int         `json:"failed"`
	Updates []rawUpdate `json:"updates"`
}

// poll performs one blocking long-poll fetch against the session.
func (c *Client) poll(ctx context.Context, s *LongPollSession, wait int) (*pollResponse, error) {
	q := url.Values{}
	q.Set("act", "a_check")
	q.Set("key", s.Key)
	q.Set("ts", s.TS)
	q.Set("wait", strconv.Itoa(wait))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Server+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("long poll decode: %w", err)
	}
	return &out, nil
}

// SendMessage delivers one outbound message to its chat, serializing the
// keyboard descriptor when present. The random id dedupes retries on the
// VK side.
func (c *Client) SendMessage(ctx context.Context, m game.OutboundMessage) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(m.PeerID, 10))
	params.Set("random_id", strconv.FormatInt(rand.Int64N(1<<31), 10))
	params.Set("message", m.Text)
	if m.Keyboard != nil {
		kb, err := json.Marshal(m.Keyboard)
		if err != nil {
			return fmt.Errorf("marshal keyboard: %w", err)
		}
		params.Set("keyboard", string(kb))
	}
	if m.Attachment != "" {
		params.Set("attachment", m.Attachment)
	}
	return c.call(ctx, "messages.send", params, nil)
}

// Name implements game.Profiles: it resolves a user's display name via
// users.get, caching results forever (VK names change rarely and mentions
// render from the id anyway). Lookup failures degrade to an empty name.
func (c *Client) Name(ctx context.Context, vkID int64) string {
	c.mu.Lock()
	if n, ok := c.names[vkID]; ok {
		c.mu.Unlock()
		return n
	}
	c.mu.Unlock()

	params := url.Values{}
	params.Set("user_ids", strconv.FormatInt(vkID, 10))
	var users []struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.call(ctx, "users.get", params, &users); err != nil || len(users) == 0 {
		c.log.Warn().Int64("vk_id", vkID).Err(err).Msg("users.get failed")
		return ""
	}
	name := users[0].FirstName
	if users[0].LastName != "" {
		name += " " + users[0].LastName
	}

	c.mu.Lock()
	c.names[vkID] = name
	c.mu.Unlock()
	return name
}
