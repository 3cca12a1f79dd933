// Package api is the client-side transport: the REST surface plus the
// websocket push channel.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"duochat/internal/app/chat"
	"duochat/internal/app/message"
	"duochat/internal/app/user"
)

// APIError is a server-reported failure: the human-readable message from a
// {success:false} envelope.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type authResponse struct {
	envelope
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

type userResponse struct {
	envelope
	User *user.User `json:"user"`
}

type contactsResponse struct {
	envelope
	Users  []user.User    `json:"users"`
	Unseen map[string]int `json:"unseenMessages"`
}

type messagesResponse struct {
	envelope
	Messages []message.Message `json:"messages"`
}

type sendResponse struct {
	envelope
	NewMessage *message.Message `json:"newMessage"`
}

// Client talks to one duochat server. It implements chatstate.Backend once a
// session token is set.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken installs the session token used on every subsequent request.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// checked maps a {success:false} envelope to an APIError.
func checked(env envelope) error {
	if env.Success {
		return nil
	}
	msg := env.Message
	if msg == "" {
		msg = "request failed"
	}
	return &APIError{Message: msg}
}

// Signup registers an account and installs the returned session token.
func (c *Client) Signup(ctx context.Context, fullName, email, password string) (*user.User, error) {
	var res authResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": fullName,
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	if err := checked(res.envelope); err != nil {
		return nil, err
	}

	c.token = res.Token
	return res.User, nil
}

// Login authenticates and installs the returned session token.
func (c *Client) Login(ctx context.Context, email, password string) (*user.User, error) {
	var res authResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	if err := checked(res.envelope); err != nil {
		return nil, err
	}

	c.token = res.Token
	return res.User, nil
}

// Me resolves the current session's user record.
func (c *Client) Me(ctx context.Context) (*user.User, error) {
	var res userResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &res); err != nil {
		return nil, err
	}
	if err := checked(res.envelope); err != nil {
		return nil, err
	}
	return res.User, nil
}

func (c *Client) Conversation(ctx context.Context, peerID string) ([]message.Message, error) {
	var res messagesResponse
	if err := c.do(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(peerID), nil, &res); err != nil {
		return nil, err
	}
	if err := checked(res.envelope); err != nil {
		return nil, err
	}
	return res.Messages, nil
}

func (c *Client) MarkSeen(ctx context.Context, messageID string) error {
	var res envelope
	if err := c.do(ctx, http.MethodPut, "/api/messages/mark/"+url.PathEscape(messageID), nil, &res); err != nil {
		return err
	}
	return checked(res)
}

func (c *Client) Contacts(ctx context.Context, search string) ([]user.User, map[string]int, error) {
	path := "/api/messages/users"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}

	var res contactsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, nil, err
	}
	if err := checked(res.envelope); err != nil {
		return nil, nil, err
	}
	return res.Users, res.Unseen, nil
}

func (c *Client) RecentContacts(ctx context.Context) ([]user.User, map[string]int, error) {
	var res contactsResponse
	if err := c.do(ctx, http.MethodGet, "/api/messages/recent", nil, &res); err != nil {
		return nil, nil, err
	}
	if err := checked(res.envelope); err != nil {
		return nil, nil, err
	}
	return res.Users, res.Unseen, nil
}

func (c *Client) Send(ctx context.Context, peerID, text, image string) (*message.Message, error) {
	var res sendResponse
	err := c.do(ctx, http.MethodPost, "/api/messages/send/"+url.PathEscape(peerID), map[string]string{
		"text":  text,
		"image": image,
	}, &res)
	if err != nil {
		return nil, err
	}
	if err := checked(res.envelope); err != nil {
		return nil, err
	}
	return res.NewMessage, nil
}

// SocketEvent is one decoded push from the server. Exactly one of Message and
// OnlineUsers is set, matching Name.
type SocketEvent struct {
	Name        string
	Message     *message.Message
	OnlineUsers []string
}

// Socket is the live push channel. Single reader; the server never expects
// inbound events on it.
type Socket struct {
	conn *websocket.Conn
}

// DialSocket opens the push channel, authenticating via the token query
// parameter because websocket dials cannot carry an Authorization header from
// browsers and the server accepts one form for all clients.
func (c *Client) DialSocket(ctx context.Context) (*Socket, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = "token=" + url.QueryEscape(c.token)

	conn, res, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if res != nil {
			res.Body.Close()
		}
		return nil, err
	}
	return &Socket{conn: conn}, nil
}

// Receive blocks until the next push event arrives. It returns an error when
// the connection is gone, including a kick by a newer session.
func (s *Socket) Receive() (*SocketEvent, error) {
	_, payload, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	event := &SocketEvent{Name: env.Event}
	switch env.Event {
	case chat.EventNewMessage:
		var m message.Message
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, err
		}
		event.Message = &m
	case chat.EventOnlineUsers:
		var ids []string
		if err := json.Unmarshal(env.Data, &ids); err != nil {
			return nil, err
		}
		event.OnlineUsers = ids
	}
	return event, nil
}

func (s *Socket) Close() error {
	return s.conn.Close()
}
