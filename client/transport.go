package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	domain "github.com/example/preschool-chat/domain/chat"
	"github.com/gofiber/fiber/v2"
)

// Outgoing is a message composed by the user.
type Outgoing struct {
	Text       string      `json:"text"`
	AuthorID   string      `json:"authorId"`
	AuthorName string      `json:"authorName"`
	Kind       domain.Kind `json:"kind"`
	Room       string      `json:"room,omitempty"`
	TargetID   string      `json:"targetId,omitempty"`
}

// Admin is a staff account a parent can message.
type Admin struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Title string `json:"title"`
}

// Transport is what the controller needs from the server.
type Transport interface {
	FetchRoom(ctx context.Context, room string) ([]domain.Message, error)
	FetchDirect(ctx context.Context, me, other string) ([]domain.Message, error)
	Send(ctx context.Context, msg Outgoing) (domain.Message, error)
	ListAdmins(ctx context.Context) ([]Admin, error)
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code   int
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("server returned status %d", e.Code)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Reason)
}

// HTTPTransport talks to the chat JSON API with Fiber's client agent.
type HTTPTransport struct {
	baseURL string
	timeout time.Duration
}

// NewHTTPTransport creates a transport for the server at baseURL.
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

type messagesBody struct {
	Messages []domain.Message `json:"messages"`
}

// FetchRoom returns the messages of a named room.
func (t *HTTPTransport) FetchRoom(ctx context.Context, room string) ([]domain.Message, error) {
	var body messagesBody
	if err := t.do(ctx, fiber.MethodGet, "/chat/messages/"+url.PathEscape(room), nil, &body); err != nil {
		return nil, err
	}
	return body.Messages, nil
}

// FetchDirect returns the conversation between me and other.
func (t *HTTPTransport) FetchDirect(ctx context.Context, me, other string) ([]domain.Message, error) {
	var body messagesBody
	path := "/chat/direct/" + url.PathEscape(me) + "/" + url.PathEscape(other)
	if err := t.do(ctx, fiber.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.Messages, nil
}

// Send posts a message and returns the stored copy.
func (t *HTTPTransport) Send(ctx context.Context, msg Outgoing) (domain.Message, error) {
	var body struct {
		OK      bool           `json:"ok"`
		Message domain.Message `json:"message"`
	}
	if err := t.do(ctx, fiber.MethodPost, "/chat/send", msg, &body); err != nil {
		return domain.Message{}, err
	}
	return body.Message, nil
}

// ListAdmins returns the staff directory.
func (t *HTTPTransport) ListAdmins(ctx context.Context) ([]Admin, error) {
	var body struct {
		Admins []Admin `json:"admins"`
	}
	if err := t.do(ctx, fiber.MethodGet, "/chat/admins", nil, &body); err != nil {
		return nil, err
	}
	return body.Admins, nil
}

type agentResult struct {
	code int
	body []byte
	err  error
}

// do sends one request. It returns as soon as ctx is done; the request
// timeout is the transport timeout clamped to the context deadline.
func (t *HTTPTransport) do(ctx context.Context, method, path string, in, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := t.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	var agent *fiber.Agent
	switch method {
	case fiber.MethodPost:
		agent = fiber.Post(t.baseURL + path)
	default:
		agent = fiber.Get(t.baseURL + path)
	}
	if in != nil {
		agent.JSON(in)
	}
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	// The agent cannot be cancelled, so the call runs aside and a done
	// context abandons it. It still ends by its own timeout.
	done := make(chan agentResult, 1)
	go func() {
		code, body, errs := agent.Bytes()
		done <- agentResult{code: code, body: body, err: errors.Join(errs...)}
	}()

	var res agentResult
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-done:
	}
	code, body := res.code, res.body
	if res.err != nil {
		return fmt.Errorf("%s %s: %w", method, path, res.err)
	}
	if code < 200 || code >= 300 {
		var failure struct {
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal(body, &failure)
		return &StatusError{Code: code, Reason: failure.Reason}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
