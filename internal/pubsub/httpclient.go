package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPClient talks to the service's JSON API. It works unauthenticated
// against a local emulator endpoint; auth in front of the real service
// is handled outside this process.
type HTTPClient struct {
	opts Options
	hc   *http.Client
}

type wireMessage struct {
	Data       string            `json:"data,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type pullRequest struct {
	MaxMessages int `json:"maxMessages"`
}

type pullResponse struct {
	ReceivedMessages []struct {
		AckID   string      `json:"ackId"`
		Message wireMessage `json:"message"`
	} `json:"receivedMessages"`
}

type ackRequest struct {
	AckIDs []string `json:"ackIds"`
}

type publishRequest struct {
	Messages []wireMessage `json:"messages"`
}

func NewHTTPClient() *HTTPClient { return &HTTPClient{} }

func (c *HTTPClient) Configure(opts Options) error {
	if opts.Endpoint == "" {
		return fmt.Errorf("pubsub-http: endpoint not set")
	}
	c.opts = opts
	c.opts.Endpoint = strings.TrimRight(opts.Endpoint, "/")
	// Pull blocks server-side until messages arrive, so no client timeout;
	// cancellation comes from the request context.
	c.hc = &http.Client{}
	return nil
}

func (c *HTTPClient) Pull(ctx context.Context, subscription string, maxMessages int) ([]ReceivedMessage, error) {
	var resp pullResponse
	if err := c.post(ctx, subscription+":pull", pullRequest{MaxMessages: maxMessages}, &resp); err != nil {
		return nil, err
	}
	out := make([]ReceivedMessage, 0, len(resp.ReceivedMessages))
	for _, rm := range resp.ReceivedMessages {
		data, err := base64.StdEncoding.DecodeString(rm.Message.Data)
		if err != nil {
			return nil, fmt.Errorf("pubsub-http: decode payload: %w", err)
		}
		out = append(out, ReceivedMessage{
			Message: Message{Data: data, Attributes: rm.Message.Attributes},
			AckID:   rm.AckID,
		})
	}
	return out, nil
}

func (c *HTTPClient) Acknowledge(ctx context.Context, subscription string, ackIDs []string) *Future {
	fut := NewFuture()
	go func() {
		fut.Resolve(c.post(ctx, subscription+":acknowledge", ackRequest{AckIDs: ackIDs}, nil))
	}()
	return fut
}

func (c *HTTPClient) Publish(ctx context.Context, topic string, msgs []Message) *Future {
	req := publishRequest{Messages: make([]wireMessage, len(msgs))}
	for i, m := range msgs {
		req.Messages[i] = wireMessage{
			Data:       base64.StdEncoding.EncodeToString(m.Data),
			Attributes: m.Attributes,
		}
	}
	fut := NewFuture()
	go func() {
		fut.Resolve(c.post(ctx, topic+":publish", req, nil))
	}()
	return fut
}

func (c *HTTPClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := c.opts.Endpoint + "/v1/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("pubsub-http: %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pubsub-http: %s: status %d: %s", path, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
