package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// DefaultPushAPIURL is the Expo push send endpoint
const DefaultPushAPIURL = "https://exp.host/--/api/v2/push/send"

// ExpoTransport posts message chunks to the Expo push service
type ExpoTransport struct {
	apiURL string
	client *http.Client
}

type expoResponse struct {
	Data   []Ticket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// NewExpoTransport builds the transport. A non-empty access token is sent as
// a bearer token on every request.
func NewExpoTransport(apiURL, accessToken string) *ExpoTransport {
	if apiURL == "" {
		apiURL = DefaultPushAPIURL
	}

	client := &http.Client{Timeout: 15 * time.Second}
	if accessToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
		client.Timeout = 15 * time.Second
	}

	return &ExpoTransport{apiURL: apiURL, client: client}
}

// Send implements Transport
func (t *ExpoTransport) Send(ctx context.Context, messages []PushMessage) ([]Ticket, error) {
	body, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode push messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read push response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("push service returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var decoded expoResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode push response: %w", err)
	}
	if len(decoded.Errors) > 0 && len(decoded.Data) == 0 {
		return nil, fmt.Errorf("push service rejected request: %s: %s", decoded.Errors[0].Code, decoded.Errors[0].Message)
	}
	return decoded.Data, nil
}
