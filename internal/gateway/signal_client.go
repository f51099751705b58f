package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"pinbot/internal/models"
	"pinbot/internal/providers"
	"pinbot/internal/structures"
)

type MessagingClientInterface interface {
	// ListAccounts returns the account identifiers registered on the
	// gateway. Used once at startup when no static channel list is set.
	ListAccounts(ctx context.Context) ([]string, error)
	// Receive fetches the new inbound envelopes for a channel. An empty
	// response body yields zero envelopes.
	Receive(ctx context.Context, channel string) ([]models.ReceiveItem, error)
	// Send delivers a text to a recipient from the configured account
	// number. Best effort; callers log failures and move on.
	Send(ctx context.Context, recipient, text string) error
	SetNumber(number string)
	Number() string
}

type MessagingClient struct {
	baseURL    string
	httpClient *http.Client
	logger     providers.Logger

	mu     sync.RWMutex
	number string
}

func NewMessagingClient(conf *structures.Config, logger providers.Logger) MessagingClientInterface {
	return &MessagingClient{
		baseURL:    strings.TrimRight(conf.Signal.ApiUrl, "/"),
		httpClient: &http.Client{},
		logger:     logger,
		number:     conf.Signal.Number,
	}
}

func (c *MessagingClient) SetNumber(number string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.number = number
}

func (c *MessagingClient) Number() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.number
}

func (c *MessagingClient) ListAccounts(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/accounts", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("messaging gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readGatewayError(resp)
	}

	var accounts []string
	if err := json.NewDecoder(resp.Body).Decode(&accounts); err != nil {
		return nil, fmt.Errorf("malformed accounts response: %w", err)
	}
	return accounts, nil
}

func (c *MessagingClient) Receive(ctx context.Context, channel string) ([]models.ReceiveItem, error) {
	endpoint := c.baseURL + "/v1/receive/" + url.PathEscape(channel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("messaging gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readGatewayError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading receive response: %w", err)
	}
	// The gateway answers an empty body when nothing is queued.
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var items []models.ReceiveItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("malformed receive response for %s: %w", channel, err)
	}
	return items, nil
}

func (c *MessagingClient) Send(ctx context.Context, recipient, text string) error {
	payload, err := json.Marshal(map[string]any{
		"message":    text,
		"number":     c.Number(),
		"recipients": []string{recipient},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messaging gateway unreachable: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return readGatewayError(resp)
	}
	return nil
}
