package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinbot/internal/structures"
	"pinbot/internal/testutil"
)

func newMessagingClient(t *testing.T, handler http.Handler) MessagingClientInterface {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	conf := &structures.Config{
		Signal: structures.SignalConfig{ApiUrl: server.URL, Number: "+15550000000"},
	}
	return NewMessagingClient(conf, &testutil.MockLogger{})
}

func TestMessagingClient_ListAccounts(t *testing.T) {
	client := newMessagingClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`["+15550000000","+15551111111"]`))
	}))

	accounts, err := client.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"+15550000000", "+15551111111"}, accounts)
}

func TestMessagingClient_ListAccountsFailure(t *testing.T) {
	client := newMessagingClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	_, err := client.ListAccounts(context.Background())
	assert.Error(t, err)
}

func TestMessagingClient_Receive(t *testing.T) {
	client := newMessagingClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/receive/+15550000000", r.URL.Path)
		_, _ = w.Write([]byte(`[{"envelope":{"source":"+15551234567","timestamp":1000,
			"dataMessage":{"message":"hi","timestamp":1000}}}]`))
	}))

	items, err := client.Receive(context.Background(), "+15550000000")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "+15551234567", items[0].Envelope.Source)
}

func TestMessagingClient_ReceiveEmptyBody(t *testing.T) {
	client := newMessagingClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Nothing queued: the gateway answers 200 with no body.
	}))

	items, err := client.Receive(context.Background(), "+15550000000")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMessagingClient_ReceiveWhitespaceBody(t *testing.T) {
	client := newMessagingClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("\n  \n"))
	}))

	items, err := client.Receive(context.Background(), "+15550000000")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMessagingClient_ReceiveMalformed(t *testing.T) {
	client := newMessagingClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"`))
	}))

	_, err := client.Receive(context.Background(), "+15550000000")
	assert.Error(t, err)
}

func TestMessagingClient_Send(t *testing.T) {
	var payload map[string]any
	client := newMessagingClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/send", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, client.Send(context.Background(), "+15551234567", "pinned!"))
	assert.Equal(t, "pinned!", payload["message"])
	assert.Equal(t, "+15550000000", payload["number"])
	assert.Equal(t, []any{"+15551234567"}, payload["recipients"])
}

func TestMessagingClient_SendFailure(t *testing.T) {
	client := newMessagingClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid recipient"))
	}))

	err := client.Send(context.Background(), "bogus", "text")
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "invalid recipient", gwErr.Reason)
}

func TestMessagingClient_NumberFromDiscovery(t *testing.T) {
	conf := &structures.Config{
		Signal: structures.SignalConfig{ApiUrl: "http://127.0.0.1:1"},
	}
	client := NewMessagingClient(conf, &testutil.MockLogger{})
	assert.Equal(t, "", client.Number())

	client.SetNumber("+15559999999")
	assert.Equal(t, "+15559999999", client.Number())
}
