package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_SendMessage(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottoken123/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	defer server.Close()

	client := NewClientWithBase("token123", server.URL)
	require.NoError(t, client.SendMessage(context.Background(), 42, "<b>hi</b>"))
	require.Equal(t, float64(42), captured["chat_id"])
	require.Equal(t, "<b>hi</b>", captured["text"])
	require.Equal(t, "HTML", captured["parse_mode"])
}

func TestClient_SendMessageFallsBackToPlainText(t *testing.T) {
	var requests []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		requests = append(requests, body)
		if _, hasMode := body["parse_mode"]; hasMode {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"ok": false, "description": "can't parse entities",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	defer server.Close()

	client := NewClientWithBase("t", server.URL)
	require.NoError(t, client.SendMessage(context.Background(), 1, "broken <markup"))
	require.Len(t, requests, 2)
	require.NotContains(t, requests[1], "parse_mode")
}

func TestClient_GetWebhookInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bott/getWebhookInfo", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true,
			"result": map[string]interface{}{
				"url":                  "https://bot.example.com/api/v1/telegram/webhook",
				"pending_update_count": 3,
			},
		})
	}))
	defer server.Close()

	info, err := NewClientWithBase("t", server.URL).GetWebhookInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://bot.example.com/api/v1/telegram/webhook", info.URL)
	require.Equal(t, 3, info.PendingUpdateCount)
}

func TestClient_APIErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": false, "description": "Unauthorized",
		})
	}))
	defer server.Close()

	err := NewClientWithBase("bad", server.URL).SetWebhook(context.Background(), "https://x", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unauthorized")
}
