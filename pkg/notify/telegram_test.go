package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/izin-pramuka-api/pkg/config"
)

func sampleMessage() Message {
	return Message{
		Nama:    "Ana Pratiwi",
		Absen:   "7",
		Kelas:   "X1",
		Sangga:  "Pendobrak",
		PKKelas: "Budi Santoso",
		Alasan:  "sakit demam",
	}
}

func TestTelegramNotifierDisabledWithoutToken(t *testing.T) {
	assert.Nil(t, NewTelegramNotifier(config.TelegramConfig{}))
	assert.Nil(t, NewTelegramNotifier(config.TelegramConfig{BotToken: "token"}))
	assert.Nil(t, NewTelegramNotifier(config.TelegramConfig{ChatID: "chat"}))
}

func TestTelegramNotifierSend(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewTelegramNotifier(config.TelegramConfig{
		BotToken: "bot-token",
		ChatID:   "chat-1",
		APIBase:  server.URL,
		Timeout:  time.Second,
	})
	require.NotNil(t, n)

	err := n.Send(context.Background(), sampleMessage())
	require.NoError(t, err)

	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.Equal(t, "chat-1", gotBody["chat_id"])
	assert.Contains(t, gotBody["text"], "Izin Diporani Baru")
	assert.Contains(t, gotBody["text"], "Nama: Ana Pratiwi")
	assert.Contains(t, gotBody["text"], "Pembina Kelas: Budi Santoso")
	assert.Contains(t, gotBody["text"], "sakit demam")
}

func TestTelegramNotifierSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewTelegramNotifier(config.TelegramConfig{BotToken: "t", ChatID: "c", APIBase: server.URL})
	err := n.Send(context.Background(), sampleMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestFormatMessageEmptyReason(t *testing.T) {
	msg := sampleMessage()
	msg.Alasan = ""
	text := formatMessage(msg)
	assert.Contains(t, text, "Alasan:\n-")
}
