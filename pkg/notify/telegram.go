package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/izin-pramuka-api/pkg/config"
)

// Message carries the identity fields pushed to staff when a new permission
// request arrives.
type Message struct {
	Nama    string
	Absen   string
	Kelas   string
	Sangga  string
	PKKelas string
	Alasan  string
}

// TelegramNotifier delivers messages through the Telegram bot sendMessage API.
type TelegramNotifier struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

// NewTelegramNotifier constructs a notifier. Returns nil when no bot token is
// configured; callers treat a nil notifier as "notifications disabled".
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil
	}
	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramNotifier{
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		apiBase: apiBase,
		client:  &http.Client{Timeout: timeout},
	}
}

// Send posts the formatted message. Delivery is best-effort: the caller logs
// failures and never surfaces them to the submitter.
func (n *TelegramNotifier) Send(ctx context.Context, msg Message) error {
	if n == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    formatMessage(msg),
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram api status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func formatMessage(msg Message) string {
	alasan := msg.Alasan
	if alasan == "" {
		alasan = "-"
	}
	lines := []string{
		"\U0001F4EC Izin Diporani Baru",
		"",
		fmt.Sprintf("Nama: %s", msg.Nama),
		fmt.Sprintf("Nomor Absen: %s", msg.Absen),
		fmt.Sprintf("Kelas: %s", msg.Kelas),
		fmt.Sprintf("Sangga: %s", msg.Sangga),
		fmt.Sprintf("Pembina Kelas: %s", msg.PKKelas),
		"",
		"Alasan:",
		alasan,
	}
	return strings.Join(lines, "\n")
}
