package telegram_replier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jdelaire/addrbot/core"
)

// Replier sends replies via the Telegram Bot API.
type Replier struct {
	botToken string
	client   *http.Client
	baseURL  string
}

type apiResult struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		Username string `json:"username"`
	} `json:"result"`
}

// New creates a Telegram replier with the given bot token.
func New(botToken string) *Replier {
	return &Replier{
		botToken: botToken,
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  "https://api.telegram.org",
	}
}

// WithBaseURL sets a custom base URL (for testing).
func (r *Replier) WithBaseURL(baseURL string) *Replier {
	r.baseURL = baseURL
	return r
}

// Send posts reply.Text to reply.ChatID, threaded under reply.ReplyTo when set.
func (r *Replier) Send(ctx context.Context, reply core.Reply) error {
	form := url.Values{
		"chat_id": {strconv.FormatInt(reply.ChatID, 10)},
		"text":    {reply.Text},
	}
	if reply.ReplyTo != 0 {
		form.Set("reply_to_message_id", strconv.FormatInt(reply.ReplyTo, 10))
		form.Set("allow_sending_without_reply", "true")
	}

	if _, err := r.call(ctx, "sendMessage", form); err != nil {
		return err
	}
	return nil
}

// GetMe validates the token and returns the bot's username.
func (r *Replier) GetMe(ctx context.Context) (string, error) {
	res, err := r.call(ctx, "getMe", nil)
	if err != nil {
		return "", err
	}
	return res.Result.Username, nil
}

func (r *Replier) call(ctx context.Context, method string, form url.Values) (*apiResult, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", r.baseURL, r.botToken, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	var body apiResult
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram API error %d: %s", resp.StatusCode, body.Description)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, decodeErr)
	}
	if !body.OK {
		return nil, fmt.Errorf("telegram %s returned ok=false: %s", method, body.Description)
	}
	return &body, nil
}

var _ core.Replier = (*Replier)(nil)
