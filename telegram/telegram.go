// Package telegram posts published articles to a Telegram channel over the
// Bot API. Distribution is best effort: an unconfigured sender skips
// silently and send failures never fail the publish that triggered them.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"realnews/models"
	"realnews/photos"
)

const apiBase = "https://api.telegram.org"

// Sender posts to one channel with one bot token.
type Sender struct {
	token      string
	channelID  string
	siteURL    string
	apiBase    string
	httpClient *http.Client
}

func New(token, channelID, siteURL string) *Sender {
	return &Sender{
		token:      token,
		channelID:  channelID,
		siteURL:    siteURL,
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether both the bot token and the channel are set.
func (s *Sender) Configured() bool {
	return s.token != "" && s.channelID != ""
}

// SendArticle posts one article to the channel. Articles with a reachable
// image go out as a photo post with an HTML caption; everything else falls
// back to a text message. Returns false with no error when the sender is
// not configured.
func (s *Sender) SendArticle(ctx context.Context, article models.Article) (bool, error) {
	if !s.Configured() {
		return false, nil
	}

	link := s.siteURL + "/article/" + article.ID
	caption := fmt.Sprintf("<b>%s</b>\n\n%s",
		html.EscapeString(article.Title), html.EscapeString(article.Excerpt))
	markup := map[string]any{
		"inline_keyboard": [][]map[string]string{
			{{"text": "To'liq o'qish", "url": link}},
		},
	}

	if article.ImageURL != "" && photos.CheckImageAccessible(ctx, s.httpClient, article.ImageURL) {
		err := s.call(ctx, "sendPhoto", map[string]any{
			"chat_id":      s.channelID,
			"photo":        article.ImageURL,
			"caption":      caption,
			"parse_mode":   "HTML",
			"reply_markup": markup,
		})
		if err == nil {
			return true, nil
		}
		// fall through to a plain message, the photo URL may be rejected
		// by Telegram even when reachable from here
	}

	err := s.call(ctx, "sendMessage", map[string]any{
		"chat_id":      s.channelID,
		"text":         caption + "\n\n" + link,
		"parse_mode":   "HTML",
		"reply_markup": markup,
	})
	if err != nil {
		return false, fmt.Errorf("send article %s to telegram: %w", article.ID, err)
	}
	return true, nil
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (s *Sender) call(ctx context.Context, method string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", s.apiBase, s.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var res apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !res.OK {
		return fmt.Errorf("telegram %s failed: %s", method, res.Description)
	}
	return nil
}
