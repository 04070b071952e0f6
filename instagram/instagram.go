// Package instagram posts published articles to an Instagram business
// account through the Graph API two-step container flow. Like the Telegram
// sender it is best effort and skips silently when unconfigured.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"realnews/models"
)

const apiBase = "https://graph.facebook.com/v21.0"

type Sender struct {
	userID      string
	accessToken string
	siteURL     string
	apiBase     string
	httpClient  *http.Client
}

func New(userID, accessToken, siteURL string) *Sender {
	return &Sender{
		userID:      userID,
		accessToken: accessToken,
		siteURL:     siteURL,
		apiBase:     apiBase,
		httpClient:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (s *Sender) Configured() bool {
	return s.userID != "" && s.accessToken != ""
}

// SendArticle creates a media container for the article image and publishes
// it. Instagram requires an image, so articles without one are skipped.
func (s *Sender) SendArticle(ctx context.Context, article models.Article) (bool, error) {
	if !s.Configured() || article.ImageURL == "" {
		return false, nil
	}

	caption := article.Title
	if article.Excerpt != "" {
		caption += "\n\n" + article.Excerpt
	}
	caption += "\n\n" + s.siteURL + "/article/" + article.ID

	creationID, err := s.createContainer(ctx, article.ImageURL, caption)
	if err != nil {
		return false, fmt.Errorf("create instagram container for %s: %w", article.ID, err)
	}
	if err := s.publishContainer(ctx, creationID); err != nil {
		return false, fmt.Errorf("publish instagram container for %s: %w", article.ID, err)
	}
	return true, nil
}

func (s *Sender) createContainer(ctx context.Context, imageURL, caption string) (string, error) {
	form := url.Values{}
	form.Set("image_url", imageURL)
	form.Set("caption", caption)
	form.Set("access_token", s.accessToken)

	var res struct {
		ID string `json:"id"`
	}
	if err := s.post(ctx, "/"+s.userID+"/media", form, &res); err != nil {
		return "", err
	}
	if res.ID == "" {
		return "", fmt.Errorf("no container id in response")
	}
	return res.ID, nil
}

func (s *Sender) publishContainer(ctx context.Context, creationID string) error {
	form := url.Values{}
	form.Set("creation_id", creationID)
	form.Set("access_token", s.accessToken)

	var res struct {
		ID string `json:"id"`
	}
	return s.post(ctx, "/"+s.userID+"/media_publish", form, &res)
}

func (s *Sender) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.apiBase+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("graph api returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
