// Package photos finds stock photography for articles through the Unsplash
// REST API, keeping track of downloads as the API terms require.
package photos

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"realnews/models"
)

const defaultBaseURL = "https://api.unsplash.com"

// Client talks to the Unsplash API with a single access key.
type Client struct {
	accessKey  string
	baseURL    string
	httpClient *http.Client
	rng        *rand.Rand
}

func NewClient(accessKey string) *Client {
	return &Client{
		accessKey:  accessKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type apiPhoto struct {
	ID   string `json:"id"`
	URLs struct {
		Regular string `json:"regular"`
	} `json:"urls"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
	Links struct {
		DownloadLocation string `json:"download_location"`
	} `json:"links"`
}

type searchResponse struct {
	Results []apiPhoto `json:"results"`
}

// Search finds a landscape photo for query, avoiding ids already used by
// existing articles. The pick among unused candidates is random so repeated
// queries for the same topic spread across results. When every candidate is
// already used it falls back to a random photo; when the search returns
// nothing at all it returns (nil, nil) and the caller decides what a missing
// photo means.
func (c *Client) Search(ctx context.Context, query string, usedIDs []string) (*models.Photo, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", "1")
	q.Set("per_page", "10")
	q.Set("orientation", "landscape")

	var res searchResponse
	if err := c.get(ctx, "/search/photos?"+q.Encode(), &res); err != nil {
		return nil, fmt.Errorf("search photos %q: %w", query, err)
	}
	if len(res.Results) == 0 {
		return nil, nil
	}

	used := make(map[string]struct{}, len(usedIDs))
	for _, id := range usedIDs {
		used[id] = struct{}{}
	}
	var fresh []apiPhoto
	for _, p := range res.Results {
		if _, ok := used[p.ID]; !ok {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) == 0 {
		return c.Random(ctx, query)
	}

	pick := fresh[c.rng.Intn(len(fresh))]
	return c.finalize(ctx, pick)
}

// Random fetches one random landscape photo for query.
func (c *Client) Random(ctx context.Context, query string) (*models.Photo, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("orientation", "landscape")

	var p apiPhoto
	if err := c.get(ctx, "/photos/random?"+q.Encode(), &p); err != nil {
		return nil, fmt.Errorf("random photo %q: %w", query, err)
	}
	if p.ID == "" {
		return nil, nil
	}
	return c.finalize(ctx, p)
}

// finalize reports the download, which the API guidelines require before an
// image is used, then shapes the result.
func (c *Client) finalize(ctx context.Context, p apiPhoto) (*models.Photo, error) {
	if p.Links.DownloadLocation != "" {
		if err := c.trackDownload(ctx, p.Links.DownloadLocation); err != nil {
			return nil, fmt.Errorf("track download for %s: %w", p.ID, err)
		}
	}
	return &models.Photo{
		ImageURL:         p.URLs.Regular,
		PhotographerName: p.User.Name,
		PhotographerURL:  p.User.Links.HTML,
		PhotoID:          p.ID,
	}, nil
}

func (c *Client) trackDownload(ctx context.Context, downloadLocation string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadLocation, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unsplash download endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unsplash returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CheckImageAccessible probes url with a short HEAD request and reports
// whether it serves a non-trivial image. Used before distributing an article
// to channels that reject dead image links.
func CheckImageAccessible(ctx context.Context, client *http.Client, imageURL string) bool {
	if imageURL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return false
	}
	return resp.ContentLength > 1000
}
