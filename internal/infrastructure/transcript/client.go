// Package transcript fetches YouTube captions through the timedtext endpoint
// and adapts them to the transcript source port.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/akozlenkov/videoqa/internal/core/domain"
)

const defaultBaseURL = "https://www.youtube.com"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch tries the requested languages in order and returns the first transcript
// found. A video with no captions in any language is ErrNotFound.
func (c *Client) Fetch(ctx context.Context, videoID string, languages []string) (*domain.Transcript, error) {
	if len(languages) == 0 {
		languages = []string{"en"}
	}

	for _, lang := range languages {
		transcript, err := c.fetchLanguage(ctx, videoID, lang)
		if err != nil {
			if domain.IsKind(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		return transcript, nil
	}
	return nil, domain.WrapError(domain.ErrNotFound, "fetch transcript",
		fmt.Errorf("no captions for video %s in languages %v", videoID, languages))
}

func (c *Client) fetchLanguage(ctx context.Context, videoID, lang string) (*domain.Transcript, error) {
	query := url.Values{}
	query.Set("v", videoID)
	query.Set("lang", lang)
	query.Set("fmt", "json3")
	endpoint := c.baseURL + "/api/timedtext?" + query.Encode()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create transcript request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) {
				return fmt.Errorf("transcript request: %w", err)
			}
			return backoff.Permanent(fmt.Errorf("transcript request: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(domain.WrapError(domain.ErrNotFound, "fetch transcript",
				fmt.Errorf("no %s captions for video %s", lang, videoID)))
		}
		if isRetryableStatus(resp.StatusCode) {
			return fmt.Errorf("transcript status: %s", resp.Status)
		}
		if resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("transcript status: %s", resp.Status))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read transcript body: %w", err)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}

	// The endpoint answers 200 with an empty body when the track is missing.
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, domain.WrapError(domain.ErrNotFound, "fetch transcript",
			fmt.Errorf("empty %s caption track for video %s", lang, videoID))
	}
	return parseTimedText(videoID, lang, body)
}

type timedTextResponse struct {
	Events []struct {
		StartMs    int64 `json:"tStartMs"`
		DurationMs int64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func parseTimedText(videoID, lang string, body []byte) (*domain.Transcript, error) {
	var resp timedTextResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode transcript response: %w", err)
	}

	segments := make([]domain.TranscriptSegment, 0, len(resp.Events))
	texts := make([]string, 0, len(resp.Events))
	for _, event := range resp.Events {
		var sb strings.Builder
		for _, seg := range event.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		segments = append(segments, domain.TranscriptSegment{
			Text:     text,
			Start:    float64(event.StartMs) / 1000.0,
			Duration: float64(event.DurationMs) / 1000.0,
		})
		texts = append(texts, text)
	}

	if len(segments) == 0 {
		return nil, domain.WrapError(domain.ErrNotFound, "fetch transcript",
			fmt.Errorf("caption track for video %s has no text", videoID))
	}
	return &domain.Transcript{
		VideoID:  videoID,
		Text:     strings.Join(texts, " "),
		Language: lang,
		Segments: segments,
	}, nil
}

func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
