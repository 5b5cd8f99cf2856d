// Package shortvideo adapts the third-party short-form-video API. Lookups
// authenticate with a key selected round-robin from a pool, advancing to the
// next key on a rate-limit response.
package shortvideo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/avolkov/tunegrab/internal/types"
)

const requestTimeout = 30 * time.Second

var postIDRE = regexp.MustCompile(`/(video|photo)/(\d+)`)

type Adapter struct {
	videoEndpoint string
	photoEndpoint string
	client        *http.Client
	// resolver never follows redirects: the first Location header carries
	// the canonical post URL.
	resolver *http.Client

	mu   sync.Mutex
	keys []string
	next int
}

func New(videoEndpoint, photoEndpoint string, keys []string) *Adapter {
	return &Adapter{
		videoEndpoint: videoEndpoint,
		photoEndpoint: photoEndpoint,
		keys:          keys,
		client:        &http.Client{Timeout: requestTimeout},
		resolver: &http.Client{
			Timeout: requestTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Lookup resolves a (possibly shortened) post URL to its media.
func (a *Adapter) Lookup(ctx context.Context, rawURL string) (types.ShortVideoPost, error) {
	cleanURL, _, _ := strings.Cut(rawURL, "?")

	finalURL, postID, err := a.resolve(ctx, cleanURL)
	if err != nil {
		return types.ShortVideoPost{}, err
	}

	if strings.Contains(finalURL, "/photo/") {
		return a.lookupPhoto(ctx, postID)
	}
	return a.lookupVideo(ctx, cleanURL, postID)
}

// resolve follows at most one redirect to extract the numeric post id.
func (a *Adapter) resolve(ctx context.Context, shortURL string) (finalURL, postID string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := a.resolver.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: resolve short url: %v", types.ErrUpstreamFailure, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	finalURL = resp.Header.Get("Location")
	if finalURL == "" {
		finalURL = shortURL
	}
	if m := postIDRE.FindStringSubmatch(finalURL); m != nil {
		postID = m[2]
	}
	return finalURL, postID, nil
}

type videoResponse struct {
	Play   string `json:"play"`
	Title  string `json:"title"`
	Author struct {
		Nickname string `json:"nickname"`
	} `json:"author"`
}

func (a *Adapter) lookupVideo(ctx context.Context, postURL, postID string) (types.ShortVideoPost, error) {
	var out videoResponse
	if err := a.getWithKeyPool(ctx, a.videoEndpoint, url.Values{"url": {postURL}}, &out); err != nil {
		return types.ShortVideoPost{}, err
	}
	if out.Play == "" {
		return types.ShortVideoPost{}, fmt.Errorf("%w: video lookup returned no playable url", types.ErrUpstreamFailure)
	}
	return types.ShortVideoPost{
		ID:       postID,
		Author:   out.Author.Nickname,
		Caption:  out.Title,
		VideoURL: out.Play,
	}, nil
}

type photoResponse struct {
	ItemInfo struct {
		ItemStruct struct {
			Author struct {
				Nickname string `json:"nickname"`
			} `json:"author"`
			Desc      string `json:"desc"`
			ImagePost struct {
				Images []struct {
					ImageURL struct {
						URLList []string `json:"urlList"`
					} `json:"imageURL"`
				} `json:"images"`
			} `json:"imagePost"`
		} `json:"itemStruct"`
	} `json:"itemInfo"`
}

func (a *Adapter) lookupPhoto(ctx context.Context, postID string) (types.ShortVideoPost, error) {
	var out photoResponse
	if err := a.getWithKeyPool(ctx, a.photoEndpoint, url.Values{"postId": {postID}}, &out); err != nil {
		return types.ShortVideoPost{}, err
	}

	item := out.ItemInfo.ItemStruct
	post := types.ShortVideoPost{
		ID:      postID,
		Author:  item.Author.Nickname,
		Caption: item.Desc,
	}
	for _, img := range item.ImagePost.Images {
		if len(img.ImageURL.URLList) > 0 {
			post.PhotoURLs = append(post.PhotoURLs, img.ImageURL.URLList[0])
		}
	}
	if len(post.PhotoURLs) == 0 {
		return types.ShortVideoPost{}, fmt.Errorf("%w: photo lookup returned no images", types.ErrUpstreamFailure)
	}
	return post, nil
}

// getWithKeyPool performs the lookup with key rotation: a rate-limited key
// advances the pool cursor and the call is retried with the next key, at
// most len(pool) attempts in total.
func (a *Adapter) getWithKeyPool(ctx context.Context, endpoint string, params url.Values, out any) error {
	if len(a.keys) == 0 {
		return fmt.Errorf("%w: empty key pool", types.ErrRateLimitExhausted)
	}

	for attempts := 0; attempts < len(a.keys); attempts++ {
		key := a.currentKey()

		limited, err := a.getOnce(ctx, endpoint, params, key, out)
		if err != nil {
			return err
		}
		if !limited {
			return nil
		}
		a.advanceKey()
	}
	return fmt.Errorf("%w: %d keys tried", types.ErrRateLimitExhausted, len(a.keys))
}

// getOnce reports limited=true when the response indicates the key hit its
// rate limit, so the caller can rotate and retry.
func (a *Adapter) getOnce(ctx context.Context, endpoint string, params url.Values, key string, out any) (limited bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("X-PrimeAPI-Key", key)

	resp, err := a.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: lookup: %v", types.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, fmt.Errorf("read lookup response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || limitedBody(body) {
		return true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("%w: lookup status %d: %s", types.ErrUpstreamFailure, resp.StatusCode, strings.TrimSpace(string(body[:min(len(body), 200)])))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("decode lookup response: %w", err)
	}
	return false, nil
}

// limitedBody catches providers that report quota exhaustion with a 200.
func limitedBody(body []byte) bool {
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(probe.Error), "limit")
}

func (a *Adapter) currentKey() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keys[a.next]
}

func (a *Adapter) advanceKey() {
	a.mu.Lock()
	a.next = (a.next + 1) % len(a.keys)
	a.mu.Unlock()
}
