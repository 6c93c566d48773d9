package mot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fleetworks/internal/reconcile/source"
	"fleetworks/pkg/requestcontext"
)

// expiryMargin treats a token as expired this long before it actually is, so
// a token that is valid at check time cannot lapse mid-call.
const expiryMargin = 5 * time.Minute

// TokenSource performs the client-credentials exchange and caches the result
// in memory. Reads are lock-cheap; refresh is single-flight so concurrent
// callers hitting an expired token trigger one exchange, not a stampede.
type TokenSource struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

func NewTokenSource(httpClient *http.Client, tokenURL, clientID, clientSecret, scope string) (*TokenSource, error) {
	if httpClient == nil {
		return nil, errors.New("http client is required")
	}
	if tokenURL == "" || clientID == "" || clientSecret == "" {
		return nil, errors.New("token url and client credentials are required")
	}
	return &TokenSource{
		httpClient:   httpClient,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
	}, nil
}

// Token returns a currently-valid bearer token, refreshing if needed.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	now := requestcontext.Now(ctx)

	s.mu.RLock()
	token, expiresAt := s.token, s.expiresAt
	s.mu.RUnlock()
	if token != "" && now.Before(expiresAt) {
		return token, nil
	}

	v, err, _ := s.group.Do("refresh", func() (any, error) {
		// Another caller may have refreshed while this one waited.
		s.mu.RLock()
		token, expiresAt := s.token, s.expiresAt
		s.mu.RUnlock()
		if token != "" && now.Before(expiresAt) {
			return token, nil
		}
		return s.refresh(ctx, now)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *TokenSource) refresh(ctx context.Context, now time.Time) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)
	if s.scope != "" {
		form.Set("scope", s.scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", source.NewError(source.NameTestHistory, source.ErrorAuthentication, "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", source.NewError(source.NameTestHistory, source.ErrorTimeout, "token exchange timed out", err)
		}
		return "", source.NewError(source.NameTestHistory, source.ErrorAuthentication, "token exchange failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", source.NewError(source.NameTestHistory, source.ErrorAuthentication, "read token response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", source.NewError(source.NameTestHistory, source.ErrorAuthentication,
			fmt.Sprintf("token endpoint returned %d", resp.StatusCode), nil)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", source.NewError(source.NameTestHistory, source.ErrorAuthentication, "decode token response", err)
	}
	if tr.AccessToken == "" || tr.ExpiresIn <= 0 {
		return "", source.NewError(source.NameTestHistory, source.ErrorAuthentication, "token response missing token or expiry", nil)
	}

	expiresAt := now.Add(time.Duration(tr.ExpiresIn) * time.Second).Add(-expiryMargin)

	s.mu.Lock()
	s.token = tr.AccessToken
	s.expiresAt = expiresAt
	s.mu.Unlock()

	return tr.AccessToken, nil
}
