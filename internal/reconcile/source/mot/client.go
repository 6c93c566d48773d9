// Package mot implements the test-history source client: OAuth2
// client-credentials authentication plus an authenticated lookup of completed
// periodic tests by registration.
package mot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"fleetworks/internal/reconcile/source"
	"fleetworks/pkg/domain"
)

// Client fetches vehicle test history. All failures come back as *source.Error
// with a normalized category; a 404 is not a failure, it means the source has
// no record of the asset.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	tokens     *TokenSource
	logger     *slog.Logger
}

func NewClient(httpClient *http.Client, baseURL, apiKey string, tokens *TokenSource, logger *slog.Logger) (*Client, error) {
	if httpClient == nil || tokens == nil {
		return nil, errors.New("http client and token source are required")
	}
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey, tokens: tokens, logger: logger}, nil
}

// Wire shapes. Dates arrive in mixed precision: test timestamps are RFC 3339,
// due and expiry dates are date-only.
type vehicleResponse struct {
	Registration   string         `json:"registration"`
	Make           string         `json:"make"`
	Model          string         `json:"model"`
	FuelType       string         `json:"fuelType"`
	FirstUsedDate  string         `json:"firstUsedDate"`
	MotTestDueDate string         `json:"motTestDueDate"`
	MotTests       []testResponse `json:"motTests"`
}

type testResponse struct {
	CompletedDate string           `json:"completedDate"`
	TestResult    string           `json:"testResult"`
	ExpiryDate    string           `json:"expiryDate"`
	OdometerValue string           `json:"odometerValue"`
	OdometerUnit  string           `json:"odometerUnit"`
	MotTestNumber string           `json:"motTestNumber"`
	Defects       []defectResponse `json:"defects"`
}

type defectResponse struct {
	Text      string `json:"text"`
	Type      string `json:"type"`
	Dangerous bool   `json:"dangerous"`
}

// Lookup fetches the test history for one registration. Returns (nil, nil)
// when the source answers 404: the asset simply is not in its records.
func (c *Client) Lookup(ctx context.Context, vrm domain.VRM) (*source.VehicleHistory, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/registration/" + string(vrm)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, source.NewError(source.NameTestHistory, source.ErrorOutage, "build lookup request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, source.NewError(source.NameTestHistory, source.ErrorTimeout, "lookup timed out", err)
		}
		return nil, source.NewError(source.NameTestHistory, source.ErrorOutage, "lookup failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, source.NewError(source.NameTestHistory, source.ErrorOutage, "read lookup response", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return decodeHistory(vrm, body)
	case resp.StatusCode == http.StatusNotFound:
		// No history is an answer, not a failure.
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		se := source.NewError(source.NameTestHistory, source.ErrorRateLimited,
			"rate limited by test-history source", nil)
		se.RetryAfter = retryAfter(resp.Header)
		return nil, se
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, source.NewError(source.NameTestHistory, source.ErrorAuthentication,
			fmt.Sprintf("lookup rejected with %d", resp.StatusCode), nil)
	default:
		return nil, source.NewError(source.NameTestHistory, source.ErrorOutage,
			fmt.Sprintf("lookup returned %d", resp.StatusCode), nil)
	}
}

func retryAfter(h http.Header) time.Duration {
	seconds, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func decodeHistory(vrm domain.VRM, body []byte) (*source.VehicleHistory, error) {
	var vr vehicleResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, source.NewError(source.NameTestHistory, source.ErrorBadData, "decode lookup response", err)
	}

	out := &source.VehicleHistory{
		Registration: vrm,
		Make:         vr.Make,
		Model:        vr.Model,
		FuelType:     vr.FuelType,
	}
	if d, ok := parseDay(vr.FirstUsedDate); ok {
		out.FirstUsedDate = &d
	}
	if d, ok := parseDay(vr.MotTestDueDate); ok {
		out.FirstTestDue = &d
	}

	for _, tr := range vr.MotTests {
		completed, ok := parseStamp(tr.CompletedDate)
		if !ok {
			return nil, source.NewError(source.NameTestHistory, source.ErrorBadData,
				"test record has unparseable completion date: "+tr.CompletedDate, nil)
		}
		rec := source.TestRecord{
			CompletedDate: completed,
			Result:        source.TestResult(tr.TestResult),
			OdometerUnit:  tr.OdometerUnit,
			TestNumber:    tr.MotTestNumber,
		}
		if d, ok := parseDay(tr.ExpiryDate); ok {
			rec.ExpiryDate = &d
		}
		if v, err := strconv.ParseInt(tr.OdometerValue, 10, 64); err == nil {
			rec.OdometerValue = v
		}
		for _, d := range tr.Defects {
			rec.Defects = append(rec.Defects, source.Defect{Text: d.Text, Type: d.Type, Dangerous: d.Dangerous})
		}
		out.Tests = append(out.Tests, rec)
	}

	// Newest first. The sort is stable so records sharing a timestamp keep
	// their source order and repeated lookups stay deterministic.
	sort.SliceStable(out.Tests, func(i, j int) bool {
		return out.Tests[i].CompletedDate.After(out.Tests[j].CompletedDate)
	})
	return out, nil
}

func parseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func parseStamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
