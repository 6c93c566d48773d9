// Package ves implements the registration source client: a coarse
// identity/registration lookup used only as a last-resort fallback, plus the
// road-tax due date.
package ves

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"fleetworks/internal/reconcile/source"
	"fleetworks/pkg/domain"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func NewClient(httpClient *http.Client, baseURL, apiKey string, logger *slog.Logger) (*Client, error) {
	if httpClient == nil {
		return nil, errors.New("http client is required")
	}
	if baseURL == "" || apiKey == "" {
		return nil, errors.New("base url and api key are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey, logger: logger}, nil
}

type lookupRequest struct {
	RegistrationNumber string `json:"registrationNumber"`
}

type lookupResponse struct {
	RegistrationNumber       string `json:"registrationNumber"`
	Make                     string `json:"make"`
	MonthOfFirstRegistration string `json:"monthOfFirstRegistration"`
	TaxDueDate               string `json:"taxDueDate"`
	TaxStatus                string `json:"taxStatus"`
}

// Lookup fetches registration facts for one registration number. Returns
// (nil, nil) on 404: the registration is simply not in the source's records.
func (c *Client) Lookup(ctx context.Context, vrm domain.VRM) (*source.RegistrationRecord, error) {
	payload, err := json.Marshal(lookupRequest{RegistrationNumber: string(vrm)})
	if err != nil {
		return nil, source.NewError(source.NameRegistration, source.ErrorBadData, "encode lookup request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/vehicles", bytes.NewReader(payload))
	if err != nil {
		return nil, source.NewError(source.NameRegistration, source.ErrorOutage, "build lookup request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, source.NewError(source.NameRegistration, source.ErrorTimeout, "lookup timed out", err)
		}
		return nil, source.NewError(source.NameRegistration, source.ErrorOutage, "lookup failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, source.NewError(source.NameRegistration, source.ErrorOutage, "read lookup response", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return decodeRecord(vrm, body)
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, source.NewError(source.NameRegistration, source.ErrorRateLimited, "rate limited by registration source", nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, source.NewError(source.NameRegistration, source.ErrorAuthentication,
			fmt.Sprintf("lookup rejected with %d", resp.StatusCode), nil)
	default:
		return nil, source.NewError(source.NameRegistration, source.ErrorOutage,
			fmt.Sprintf("lookup returned %d", resp.StatusCode), nil)
	}
}

func decodeRecord(vrm domain.VRM, body []byte) (*source.RegistrationRecord, error) {
	var lr lookupResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, source.NewError(source.NameRegistration, source.ErrorBadData, "decode lookup response", err)
	}

	out := &source.RegistrationRecord{
		Registration: vrm,
		Make:         lr.Make,
		TaxStatus:    lr.TaxStatus,
	}
	if lr.MonthOfFirstRegistration != "" {
		// Month precision only, e.g. "2024.03". The day component is set to
		// the first here; consumers choosing a due-date fallback must apply
		// their own month-end bias.
		m, err := time.Parse("2006.01", lr.MonthOfFirstRegistration)
		if err != nil {
			return nil, source.NewError(source.NameRegistration, source.ErrorBadData,
				"unparseable first-registration month: "+lr.MonthOfFirstRegistration, err)
		}
		out.FirstRegistered = &m
	}
	if lr.TaxDueDate != "" {
		d, err := time.Parse("2006-01-02", lr.TaxDueDate)
		if err != nil {
			return nil, source.NewError(source.NameRegistration, source.ErrorBadData,
				"unparseable tax due date: "+lr.TaxDueDate, err)
		}
		out.TaxDueDate = &d
	}
	return out, nil
}
