package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	requestTimeout  = 10 * time.Second
	maxResponseSize = 64 * 1024
)

// ErrInvalidCredentials is returned when the legacy endpoint rejects the
// username/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LegacyClient delegates authentication to the legacy EtternaOnline login
// endpoint. It is used when no account store is configured, or for accounts
// the store does not know when self-service registration is disabled.
type LegacyClient struct {
	loginURL   string
	httpClient *http.Client
}

// NewLegacyClient creates a client for the given login endpoint.
func NewLegacyClient(loginURL string) *LegacyClient {
	return &LegacyClient{
		loginURL: loginURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type legacyResponse struct {
	Success string `json:"success"`
}

// Authenticate posts the credentials to the legacy endpoint. It returns nil
// on success, ErrInvalidCredentials on rejection, and a transport error
// otherwise.
func (c *LegacyClient) Authenticate(ctx context.Context, user, pass string) error {
	form := url.Values{}
	form.Set("username", user)
	form.Set("password", pass)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("legacy auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrInvalidCredentials
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("legacy auth response read failed: %w", err)
	}

	var parsed legacyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("legacy auth response parse failed: %w", err)
	}
	if parsed.Success != "Valid" {
		return ErrInvalidCredentials
	}
	return nil
}
