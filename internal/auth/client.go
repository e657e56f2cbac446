// Package auth is a thin client for the auth gateway: the device gate that
// admits a new installation, and credential login. Tokens are treated as
// opaque strings except for the subject claim, which identifies the user.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/wellsfam/tripsync/internal/domain"
)

// Session is the result of a successful login.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Client talks to the auth gateway over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client for the gateway at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// PassGate exchanges the family gate code for a device token. The token is
// stored by the caller and presented on every subsequent login from this
// device. A wrong code fails with ErrRejected; the body's error text is not
// surfaced beyond that.
func (c *Client) PassGate(ctx context.Context, code, deviceID string) (string, error) {
	var out struct {
		DeviceToken string `json:"device_token"`
	}
	err := c.post(ctx, "/auth/gate", map[string]string{
		"code":      code,
		"device_id": deviceID,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("auth.Client.PassGate: %w", err)
	}
	if out.DeviceToken == "" {
		return "", fmt.Errorf("auth.Client.PassGate: %w: empty device token", domain.ErrUnavailable)
	}
	return out.DeviceToken, nil
}

// Login authenticates with username and password from an admitted device.
func (c *Client) Login(ctx context.Context, username, password, deviceID, deviceToken string) (Session, error) {
	var out Session
	err := c.post(ctx, "/auth/login", map[string]string{
		"username":     username,
		"password":     password,
		"device_id":    deviceID,
		"device_token": deviceToken,
	}, &out)
	if err != nil {
		return Session{}, fmt.Errorf("auth.Client.Login: %w", err)
	}
	if out.AccessToken == "" {
		return Session{}, fmt.Errorf("auth.Client.Login: %w: empty access token", domain.ErrUnavailable)
	}
	return out, nil
}

// UserID extracts the user id from an access token's subject claim.
// The signature is not verified here; the backend is the verifier and
// this client only needs the identity to key its local state.
func UserID(accessToken string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return uuid.Nil, fmt.Errorf("auth.UserID: %w: %w", domain.ErrValidation, err)
	}
	if claims.Subject == "" {
		return uuid.Nil, fmt.Errorf("auth.UserID: %w: token has no subject", domain.ErrValidation)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("auth.UserID: %w: subject is not a uuid", domain.ErrValidation)
	}
	return id, nil
}

// post sends a JSON request and decodes a JSON response, retrying transient
// failures with fibonacci backoff. 4xx responses map to ErrRejected and are
// not retried; network errors and 5xx map to ErrUnavailable and are.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(300*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %w", domain.ErrUnavailable, err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("%w: gateway returned %d", domain.ErrUnavailable, resp.StatusCode))
		case resp.StatusCode >= 400:
			return fmt.Errorf("%w: gateway returned %d", domain.ErrRejected, resp.StatusCode)
		}

		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: empty response", domain.ErrUnavailable)
			}
			return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
		}
		return nil
	})
}
