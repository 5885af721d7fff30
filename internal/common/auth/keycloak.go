// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"aquacare/internal/common/errors"
)

// IdentityProvider is the subset of the identity provider the handlers use.
// The dispatch job only reads the email field of the returned account.
type IdentityProvider interface {
	GetUser(ctx context.Context, userID string) (*Account, error)
	ListUsersByRole(ctx context.Context, role string) ([]Account, error)
	DeleteUser(ctx context.Context, userID string) error
}

// KeycloakClient talks to the Keycloak admin REST API.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Account represents a user account in Keycloak.
type Account struct {
	ID            string `json:"id,omitempty"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Username      string `json:"username"`
	Enabled       bool   `json:"enabled"`
	EmailVerified bool   `json:"emailVerified"`
}

// TokenResponse holds the response from Keycloak's token endpoint.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
}

// NewKeycloakClient creates a new instance of KeycloakClient.
func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// getAccessToken returns a valid access token, fetching a fresh one through
// the client credentials flow when the cached one has expired. The client is
// shared across handlers, so the cache is guarded for concurrent use.
func (k *KeycloakClient) getAccessToken(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.tokenExpiry.After(time.Now()) && k.accessToken != "" {
		return k.accessToken, nil
	}

	tokenURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("keycloak token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	k.accessToken = tokenResp.AccessToken
	k.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return k.accessToken, nil
}

// GetUser retrieves an account by its unique ID.
func (k *KeycloakClient) GetUser(ctx context.Context, userID string) (*Account, error) {
	token, err := k.getAccessToken(ctx)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAuthError,
			Message:   "Failed to authenticate with Keycloak",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}

	userURL := fmt.Sprintf("%s/admin/realms/%s/users/%s", k.baseURL, k.realm, userID)

	req, err := http.NewRequestWithContext(ctx, "GET", userURL, nil)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAPIError,
			Message:   "Failed to create get user request",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAPIError,
			Message:   "Failed to send get user request",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NewResourceNotFoundError(errors.ErrCodeUserNotFound,
			fmt.Sprintf("no account with id: %s", userID))
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAPIError,
			Message:   "Keycloak API error during user retrieval",
			Details:   string(body),
			Retryable: isTransientHTTPError(resp.StatusCode),
			Timestamp: time.Now().UTC(),
		}
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAPIError,
			Message:   "Failed to decode account details",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	return &account, nil
}

// ListUsersByRole retrieves all accounts carrying the given realm role.
func (k *KeycloakClient) ListUsersByRole(ctx context.Context, role string) ([]Account, error) {
	token, err := k.getAccessToken(ctx)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAuthError,
			Message:   "Failed to authenticate with Keycloak",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}

	roleURL := fmt.Sprintf("%s/admin/realms/%s/roles/%s/users", k.baseURL, k.realm, url.PathEscape(role))

	req, err := http.NewRequestWithContext(ctx, "GET", roleURL, nil)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAPIError,
			Message:   "Failed to create role members request",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAPIError,
			Message:   "Failed to send role members request",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAPIError,
			Message:   "Keycloak API error during role members retrieval",
			Details:   string(body),
			Retryable: isTransientHTTPError(resp.StatusCode),
			Timestamp: time.Now().UTC(),
		}
	}

	var accounts []Account
	if err := json.NewDecoder(resp.Body).Decode(&accounts); err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAPIError,
			Message:   "Failed to decode role members",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	return accounts, nil
}

// DeleteUser deletes an account by its unique ID.
func (k *KeycloakClient) DeleteUser(ctx context.Context, userID string) error {
	token, err := k.getAccessToken(ctx)
	if err != nil {
		return &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAuthError,
			Message:   "Failed to authenticate with Keycloak",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}

	userURL := fmt.Sprintf("%s/admin/realms/%s/users/%s", k.baseURL, k.realm, userID)

	req, err := http.NewRequestWithContext(ctx, "DELETE", userURL, nil)
	if err != nil {
		return &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAPIError,
			Message:   "Failed to create delete user request",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAPIError,
			Message:   "Failed to send delete user request",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	defer resp.Body.Close()

	// 204 No Content is expected on success
	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return &errors.StandardError{
			Code:      errors.ErrCodeKeycloakAPIError,
			Message:   "Keycloak API error during user deletion",
			Details:   string(body),
			Retryable: isTransientHTTPError(resp.StatusCode),
			Timestamp: time.Now().UTC(),
		}
	}

	return nil
}

// isTransientHTTPError returns true if the HTTP status code indicates a
// potentially transient error.
func isTransientHTTPError(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
