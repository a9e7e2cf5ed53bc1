// Package frontegg implements the vendor API operations: token
// acquisition, email resolution and the lock and delete user actions.
package frontegg

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/gaetanof/frontegg-bulk-user-actions/internal/client"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/model"
)

// AuthError reports a vendor authentication response without a usable
// token. It aborts the whole run.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("failed to authenticate with Frontegg (status %d): %s", e.StatusCode, e.Body)
}

// Client wraps the throttled HTTP client with the Frontegg endpoints
// for one region and credential set. The bearer token is cached for the
// lifetime of the client. Not safe for concurrent use; runs are
// sequential.
type Client struct {
	api          *client.Client
	creds        model.Credentials
	gateway      string
	identityBase string
	logger       *zap.Logger
	bearerToken  string
}

// NewClient creates a Frontegg client for one region.
func NewClient(region model.Region, creds model.Credentials, api *client.Client, logger *zap.Logger) *Client {
	return NewClientWithGateway(region.GatewayURL(), creds, api, logger)
}

// NewClientWithGateway creates a client against an explicit gateway
// base URL, deriving the identity base from it the same way as for the
// public regions. Used for custom domains and tests.
func NewClientWithGateway(gatewayURL string, creds model.Credentials, api *client.Client, logger *zap.Logger) *Client {
	return &Client{
		api:          api,
		creds:        creds,
		gateway:      gatewayURL,
		identityBase: gatewayURL + "/identity",
		logger:       logger,
	}
}

// Authenticate exchanges the vendor credentials for a bearer token and
// caches it. Any response without a token field is an *AuthError.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	c.logger.Info("authenticating with Frontegg")

	body := map[string]interface{}{
		"clientId": c.creds.ClientID,
		"secret":   c.creds.Secret,
	}
	resp, err := c.api.Call(ctx, http.MethodPost, c.gateway+"/auth/vendor/", body, nil)
	if err != nil {
		return "", err
	}

	var token string
	if resp.JSON != nil {
		token, _ = resp.JSON["token"].(string)
	}
	if token == "" {
		return "", &AuthError{StatusCode: resp.StatusCode, Body: resp.Raw}
	}

	c.bearerToken = token
	return token, nil
}

// authHeaders returns the bearer header, authenticating on first use.
func (c *Client) authHeaders(ctx context.Context) (map[string]string, error) {
	if c.bearerToken == "" {
		if _, err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}
	return map[string]string{"authorization": "Bearer " + c.bearerToken}, nil
}

// ResolveUserID turns an identifier into a user ID. Identifiers that
// already look like user IDs pass through without a network call;
// everything else goes through the email lookup. The second return is
// false when no user could be resolved.
func (c *Client) ResolveUserID(ctx context.Context, identifier string) (string, bool) {
	if model.IsUUID(identifier) {
		return identifier, true
	}
	return c.resolveByEmail(ctx, identifier)
}

func (c *Client) resolveByEmail(ctx context.Context, email string) (string, bool) {
	headers, err := c.authHeaders(ctx)
	if err != nil {
		c.logger.Error("could not resolve user by email",
			zap.String("email", email),
			zap.Error(err),
		)
		return "", false
	}

	q := url.Values{"email": {email}}
	lookupURL := c.identityBase + "/resources/users/v1/email?" + q.Encode()
	resp, err := c.api.Call(ctx, http.MethodGet, lookupURL, nil, headers)
	if err != nil {
		c.logger.Error("could not resolve user by email",
			zap.String("email", email),
			zap.Error(err),
		)
		return "", false
	}

	if resp.StatusCode == http.StatusOK && resp.JSON != nil {
		if id, ok := resp.JSON["id"].(string); ok && model.IsUUID(id) {
			return id, true
		}
	}

	c.logger.Error("could not resolve user by email",
		zap.String("email", email),
		zap.Int("status", resp.StatusCode),
		zap.String("body", resp.Raw),
	)
	return "", false
}

// LockUser blocks sign-in for the given user ID. Returns false when the
// provider rejected the call.
func (c *Client) LockUser(ctx context.Context, userID string) bool {
	headers, err := c.authHeaders(ctx)
	if err != nil {
		c.logger.Error("lock user failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}

	lockURL := fmt.Sprintf("%s/resources/users/v1/%s/lock", c.identityBase, userID)
	resp, err := c.api.Call(ctx, http.MethodPost, lockURL, map[string]interface{}{}, headers)
	if err != nil {
		c.logger.Error("lock user failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return true
	}
	c.logger.Error("lock user failed",
		zap.String("user_id", userID),
		zap.Int("status", resp.StatusCode),
		zap.String("body", resp.Raw),
	)
	return false
}

// DeleteUser removes the given user. With a configured tenant ID the
// delete is scoped to that tenant via the frontegg-tenant-id header;
// otherwise the user is removed globally.
func (c *Client) DeleteUser(ctx context.Context, userID string) bool {
	headers, err := c.authHeaders(ctx)
	if err != nil {
		c.logger.Error("delete user failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	if c.creds.TenantID != "" {
		headers["frontegg-tenant-id"] = c.creds.TenantID
	}

	deleteURL := fmt.Sprintf("%s/resources/users/v1/%s", c.identityBase, userID)
	resp, err := c.api.Call(ctx, http.MethodDelete, deleteURL, nil, headers)
	if err != nil {
		c.logger.Error("delete user failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return true
	}
	c.logger.Error("delete user failed",
		zap.String("user_id", userID),
		zap.Int("status", resp.StatusCode),
		zap.String("body", resp.Raw),
	)
	return false
}
