package searchapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// APIKeyHeader is the header carrying an admin or query key.
const APIKeyHeader = "api-key"

// SearchScope is the Entra ID scope for the search data and control planes.
const SearchScope = "https://search.azure.com/.default"

// Authenticator decorates an outgoing request with credentials.
type Authenticator interface {
	Authorize(ctx context.Context, req *http.Request) error
	// Scheme names the strategy for logs.
	Scheme() string
}

// APIKeyAuth sends a static api-key header.
type APIKeyAuth struct {
	key string
}

// NewAPIKeyAuth returns an Authenticator for an admin key.
func NewAPIKeyAuth(key string) (*APIKeyAuth, error) {
	if key == "" {
		return nil, errors.New("api key is empty")
	}
	return &APIKeyAuth{key: key}, nil
}

// Authorize sets the api-key header.
func (a *APIKeyAuth) Authorize(_ context.Context, req *http.Request) error {
	req.Header.Set(APIKeyHeader, a.key)
	return nil
}

// Scheme implements Authenticator.
func (a *APIKeyAuth) Scheme() string { return "api-key" }

// TokenAuth sends an Entra ID bearer token obtained from an azcore credential.
// azidentity credentials cache and refresh tokens themselves, so every request
// asks the credential.
type TokenAuth struct {
	cred   azcore.TokenCredential
	scopes []string
}

// NewTokenAuth wraps cred. Tokens are requested for SearchScope.
func NewTokenAuth(cred azcore.TokenCredential) *TokenAuth {
	return &TokenAuth{cred: cred, scopes: []string{SearchScope}}
}

// EntraCredentialConfig selects the credential used by NewEntraAuth.
type EntraCredentialConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// NewEntraAuth builds a TokenAuth from a service principal secret when all
// three values are set, and from the default credential chain otherwise.
func NewEntraAuth(cfg EntraCredentialConfig) (*TokenAuth, error) {
	var (
		cred azcore.TokenCredential
		err  error
	)

	if cfg.TenantID != "" && cfg.ClientID != "" && cfg.ClientSecret != "" {
		cred, err = azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("client-secret credential: %w", err)
		}
	} else {
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("default azure credential: %w", err)
		}
	}

	return NewTokenAuth(cred), nil
}

// Authorize sets Authorization: Bearer.
func (a *TokenAuth) Authorize(ctx context.Context, req *http.Request) error {
	tok, err := a.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: a.scopes})
	if err != nil {
		return fmt.Errorf("acquire entra token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	return nil
}

// Scheme implements Authenticator.
func (a *TokenAuth) Scheme() string { return "entra-id" }
