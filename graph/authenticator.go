package graph

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity/cache"
)

// AuthRecord aliases the azidentity authentication record persisted by
// RecordStore.
type AuthRecord = azidentity.AuthenticationRecord

// Authenticator abstracts the device-code credential: Token is the silent
// path, Authenticate the interactive one.
type Authenticator interface {
	Token(ctx context.Context, scopes []string) (azcore.AccessToken, error)
	Authenticate(ctx context.Context, scopes []string) (AuthRecord, error)
}

// DeviceCodeAuthenticator wraps an azidentity DeviceCodeCredential with a
// persistent token cache. The device-code prompt message is routed to the
// prompt sink instead of the SDK printing to stdout.
type DeviceCodeAuthenticator struct {
	cred *azidentity.DeviceCodeCredential
}

func NewDeviceCodeAuthenticator(clientID, tenantID, cacheName string, rec *AuthRecord, prompt func(string)) (*DeviceCodeAuthenticator, error) {
	aCache, err := cache.New(&cache.Options{Name: cacheName})
	if err != nil {
		return nil, err
	}
	opts := &azidentity.DeviceCodeCredentialOptions{
		TenantID: tenantID,
		ClientID: clientID,
		Cache:    aCache,
		UserPrompt: func(_ context.Context, m azidentity.DeviceCodeMessage) error {
			if prompt != nil {
				prompt(m.Message)
			}
			return nil
		},
	}
	if rec != nil {
		opts.AuthenticationRecord = *rec
	}
	cred, err := azidentity.NewDeviceCodeCredential(opts)
	if err != nil {
		return nil, err
	}
	return &DeviceCodeAuthenticator{cred: cred}, nil
}

func (a *DeviceCodeAuthenticator) Token(ctx context.Context, scopes []string) (azcore.AccessToken, error) {
	return a.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: scopes})
}

func (a *DeviceCodeAuthenticator) Authenticate(ctx context.Context, scopes []string) (AuthRecord, error) {
	return a.cred.Authenticate(ctx, &policy.TokenRequestOptions{Scopes: scopes})
}

// Credential exposes the underlying token credential for SDK client
// construction.
func (a *DeviceCodeAuthenticator) Credential() azcore.TokenCredential { return a.cred }

func outlookDebug() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("OUTLOOK_MCP_DEBUG")))
	return v != "" && v != "0" && v != "false"
}

func debugf(format string, args ...any) {
	if outlookDebug() {
		log.Printf("[outlook] "+format, args...)
	}
}
