package graph

import (
	"context"
	"net/http"

	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Session is the capability handle wrapping a live provider client. It exists
// only while the process holds valid credentials and is recreated on
// re-authentication. Operations take it as an explicit parameter so the
// authentication dependency is visible in every signature.
type Session struct {
	auth   Authenticator
	scopes []string
	rest   *restClient
	sdk    *msgraphsdk.GraphServiceClient
}

// NewSession builds a REST-only session.
func NewSession(a Authenticator, scopes []string) *Session {
	s := &Session{auth: a, scopes: scopes}
	s.rest = &restClient{baseURL: DefaultBaseURL, httpClient: http.DefaultClient, token: s.token}
	return s
}

// NewSDKSession builds a session that additionally carries a typed Graph SDK
// client for operations composed from SDK models (event creation).
func NewSDKSession(a *DeviceCodeAuthenticator, scopes []string) (*Session, error) {
	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(a.Credential(), scopes)
	if err != nil {
		return nil, err
	}
	s := NewSession(a, scopes)
	s.sdk = client
	return s, nil
}

func (s *Session) token(ctx context.Context) (string, error) {
	tok, err := s.auth.Token(ctx, s.scopes)
	if err != nil {
		return "", err
	}
	return tok.Token, nil
}
