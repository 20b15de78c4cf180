package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// staticAuth satisfies Authenticator with a fixed token; used by session
// tests that never hit the interactive path.
type staticAuth struct{}

func (staticAuth) Token(context.Context, []string) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "TOK"}, nil
}

func (staticAuth) Authenticate(context.Context, []string) (AuthRecord, error) {
	return AuthRecord{}, nil
}

func newTestSession(t *testing.T, handler http.Handler) (*Session, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	sess := NewSession(staticAuth{}, []string{"Mail.Read"})
	sess.rest.baseURL = ts.URL
	return sess, ts
}

func testRecordURL(t *testing.T) string {
	t.Helper()
	return "mem://localhost/outlook-mcp/" + t.Name() + "/auth_record.json"
}
