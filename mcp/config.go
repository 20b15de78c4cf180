package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/scy"
	"github.com/viant/scy/cred"
)

// DefaultScopes are the Graph delegated scopes the server requests.
var DefaultScopes = []string{"Mail.ReadWrite", "Mail.Send", "Calendars.ReadWrite", "User.Read"}

// Config controls the Outlook MCP server behaviour and authentication.
type Config struct {
	// Azure AD application (client) ID for Microsoft Graph.
	ClientID string `json:"clientID"`
	// Tenant ID or "organizations"/"common".
	TenantID string `json:"tenantID"`
	// Scopes requested for the Graph token; defaults to DefaultScopes.
	Scopes []string `json:"scopes,omitempty"`

	// RecordURL is the afs URL where the authentication record is persisted,
	// e.g. file:///home/user/.config/outlook-mcp/auth_record.json or
	// mem://localhost/outlook-mcp/auth_record.json.
	RecordURL string `json:"recordURL,omitempty"`
	// CacheName names the persistent azidentity token cache.
	CacheName string `json:"cacheName,omitempty"`

	// CallbackBaseURL is used to generate absolute URLs for the device-code
	// login pages. Example: http://localhost:7788
	CallbackBaseURL string `json:"callbackBaseURL,omitempty"`

	// If true, return tool results in the structured data field instead of text.
	UseData bool `json:"useData,omitempty"`

	// AzureRef optionally points to an Azure OAuth2 client config stored as a
	// scy resource, using EncodedResource syntax "<URL>|<kmsKey>". The
	// referenced content should unmarshal into github.com/viant/scy/cred.Azure.
	AzureRef scy.EncodedResource `json:"azureRef,omitempty"`
}

// Init resolves the optional scy secret reference and applies defaults; it
// must be called before the config is used.
func (c *Config) Init(ctx context.Context) error {
	if c.AzureRef != "" {
		res := c.AzureRef.Decode(ctx, cred.Azure{})
		sec, err := scy.New().Load(ctx, res)
		if err != nil {
			return fmt.Errorf("failed to load azure secret reference: %w", err)
		}
		az, ok := sec.Target.(*cred.Azure)
		if !ok {
			return fmt.Errorf("azure secret reference is not of type cred.Azure")
		}
		if c.ClientID == "" {
			c.ClientID = az.ClientID
		}
		if c.TenantID == "" {
			c.TenantID = az.TenantID
		}
	}
	if c.TenantID == "" {
		c.TenantID = "organizations"
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}
	if c.RecordURL == "" {
		c.RecordURL = "mem://localhost/outlook-mcp/auth_record.json"
	}
	if c.CacheName == "" {
		c.CacheName = "outlook-mcp"
	}
	return c.Validate()
}

// Validate checks the settings without which no Graph call can succeed.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("clientID is required (set --client-id, AZURE_CLIENT_ID or an azure secret reference)")
	}
	if len(c.Scopes) == 0 {
		return fmt.Errorf("at least one Graph scope is required")
	}
	return nil
}

// ParseScopes splits a space-separated scope list as carried by
// AZURE_GRAPH_SCOPES.
func ParseScopes(raw string) []string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
