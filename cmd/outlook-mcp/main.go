package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"github.com/viant/mcp-protocol/authorization"
	oauthmeta "github.com/viant/mcp-protocol/oauth2/meta"
	"github.com/viant/mcp-protocol/schema"
	mcpsrv "github.com/viant/mcp/server"
	serverauth "github.com/viant/mcp/server/auth"
	"github.com/viant/scy"
	"github.com/viant/scy/auth/flow"
	"github.com/viant/scy/cred"
	_ "github.com/viant/scy/kms/blowfish"

	"github.com/viant/outlook-mcp/mcp"
)

// Options defines CLI flags for the Outlook MCP server.
type Options struct {
	HTTPAddr     string `short:"a" long:"addr" description:"HTTP listen address (default :7788)"`
	ClientID     string `long:"client-id" description:"Azure AD application (client) ID"`
	TenantID     string `long:"tenant-id" description:"Tenant ID or 'organizations'"`
	Scopes       string `long:"scopes" description:"space-separated Graph scopes"`
	RecordURL    string `long:"record-url" description:"afs URL for persisting the auth record (e.g. file://$HOME/.config/outlook-mcp/auth_record.json)"`
	AzureRef     string `long:"azure-ref" description:"scy EncodedResource for Azure cred (e.g. gcp://...|blowfish://default)"`
	Oauth2Config string `short:"o" long:"oauth2config" description:"Path to JSON OAuth2 configuration file (scy EncodedResource)"`
	UseIdToken   bool   `short:"i" long:"use-id-token" description:"Use ID token (instead of access token) for identity scoping"`
	UseData      bool   `long:"use-data" description:"Return tool results in the structured data field instead of text"`
}

func main() {
	var opts Options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		os.Exit(2)
	}
	if opts.HTTPAddr == "" {
		opts.HTTPAddr = ":7788"
	}
	if opts.ClientID == "" {
		opts.ClientID = os.Getenv("AZURE_CLIENT_ID")
	}
	if opts.TenantID == "" {
		opts.TenantID = os.Getenv("AZURE_TENANT_ID")
	}
	if opts.Scopes == "" {
		opts.Scopes = os.Getenv("AZURE_GRAPH_SCOPES")
	}
	if opts.AzureRef == "" {
		opts.AzureRef = os.Getenv("AZURE_CRED_REF")
	}
	if opts.RecordURL == "" {
		opts.RecordURL = defaultRecordURL()
	}

	// Derive the callback base URL from the listen address.
	hostport := opts.HTTPAddr
	if hostport[0] == ':' {
		hostport = "localhost" + hostport
	}
	baseURL := "http://" + hostport

	cfg := &mcp.Config{
		ClientID:        opts.ClientID,
		TenantID:        opts.TenantID,
		Scopes:          mcp.ParseScopes(opts.Scopes),
		RecordURL:       strings.Replace(opts.RecordURL, "$HOME", os.Getenv("HOME"), 1),
		CallbackBaseURL: baseURL,
		UseData:         opts.UseData,
		AzureRef:        scy.EncodedResource(opts.AzureRef),
	}
	if err := cfg.Init(context.Background()); err != nil {
		log.Fatal(err)
	}
	svc, err := mcp.NewService(cfg)
	if err != nil {
		log.Fatal(err)
	}

	options := []mcpsrv.Option{
		mcpsrv.WithImplementation(schema.Implementation{Name: "outlook-mcp", Version: "0.1.0"}),
		mcpsrv.WithNewHandler(mcp.NewHandler(svc)),
		mcpsrv.WithEndpointAddress(opts.HTTPAddr),
		mcpsrv.WithRootRedirect(true),
		mcpsrv.WithStreamableURI("/mcp"),
		mcpsrv.WithCustomHTTPHandler("/outlook/auth/device/", svc.DeviceHandler()),
		mcpsrv.WithCustomHTTPHandler("/outlook/auth/pending", svc.PendingListHandler()),
		mcpsrv.WithCustomHTTPHandler("/outlook/auth/pending/clear", svc.PendingClearHandler()),
	}

	// Optional server-level OAuth2 (Backend-For-Frontend).
	if v := strings.TrimSpace(opts.Oauth2Config); v != "" {
		res := scy.EncodedResource(v).Decode(context.Background(), cred.Oauth2Config{})
		sec, err := scy.New().Load(context.Background(), res)
		if err != nil {
			log.Fatalf("failed to load oauth2config: %v", err)
		}
		oc, ok := sec.Target.(*cred.Oauth2Config)
		if !ok {
			log.Fatalf("invalid oauth2config secret type")
		}
		authPolicy := &authorization.Policy{
			Global: &authorization.Authorization{
				UseIdToken: opts.UseIdToken,
				ProtectedResourceMetadata: &oauthmeta.ProtectedResourceMetadata{
					AuthorizationServers: []string{oc.Config.Endpoint.AuthURL},
				}},
			ExcludeURI: "/sse,/outlook/auth/",
		}
		bff := &serverauth.BackendForFrontend{Client: &oc.Config, AuthorizationExchangeHeader: flow.AuthorizationExchangeHeader}
		authSvc, err := serverauth.New(&serverauth.Config{Policy: authPolicy, BackendForFrontend: bff})
		if err != nil {
			log.Fatalf("failed to init auth service: %v", err)
		}
		options = append(options,
			mcpsrv.WithAuthorizer(authSvc.Middleware),
			mcpsrv.WithProtectedResourcesHandler(authSvc.ProtectedResourcesHandler),
		)
	}

	server, err := mcpsrv.New(options...)
	if err != nil {
		log.Fatal(err)
	}
	server.UseStreamableHTTP(true)
	if err := server.HTTP(context.Background(), opts.HTTPAddr).ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}

func defaultRecordURL() string {
	dir, _ := os.UserConfigDir()
	if dir == "" {
		dir = "."
	}
	return "file://" + filepath.Join(dir, "outlook-mcp", "auth_record.json")
}
