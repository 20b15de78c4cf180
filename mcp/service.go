package mcp

import (
	"context"
	"time"

	oa "github.com/viant/outlook-mcp/auth"
	"github.com/viant/outlook-mcp/graph"
)

// Service wires the credential gate, the Graph facades and the device-login
// helpers behind the tool surface.
type Service struct {
	gate     *graph.Gate
	mail     *graph.MailService
	calendar *graph.CalendarService
	pending  *PendingAuths
	auth     *oa.Service

	baseURL  string
	useText  bool
	clientID string
	tenantID string
	scopes   []string
}

// NewService builds the service from a resolved Config (Init must have been
// called).
func NewService(cfg *Config) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
		if err := cfg.Init(context.Background()); err != nil {
			return nil, err
		}
	}
	s := &Service{
		mail:     graph.NewMailService(),
		calendar: graph.NewCalendarService(),
		pending:  NewPendingAuths(),
		auth:     oa.New(),
		baseURL:  cfg.CallbackBaseURL,
		useText:  !cfg.UseData,
		clientID: cfg.ClientID,
		tenantID: cfg.TenantID,
		scopes:   cfg.Scopes,
	}
	store := graph.NewRecordStore(cfg.RecordURL)
	newAuth := func(rec *graph.AuthRecord) (graph.Authenticator, error) {
		return graph.NewDeviceCodeAuthenticator(cfg.ClientID, cfg.TenantID, cfg.CacheName, rec, s.pending.Publish)
	}
	newSession := func(a graph.Authenticator) (*graph.Session, error) {
		if dc, ok := a.(*graph.DeviceCodeAuthenticator); ok {
			return graph.NewSDKSession(dc, cfg.Scopes)
		}
		return graph.NewSession(a, cfg.Scopes), nil
	}
	s.gate = graph.NewGate(cfg.Scopes, store, newAuth, newSession)
	s.gate.OnAuthResult(s.finishPending)
	return s, nil
}

// finishPending tears down pending device logins once an authentication
// flight settles, whatever its outcome; stale login pages must not receive
// future device codes.
func (s *Service) finishPending(error) {
	s.pending.CompleteAll()
}

// BeginPending registers a device login placeholder for the caller namespace
// so the login page has something to poll before the provider publishes a
// prompt.
func (s *Service) BeginPending(ctx context.Context, uuid string) *PendingAuth {
	ns, _ := s.auth.Namespace(ctx)
	pend := &PendingAuth{UUID: uuid, Namespace: ns, StartedAt: time.Now()}
	s.pending.Put(pend)
	return pend
}

func (s *Service) Gate() *graph.Gate                { return s.gate }
func (s *Service) Mail() *graph.MailService         { return s.mail }
func (s *Service) Calendar() *graph.CalendarService { return s.calendar }
func (s *Service) Pending() *PendingAuths           { return s.pending }
func (s *Service) Auth() *oa.Service                { return s.auth }
func (s *Service) BaseURL() string                  { return s.baseURL }
func (s *Service) UseTextField() bool               { return s.useText }
func (s *Service) TenantID() string                 { return s.tenantID }
func (s *Service) ClientID() string                 { return s.clientID }
