package mcp

import (
	"sync"
	"time"
)

// PendingAuth is one in-flight device-code login awaiting the user.
type PendingAuth struct {
	UUID      string
	Namespace string
	StartedAt time.Time
	done      chan struct{}

	mu      sync.Mutex
	message string
}

// SetMessage records the device prompt once the provider publishes it.
func (p *PendingAuth) SetMessage(msg string) {
	p.mu.Lock()
	p.message = msg
	p.mu.Unlock()
}

// Message returns the device prompt, empty until the provider publishes one.
func (p *PendingAuth) Message() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.message
}

// PendingAuths tracks in-flight device logins by id and namespace.
type PendingAuths struct {
	mu   sync.RWMutex
	byID map[string]*PendingAuth
	byNS map[string]map[string]*PendingAuth
}

func NewPendingAuths() *PendingAuths {
	return &PendingAuths{byID: make(map[string]*PendingAuth), byNS: make(map[string]map[string]*PendingAuth)}
}

func (p *PendingAuths) Put(x *PendingAuth) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if x.Namespace == "" {
		x.Namespace = "default"
	}
	if x.done == nil {
		x.done = make(chan struct{})
	}
	if x.StartedAt.IsZero() {
		x.StartedAt = time.Now()
	}
	p.byID[x.UUID] = x
	m, ok := p.byNS[x.Namespace]
	if !ok {
		m = map[string]*PendingAuth{}
		p.byNS[x.Namespace] = m
	}
	m[x.UUID] = x
}

func (p *PendingAuths) Get(uuid string) (*PendingAuth, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	x, ok := p.byID[uuid]
	return x, ok
}

// Publish sets the device prompt on every pending login that does not have
// one yet; the credential layer does not know which login it serves.
func (p *PendingAuths) Publish(msg string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, x := range p.byID {
		if x.Message() == "" {
			x.SetMessage(msg)
		}
	}
}

// Complete removes a pending login and signals any waiter.
func (p *PendingAuths) Complete(uuid string) {
	p.mu.Lock()
	x, ok := p.byID[uuid]
	if ok {
		delete(p.byID, uuid)
		if m, ok2 := p.byNS[x.Namespace]; ok2 {
			delete(m, uuid)
			if len(m) == 0 {
				delete(p.byNS, x.Namespace)
			}
		}
	}
	p.mu.Unlock()
	if ok {
		close(x.done)
	}
}

// CompleteAll removes every pending login and signals the waiters; the gate
// serves a single account, so a settled authentication flight resolves all
// outstanding login pages at once.
func (p *PendingAuths) CompleteAll() []string {
	p.mu.Lock()
	ids := make([]string, 0, len(p.byID))
	for id, x := range p.byID {
		ids = append(ids, id)
		close(x.done)
	}
	p.byID = make(map[string]*PendingAuth)
	p.byNS = make(map[string]map[string]*PendingAuth)
	p.mu.Unlock()
	return ids
}

// ListNamespace returns a snapshot of pending logins for a namespace.
func (p *PendingAuths) ListNamespace(ns string) []*PendingAuth {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m := p.byNS[ns]
	out := make([]*PendingAuth, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// ClearNamespace removes all pending logins for a namespace and returns the
// cleared ids.
func (p *PendingAuths) ClearNamespace(ns string) []string {
	p.mu.Lock()
	ids := make([]string, 0)
	if m, ok := p.byNS[ns]; ok {
		for id, x := range m {
			delete(p.byID, id)
			ids = append(ids, id)
			close(x.done)
		}
		delete(p.byNS, ns)
	}
	p.mu.Unlock()
	return ids
}
