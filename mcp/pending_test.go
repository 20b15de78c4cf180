package mcp

import "testing"

func Test_PendingAuths(t *testing.T) {
	p := NewPendingAuths()
	a := &PendingAuth{UUID: "a", Namespace: "ann@example.com"}
	b := &PendingAuth{UUID: "b"}
	p.Put(a)
	p.Put(b)

	if b.Namespace != "default" {
		t.Fatalf("empty namespace must default, got %q", b.Namespace)
	}
	got, ok := p.Get("a")
	if !ok || got != a {
		t.Fatal("expected to find pending auth by id")
	}

	// Publish reaches every pending login without a message, and only those.
	a.SetMessage("already set")
	p.Publish("enter code ABCD-1234")
	if a.Message() != "already set" {
		t.Fatalf("publish must not overwrite, got %q", a.Message())
	}
	if b.Message() != "enter code ABCD-1234" {
		t.Fatalf("publish missed pending login, got %q", b.Message())
	}

	p.Complete("a")
	if _, ok := p.Get("a"); ok {
		t.Fatal("completed login must be removed")
	}
	select {
	case <-a.done:
	default:
		t.Fatal("complete must signal the waiter")
	}

	p.Put(&PendingAuth{UUID: "c", Namespace: "other"})
	all := p.CompleteAll()
	if len(all) != 2 {
		t.Fatalf("expected every namespace completed, got %v", all)
	}
	if _, ok := p.Get("b"); ok {
		t.Fatal("complete-all must remove pending logins")
	}
	if list := p.ListNamespace("other"); len(list) != 0 {
		t.Fatalf("complete-all missed a namespace: %v", list)
	}
	select {
	case <-b.done:
	default:
		t.Fatal("complete-all must signal the waiters")
	}

	p.Put(&PendingAuth{UUID: "b"})
	ids := p.ClearNamespace("default")
	if len(ids) != 1 || ids[0] != "b" {
		t.Fatalf("unexpected cleared ids: %v", ids)
	}
	if list := p.ListNamespace("default"); len(list) != 0 {
		t.Fatalf("namespace not cleared: %v", list)
	}
}
