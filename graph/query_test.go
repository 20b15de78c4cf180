package graph

import (
	"errors"
	"strings"
	"testing"
)

func Test_Compile_Deterministic(t *testing.T) {
	q := &MailQuery{Subject: "Invoice", FromEmail: "alice", IsRead: ptr(false), Count: 5}
	first, err := q.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := q.Compile()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("compile not deterministic: %q vs %q", again, first)
		}
	}
}

func Test_Compile_SubjectAndUnread(t *testing.T) {
	q := &MailQuery{Subject: "Invoice", IsRead: ptr(false), FolderID: "inbox", Count: 5}
	filter, err := q.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "contains(subject,'Invoice') and isRead eq false"
	if filter != want {
		t.Fatalf("unexpected filter: %q want %q", filter, want)
	}
	if q.Folder() != "inbox" {
		t.Fatalf("unexpected folder: %q", q.Folder())
	}
}

func Test_Compile_EmptyQueryIsListRequest(t *testing.T) {
	q := &MailQuery{Count: DefaultCount}
	filter, err := q.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter != "" {
		t.Fatalf("expected empty filter for all-empty query, got %q", filter)
	}
	if q.Folder() != DefaultFolderID {
		t.Fatalf("expected default folder, got %q", q.Folder())
	}
}

func Test_Compile_TriStateAbsenceIsNoPredicate(t *testing.T) {
	q := &MailQuery{Subject: "x", Count: 1}
	filter, err := q.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(filter, "hasAttachments") || strings.Contains(filter, "isRead") {
		t.Fatalf("unset tri-state fields must not constrain: %q", filter)
	}
	// Explicit false is a real predicate, not absence.
	q.HasAttachments = ptr(false)
	filter, _ = q.Compile()
	if !strings.Contains(filter, "hasAttachments eq false") {
		t.Fatalf("explicit false must constrain: %q", filter)
	}
}

func Test_Compile_AllFields(t *testing.T) {
	q := &MailQuery{
		Subject:        "Meeting",
		Body:           "agenda",
		FromEmail:      "john",
		ToEmail:        "jane",
		CCEmail:        "team",
		HasAttachments: ptr(true),
		IsRead:         ptr(false),
		Count:          10,
	}
	filter, err := q.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "contains(subject,'Meeting') and contains(body/content,'agenda')" +
		" and contains(from/emailAddress/address,'john')" +
		" and toRecipients/any(r:contains(r/emailAddress/address,'jane'))" +
		" and ccRecipients/any(r:contains(r/emailAddress/address,'team'))" +
		" and hasAttachments eq true and isRead eq false"
	if filter != want {
		t.Fatalf("unexpected filter:\n got %q\nwant %q", filter, want)
	}
}

func Test_Compile_EscapesQuotes(t *testing.T) {
	q := &MailQuery{Subject: "Bob's report", Count: 1}
	filter, err := q.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(filter, "Bob''s report") {
		t.Fatalf("single quote not escaped: %q", filter)
	}
}

func Test_Validate_CountBounds(t *testing.T) {
	if _, err := (&MailQuery{Count: 0}).Compile(); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("count=0 must fail validation, got %v", err)
	}
	if _, err := (&MailQuery{Count: -3}).Compile(); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("negative count must fail validation, got %v", err)
	}
	if _, err := (&MailQuery{Count: MaxCount + 1}).Compile(); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("oversized count must fail validation, got %v", err)
	}
}

func Test_SearchMailInput_CountDefaulting(t *testing.T) {
	in := &SearchMailInput{Subject: "x"}
	if got := in.Query().Count; got != DefaultCount {
		t.Fatalf("omitted count should default to %d, got %d", DefaultCount, got)
	}
	in.Count = ptr(0)
	if err := in.Query().Validate(); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("explicit zero count must fail validation, got %v", err)
	}
}
