package graph

import (
	"fmt"
	"strings"
)

const (
	// DefaultFolderID is the well-known inbox folder.
	DefaultFolderID = "inbox"
	// DefaultCount is the page bound applied when a caller omits count.
	DefaultCount = 20
	// MaxCount is the Graph $top ceiling for message listings.
	MaxCount = 1000
)

// MailQuery is a structured search request. Text fields match as
// case-insensitive substrings; the tri-state booleans constrain only when
// set. An all-empty query is a valid "list messages in folder" request.
type MailQuery struct {
	Subject        string `json:"subject,omitempty"`
	Body           string `json:"body,omitempty"`
	FromEmail      string `json:"from_email,omitempty"`
	ToEmail        string `json:"to_email,omitempty"`
	CCEmail        string `json:"cc_email,omitempty"`
	HasAttachments *bool  `json:"has_attachments,omitempty"`
	IsRead         *bool  `json:"is_read,omitempty"`
	FolderID       string `json:"folder_id,omitempty"`
	Count          int    `json:"count,omitempty"`
}

// Folder returns the search scope, defaulting to the inbox.
func (q *MailQuery) Folder() string {
	if q.FolderID == "" {
		return DefaultFolderID
	}
	return q.FolderID
}

// Validate rejects out-of-range fields before any network call.
func (q *MailQuery) Validate() error {
	if q.Count <= 0 {
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalidQuery, q.Count)
	}
	if q.Count > MaxCount {
		return fmt.Errorf("%w: count must not exceed %d, got %d", ErrInvalidQuery, MaxCount, q.Count)
	}
	return nil
}

// Compile turns the query into an OData $filter expression. The output is a
// pure function of the fields: predicates appear in a fixed order joined with
// "and", so identical queries always compile byte-identically. An empty
// result means no filter (plain listing).
func (q *MailQuery) Compile() (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	var predicates []string
	if q.Subject != "" {
		predicates = append(predicates, fmt.Sprintf("contains(subject,'%s')", escapeODataLiteral(q.Subject)))
	}
	if q.Body != "" {
		predicates = append(predicates, fmt.Sprintf("contains(body/content,'%s')", escapeODataLiteral(q.Body)))
	}
	if q.FromEmail != "" {
		predicates = append(predicates, fmt.Sprintf("contains(from/emailAddress/address,'%s')", escapeODataLiteral(q.FromEmail)))
	}
	if q.ToEmail != "" {
		predicates = append(predicates, fmt.Sprintf("toRecipients/any(r:contains(r/emailAddress/address,'%s'))", escapeODataLiteral(q.ToEmail)))
	}
	if q.CCEmail != "" {
		predicates = append(predicates, fmt.Sprintf("ccRecipients/any(r:contains(r/emailAddress/address,'%s'))", escapeODataLiteral(q.CCEmail)))
	}
	if q.HasAttachments != nil {
		predicates = append(predicates, fmt.Sprintf("hasAttachments eq %t", *q.HasAttachments))
	}
	if q.IsRead != nil {
		predicates = append(predicates, fmt.Sprintf("isRead eq %t", *q.IsRead))
	}
	return strings.Join(predicates, " and "), nil
}

// escapeODataLiteral doubles single quotes per OData string literal rules.
func escapeODataLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
