package graph

import (
	"context"
	"fmt"
	neturl "net/url"
	"strconv"
	"strings"
)

// headerSelect limits message listings to header fields.
const headerSelect = "id,subject,from,toRecipients,ccRecipients,bccRecipients,replyTo,isRead,hasAttachments,receivedDateTime,bodyPreview"

// fullSelect additionally fetches the body for single-message reads.
const fullSelect = headerSelect + ",body"

// MailService exposes mailbox operations. Every method requires an explicit
// *Session obtained through the Gate.
type MailService struct{}

func NewMailService() *MailService { return &MailService{} }

func requireID(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidQuery, name)
	}
	return nil
}

// Inbox lists recent inbox messages.
func (s *MailService) Inbox(ctx context.Context, sess *Session, count int) (*ListMailOutput, error) {
	return s.Messages(ctx, sess, &ListMailInput{FolderID: DefaultFolderID, Count: count})
}

// Messages lists messages in a folder, newest first.
func (s *MailService) Messages(ctx context.Context, sess *Session, in *ListMailInput) (*ListMailOutput, error) {
	folder := in.FolderID
	if folder == "" {
		folder = DefaultFolderID
	}
	count := in.Count
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxCount {
		return nil, fmt.Errorf("%w: count must not exceed %d, got %d", ErrInvalidQuery, MaxCount, count)
	}
	q := neturl.Values{}
	q.Set("$top", strconv.Itoa(count))
	q.Set("$orderby", "receivedDateTime DESC")
	q.Set("$select", headerSelect)
	return s.listMessages(ctx, sess, "list messages", folder, q, count)
}

// Search compiles the structured query and lists matching messages from the
// query's folder. All validation happens before any network call.
func (s *MailService) Search(ctx context.Context, sess *Session, query *MailQuery) (*ListMailOutput, error) {
	filter, err := query.Compile()
	if err != nil {
		return nil, err
	}
	q := neturl.Values{}
	q.Set("$top", strconv.Itoa(query.Count))
	q.Set("$select", headerSelect)
	if filter != "" {
		q.Set("$filter", filter)
	} else {
		// Degenerates to a plain listing; ordering only without a filter,
		// Graph rejects the combination on contains predicates.
		q.Set("$orderby", "receivedDateTime DESC")
	}
	return s.listMessages(ctx, sess, "search messages", query.Folder(), q, query.Count)
}

func (s *MailService) listMessages(ctx context.Context, sess *Session, op, folderID string, q neturl.Values, count int) (*ListMailOutput, error) {
	var first page[messagePayload]
	path := "/me/mailFolders/" + neturl.PathEscape(folderID) + "/messages"
	if err := sess.rest.get(ctx, op, path, q, &first); err != nil {
		return nil, err
	}
	payloads, err := collectMessages(ctx, sess, op, first, count)
	if err != nil {
		return nil, err
	}
	return &ListMailOutput{Messages: toMessages(payloads)}, nil
}

// Get fetches a single message including its body.
func (s *MailService) Get(ctx context.Context, sess *Session, messageID string) (*Message, error) {
	if err := requireID("messageId", messageID); err != nil {
		return nil, err
	}
	q := neturl.Values{}
	q.Set("$select", fullSelect)
	var payload messagePayload
	if err := sess.rest.get(ctx, "get message", "/me/messages/"+neturl.PathEscape(messageID), q, &payload); err != nil {
		return nil, err
	}
	m := toMessage(payload)
	return &m, nil
}

// InboxCount reports the total number of messages in the inbox.
func (s *MailService) InboxCount(ctx context.Context, sess *Session) (int, error) {
	var payload folderPayload
	if err := sess.rest.get(ctx, "get inbox count", "/me/mailFolders/inbox", nil, &payload); err != nil {
		return 0, err
	}
	return payload.TotalItemCount, nil
}

// FolderName resolves a folder id to its display name.
func (s *MailService) FolderName(ctx context.Context, sess *Session, folderID string) (string, error) {
	if err := requireID("folderId", folderID); err != nil {
		return "", err
	}
	var payload folderPayload
	if err := sess.rest.get(ctx, "get folder", "/me/mailFolders/"+neturl.PathEscape(folderID), nil, &payload); err != nil {
		return "", err
	}
	return payload.DisplayName, nil
}

// Move files a message into the destination folder. Not retried: a failed
// move surfaces immediately rather than risking a duplicate.
func (s *MailService) Move(ctx context.Context, sess *Session, in *MoveMailInput) (*MoveMailOutput, error) {
	if err := requireID("messageId", in.MessageID); err != nil {
		return nil, err
	}
	if err := requireID("folderId", in.FolderID); err != nil {
		return nil, err
	}
	name, err := s.FolderName(ctx, sess, in.FolderID)
	if err != nil {
		return nil, err
	}
	body := map[string]string{"destinationId": in.FolderID}
	var moved messagePayload
	if err := sess.rest.post(ctx, "move message", "/me/messages/"+neturl.PathEscape(in.MessageID)+"/move", body, &moved); err != nil {
		return nil, mutationError("move message", in.MessageID, err)
	}
	out := &MoveMailOutput{MessageID: moved.ID, FolderID: in.FolderID, FolderName: name}
	if out.MessageID == "" {
		out.MessageID = in.MessageID
	}
	return out, nil
}

// CreateFolder creates a top-level folder, or a child when a parent id is
// given.
func (s *MailService) CreateFolder(ctx context.Context, sess *Session, in *CreateFolderInput) (*Folder, error) {
	if err := requireID("displayName", in.DisplayName); err != nil {
		return nil, err
	}
	path := "/me/mailFolders"
	if in.ParentFolderID != "" {
		path = "/me/mailFolders/" + neturl.PathEscape(in.ParentFolderID) + "/childFolders"
	}
	body := map[string]string{"displayName": in.DisplayName}
	var created folderPayload
	if err := sess.rest.post(ctx, "create folder", path, body, &created); err != nil {
		return nil, mutationError("create folder", in.DisplayName, err)
	}
	return &Folder{ID: created.ID, DisplayName: created.DisplayName, ChildFolders: []Folder{}}, nil
}

func toRecipientPayloads(addrs []string) []recipientPayload {
	var out []recipientPayload
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, recipientPayload{EmailAddress: emailAddressPayload{Address: a}})
		}
	}
	return out
}

func htmlBody(content string) *itemBodyPayload {
	return &itemBodyPayload{ContentType: "HTML", Content: content}
}

// Compose creates a draft or sends a new message immediately.
func (s *MailService) Compose(ctx context.Context, sess *Session, in *ComposeMailInput) (*ComposeMailOutput, error) {
	tos := toRecipientPayloads(in.To)
	if len(tos) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", ErrInvalidQuery)
	}
	msg := map[string]any{
		"subject":      in.Subject,
		"body":         htmlBody(in.Body),
		"toRecipients": tos,
	}
	if cc := toRecipientPayloads(in.CC); len(cc) > 0 {
		msg["ccRecipients"] = cc
	}
	if bcc := toRecipientPayloads(in.BCC); len(bcc) > 0 {
		msg["bccRecipients"] = bcc
	}
	if in.SaveAsDraft {
		var created messagePayload
		if err := sess.rest.post(ctx, "create draft", "/me/messages", msg, &created); err != nil {
			return nil, mutationError("create draft", in.Subject, err)
		}
		return &ComposeMailOutput{Status: "draft", DraftID: created.ID}, nil
	}
	payload := map[string]any{"message": msg, "saveToSentItems": true}
	if err := sess.rest.post(ctx, "send mail", "/me/sendMail", payload, nil); err != nil {
		return nil, mutationError("send mail", in.Subject, err)
	}
	return &ComposeMailOutput{Status: "sent"}, nil
}

// Reply sends a reply (or reply-all) immediately. When the caller omits a
// subject it defaults to "Re: " plus the original subject.
func (s *MailService) Reply(ctx context.Context, sess *Session, in *ReplyMailInput) error {
	if err := requireID("messageId", in.MessageID); err != nil {
		return err
	}
	subject := in.Subject
	if subject == "" {
		original, err := s.Get(ctx, sess, in.MessageID)
		if err != nil {
			return err
		}
		subject = "Re: " + original.Subject
	}
	msg := map[string]any{
		"subject": subject,
		"body":    htmlBody(in.Body),
	}
	if tos := toRecipientPayloads(in.To); len(tos) > 0 {
		msg["toRecipients"] = tos
	}
	if cc := toRecipientPayloads(in.CC); len(cc) > 0 {
		msg["ccRecipients"] = cc
	}
	if bcc := toRecipientPayloads(in.BCC); len(bcc) > 0 {
		msg["bccRecipients"] = bcc
	}
	action := "reply"
	if in.ReplyAll {
		action = "replyAll"
	}
	path := "/me/messages/" + neturl.PathEscape(in.MessageID) + "/" + action
	if err := sess.rest.post(ctx, action, path, map[string]any{"message": msg}, nil); err != nil {
		return mutationError(action, in.MessageID, err)
	}
	return nil
}

// CreateDraftReply creates a reply draft without sending it.
func (s *MailService) CreateDraftReply(ctx context.Context, sess *Session, messageID string) (*Message, error) {
	if err := requireID("messageId", messageID); err != nil {
		return nil, err
	}
	var created messagePayload
	path := "/me/messages/" + neturl.PathEscape(messageID) + "/createReply"
	if err := sess.rest.post(ctx, "create draft reply", path, map[string]any{}, &created); err != nil {
		return nil, mutationError("create draft reply", messageID, err)
	}
	m := toMessage(created)
	return &m, nil
}

// UpdateDraft patches only the fields the caller provided; each supplied
// field replaces the draft's current value in full.
func (s *MailService) UpdateDraft(ctx context.Context, sess *Session, in *UpdateDraftInput) error {
	if err := requireID("draftId", in.DraftID); err != nil {
		return err
	}
	patch := map[string]any{}
	if in.Subject != nil {
		patch["subject"] = *in.Subject
	}
	if in.Body != nil {
		patch["body"] = htmlBody(*in.Body)
	}
	if in.To != nil {
		patch["toRecipients"] = toRecipientPayloads(in.To)
	}
	if in.CC != nil {
		patch["ccRecipients"] = toRecipientPayloads(in.CC)
	}
	if in.BCC != nil {
		patch["bccRecipients"] = toRecipientPayloads(in.BCC)
	}
	if len(patch) == 0 {
		return fmt.Errorf("%w: no fields to update", ErrInvalidQuery)
	}
	if err := sess.rest.patch(ctx, "update draft", "/me/messages/"+neturl.PathEscape(in.DraftID), patch, nil); err != nil {
		return mutationError("update draft", in.DraftID, err)
	}
	return nil
}

// SendDraft submits an existing draft.
func (s *MailService) SendDraft(ctx context.Context, sess *Session, draftID string) error {
	if err := requireID("draftId", draftID); err != nil {
		return err
	}
	path := "/me/messages/" + neturl.PathEscape(draftID) + "/send"
	if err := sess.rest.post(ctx, "send draft", path, nil, nil); err != nil {
		return mutationError("send draft", draftID, err)
	}
	return nil
}

// UpdateProperties patches message metadata used for filing and organization.
func (s *MailService) UpdateProperties(ctx context.Context, sess *Session, in *UpdateMailPropertiesInput) error {
	if err := requireID("messageId", in.MessageID); err != nil {
		return err
	}
	patch := map[string]any{}
	if in.IsRead != nil {
		patch["isRead"] = *in.IsRead
	}
	if in.Categories != nil {
		patch["categories"] = in.Categories
	}
	if in.Importance != "" {
		patch["importance"] = in.Importance
	}
	if in.InferenceClassification != "" {
		patch["inferenceClassification"] = in.InferenceClassification
	}
	if in.IsDeliveryReceiptRequested != nil {
		patch["isDeliveryReceiptRequested"] = *in.IsDeliveryReceiptRequested
	}
	if in.IsReadReceiptRequested != nil {
		patch["isReadReceiptRequested"] = *in.IsReadReceiptRequested
	}
	if len(patch) == 0 {
		return fmt.Errorf("%w: no properties to update", ErrInvalidQuery)
	}
	if err := sess.rest.patch(ctx, "update mail properties", "/me/messages/"+neturl.PathEscape(in.MessageID), patch, nil); err != nil {
		return mutationError("update mail properties", in.MessageID, err)
	}
	return nil
}

// User returns the mailbox owner profile; allProperties widens the selection.
func (s *MailService) User(ctx context.Context, sess *Session, allProperties bool) (*User, error) {
	q := neturl.Values{}
	if allProperties {
		q.Set("$select", "id,displayName,mail,userPrincipalName,givenName,surname,jobTitle,mobilePhone,officeLocation,preferredLanguage,userType")
	} else {
		q.Set("$select", "displayName,mail,userPrincipalName")
	}
	var user User
	if err := sess.rest.get(ctx, "get user", "/me", q, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
