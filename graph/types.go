package graph

import "fmt"

// Wire payloads mirror the Graph JSON shapes the services decode.

type emailAddressPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type recipientPayload struct {
	EmailAddress emailAddressPayload `json:"emailAddress"`
}

type itemBodyPayload struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type messagePayload struct {
	ID               string             `json:"id"`
	Subject          string             `json:"subject"`
	From             *recipientPayload  `json:"from"`
	ToRecipients     []recipientPayload `json:"toRecipients"`
	CcRecipients     []recipientPayload `json:"ccRecipients"`
	BccRecipients    []recipientPayload `json:"bccRecipients"`
	ReplyTo          []recipientPayload `json:"replyTo"`
	IsRead           bool               `json:"isRead"`
	HasAttachments   bool               `json:"hasAttachments"`
	ReceivedDateTime string             `json:"receivedDateTime"`
	BodyPreview      string             `json:"bodyPreview"`
	Body             *itemBodyPayload   `json:"body"`
}

type folderPayload struct {
	ID               string `json:"id"`
	DisplayName      string `json:"displayName"`
	TotalItemCount   int    `json:"totalItemCount"`
	ChildFolderCount int    `json:"childFolderCount"`
}

type eventPayload struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Start   struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone"`
	} `json:"end"`
	Location struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
	Organizer       *recipientPayload  `json:"organizer"`
	Attendees       []recipientPayload `json:"attendees"`
	IsOnlineMeeting bool               `json:"isOnlineMeeting"`
	BodyPreview     string             `json:"bodyPreview"`
}

// Message is the normalized mail record returned by MailService.
type Message struct {
	ID             string   `json:"id"`
	Subject        string   `json:"subject"`
	From           string   `json:"from,omitempty"`
	To             []string `json:"to,omitempty"`
	CC             []string `json:"cc,omitempty"`
	BCC            []string `json:"bcc,omitempty"`
	ReplyTo        []string `json:"replyTo,omitempty"`
	IsRead         bool     `json:"isRead"`
	HasAttachments bool     `json:"hasAttachments,omitempty"`
	Received       string   `json:"received,omitempty"`
	Preview        string   `json:"preview,omitempty"`
	Body           string   `json:"body,omitempty"`
}

// Folder is a mail folder with its direct children. ChildFolders is never
// nil: a folder without children carries an empty sequence.
type Folder struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"displayName"`
	TotalItemCount int      `json:"totalItemCount,omitempty"`
	ChildFolders   []Folder `json:"childFolders"`
}

// CalendarEvent is the normalized event record returned by CalendarService.
type CalendarEvent struct {
	ID              string   `json:"id"`
	Subject         string   `json:"subject"`
	StartISO        string   `json:"startISO"`
	EndISO          string   `json:"endISO"`
	Location        string   `json:"location,omitempty"`
	Organizer       string   `json:"organizer,omitempty"`
	Attendees       []string `json:"attendees,omitempty"`
	IsOnlineMeeting bool     `json:"isOnlineMeeting,omitempty"`
	Preview         string   `json:"preview,omitempty"`
}

// User is the mailbox owner profile.
type User struct {
	ID                string `json:"id,omitempty"`
	DisplayName       string `json:"displayName,omitempty"`
	Mail              string `json:"mail,omitempty"`
	UserPrincipalName string `json:"userPrincipalName,omitempty"`
	GivenName         string `json:"givenName,omitempty"`
	Surname           string `json:"surname,omitempty"`
	JobTitle          string `json:"jobTitle,omitempty"`
	MobilePhone       string `json:"mobilePhone,omitempty"`
	OfficeLocation    string `json:"officeLocation,omitempty"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`
	UserType          string `json:"userType,omitempty"`
}

// Facade inputs/outputs. Ones registered as tool inputs carry description
// tags the MCP registry turns into schema hints.

type ListMailInput struct {
	FolderID string `json:"folderId,omitempty" description:"mail folder id (default inbox)"`
	Count    int    `json:"count,omitempty" description:"number of messages to return"`
}

type ListMailOutput struct {
	Messages []Message `json:"messages,omitempty"`
}

// SearchMailInput is the advanced-search tool surface. Count is a pointer so
// an omitted value defaults to 20 while an explicit 0 still fails validation.
type SearchMailInput struct {
	Subject        string `json:"subject,omitempty" description:"text contained in the subject line"`
	Body           string `json:"body,omitempty" description:"text contained in the message body"`
	FromEmail      string `json:"from_email,omitempty" description:"sender address or display name fragment"`
	ToEmail        string `json:"to_email,omitempty" description:"direct recipient address fragment"`
	CCEmail        string `json:"cc_email,omitempty" description:"cc recipient address fragment"`
	HasAttachments *bool  `json:"has_attachments,omitempty" description:"constrain to messages with/without attachments"`
	IsRead         *bool  `json:"is_read,omitempty" description:"constrain to read/unread messages"`
	FolderID       string `json:"folder_id,omitempty" description:"folder id to search in (default inbox)"`
	Count          *int   `json:"count,omitempty" description:"maximum number of results (default 20)"`
}

// Query converts the wire input into a validated MailQuery value, applying
// the default count only when the field was absent.
func (in *SearchMailInput) Query() *MailQuery {
	count := DefaultCount
	if in.Count != nil {
		count = *in.Count
	}
	return &MailQuery{
		Subject:        in.Subject,
		Body:           in.Body,
		FromEmail:      in.FromEmail,
		ToEmail:        in.ToEmail,
		CCEmail:        in.CCEmail,
		HasAttachments: in.HasAttachments,
		IsRead:         in.IsRead,
		FolderID:       in.FolderID,
		Count:          count,
	}
}

type ComposeMailInput struct {
	To          []string `json:"to" description:"recipient email addresses"`
	CC          []string `json:"cc,omitempty" description:"cc email addresses"`
	BCC         []string `json:"bcc,omitempty" description:"bcc email addresses"`
	Subject     string   `json:"subject" description:"subject line"`
	Body        string   `json:"body" description:"html body content"`
	SaveAsDraft bool     `json:"saveAsDraft,omitempty" description:"save to Drafts instead of sending"`
}

type ComposeMailOutput struct {
	Status  string `json:"status"`
	DraftID string `json:"draftId,omitempty"`
}

type ReplyMailInput struct {
	MessageID string   `json:"messageId" description:"id of the message to reply to"`
	Body      string   `json:"body" description:"html reply content"`
	ReplyAll  bool     `json:"replyAll,omitempty" description:"include all original recipients"`
	To        []string `json:"to,omitempty" description:"override recipients"`
	CC        []string `json:"cc,omitempty" description:"additional cc recipients"`
	BCC       []string `json:"bcc,omitempty" description:"additional bcc recipients"`
	Subject   string   `json:"subject,omitempty" description:"custom subject (default: Re: original subject)"`
}

type UpdateDraftInput struct {
	DraftID string   `json:"draftId" description:"id of the draft message"`
	Subject *string  `json:"subject,omitempty" description:"replacement subject"`
	Body    *string  `json:"body,omitempty" description:"replacement html body"`
	To      []string `json:"to,omitempty" description:"replacement recipient list"`
	CC      []string `json:"cc,omitempty" description:"replacement cc list"`
	BCC     []string `json:"bcc,omitempty" description:"replacement bcc list"`
}

type UpdateMailPropertiesInput struct {
	MessageID                  string   `json:"messageId" description:"id of the message to update"`
	IsRead                     *bool    `json:"isRead,omitempty" description:"mark read/unread"`
	Categories                 []string `json:"categories,omitempty" description:"categories to apply"`
	Importance                 string   `json:"importance,omitempty" description:"Low, Normal or High"`
	InferenceClassification    string   `json:"inferenceClassification,omitempty" description:"focused or other"`
	IsDeliveryReceiptRequested *bool    `json:"isDeliveryReceiptRequested,omitempty"`
	IsReadReceiptRequested     *bool    `json:"isReadReceiptRequested,omitempty"`
}

type MoveMailInput struct {
	MessageID string `json:"messageId" description:"id of the message to move"`
	FolderID  string `json:"folderId" description:"destination folder id"`
}

type MoveMailOutput struct {
	MessageID  string `json:"messageId"`
	FolderID   string `json:"folderId"`
	FolderName string `json:"folderName,omitempty"`
}

type CreateFolderInput struct {
	DisplayName    string `json:"displayName" description:"name for the new folder"`
	ParentFolderID string `json:"parentFolderId,omitempty" description:"parent folder id; empty creates a top-level folder"`
}

type EventAttendee struct {
	Email    string `json:"email" description:"attendee email address"`
	Name     string `json:"name,omitempty" description:"attendee display name"`
	Optional bool   `json:"optional,omitempty" description:"mark attendance optional (default required)"`
}

type CreateEventInput struct {
	Subject         string          `json:"subject" description:"event subject"`
	StartDateTime   string          `json:"startDateTime" description:"start time, YYYY-MM-DDTHH:MM:SS"`
	EndDateTime     string          `json:"endDateTime" description:"end time, YYYY-MM-DDTHH:MM:SS"`
	TimeZone        string          `json:"timeZone,omitempty" description:"time zone for both times (default UTC)"`
	Body            string          `json:"body,omitempty" description:"html body (defaults to the subject)"`
	Location        string          `json:"location,omitempty" description:"location name"`
	IsOnlineMeeting bool            `json:"isOnlineMeeting,omitempty" description:"create as Teams online meeting"`
	Attendees       []EventAttendee `json:"attendees,omitempty"`
}

type ListEventsInput struct {
	Count int `json:"count,omitempty" description:"maximum number of events (default 10)"`
}

type ListEventsOutput struct {
	Events []CalendarEvent `json:"events,omitempty"`
}

type EventRangeInput struct {
	StartDate string `json:"startDate,omitempty" description:"YYYY-MM-DD (default: beginning of current week)"`
	EndDate   string `json:"endDate,omitempty" description:"YYYY-MM-DD (default: two weeks from start)"`
}

type DeleteEventInput struct {
	EventID         string `json:"eventId" description:"id of the event to delete"`
	NotifyAttendees *bool  `json:"notifyAttendees,omitempty" description:"send cancellation notices (default true)"`
}

type DeleteEventOutput struct {
	EventID string `json:"eventId"`
	Subject string `json:"subject,omitempty"`
	Status  string `json:"status"`
}

type GetMailInput struct {
	MessageID string `json:"messageId" description:"id of the message to fetch"`
}

type InboxCountOutput struct {
	Count int `json:"count"`
}

type FolderNameInput struct {
	FolderID string `json:"folderId" description:"id of the folder to resolve"`
}

type FolderNameOutput struct {
	FolderID    string `json:"folderId"`
	DisplayName string `json:"displayName"`
}

type ListFoldersOutput struct {
	Folders []Folder `json:"folders,omitempty"`
}

type FolderIDsOutput struct {
	Folders map[string]string `json:"folders,omitempty"`
}

type DraftInput struct {
	DraftID string `json:"draftId" description:"id of the draft message"`
}

type GetUserInput struct {
	AllProperties bool `json:"allProperties,omitempty" description:"include the extended profile fields"`
}

type GetEventInput struct {
	EventID string `json:"eventId" description:"id of the event to fetch"`
}

// StatusOutput acknowledges mutations that return no resource.
type StatusOutput struct {
	Status string `json:"status"`
}

func formatAddress(a emailAddressPayload) string {
	if a.Name != "" && a.Address != "" {
		return fmt.Sprintf("%s <%s>", a.Name, a.Address)
	}
	if a.Address != "" {
		return a.Address
	}
	return a.Name
}

func formatRecipients(in []recipientPayload) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, r := range in {
		if s := formatAddress(r.EmailAddress); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toMessage(p messagePayload) Message {
	m := Message{
		ID:             p.ID,
		Subject:        p.Subject,
		To:             formatRecipients(p.ToRecipients),
		CC:             formatRecipients(p.CcRecipients),
		BCC:            formatRecipients(p.BccRecipients),
		ReplyTo:        formatRecipients(p.ReplyTo),
		IsRead:         p.IsRead,
		HasAttachments: p.HasAttachments,
		Received:       p.ReceivedDateTime,
		Preview:        p.BodyPreview,
	}
	if p.From != nil {
		m.From = formatAddress(p.From.EmailAddress)
	}
	if p.Body != nil {
		m.Body = p.Body.Content
	}
	return m
}

func toMessages(payloads []messagePayload) []Message {
	out := make([]Message, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, toMessage(p))
	}
	return out
}

func toEvent(p eventPayload) CalendarEvent {
	ev := CalendarEvent{
		ID:              p.ID,
		Subject:         p.Subject,
		StartISO:        p.Start.DateTime,
		EndISO:          p.End.DateTime,
		Location:        p.Location.DisplayName,
		IsOnlineMeeting: p.IsOnlineMeeting,
		Preview:         p.BodyPreview,
	}
	if p.Organizer != nil {
		ev.Organizer = formatAddress(p.Organizer.EmailAddress)
	}
	for _, a := range p.Attendees {
		if s := formatAddress(a.EmailAddress); s != "" {
			ev.Attendees = append(ev.Attendees, s)
		}
	}
	return ev
}

func ptr[T any](v T) *T { return &v }

func ptrVal[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
