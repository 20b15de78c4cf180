package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	protoserver "github.com/viant/mcp-protocol/server"

	"github.com/viant/outlook-mcp/graph"
)

//go:embed tools/outlookListMail.md
var outlookListMailDesc string

//go:embed tools/outlookSearchMail.md
var outlookSearchMailDesc string

//go:embed tools/outlookGetMail.md
var outlookGetMailDesc string

//go:embed tools/outlookGetInboxCount.md
var outlookGetInboxCountDesc string

//go:embed tools/outlookListFolders.md
var outlookListFoldersDesc string

//go:embed tools/outlookGetFolderIds.md
var outlookGetFolderIdsDesc string

//go:embed tools/outlookGetFolderName.md
var outlookGetFolderNameDesc string

//go:embed tools/outlookMoveMail.md
var outlookMoveMailDesc string

//go:embed tools/outlookCreateFolder.md
var outlookCreateFolderDesc string

//go:embed tools/outlookComposeMail.md
var outlookComposeMailDesc string

//go:embed tools/outlookReplyMail.md
var outlookReplyMailDesc string

//go:embed tools/outlookCreateDraftReply.md
var outlookCreateDraftReplyDesc string

//go:embed tools/outlookUpdateDraft.md
var outlookUpdateDraftDesc string

//go:embed tools/outlookSendDraft.md
var outlookSendDraftDesc string

//go:embed tools/outlookUpdateMailProperties.md
var outlookUpdateMailPropertiesDesc string

//go:embed tools/outlookGetUser.md
var outlookGetUserDesc string

//go:embed tools/outlookListEvents.md
var outlookListEventsDesc string

//go:embed tools/outlookListEventsRange.md
var outlookListEventsRangeDesc string

//go:embed tools/outlookGetEvent.md
var outlookGetEventDesc string

//go:embed tools/outlookCreateEvent.md
var outlookCreateEventDesc string

//go:embed tools/outlookDeleteEvent.md
var outlookDeleteEventDesc string

//go:embed tools/getCurrentDatetime.md
var getCurrentDatetimeDesc string

//go:embed tools/outlookSearchProperties.md
var outlookSearchPropertiesDesc string

// CurrentDatetimeOutput reports the server clock so the model can resolve
// relative dates before building calendar queries.
type CurrentDatetimeOutput struct {
	ISO     string `json:"iso"`
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
}

// SearchPropertiesOutput documents the searchable mail fields.
type SearchPropertiesOutput struct {
	Properties map[string]string `json:"properties"`
}

func registerTools(base *protoserver.DefaultHandler, h *Handler) error {
	svc := h.service
	ops := h.ops
	gate := svc.Gate()
	mail := svc.Mail()
	cal := svc.Calendar()

	// startLogin launches the out-of-band device login page when no live
	// session exists; the tool call itself then blocks on the shared
	// authentication flight.
	startLogin := func(ctx context.Context) {
		if gate.State() == graph.StateAuthenticated {
			return
		}
		if ops == nil || !ops.Implements(schema.MethodElicitationCreate) {
			return
		}
		pend := svc.BeginPending(ctx, newUUID())
		baseURL := strings.TrimRight(svc.BaseURL(), "/")
		url := fmt.Sprintf("%s/outlook/auth/device/%s", baseURL, pend.UUID)
		go func() {
			ctx2, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_, _ = ops.Elicit(ctx2, &jsonrpc.TypedRequest[*schema.ElicitRequest]{Request: &schema.ElicitRequest{
				Params: schema.ElicitRequestParams{ElicitationId: newUUID(), Message: "Sign in to Outlook", Mode: string(schema.ElicitRequestParamsModeUrl), Url: url},
			}})
		}()
	}

	if err := protoserver.RegisterTool[*graph.ListMailInput, *graph.ListMailOutput](base.Registry, "outlookListMail", outlookListMailDesc, func(ctx context.Context, in *graph.ListMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.ListMailOutput, error) {
			return mail.Messages(ctx, sess, in)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.SearchMailInput, *graph.ListMailOutput](base.Registry, "outlookSearchMail", outlookSearchMailDesc, func(ctx context.Context, in *graph.SearchMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		query := in.Query()
		if err := query.Validate(); err != nil {
			return buildErrorResult(err.Error())
		}
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.ListMailOutput, error) {
			return mail.Search(ctx, sess, query)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.GetMailInput, *graph.Message](base.Registry, "outlookGetMail", outlookGetMailDesc, func(ctx context.Context, in *graph.GetMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.Message, error) {
			return mail.Get(ctx, sess, in.MessageID)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*struct{}, *graph.InboxCountOutput](base.Registry, "outlookGetInboxCount", outlookGetInboxCountDesc, func(ctx context.Context, _ *struct{}) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		count, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (int, error) {
			return mail.InboxCount(ctx, sess)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, &graph.InboxCountOutput{Count: count})
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*struct{}, *graph.ListFoldersOutput](base.Registry, "outlookListFolders", outlookListFoldersDesc, func(ctx context.Context, _ *struct{}) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		folders, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) ([]graph.Folder, error) {
			return mail.FolderHierarchy(ctx, sess)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, &graph.ListFoldersOutput{Folders: folders})
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*struct{}, *graph.FolderIDsOutput](base.Registry, "outlookGetFolderIds", outlookGetFolderIdsDesc, func(ctx context.Context, _ *struct{}) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		ids, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (map[string]string, error) {
			return mail.FolderIDs(ctx, sess)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, &graph.FolderIDsOutput{Folders: ids})
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.FolderNameInput, *graph.FolderNameOutput](base.Registry, "outlookGetFolderName", outlookGetFolderNameDesc, func(ctx context.Context, in *graph.FolderNameInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		name, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (string, error) {
			return mail.FolderName(ctx, sess, in.FolderID)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, &graph.FolderNameOutput{FolderID: in.FolderID, DisplayName: name})
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.MoveMailInput, *graph.MoveMailOutput](base.Registry, "outlookMoveMail", outlookMoveMailDesc, func(ctx context.Context, in *graph.MoveMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.MoveMailOutput, error) {
			return mail.Move(ctx, sess, in)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.CreateFolderInput, *graph.Folder](base.Registry, "outlookCreateFolder", outlookCreateFolderDesc, func(ctx context.Context, in *graph.CreateFolderInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.Folder, error) {
			return mail.CreateFolder(ctx, sess, in)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.ComposeMailInput, *graph.ComposeMailOutput](base.Registry, "outlookComposeMail", outlookComposeMailDesc, func(ctx context.Context, in *graph.ComposeMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.ComposeMailOutput, error) {
			return mail.Compose(ctx, sess, in)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.ReplyMailInput, *graph.StatusOutput](base.Registry, "outlookReplyMail", outlookReplyMailDesc, func(ctx context.Context, in *graph.ReplyMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		err := gate.Do(ctx, func(ctx context.Context, sess *graph.Session) error {
			return mail.Reply(ctx, sess, in)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, &graph.StatusOutput{Status: "sent"})
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.GetMailInput, *graph.Message](base.Registry, "outlookCreateDraftReply", outlookCreateDraftReplyDesc, func(ctx context.Context, in *graph.GetMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.Message, error) {
			return mail.CreateDraftReply(ctx, sess, in.MessageID)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.UpdateDraftInput, *graph.StatusOutput](base.Registry, "outlookUpdateDraft", outlookUpdateDraftDesc, func(ctx context.Context, in *graph.UpdateDraftInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		err := gate.Do(ctx, func(ctx context.Context, sess *graph.Session) error {
			return mail.UpdateDraft(ctx, sess, in)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, &graph.StatusOutput{Status: "updated"})
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.DraftInput, *graph.StatusOutput](base.Registry, "outlookSendDraft", outlookSendDraftDesc, func(ctx context.Context, in *graph.DraftInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		err := gate.Do(ctx, func(ctx context.Context, sess *graph.Session) error {
			return mail.SendDraft(ctx, sess, in.DraftID)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, &graph.StatusOutput{Status: "sent"})
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.UpdateMailPropertiesInput, *graph.StatusOutput](base.Registry, "outlookUpdateMailProperties", outlookUpdateMailPropertiesDesc, func(ctx context.Context, in *graph.UpdateMailPropertiesInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		err := gate.Do(ctx, func(ctx context.Context, sess *graph.Session) error {
			return mail.UpdateProperties(ctx, sess, in)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, &graph.StatusOutput{Status: "updated"})
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.GetUserInput, *graph.User](base.Registry, "outlookGetUser", outlookGetUserDesc, func(ctx context.Context, in *graph.GetUserInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.User, error) {
			return mail.User(ctx, sess, in.AllProperties)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.ListEventsInput, *graph.ListEventsOutput](base.Registry, "outlookListEvents", outlookListEventsDesc, func(ctx context.Context, in *graph.ListEventsInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.ListEventsOutput, error) {
			return cal.List(ctx, sess, in.Count)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.EventRangeInput, *graph.ListEventsOutput](base.Registry, "outlookListEventsRange", outlookListEventsRangeDesc, func(ctx context.Context, in *graph.EventRangeInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.ListEventsOutput, error) {
			return cal.ListRange(ctx, sess, in)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.GetEventInput, *graph.CalendarEvent](base.Registry, "outlookGetEvent", outlookGetEventDesc, func(ctx context.Context, in *graph.GetEventInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.CalendarEvent, error) {
			return cal.Get(ctx, sess, in.EventID)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.CreateEventInput, *graph.CalendarEvent](base.Registry, "outlookCreateEvent", outlookCreateEventDesc, func(ctx context.Context, in *graph.CreateEventInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.CalendarEvent, error) {
			return cal.Create(ctx, sess, in)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.DeleteEventInput, *graph.DeleteEventOutput](base.Registry, "outlookDeleteEvent", outlookDeleteEventDesc, func(ctx context.Context, in *graph.DeleteEventInput) (*schema.CallToolResult, *jsonrpc.Error) {
		startLogin(ctx)
		out, err := graph.Run(ctx, gate, func(ctx context.Context, sess *graph.Session) (*graph.DeleteEventOutput, error) {
			return cal.Delete(ctx, sess, in)
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*struct{}, *CurrentDatetimeOutput](base.Registry, "getCurrentDatetime", getCurrentDatetimeDesc, func(ctx context.Context, _ *struct{}) (*schema.CallToolResult, *jsonrpc.Error) {
		now := time.Now()
		out := &CurrentDatetimeOutput{
			ISO:     now.Format(time.RFC3339),
			Date:    now.Format("2006-01-02"),
			Weekday: now.Weekday().String(),
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*struct{}, *SearchPropertiesOutput](base.Registry, "outlookSearchProperties", outlookSearchPropertiesDesc, func(ctx context.Context, _ *struct{}) (*schema.CallToolResult, *jsonrpc.Error) {
		return buildSuccessResult(svc, &SearchPropertiesOutput{Properties: searchProperties()})
	}); err != nil {
		return err
	}

	return nil
}

// searchProperties documents the outlookSearchMail fields for the model.
func searchProperties() map[string]string {
	return map[string]string{
		"subject":         "text contained in the subject line",
		"body":            "text contained in the message body",
		"from_email":      "sender address or display name fragment",
		"to_email":        "direct recipient address fragment",
		"cc_email":        "cc recipient address fragment",
		"has_attachments": "true/false; omit to match both",
		"is_read":         "true/false; omit to match both",
		"folder_id":       "mail folder to search (default inbox)",
		"count":           "maximum results, 1..1000 (default 20)",
	}
}

func buildErrorResult(message string) (*schema.CallToolResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewError(jsonrpc.InvalidParams, message, nil)
}

func buildSuccessResult(service *Service, payload any) (*schema.CallToolResult, *jsonrpc.Error) {
	if service.UseTextField() {
		b, _ := json.Marshal(payload)
		return &schema.CallToolResult{Content: []schema.CallToolResultContentElem{{Type: "text", Text: string(b)}}}, nil
	}
	return &schema.CallToolResult{StructuredContent: map[string]any{"result": payload}}, nil
}

func newUUID() string { return uuid.New().String() }
