package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	models "github.com/microsoftgraph/msgraph-sdk-go/models"
)

func Test_CalendarService_List(t *testing.T) {
	var gotTop, gotOrderBy string
	mux := http.NewServeMux()
	mux.HandleFunc("/me/events", func(w http.ResponseWriter, r *http.Request) {
		gotTop = r.URL.Query().Get("$top")
		gotOrderBy = r.URL.Query().Get("$orderby")
		fmt.Fprint(w, `{"value":[
			{"id":"e1","subject":"Standup",
			 "start":{"dateTime":"2026-09-01T09:00:00.0000000","timeZone":"UTC"},
			 "end":{"dateTime":"2026-09-01T09:15:00.0000000","timeZone":"UTC"},
			 "location":{"displayName":"Room 4"},
			 "organizer":{"emailAddress":{"name":"Ann","address":"ann@example.com"}},
			 "attendees":[{"emailAddress":{"address":"bob@example.com"}}],
			 "isOnlineMeeting":true}
		]}`)
	})
	sess, srv := newTestSession(t, mux)
	defer srv.Close()

	out, err := NewCalendarService().List(context.Background(), sess, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTop != "10" || gotOrderBy != "start/dateTime DESC" {
		t.Fatalf("unexpected query: top=%q orderby=%q", gotTop, gotOrderBy)
	}
	if len(out.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(out.Events))
	}
	ev := out.Events[0]
	if ev.Subject != "Standup" || ev.Location != "Room 4" || !ev.IsOnlineMeeting {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Organizer != "Ann <ann@example.com>" || len(ev.Attendees) != 1 {
		t.Fatalf("unexpected participants: %+v", ev)
	}
}

func Test_CalendarService_ListRange_Params(t *testing.T) {
	var gotStart, gotEnd string
	mux := http.NewServeMux()
	mux.HandleFunc("/me/calendarView", func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("startDateTime")
		gotEnd = r.URL.Query().Get("endDateTime")
		fmt.Fprint(w, `{"value":[]}`)
	})
	sess, srv := newTestSession(t, mux)
	defer srv.Close()

	in := &EventRangeInput{StartDate: "2026-09-07", EndDate: "2026-09-11"}
	if _, err := NewCalendarService().ListRange(context.Background(), sess, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotStart != "2026-09-07T00:00:00Z" || gotEnd != "2026-09-11T00:00:00Z" {
		t.Fatalf("unexpected range: %q .. %q", gotStart, gotEnd)
	}
}

func Test_ResolveRange(t *testing.T) {
	// A Wednesday; the default start is the Monday of that week.
	now := time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC)

	start, end, err := resolveRange("", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := start.Format(dateLayout); got != "2026-08-31" {
		t.Fatalf("default start = %s, want Monday 2026-08-31", got)
	}
	if end.Sub(start) != rangeWindowDays*24*time.Hour {
		t.Fatalf("default window = %v", end.Sub(start))
	}

	start, end, err = resolveRange("2026-09-10", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Format(dateLayout) != "2026-09-10" || end.Format(dateLayout) != "2026-09-24" {
		t.Fatalf("explicit start: %s .. %s", start.Format(dateLayout), end.Format(dateLayout))
	}

	if _, _, err := resolveRange("09/10/2026", "", now); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery for bad date, got %v", err)
	}
	if _, _, err := resolveRange("2026-09-10", "2026-09-10", now); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery for empty range, got %v", err)
	}
}

func Test_BuildEvent_Defaults(t *testing.T) {
	ev := buildEvent(&CreateEventInput{
		Subject:       "Planning",
		StartDateTime: "2026-09-03T10:00:00",
		EndDateTime:   "2026-09-03T11:00:00",
	})
	if got := *ev.GetStart().GetTimeZone(); got != "UTC" {
		t.Fatalf("timezone default = %q", got)
	}
	if got := *ev.GetBody().GetContent(); got != "<p>Planning</p>" {
		t.Fatalf("body default = %q", got)
	}
	if got := *ev.GetBody().GetContentType(); got != models.HTML_BODYTYPE {
		t.Fatalf("body content type = %v", got)
	}
	if ev.GetLocation() != nil {
		t.Fatal("location must be absent when not given")
	}
	if ev.GetIsOnlineMeeting() != nil {
		t.Fatal("online meeting flag must be absent when not requested")
	}
	if got := *ev.GetAllowNewTimeProposals(); !got {
		t.Fatal("new time proposals should be allowed")
	}
}

func Test_BuildEvent_OnlineMeetingAndLocation(t *testing.T) {
	ev := buildEvent(&CreateEventInput{
		Subject:         "Sync",
		StartDateTime:   "2026-09-03T10:00:00",
		EndDateTime:     "2026-09-03T11:00:00",
		TimeZone:        "Europe/Berlin",
		Location:        "HQ",
		Body:            "<p>agenda</p>",
		IsOnlineMeeting: true,
	})
	if got := *ev.GetEnd().GetTimeZone(); got != "Europe/Berlin" {
		t.Fatalf("timezone = %q", got)
	}
	if got := *ev.GetLocation().GetDisplayName(); got != "HQ" {
		t.Fatalf("location = %q", got)
	}
	if !*ev.GetIsOnlineMeeting() {
		t.Fatal("expected online meeting")
	}
	if got := *ev.GetOnlineMeetingProvider(); got != models.TEAMSFORBUSINESS_ONLINEMEETINGPROVIDERTYPE {
		t.Fatalf("provider = %v", got)
	}
}

func Test_BuildAttendees(t *testing.T) {
	out := buildAttendees([]EventAttendee{
		{Email: "ann@example.com", Name: "Ann"},
		{Email: "bob@example.com", Optional: true},
		{Email: ""},
	})
	if len(out) != 2 {
		t.Fatalf("expected empty addresses skipped, got %d attendees", len(out))
	}
	if got := *out[0].GetTypeEscaped(); got != models.REQUIRED_ATTENDEETYPE {
		t.Fatalf("first attendee type = %v", got)
	}
	if got := *out[0].GetEmailAddress().GetName(); got != "Ann" {
		t.Fatalf("first attendee name = %q", got)
	}
	if got := *out[1].GetTypeEscaped(); got != models.OPTIONAL_ATTENDEETYPE {
		t.Fatalf("second attendee type = %v", got)
	}
}

func Test_CalendarService_Delete_CancelVsDelete(t *testing.T) {
	var cancelled, deleted bool
	mux := http.NewServeMux()
	mux.HandleFunc("/me/events/e1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deleted = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
		fmt.Fprint(w, `{"id":"e1","subject":"Standup","start":{"dateTime":"2026-09-01T09:00:00","timeZone":"UTC"},"end":{"dateTime":"2026-09-01T09:15:00","timeZone":"UTC"}}`)
	})
	mux.HandleFunc("/me/events/e1/cancel", func(w http.ResponseWriter, r *http.Request) {
		cancelled = true
		w.WriteHeader(http.StatusAccepted)
	})
	sess, srv := newTestSession(t, mux)
	defer srv.Close()

	svc := NewCalendarService()
	out, err := svc.Delete(context.Background(), sess, &DeleteEventInput{EventID: "e1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cancelled || deleted {
		t.Fatal("omitted notify flag must cancel, not delete")
	}
	if out.Status != "cancelled" || out.Subject != "Standup" {
		t.Fatalf("unexpected output: %+v", out)
	}

	cancelled, deleted = false, false
	out, err = svc.Delete(context.Background(), sess, &DeleteEventInput{EventID: "e1", NotifyAttendees: ptr(false)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled || !deleted {
		t.Fatal("notify=false must delete outright")
	}
	if out.Status != "deleted" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func Test_CalendarService_Delete_MissingEvent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/events/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":"ErrorItemNotFound","message":"not found"}}`)
	})
	sess, srv := newTestSession(t, mux)
	defer srv.Close()

	_, err := NewCalendarService().Delete(context.Background(), sess, &DeleteEventInput{EventID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func Test_CalendarService_Create_RequiresFields(t *testing.T) {
	sess, srv := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	}))
	defer srv.Close()

	svc := NewCalendarService()
	_, err := svc.Create(context.Background(), sess, &CreateEventInput{StartDateTime: "x", EndDateTime: "y"})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	_, err = svc.Create(context.Background(), sess, &CreateEventInput{Subject: "s", EndDateTime: "y"})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}
