package graph

import (
	"context"
	"fmt"
	neturl "net/url"
	"strconv"
	"time"

	models "github.com/microsoftgraph/msgraph-sdk-go/models"
)

const (
	defaultEventCount = 10
	// rangeWindowDays is the default span for date-range listings.
	rangeWindowDays = 14
	dateLayout      = "2006-01-02"
)

const eventSelect = "id,subject,organizer,attendees,start,end,location,isOnlineMeeting,bodyPreview"

// CalendarService exposes calendar operations against the default calendar.
type CalendarService struct{}

func NewCalendarService() *CalendarService { return &CalendarService{} }

// List returns upcoming events, newest first.
func (s *CalendarService) List(ctx context.Context, sess *Session, count int) (*ListEventsOutput, error) {
	if count <= 0 {
		count = defaultEventCount
	}
	q := neturl.Values{}
	q.Set("$top", strconv.Itoa(count))
	q.Set("$orderby", "start/dateTime DESC")
	q.Set("$select", eventSelect)
	var first page[eventPayload]
	if err := sess.rest.get(ctx, "list events", "/me/events", q, &first); err != nil {
		return nil, err
	}
	return s.collectEvents(ctx, sess, "list events", first, count)
}

// ListRange returns events within a date range. An omitted start defaults to
// the beginning of the current week; an omitted end to two weeks after start.
func (s *CalendarService) ListRange(ctx context.Context, sess *Session, in *EventRangeInput) (*ListEventsOutput, error) {
	start, end, err := resolveRange(in.StartDate, in.EndDate, time.Now())
	if err != nil {
		return nil, err
	}
	q := neturl.Values{}
	q.Set("startDateTime", start.Format(time.RFC3339))
	q.Set("endDateTime", end.Format(time.RFC3339))
	q.Set("$top", strconv.Itoa(folderPageSize))
	q.Set("$orderby", "start/dateTime ASC")
	q.Set("$select", eventSelect)
	var first page[eventPayload]
	if err := sess.rest.get(ctx, "list events by range", "/me/calendarView", q, &first); err != nil {
		return nil, err
	}
	return s.collectEvents(ctx, sess, "list events by range", first, folderPageSize)
}

func (s *CalendarService) collectEvents(ctx context.Context, sess *Session, op string, first page[eventPayload], max int) (*ListEventsOutput, error) {
	payloads, err := collectPages(ctx, first, max, func(ctx context.Context, link string) (page[eventPayload], error) {
		var p page[eventPayload]
		err := sess.rest.getURL(ctx, op, link, &p)
		return p, err
	})
	if err != nil {
		return nil, err
	}
	out := &ListEventsOutput{}
	for _, p := range payloads {
		out.Events = append(out.Events, toEvent(p))
	}
	return out, nil
}

// resolveRange applies the range defaults against now.
func resolveRange(startDate, endDate string, now time.Time) (time.Time, time.Time, error) {
	var start time.Time
	if startDate == "" {
		// Beginning of the current week, Monday-based.
		weekday := (int(now.Weekday()) + 6) % 7
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -weekday)
	} else {
		var err error
		start, err = time.Parse(dateLayout, startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid startDate %q (expected YYYY-MM-DD)", ErrInvalidQuery, startDate)
		}
	}
	var end time.Time
	if endDate == "" {
		end = start.AddDate(0, 0, rangeWindowDays)
	} else {
		var err error
		end, err = time.Parse(dateLayout, endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid endDate %q (expected YYYY-MM-DD)", ErrInvalidQuery, endDate)
		}
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: endDate must follow startDate", ErrInvalidQuery)
	}
	return start, end, nil
}

// Create posts a new event built from SDK models via the typed Graph client.
func (s *CalendarService) Create(ctx context.Context, sess *Session, in *CreateEventInput) (*CalendarEvent, error) {
	if err := requireID("subject", in.Subject); err != nil {
		return nil, err
	}
	if err := requireID("startDateTime", in.StartDateTime); err != nil {
		return nil, err
	}
	if err := requireID("endDateTime", in.EndDateTime); err != nil {
		return nil, err
	}
	if sess.sdk == nil {
		return nil, fmt.Errorf("%w: create event %s: graph client not initialized", ErrOperationFailed, in.Subject)
	}
	ev := buildEvent(in)
	created, err := sess.sdk.Me().Events().Post(ctx, ev, nil)
	if err != nil {
		return nil, mutationError("create event", in.Subject, classifySDKError("create event", err))
	}
	out := &CalendarEvent{
		ID:       ptrVal(created.GetId()),
		Subject:  ptrVal(created.GetSubject()),
		StartISO: dateTimeToISO(created.GetStart()),
		EndISO:   dateTimeToISO(created.GetEnd()),
		Location: locationName(created.GetLocation()),
	}
	return out, nil
}

// buildEvent assembles the SDK event model; the body defaults to a minimal
// HTML wrapper around the subject when the caller supplies none.
func buildEvent(in *CreateEventInput) models.Eventable {
	ev := models.NewEvent()
	ev.SetSubject(ptr(in.Subject))
	tz := in.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	start := models.NewDateTimeTimeZone()
	start.SetDateTime(ptr(in.StartDateTime))
	start.SetTimeZone(ptr(tz))
	end := models.NewDateTimeTimeZone()
	end.SetDateTime(ptr(in.EndDateTime))
	end.SetTimeZone(ptr(tz))
	ev.SetStart(start)
	ev.SetEnd(end)

	content := in.Body
	if content == "" {
		content = "<p>" + in.Subject + "</p>"
	}
	body := models.NewItemBody()
	body.SetContentType(ptr(models.HTML_BODYTYPE))
	body.SetContent(ptr(content))
	ev.SetBody(body)

	if in.Location != "" {
		loc := models.NewLocation()
		loc.SetDisplayName(ptr(in.Location))
		ev.SetLocation(loc)
	}
	if in.IsOnlineMeeting {
		ev.SetIsOnlineMeeting(ptr(true))
		ev.SetOnlineMeetingProvider(ptr(models.TEAMSFORBUSINESS_ONLINEMEETINGPROVIDERTYPE))
	}
	if len(in.Attendees) > 0 {
		ev.SetAttendees(buildAttendees(in.Attendees))
	}
	ev.SetAllowNewTimeProposals(ptr(true))
	return ev
}

// buildAttendees normalizes attendee input; attendance is required unless
// explicitly marked optional.
func buildAttendees(in []EventAttendee) []models.Attendeeable {
	out := make([]models.Attendeeable, 0, len(in))
	for _, a := range in {
		if a.Email == "" {
			continue
		}
		email := models.NewEmailAddress()
		email.SetAddress(ptr(a.Email))
		if a.Name != "" {
			email.SetName(ptr(a.Name))
		}
		att := models.NewAttendee()
		att.SetEmailAddress(email)
		kind := models.REQUIRED_ATTENDEETYPE
		if a.Optional {
			kind = models.OPTIONAL_ATTENDEETYPE
		}
		att.SetTypeEscaped(ptr(kind))
		out = append(out, att)
	}
	return out
}

// Get fetches a single event.
func (s *CalendarService) Get(ctx context.Context, sess *Session, eventID string) (*CalendarEvent, error) {
	if err := requireID("eventId", eventID); err != nil {
		return nil, err
	}
	q := neturl.Values{}
	q.Set("$select", eventSelect)
	var payload eventPayload
	if err := sess.rest.get(ctx, "get event", "/me/events/"+neturl.PathEscape(eventID), q, &payload); err != nil {
		return nil, err
	}
	ev := toEvent(payload)
	return &ev, nil
}

// Delete removes an event. With notifyAttendees the event is cancelled so
// attendees receive a cancellation notice; otherwise it is deleted outright.
func (s *CalendarService) Delete(ctx context.Context, sess *Session, in *DeleteEventInput) (*DeleteEventOutput, error) {
	if err := requireID("eventId", in.EventID); err != nil {
		return nil, err
	}
	event, err := s.Get(ctx, sess, in.EventID)
	if err != nil {
		return nil, err
	}
	notify := in.NotifyAttendees == nil || *in.NotifyAttendees
	path := "/me/events/" + neturl.PathEscape(in.EventID)
	if notify {
		if err := sess.rest.post(ctx, "cancel event", path+"/cancel", map[string]any{}, nil); err != nil {
			return nil, mutationError("cancel event", in.EventID, err)
		}
		return &DeleteEventOutput{EventID: in.EventID, Subject: event.Subject, Status: "cancelled"}, nil
	}
	if err := sess.rest.delete(ctx, "delete event", path); err != nil {
		return nil, mutationError("delete event", in.EventID, err)
	}
	return &DeleteEventOutput{EventID: in.EventID, Subject: event.Subject, Status: "deleted"}, nil
}

func dateTimeToISO(dt models.DateTimeTimeZoneable) string {
	if dt == nil || dt.GetDateTime() == nil {
		return ""
	}
	return *dt.GetDateTime()
}

func locationName(loc models.Locationable) string {
	if loc == nil || loc.GetDisplayName() == nil {
		return ""
	}
	return *loc.GetDisplayName()
}
