// Package caldav implements the calendar domain.Gateway against a generic
// CalDAV server (Fastmail, Nextcloud, and similar) using go-webdav's caldav
// client and go-ical for event encoding. Google's REST API is far more
// common for this spec's deployment, but CalDAV lets a self-hosted user
// connect any standards-compliant provider.
package caldav

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	calendarDomain "github.com/qnz18/qzwhatnext/internal/calendar/domain"
	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/sony/gobreaker/v2"
)

// Private-metadata X-properties. CalDAV has no extendedProperties concept,
// so the same (task_id, block_id, managed) triple the Google gateway
// stores as extended properties is carried as vendor X-properties here.
const (
	xPropTaskID      = "X-QZWHATNEXT-TASK-ID"
	xPropBlockID     = "X-QZWHATNEXT-BLOCK-ID"
	xPropTimeBlockID = "X-QZWHATNEXT-TIME-BLOCK-ID"
	xPropManaged     = "X-QZWHATNEXT-MANAGED"
)

// Gateway calls a CalDAV server on behalf of a single user.
type Gateway struct {
	client  *caldav.Client
	breaker *gobreaker.CircuitBreaker[any]
	timeout time.Duration
}

// New builds a gateway bound to a CalDAV endpoint, authenticating with the
// supplied HTTP client (typically an oauth2-wrapped or basic-auth client).
func New(httpClient *http.Client, endpoint string, timeout time.Duration) (*Gateway, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("caldav: connect: %w", err)
	}

	st := gobreaker.Settings{
		Name:        "caldav",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Gateway{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[any](st),
		timeout: timeout,
	}, nil
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.timeout)
}

func eventToICal(e *calendarDomain.Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//qzwhatnext//calendar//EN")

	comp := ical.NewEvent()
	if e.ID != "" {
		comp.Props.SetText(ical.PropUID, e.ID)
	}
	comp.Props.SetText(ical.PropSummary, e.Summary)
	comp.Props.SetDateTime(ical.PropDateTimeStart, e.Start)
	comp.Props.SetDateTime(ical.PropDateTimeEnd, e.End)
	if e.RRule != "" {
		comp.Props.SetText(ical.PropRecurrenceRule, e.RRule)
	}
	if v, ok := e.Private[calendarDomain.MetaTaskID]; ok {
		comp.Props.SetText(xPropTaskID, v)
	}
	if v, ok := e.Private[calendarDomain.MetaBlockID]; ok {
		comp.Props.SetText(xPropBlockID, v)
	}
	if v, ok := e.Private[calendarDomain.MetaTimeBlockID]; ok {
		comp.Props.SetText(xPropTimeBlockID, v)
	}
	if e.Private[calendarDomain.MetaManaged] == "1" {
		comp.Props.SetText(xPropManaged, "1")
	}

	cal.Children = append(cal.Children, comp.Component)
	return cal
}

func icalToEvent(comp *ical.Component) *calendarDomain.Event {
	ev := &calendarDomain.Event{Private: map[string]string{}}
	if uid := comp.Props.Get(ical.PropUID); uid != nil {
		ev.ID = uid.Value
	}
	if summary := comp.Props.Get(ical.PropSummary); summary != nil {
		ev.Summary = summary.Value
	}
	if start, err := comp.Props.DateTime(ical.PropDateTimeStart, nil); err == nil {
		ev.Start = start
	}
	if end, err := comp.Props.DateTime(ical.PropDateTimeEnd, nil); err == nil {
		ev.End = end
	}
	if v := comp.Props.Get(xPropTaskID); v != nil {
		ev.Private[calendarDomain.MetaTaskID] = v.Value
	}
	if v := comp.Props.Get(xPropBlockID); v != nil {
		ev.Private[calendarDomain.MetaBlockID] = v.Value
	}
	if v := comp.Props.Get(xPropTimeBlockID); v != nil {
		ev.Private[calendarDomain.MetaTimeBlockID] = v.Value
	}
	if v := comp.Props.Get(xPropManaged); v != nil {
		ev.Private[calendarDomain.MetaManaged] = v.Value
	}
	ev.Status = "confirmed"
	return ev
}

func eventPath(calendarID, eventID string) string {
	return calendarID + "/" + eventID + ".ics"
}

func (g *Gateway) GetEvent(ctx context.Context, calendarID, eventID string) (*calendarDomain.Event, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	obj, err := g.client.GetCalendarObject(ctx, eventPath(calendarID, eventID))
	if err != nil {
		if isNotFound(err) {
			return nil, calendarDomain.ErrEventNotFound
		}
		return nil, err
	}
	for _, comp := range obj.Data.Children {
		if comp.Name == ical.CompEvent {
			ev := icalToEvent(comp)
			ev.ETag = obj.ETag
			ev.Updated = obj.ModTime
			return ev, nil
		}
	}
	return nil, calendarDomain.ErrEventNotFound
}

func (g *Gateway) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]*calendarDomain.Event, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: start,
				End:   end,
			}},
		},
	}
	objs, err := g.client.QueryCalendar(ctx, calendarID, query)
	if err != nil {
		return nil, err
	}

	var out []*calendarDomain.Event
	for _, obj := range objs {
		for _, comp := range obj.Data.Children {
			if comp.Name == ical.CompEvent {
				ev := icalToEvent(comp)
				ev.ETag = obj.ETag
				ev.Updated = obj.ModTime
				out = append(out, ev)
			}
		}
	}
	return out, nil
}

func (g *Gateway) InsertEvent(ctx context.Context, calendarID string, event *calendarDomain.Event) (*calendarDomain.Event, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if event.ID == "" {
		event.ID = fmt.Sprintf("qzwhatnext-%d", time.Now().UTC().UnixNano())
	}
	cal := eventToICal(event)
	obj, err := g.client.PutCalendarObject(ctx, eventPath(calendarID, event.ID), cal)
	if err != nil {
		return nil, err
	}
	result := *event
	result.ETag = obj.ETag
	return &result, nil
}

func (g *Gateway) PatchEvent(ctx context.Context, calendarID string, event *calendarDomain.Event) (*calendarDomain.Event, error) {
	return g.InsertEvent(ctx, calendarID, event)
}

func (g *Gateway) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	err := g.client.RemoveAll(ctx, eventPath(calendarID, eventID))
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// FreeBusy derives busy intervals from ListEvents, one interval per event in
// [start, end); no CalDAV free-busy report is issued.
func (g *Gateway) FreeBusy(ctx context.Context, calendarID string, start, end time.Time) ([]calendarDomain.FreeBusyInterval, error) {
	events, err := g.ListEvents(ctx, calendarID, start, end)
	if err != nil {
		return nil, err
	}
	intervals := make([]calendarDomain.FreeBusyInterval, 0, len(events))
	for _, e := range events {
		intervals = append(intervals, calendarDomain.FreeBusyInterval{Start: e.Start, End: e.End})
	}
	return intervals, nil
}

// Timezone always returns "UTC": a timezone is not a per-calendar CalDAV
// property in the general case, and no per-user override is read.
func (g *Gateway) Timezone(ctx context.Context, calendarID string) (string, error) {
	return "UTC", nil
}

func isNotFound(err error) bool {
	var httpErr *caldav.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code == http.StatusNotFound || httpErr.Code == http.StatusGone
	}
	return false
}
