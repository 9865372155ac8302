// Package google implements the calendar domain.Gateway against the Google
// Calendar v3 REST API directly (no generated client SDK is vendored),
// using an oauth2.TokenSource-backed *http.Client for auth and a
// gobreaker circuit breaker so repeated transient 5xxs stop hammering the
// upstream API instead of retrying into a request timeout budget.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	calendarDomain "github.com/qnz18/qzwhatnext/internal/calendar/domain"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
)

const baseURL = "https://www.googleapis.com/calendar/v3"

// Gateway calls the Google Calendar v3 REST API on behalf of a single
// user, using the supplied token source for auth.
type Gateway struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	timeout time.Duration
}

// New builds a gateway bound to a user's token source. timeout bounds every
// individual HTTP call (default 10s per the reconciler's suspension-point
// contract if zero is passed).
func New(tokenSource oauth2.TokenSource, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	st := gobreaker.Settings{
		Name:        "google-calendar",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Gateway{
		client:  oauth2.NewClient(context.Background(), tokenSource),
		breaker: gobreaker.NewCircuitBreaker[*http.Response](st),
		timeout: timeout,
	}
}

func (g *Gateway) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	u := baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.breaker.Execute(func() (*http.Response, error) {
		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("google calendar: server error %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("google calendar: circuit open: %w", err)
		}
		return nil, err
	}
	return resp, nil
}

type eventWire struct {
	ID                 string            `json:"id,omitempty"`
	Summary            string            `json:"summary"`
	Status             string            `json:"status,omitempty"`
	ETag               string            `json:"etag,omitempty"`
	Updated            string            `json:"updated,omitempty"`
	Start              eventTimeWire     `json:"start"`
	End                eventTimeWire     `json:"end"`
	Recurrence         []string          `json:"recurrence,omitempty"`
	ExtendedProperties *extendedProperties `json:"extendedProperties,omitempty"`
}

type eventTimeWire struct {
	DateTime string `json:"dateTime"`
}

type extendedProperties struct {
	Private map[string]string `json:"private,omitempty"`
}

func toWire(e *calendarDomain.Event) *eventWire {
	w := &eventWire{
		Summary: e.Summary,
		Start:   eventTimeWire{DateTime: e.Start.Format(time.RFC3339)},
		End:     eventTimeWire{DateTime: e.End.Format(time.RFC3339)},
	}
	if e.RRule != "" {
		w.Recurrence = []string{e.RRule}
	}
	if len(e.Private) > 0 {
		w.ExtendedProperties = &extendedProperties{Private: e.Private}
	}
	return w
}

func fromWire(w *eventWire) *calendarDomain.Event {
	ev := &calendarDomain.Event{
		ID:      w.ID,
		Summary: w.Summary,
		Status:  w.Status,
		ETag:    w.ETag,
	}
	if start, err := time.Parse(time.RFC3339, w.Start.DateTime); err == nil {
		ev.Start = start
	}
	if end, err := time.Parse(time.RFC3339, w.End.DateTime); err == nil {
		ev.End = end
	}
	if updated, err := time.Parse(time.RFC3339, w.Updated); err == nil {
		ev.Updated = updated
	}
	if w.ExtendedProperties != nil {
		ev.Private = w.ExtendedProperties.Private
	}
	return ev
}

func (g *Gateway) GetEvent(ctx context.Context, calendarID, eventID string) (*calendarDomain.Event, error) {
	resp, err := g.do(ctx, http.MethodGet, fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(eventID)), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, calendarDomain.ErrEventNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("google calendar: get event failed: %d", resp.StatusCode)
	}

	var wire eventWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, err
	}
	return fromWire(&wire), nil
}

func (g *Gateway) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]*calendarDomain.Event, error) {
	var out []*calendarDomain.Event
	pageToken := ""
	for {
		q := url.Values{
			"timeMin":      {start.Format(time.RFC3339)},
			"timeMax":      {end.Format(time.RFC3339)},
			"singleEvents": {"true"},
			"fields":       {"items(id,summary,start,end,status,etag,updated,extendedProperties(private)),nextPageToken"},
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		resp, err := g.do(ctx, http.MethodGet, fmt.Sprintf("/calendars/%s/events", url.PathEscape(calendarID)), q, nil)
		if err != nil {
			return nil, err
		}

		var page struct {
			Items         []eventWire `json:"items"`
			NextPageToken string      `json:"nextPageToken"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, decodeErr
		}

		for i := range page.Items {
			out = append(out, fromWire(&page.Items[i]))
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	return out, nil
}

func (g *Gateway) InsertEvent(ctx context.Context, calendarID string, event *calendarDomain.Event) (*calendarDomain.Event, error) {
	resp, err := g.do(ctx, http.MethodPost, fmt.Sprintf("/calendars/%s/events", url.PathEscape(calendarID)), nil, toWire(event))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("google calendar: insert event failed: %d", resp.StatusCode)
	}
	var wire eventWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, err
	}
	return fromWire(&wire), nil
}

func (g *Gateway) PatchEvent(ctx context.Context, calendarID string, event *calendarDomain.Event) (*calendarDomain.Event, error) {
	resp, err := g.do(ctx, http.MethodPatch, fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(event.ID)), nil, toWire(event))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, calendarDomain.ErrEventNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("google calendar: patch event failed: %d", resp.StatusCode)
	}
	var wire eventWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, err
	}
	return fromWire(&wire), nil
}

func (g *Gateway) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	resp, err := g.do(ctx, http.MethodDelete, fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(eventID)), nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}
	return fmt.Errorf("google calendar: delete event failed: %d", resp.StatusCode)
}

func (g *Gateway) FreeBusy(ctx context.Context, calendarID string, start, end time.Time) ([]calendarDomain.FreeBusyInterval, error) {
	body := map[string]any{
		"timeMin": start.Format(time.RFC3339),
		"timeMax": end.Format(time.RFC3339),
		"items":   []map[string]string{{"id": calendarID}},
	}
	resp, err := g.do(ctx, http.MethodPost, "/freeBusy", nil, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("google calendar: freeBusy failed: %d", resp.StatusCode)
	}

	var result struct {
		Calendars map[string]struct {
			Busy []struct {
				Start string `json:"start"`
				End   string `json:"end"`
			} `json:"busy"`
		} `json:"calendars"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	cal, ok := result.Calendars[calendarID]
	if !ok {
		return nil, nil
	}
	intervals := make([]calendarDomain.FreeBusyInterval, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		s, err1 := time.Parse(time.RFC3339, b.Start)
		e, err2 := time.Parse(time.RFC3339, b.End)
		if err1 != nil || err2 != nil {
			continue
		}
		intervals = append(intervals, calendarDomain.FreeBusyInterval{Start: s, End: e})
	}
	return intervals, nil
}

func (g *Gateway) Timezone(ctx context.Context, calendarID string) (string, error) {
	resp, err := g.do(ctx, http.MethodGet, fmt.Sprintf("/calendars/%s", url.PathEscape(calendarID)), url.Values{"fields": {"timeZone"}}, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("google calendar: get calendar failed: %d", resp.StatusCode)
	}
	var result struct {
		TimeZone string `json:"timeZone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.TimeZone, nil
}
