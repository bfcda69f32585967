package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// fakeCalendar минимальный Google Calendar API на httptest
type fakeCalendar struct {
	mu       sync.Mutex
	pages    [][]*calendar.Event
	inserted []*calendar.Event
	deleted  []string
	query    map[string]string
}

func (f *fakeCalendar) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /calendar/v3/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		q := r.URL.Query()
		f.query = map[string]string{
			"timeMin":      q.Get("timeMin"),
			"timeMax":      q.Get("timeMax"),
			"singleEvents": q.Get("singleEvents"),
			"orderBy":      q.Get("orderBy"),
		}

		page := 0
		if q.Get("pageToken") == "next" {
			page = 1
		}
		resp := calendar.Events{Items: f.pages[page]}
		if page+1 < len(f.pages) {
			resp.NextPageToken = "next"
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	mux.HandleFunc("POST /calendar/v3/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		var ev calendar.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		f.mu.Lock()
		f.inserted = append(f.inserted, &ev)
		ev.Id = "evt-new"
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(ev))
	})

	mux.HandleFunc("DELETE /calendar/v3/calendars/primary/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		switch id {
		case "gone":
			http.Error(w, `{"error":{"code":410,"message":"Resource has been deleted"}}`, http.StatusGone)
			return
		case "missing":
			http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
			return
		}
		f.mu.Lock()
		f.deleted = append(f.deleted, id)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func newTestStore(t *testing.T, fake *fakeCalendar) *Store {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	store, err := NewStore(context.Background(), "primary", testCatalog(t), zap.NewNop(),
		option.WithEndpoint(srv.URL+"/calendar/v3/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return store
}

func TestStoreListPagesAndDecodes(t *testing.T) {
	cat := testCatalog(t)
	structured := encodeEvent(cat, &model.Booking{
		ServiceID: "body60", ServiceLabel: "全身指壓60分",
		Kinds: []model.ResourceKind{model.ResourceBody},
		Start: at(cat, 12, 0), End: at(cat, 13, 0),
		Practitioner: "阿明",
	})
	structured.Id = "s1"

	fake := &fakeCalendar{pages: [][]*calendar.Event{
		{
			structured,
			{Id: "x", Summary: "私人行程",
				Start: &calendar.EventDateTime{DateTime: "2026-10-20T12:00:00+08:00"},
				End:   &calendar.EventDateTime{DateTime: "2026-10-20T13:00:00+08:00"}},
		},
		{
			{Id: "l1", Summary: "腳底按摩40分 預約：林", ColorId: "4",
				Start: &calendar.EventDateTime{DateTime: "2026-10-20T12:30:00+08:00"},
				End:   &calendar.EventDateTime{DateTime: "2026-10-20T13:10:00+08:00"}},
			{Id: "c1", Status: "cancelled", Summary: "腳底按摩40分 預約：林",
				Start: &calendar.EventDateTime{DateTime: "2026-10-20T12:30:00+08:00"},
				End:   &calendar.EventDateTime{DateTime: "2026-10-20T13:10:00+08:00"}},
		},
	}}
	store := newTestStore(t, fake)

	got, err := store.List(context.Background(), at(cat, 10, 0), at(cat, 21, 0))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, "阿明", got[0].Practitioner)
	assert.Equal(t, "x", got[1].ID)
	assert.Equal(t, []model.ResourceKind{model.ResourceBody}, got[1].Kinds)
	assert.Equal(t, "l1", got[2].ID)
	assert.Equal(t, "小芳", got[2].Practitioner)
	assert.Equal(t, []model.ResourceKind{model.ResourceFoot}, got[2].Kinds)

	assert.Equal(t, "true", fake.query["singleEvents"])
	assert.Equal(t, "startTime", fake.query["orderBy"])
	assert.Equal(t, "2026-10-20T10:00:00+08:00", fake.query["timeMin"])
}

func TestStoreInsert(t *testing.T) {
	cat := testCatalog(t)
	fake := &fakeCalendar{}
	store := newTestStore(t, fake)

	id, err := store.Insert(context.Background(), &model.Booking{
		ServiceID: "foot40", ServiceLabel: "腳底按摩40分",
		Kinds: []model.ResourceKind{model.ResourceFoot},
		Start: at(cat, 15, 0), End: at(cat, 15, 40),
		Practitioner: "阿明",
		Customer:     model.Customer{Name: "王小明", Phone: "0912"},
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-new", id)

	require.Len(t, fake.inserted, 1)
	ev := fake.inserted[0]
	assert.Equal(t, "腳底按摩40分 預約：王小明", ev.Summary)
	assert.Equal(t, "1", ev.ColorId)
	assert.Equal(t, "foot40", ev.ExtendedProperties.Private[propService])
}

func TestStoreDelete(t *testing.T) {
	fake := &fakeCalendar{}
	store := newTestStore(t, fake)
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, "evt-1"))
	assert.Equal(t, []string{"evt-1"}, fake.deleted)

	// уже удалённое событие
	assert.NoError(t, store.Delete(ctx, "gone"))

	assert.Error(t, store.Delete(ctx, "missing"))
}
