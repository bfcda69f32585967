package availability

import (
	"testing"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/catalog"
	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/Freeeeeet/massage_booking/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testDefinition магазин для тестов: 2 места для стоп, 2 для тела, 10:00-21:00
func testDefinition() catalog.Definition {
	week := make([]catalog.DayHours, 7)
	for i := range week {
		week[i] = catalog.DayHours{Open: 10, Close: 21}
	}
	return catalog.Definition{
		TimeZone:     "Asia/Taipei",
		MaxPartySize: 3,
		Resources:    map[string]int{"body": 2, "foot": 2},
		Hours:        week,
		Services: []catalog.ServiceDef{
			{ID: "foot40", Label: "腳底按摩40分", Duration: 40, Resource: "foot"},
			{ID: "body60", Label: "全身指壓60分", Duration: 60, Resource: "body"},
			{ID: "combo100", Label: "腳底+全身100分", Duration: 100,
				Parts: []catalog.PartDef{{Service: "foot40", Minutes: 40}, {Service: "body60"}}},
		},
		Practitioners: []catalog.PractitionerDef{{Name: "X", Color: "5"}, {Name: "Y", Color: "6"}},
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(testDefinition())
	require.NoError(t, err)
	return c
}

// at время во вторник 20.10.2026 по Тайбэю
func at(c *catalog.Catalog, hour, minute int) time.Time {
	return time.Date(2026, 10, 20, hour, minute, 0, 0, c.Location())
}

func booking(kind model.ResourceKind, start, end time.Time, practitioner string) model.Booking {
	return model.Booking{
		Kinds:        []model.ResourceKind{kind},
		Start:        start,
		End:          end,
		Practitioner: practitioner,
	}
}

func newResolver(t *testing.T, now time.Time, existing ...model.Booking) (*Resolver, *memory.Store) {
	t.Helper()
	store := memory.NewStore(existing...)
	r := NewResolver(testCatalog(t), store, nil, zap.NewNop()).WithClock(func() time.Time { return now })
	return r, store
}
