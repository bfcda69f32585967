package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/availability"
	"github.com/Freeeeeet/massage_booking/internal/catalog"
	"github.com/Freeeeeet/massage_booking/internal/controller/state"
	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(catalog.DefaultDefinition())
	require.NoError(t, err)
	return cat
}

func TestCommandArgs(t *testing.T) {
	assert.Equal(t, []string{"foot40", "2026-10-20"}, commandArgs("/slots@shop_bot  foot40 2026-10-20"))
	assert.Empty(t, commandArgs("/slots"))
	assert.Nil(t, commandArgs(""))
}

func TestParseSlotsArgs(t *testing.T) {
	cat := testCatalog(t)
	now := time.Date(2026, 10, 20, 9, 30, 0, 0, cat.Location())

	tests := []struct {
		name       string
		args       []string
		wantID     string
		wantDay    string
		wantMaster string
		wantErr    bool
	}{
		{"service only uses today", []string{"foot40"}, "foot40", "2026-10-20", "", false},
		{"label and date", []string{"全身指壓60分", "2026-10-22"}, "body60", "2026-10-22", "", false},
		{"master before date", []string{"combo100", "阿明", "2026-10-21"}, "combo100", "2026-10-21", "阿明", false},
		{"no args", nil, "", "", "", true},
		{"unknown service", []string{"sauna"}, "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := parseSlotsArgs(cat, tt.args, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, q.guest.ServiceID)
			assert.Equal(t, tt.wantDay, q.day.Format(dayLayout))
			assert.Equal(t, tt.wantMaster, q.guest.Practitioner)
		})
	}
}

func TestParseCheckArgs(t *testing.T) {
	cat := testCatalog(t)

	q, err := parseCheckArgs(cat, []string{"body90", "2026-10-20", "14:30", "小美"})
	require.NoError(t, err)
	assert.Equal(t, "body90", q.guest.ServiceID)
	assert.Equal(t, "小美", q.guest.Practitioner)
	assert.True(t, q.start.Equal(time.Date(2026, 10, 20, 14, 30, 0, 0, cat.Location())))

	_, err = parseCheckArgs(cat, []string{"body90", "2026-10-20", "2pm"})
	assert.ErrorIs(t, err, model.ErrMalformedTime)

	_, err = parseCheckArgs(cat, []string{"body90"})
	assert.Error(t, err)
}

func TestParseNextArgs(t *testing.T) {
	cat := testCatalog(t)

	q, err := parseNextArgs(cat, []string{"foot60", "阿傑"})
	require.NoError(t, err)
	assert.Equal(t, model.Guest{ServiceID: "foot60", Practitioner: "阿傑"}, q.guest)

	_, err = parseNextArgs(cat, nil)
	assert.Error(t, err)
}

func TestFormatSlots(t *testing.T) {
	cat := testCatalog(t)
	day := time.Date(2026, 10, 20, 0, 0, 0, 0, cat.Location())
	q := query{guest: model.Guest{ServiceID: "foot40", Practitioner: "阿明"}, day: day}

	text := formatSlots(cat, q, []time.Time{day.Add(10 * time.Hour), day.Add(10*time.Hour + 30*time.Minute)})
	assert.Contains(t, text, "2026-10-20 foot40 / 阿明")
	assert.Contains(t, text, "10:00  10:30")

	assert.Contains(t, formatSlots(cat, q, nil), "當天已無空檔")

	many := make([]time.Time, maxSlotsShown+5)
	for i := range many {
		many[i] = day.Add(time.Duration(i) * time.Minute)
	}
	assert.Contains(t, formatSlots(cat, q, many), "…")
}

func TestFormatServices(t *testing.T) {
	text := formatServices(testCatalog(t))
	assert.Contains(t, text, "腳底+全身100分 (combo100) 100 分鐘")
	assert.Contains(t, text, "阿明、小美、阿傑、小芳")
}

func TestFormatCheckAndErrors(t *testing.T) {
	assert.Equal(t, "✅ 可以預約", formatCheck(availability.Result{Available: true}))
	assert.Contains(t, formatCheck(availability.Result{Code: model.CodeOutOfHours, Reason: "closes at 21:00"}), "closes at 21:00")
	assert.Contains(t, formatCheck(availability.Result{Code: model.CodeCapacityExceeded}), "客滿")

	assert.Equal(t, "❌ 沒有這項服務", describeError(model.NewInvalidService("sauna")))
	assert.Equal(t, "❌ boom", describeError(errors.New("boom")))
}

func TestParseBookArgs(t *testing.T) {
	cat := testCatalog(t)

	q, err := parseBookArgs(cat, []string{"foot40", "2026-10-20", "14:30", "小美"})
	require.NoError(t, err)
	assert.Equal(t, "foot40", q.guest.ServiceID)
	assert.Equal(t, "小美", q.guest.Practitioner)
	assert.True(t, q.start.Equal(time.Date(2026, 10, 20, 14, 30, 0, 0, cat.Location())))

	_, err = parseBookArgs(cat, []string{"foot40"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/book")
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"0912345678", true},
		{"+886 912-345-678", true},
		{"12345", false},
		{"09-12+345678", false},
		{"call me", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, validPhone(tt.phone))
		})
	}
}

func TestFormatConfirmation(t *testing.T) {
	cat := testCatalog(t)
	start := time.Date(2026, 10, 20, 13, 0, 0, 0, cat.Location())
	bookings := []model.Booking{
		{ServiceLabel: "腳底按摩", Start: start, End: start.Add(40 * time.Minute), Practitioner: "小美"},
		{ServiceLabel: "全身按摩", Start: start.Add(40 * time.Minute), End: start.Add(100 * time.Minute)},
	}

	text := formatConfirmation(cat.Location(), state.Draft{Name: "王小明"}, bookings)
	assert.Contains(t, text, "👤 王小明")
	assert.Contains(t, text, "2026-10-20 13:00-13:40 腳底按摩 / 小美")
	assert.Contains(t, text, "13:40-14:40 全身按摩")
	assert.NotContains(t, text, "全身按摩 /")
}

func TestParseChartArgs(t *testing.T) {
	cat := testCatalog(t)
	now := time.Date(2026, 10, 20, 15, 4, 0, 0, cat.Location())

	day, err := parseChartArgs(cat, nil, now)
	require.NoError(t, err)
	assert.True(t, day.Equal(time.Date(2026, 10, 20, 0, 0, 0, 0, cat.Location())))

	day, err = parseChartArgs(cat, []string{"2026-10-22"}, now)
	require.NoError(t, err)
	assert.Equal(t, 22, day.Day())

	_, err = parseChartArgs(cat, []string{"tomorrow"}, now)
	assert.ErrorIs(t, err, model.ErrMalformedTime)
}

func TestCommandNameHidesArguments(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"/book foot40 2026-10-20 13:00 小美", "/book"},
		{"/slots@shop_bot foot40", "/slots"},
		{"王小明", ""},
		{"0912345678", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, commandName(tt.text))
		})
	}
}

func TestLogUpdatesOmitsMessageText(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := LogUpdates(zap.New(core))(func(ctx context.Context, b *bot.Bot, update *models.Update) {})

	handler(context.Background(), nil, &models.Update{Message: &models.Message{
		Chat: models.Chat{ID: 42},
		Text: "0912345678",
	}})

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(42), fields["chat_id"])
	assert.Equal(t, "", fields["command"])
	assert.NotContains(t, fmt.Sprint(fields), "0912345678")
}
