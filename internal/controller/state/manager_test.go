package state

import (
	"testing"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerDialog(t *testing.T) {
	sm := NewManager(time.Hour)
	const chat = int64(42)

	assert.Equal(t, StateNone, sm.GetState(chat))
	assert.False(t, sm.Advance(chat, StateBookingPhone, Draft{}))

	draft := Draft{Guest: model.Guest{ServiceID: "foot40"}, Start: time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC)}
	sm.Start(chat, StateBookingName, draft)
	assert.Equal(t, StateBookingName, sm.GetState(chat))

	draft.Name = "王小明"
	require.True(t, sm.Advance(chat, StateBookingPhone, draft))
	got, ok := sm.GetDraft(chat)
	require.True(t, ok)
	assert.Equal(t, "王小明", got.Name)
	assert.Equal(t, StateBookingPhone, sm.GetState(chat))

	sm.ClearState(chat)
	assert.Equal(t, StateNone, sm.GetState(chat))
	_, ok = sm.GetDraft(chat)
	assert.False(t, ok)
}

func TestManagerExpiresAbandonedDialogs(t *testing.T) {
	now := time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC)
	sm := NewManager(15 * time.Minute)
	sm.now = func() time.Time { return now }

	sm.Start(1, StateBookingName, Draft{})
	now = now.Add(10 * time.Minute)
	assert.Equal(t, StateBookingName, sm.GetState(1))

	now = now.Add(20 * time.Minute)
	assert.Equal(t, StateNone, sm.GetState(1))
	assert.False(t, sm.Advance(1, StateBookingPhone, Draft{}))
}
