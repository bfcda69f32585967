package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineContiguity(t *testing.T) {
	c := testCatalog(t)
	svc, err := c.Lookup("combo100")
	require.NoError(t, err)

	segs := Timeline(svc, at(c, 12, 0))
	require.Len(t, segs, 2)

	assert.Equal(t, segs[0].End, segs[1].Start)
	assert.Equal(t, 100*time.Minute, segs[1].End.Sub(segs[0].Start))
	assert.Equal(t, 40*time.Minute, segs[0].End.Sub(segs[0].Start))
	assert.Equal(t, []model.ResourceKind{model.ResourceFoot}, segs[0].Component.Kinds)
	assert.Equal(t, []model.ResourceKind{model.ResourceBody}, segs[1].Component.Kinds)
}

// TestScenarioFootCapacity две записи на стопы [10:00,10:40) при вместимости 2
func TestScenarioFootCapacity(t *testing.T) {
	c := testCatalog(t)
	r, _ := newResolver(t, at(c, 8, 0),
		booking(model.ResourceFoot, at(c, 10, 0), at(c, 10, 40), ""),
		booking(model.ResourceFoot, at(c, 10, 0), at(c, 10, 40), ""),
	)
	guests := []model.Guest{{ServiceID: "foot40"}}

	res, err := r.CheckAvailability(context.Background(), guests, at(c, 10, 0))
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, model.CodeCapacityExceeded, res.Code)
	require.NotNil(t, res.Err)
	assert.Equal(t, model.ResourceFoot, res.Err.Kind)
	assert.Equal(t, 2, res.Err.Capacity)

	res, err = r.CheckAvailability(context.Background(), guests, at(c, 10, 40))
	require.NoError(t, err)
	assert.True(t, res.Available)
}

// TestScenarioPractitionerBusy у мастера X запись [14:00,15:00)
func TestScenarioPractitionerBusy(t *testing.T) {
	c := testCatalog(t)
	r, _ := newResolver(t, at(c, 8, 0),
		booking(model.ResourceBody, at(c, 14, 0), at(c, 15, 0), "X"),
	)
	guests := []model.Guest{{ServiceID: "body60", Practitioner: "X"}}

	res, err := r.CheckAvailability(context.Background(), guests, at(c, 14, 30))
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, model.CodePractitionerBusy, res.Code)
	assert.Equal(t, "X", res.Err.Practitioner)

	res, err = r.CheckAvailability(context.Background(), guests, at(c, 15, 0))
	require.NoError(t, err)
	assert.True(t, res.Available)

	// без мастера проверяется только вместимость
	res, err = r.CheckAvailability(context.Background(), []model.Guest{{ServiceID: "body60"}}, at(c, 14, 30))
	require.NoError(t, err)
	assert.True(t, res.Available)
}

func TestPastTimeRejectedRegardlessOfCapacity(t *testing.T) {
	c := testCatalog(t)
	now := at(c, 12, 0)
	r, _ := newResolver(t, now)

	res, err := r.CheckAvailability(context.Background(), []model.Guest{{ServiceID: "foot40"}}, now.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, model.CodePastTime, res.Code)
	assert.ErrorIs(t, res.Err, model.ErrPastTime)

	res, err = r.CheckAvailability(context.Background(), []model.Guest{{ServiceID: "foot40"}}, now)
	require.NoError(t, err)
	assert.True(t, res.Available)
}

func TestCheckOrder(t *testing.T) {
	c := testCatalog(t)
	now := at(c, 12, 0)

	tests := []struct {
		name   string
		guests []model.Guest
		start  time.Time
		want   model.ErrorCode
	}{
		{"empty party", nil, at(c, 13, 0), model.CodeInvalidPartySize},
		{"party too large", []model.Guest{{ServiceID: "foot40"}, {ServiceID: "foot40"}, {ServiceID: "foot40"}, {ServiceID: "foot40"}}, at(c, 13, 0), model.CodeInvalidPartySize},
		{"unknown service before past time", []model.Guest{{ServiceID: "sauna"}}, at(c, 9, 0), model.CodeInvalidService},
		{"past before hours", []model.Guest{{ServiceID: "foot40"}}, at(c, 9, 0), model.CodePastTime},
		{"out of hours", []model.Guest{{ServiceID: "body60"}}, at(c, 20, 30), model.CodeOutOfHours},
		{"party max duration decides hours", []model.Guest{{ServiceID: "foot40"}, {ServiceID: "combo100"}}, at(c, 19, 30), model.CodeOutOfHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newResolver(t, now)
			res, err := r.CheckAvailability(context.Background(), tt.guests, tt.start)
			require.NoError(t, err)
			assert.False(t, res.Available)
			assert.Equal(t, tt.want, res.Code)
		})
	}
}

func TestCapacityCheckedBeforePractitioner(t *testing.T) {
	c := testCatalog(t)
	r, _ := newResolver(t, at(c, 8, 0),
		booking(model.ResourceBody, at(c, 14, 0), at(c, 15, 0), "X"),
		booking(model.ResourceBody, at(c, 14, 0), at(c, 15, 0), "Y"),
	)

	res, err := r.CheckAvailability(context.Background(), []model.Guest{{ServiceID: "body60", Practitioner: "X"}}, at(c, 14, 0))
	require.NoError(t, err)
	assert.Equal(t, model.CodeCapacityExceeded, res.Code)
}

func TestPartyCapacityIsAggregated(t *testing.T) {
	c := testCatalog(t)
	r, _ := newResolver(t, at(c, 8, 0),
		booking(model.ResourceFoot, at(c, 12, 0), at(c, 12, 40), ""),
	)

	one := []model.Guest{{ServiceID: "foot40"}}
	res, err := r.CheckAvailability(context.Background(), one, at(c, 12, 0))
	require.NoError(t, err)
	assert.True(t, res.Available)

	two := []model.Guest{{ServiceID: "foot40"}, {ServiceID: "combo100"}}
	res, err = r.CheckAvailability(context.Background(), two, at(c, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, model.CodeCapacityExceeded, res.Code)
	assert.Equal(t, model.ResourceFoot, res.Err.Kind)
}

func TestCompositeUsesEachKindOnlyInItsSegment(t *testing.T) {
	c := testCatalog(t)
	// тело занято полностью 12:00-12:40, но combo100 начинает со стоп и идёт на тело только в 12:40
	r, _ := newResolver(t, at(c, 8, 0),
		booking(model.ResourceBody, at(c, 12, 0), at(c, 12, 40), ""),
		booking(model.ResourceBody, at(c, 12, 0), at(c, 12, 40), ""),
	)

	res, err := r.CheckAvailability(context.Background(), []model.Guest{{ServiceID: "combo100"}}, at(c, 12, 0))
	require.NoError(t, err)
	assert.True(t, res.Available)

	res, err = r.CheckAvailability(context.Background(), []model.Guest{{ServiceID: "combo100"}}, at(c, 11, 55))
	require.NoError(t, err)
	assert.Equal(t, model.CodeCapacityExceeded, res.Code)
	assert.Equal(t, model.ResourceBody, res.Err.Kind)
}

// TestPractitionerWindowIsPerGuest мастер проверяется по длительности своего гостя
func TestPractitionerWindowIsPerGuest(t *testing.T) {
	c := testCatalog(t)
	r, _ := newResolver(t, at(c, 8, 0),
		booking(model.ResourceFoot, at(c, 12, 45), at(c, 13, 25), "X"),
	)

	guests := []model.Guest{
		{ServiceID: "foot40", Practitioner: "X"},
		{ServiceID: "combo100", Practitioner: "Y"},
	}
	res, err := r.CheckAvailability(context.Background(), guests, at(c, 12, 0))
	require.NoError(t, err)
	assert.True(t, res.Available)

	guests[0].ServiceID = "body60"
	res, err = r.CheckAvailability(context.Background(), guests, at(c, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, model.CodePractitionerBusy, res.Code)
}

func TestSamePractitionerTwiceInPartyConflicts(t *testing.T) {
	c := testCatalog(t)
	r, _ := newResolver(t, at(c, 8, 0))

	guests := []model.Guest{
		{ServiceID: "foot40", Practitioner: "X"},
		{ServiceID: "body60", Practitioner: "X"},
	}
	res, err := r.CheckAvailability(context.Background(), guests, at(c, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, model.CodePractitionerBusy, res.Code)
}

func TestUpstreamFailureIsHardError(t *testing.T) {
	c := testCatalog(t)
	r, store := newResolver(t, at(c, 8, 0))
	store.FailList = errors.New("quota exceeded")

	_, err := r.CheckAvailability(context.Background(), []model.Guest{{ServiceID: "foot40"}}, at(c, 12, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)

	// валидация не ходит в календарь
	res, err := r.CheckAvailability(context.Background(), []model.Guest{{ServiceID: "sauna"}}, at(c, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, model.CodeInvalidService, res.Code)
}
