package commands

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/service/colonies"
	"github.com/mamadbah2/antkeeper/internal/service/reminders"
	"github.com/mamadbah2/antkeeper/internal/service/timeseries"
	"github.com/mamadbah2/antkeeper/internal/store"
)

var now = time.Date(2024, time.January, 7, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	reminders *reminders.Service
	store     *store.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	doc := models.NewDocument()
	doc.Colonies = append(doc.Colonies, models.Colony{
		Name:           "Messor barbarus",
		CollectionDate: models.NewDate(2023, time.December, 1),
		History:        []models.Observation{{Timestamp: now.Add(-24 * time.Hour), Population: 50}},
	})
	st := store.New(doc, nil, nil)
	clock := clockwork.NewFakeClockAt(now)

	rem := reminders.NewService(st, nil, clock, time.UTC, nil)
	svc := NewService(
		colonies.NewService(st, clock, time.UTC, nil),
		rem,
		timeseries.NewService(st, nil, clock, time.UTC, nil),
		time.UTC,
		nil,
	)
	return fixture{svc: svc, reminders: rem, store: st}
}

func TestHandleCommand_Colonies(t *testing.T) {
	f := newFixture(t)

	reply, err := f.svc.HandleCommand(context.Background(), models.ParseCommand("/colonies"), "336")
	require.NoError(t, err)
	assert.Equal(t, "Colonies:\n- Messor barbarus: 50 ants, 1 month old", reply)
}

func TestHandleCommand_Reminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reply, err := f.svc.HandleCommand(ctx, models.ParseCommand("/reminders Messor barbarus"), "336")
	require.NoError(t, err)
	assert.Equal(t, "No pending feedings for Messor barbarus.", reply)

	_, err = f.reminders.AddSingle(ctx, "Messor barbarus", reminders.ReminderInput{DueAt: now.Add(2 * time.Hour), FoodType: "insect", Quantity: "2", Description: "crickets"})
	require.NoError(t, err)
	_, err = f.reminders.AddRecurring(ctx, "Messor barbarus", reminders.RuleInput{StartDate: models.NewDate(2024, time.January, 1), IntervalDays: 3, FoodType: "sugar"})
	require.NoError(t, err)

	reply, err = f.svc.HandleCommand(ctx, models.ParseCommand("/reminders Messor barbarus"), "336")
	require.NoError(t, err)
	assert.Equal(t, "Pending feedings for Messor barbarus:\n- 07/01 12:00 2 insect (crickets)\nRecurring:\n- every 3 days from 2024-01-01: sugar", reply)

	_, err = f.svc.HandleCommand(ctx, models.ParseCommand("/reminders"), "336")
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = f.svc.HandleCommand(ctx, models.ParseCommand("/reminders Pheidole"), "336")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHandleCommand_Done(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.HandleCommand(ctx, models.ParseCommand("/done Messor barbarus"), "336")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.reminders.AddSingle(ctx, "Messor barbarus", reminders.ReminderInput{DueAt: now.Add(-time.Minute), FoodType: "honey", Quantity: "1 drop"})
	require.NoError(t, err)

	reply, err := f.svc.HandleCommand(ctx, models.ParseCommand("/DONE Messor barbarus"), "336")
	require.NoError(t, err)
	assert.Equal(t, "Feeding recorded for Messor barbarus: 1 drop honey at 07/01 10:00.", reply)

	history, err := f.reminders.History("Messor barbarus")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestHandleCommand_Pop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reply, err := f.svc.HandleCommand(ctx, models.ParseCommand("/pop 60 2 Messor barbarus"), "336")
	require.NoError(t, err)
	assert.Equal(t, "Observation saved for Messor barbarus: population 60, mortality 2.", reply)

	c, err := f.store.Colony("Messor barbarus")
	require.NoError(t, err)
	assert.Len(t, c.History, 2)

	_, err = f.svc.HandleCommand(ctx, models.ParseCommand("/pop sixty 2 Messor"), "336")
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = f.svc.HandleCommand(ctx, models.ParseCommand("/pop -1 0 Messor barbarus"), "336")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestHandleCommand_HelpAndUnknown(t *testing.T) {
	f := newFixture(t)

	reply, err := f.svc.HandleCommand(context.Background(), models.ParseCommand("/help"), "336")
	require.NoError(t, err)
	assert.Equal(t, HelpText, reply)

	_, err = f.svc.HandleCommand(context.Background(), models.ParseCommand("/eggs 12"), "336")
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}
