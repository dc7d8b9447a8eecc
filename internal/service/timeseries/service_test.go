package timeseries

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/store"
)

type recordingJournal struct {
	mu   sync.Mutex
	rows [][]interface{}
	err  error
}

func (j *recordingJournal) WriteRow(_ context.Context, _ string, values []interface{}) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rows = append(j.rows, values)
	return j.err
}

func newService(t *testing.T, journal *recordingJournal) (*Service, *clockwork.FakeClock) {
	t.Helper()
	doc := models.NewDocument()
	doc.Colonies = append(doc.Colonies, models.Colony{
		Name:           "Messor",
		CollectionDate: models.NewDate(2023, time.December, 1),
		History:        []models.Observation{{Timestamp: t0, Population: 100}},
	})
	clock := clockwork.NewFakeClockAt(t0.Add(time.Hour))
	return NewService(store.New(doc, nil, nil), journal, clock, time.UTC, nil), clock
}

func TestRecordObservation(t *testing.T) {
	journal := &recordingJournal{}
	svc, clock := newService(t, journal)

	obs, err := svc.RecordObservation(context.Background(), "Messor", ObservationInput{Population: 120, Mortality: 1, EggsLarvae: "Few", Health: "good"})
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), obs.Timestamp)
	assert.Equal(t, models.EggsFew, obs.EggsLarvae)

	points, err := svc.GraphSeries("Messor")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 120, points[1].Population)
	assert.Len(t, journal.rows, 1)
}

func TestRecordObservation_RejectsNegativeValues(t *testing.T) {
	svc, _ := newService(t, &recordingJournal{})

	_, err := svc.RecordObservation(context.Background(), "Messor", ObservationInput{Population: -1})
	assert.True(t, errors.Is(err, models.ErrValidation))
	_, err = svc.RecordObservation(context.Background(), "Messor", ObservationInput{Population: 5, Mortality: -2})
	assert.True(t, errors.Is(err, models.ErrValidation))
	_, err = svc.RecordObservation(context.Background(), "Messor", ObservationInput{Population: 5, Health: "sparkling"})
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = svc.GraphSeries("Messor")
	assert.True(t, errors.Is(err, ErrInsufficientData), "nothing was appended")
}

func TestRecordObservation_JournalFailureIsNotFatal(t *testing.T) {
	svc, _ := newService(t, &recordingJournal{err: errors.New("quota exceeded")})
	_, err := svc.RecordObservation(context.Background(), "Messor", ObservationInput{Population: 90})
	assert.NoError(t, err)
}

func TestRecordObservation_UnknownColony(t *testing.T) {
	svc, _ := newService(t, &recordingJournal{})
	_, err := svc.RecordObservation(context.Background(), "Nope", ObservationInput{Population: 1})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestObservationStreamGraph(t *testing.T) {
	svc, clock := newService(t, &recordingJournal{})
	ctx := context.Background()

	// The seed observation is 100; add 120 and 90.
	_, err := svc.RecordObservation(ctx, "Messor", ObservationInput{Population: 120})
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	_, err = svc.RecordObservation(ctx, "Messor", ObservationInput{Population: 90})
	require.NoError(t, err)

	points, err := svc.GraphSeries("Messor")
	require.NoError(t, err)
	got := make([]int, len(points))
	for i, p := range points {
		got[i] = p.Population
	}
	assert.Equal(t, []int{100, 120, 90}, got)

	st, err := svc.Stats("Messor")
	require.NoError(t, err)
	assert.Equal(t, -30, st.PopulationDelta)
	assert.Equal(t, "1 month", st.Age)

	plot, err := svc.Graph("Messor", Canvas{Width: 400, Height: 200, Margin: 30})
	require.NoError(t, err)
	assert.Len(t, plot.Coords, 3)
}
