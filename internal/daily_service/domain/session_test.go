package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateString(t *testing.T) {
	// 23:30 in UTC-2 is already the next day in UTC.
	loc := time.FixedZone("UTC-2", -2*60*60)
	ts := time.Date(2025, 3, 10, 23, 30, 0, 0, loc)
	assert.Equal(t, "2025-03-11", DateString(ts))
	assert.Equal(t, "2025-03-10", DateString(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
}

func TestDailySession_Status(t *testing.T) {
	opened := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	closed := opened.Add(9 * time.Hour)

	var nilSession *DailySession
	assert.Equal(t, StatusNotOpened, nilSession.Status())
	assert.Equal(t, StatusNotOpened, (&DailySession{}).Status())
	assert.Equal(t, StatusOpened, (&DailySession{OpenedAt: &opened}).Status())
	assert.Equal(t, StatusClosed, (&DailySession{OpenedAt: &opened, ClosedAt: &closed}).Status())
}

func TestDailySession_Duration(t *testing.T) {
	opened := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("RoundsToOneDecimal", func(t *testing.T) {
		closed := opened.Add(8*time.Hour + 17*time.Minute)
		s := &DailySession{OpenedAt: &opened, ClosedAt: &closed}
		hours, ok := s.Duration()
		assert.True(t, ok)
		assert.Equal(t, 8.3, hours)
	})

	t.Run("NotAvailableUntilClosed", func(t *testing.T) {
		s := &DailySession{OpenedAt: &opened}
		_, ok := s.Duration()
		assert.False(t, ok)

		var nilSession *DailySession
		_, ok = nilSession.Duration()
		assert.False(t, ok)
	})
}
