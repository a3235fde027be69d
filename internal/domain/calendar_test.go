package domain

import (
	"testing"
	"time"

	"bookbus/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRunsOnDateOneTime(t *testing.T) {
	bus := models.Bus{
		StartTime: time.Date(2026, 11, 2, 22, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 11, 4, 6, 0, 0, 0, time.UTC),
	}

	assert.False(t, RunsOnDate(bus, day("2026-11-01"), time.UTC))
	assert.True(t, RunsOnDate(bus, day("2026-11-02"), time.UTC), "start date is inclusive")
	assert.True(t, RunsOnDate(bus, day("2026-11-03"), time.UTC))
	assert.True(t, RunsOnDate(bus, day("2026-11-04"), time.UTC), "end date is inclusive")
	assert.False(t, RunsOnDate(bus, day("2026-11-05"), time.UTC))
}

func TestRunsOnDateRecurring(t *testing.T) {
	// 2026-11-02 is a Monday.
	bus := models.Bus{
		StartTime:     time.Date(2026, 11, 2, 8, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2026, 11, 30, 18, 0, 0, 0, time.UTC),
		OperatingDays: models.NewWeekdaySet(time.Monday, time.Friday),
	}

	assert.True(t, RunsOnDate(bus, day("2026-11-02"), time.UTC), "Monday at range start")
	assert.False(t, RunsOnDate(bus, day("2026-11-03"), time.UTC), "Tuesday is not an operating day")
	assert.True(t, RunsOnDate(bus, day("2026-11-06"), time.UTC), "Friday")
	assert.True(t, RunsOnDate(bus, day("2026-11-30"), time.UTC), "Monday at range end")
	assert.False(t, RunsOnDate(bus, day("2026-12-04"), time.UTC), "Friday outside the range")
	assert.False(t, RunsOnDate(bus, day("2026-10-30"), time.UTC), "Friday before the range")
}

func TestRunsOnDateUsesOperatorTimezone(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	// 20:00 UTC on the 1st is already the 2nd in WIB.
	bus := models.Bus{
		StartTime: time.Date(2026, 11, 1, 20, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 11, 2, 4, 0, 0, 0, time.UTC),
	}
	assert.False(t, RunsOnDate(bus, day("2026-11-01"), jakarta))
	assert.True(t, RunsOnDate(bus, day("2026-11-02"), jakarta))
}

func TestUpcomingDates(t *testing.T) {
	bus := models.Bus{
		StartTime:     time.Date(2026, 11, 2, 8, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2026, 11, 20, 18, 0, 0, 0, time.UTC),
		OperatingDays: models.NewWeekdaySet(time.Wednesday),
	}
	got := UpcomingDates(bus, day("2026-11-01"), 5, time.UTC)
	assert.Equal(t, []time.Time{day("2026-11-04"), day("2026-11-11"), day("2026-11-18")}, got)
}

func TestParseWeekdays(t *testing.T) {
	set, err := models.ParseWeekdays([]string{"mon", "Friday", " sun "})
	assert.NoError(t, err)
	assert.Equal(t, []string{"Sun", "Mon", "Fri"}, set.Names())

	_, err = models.ParseWeekdays([]string{"someday"})
	assert.Error(t, err)
}
