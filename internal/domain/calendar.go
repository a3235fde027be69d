package domain

import (
	"time"

	"bookbus/internal/domain/models"
	"bookbus/internal/utils"
)

// RunsOnDate reports whether bus operates on the civil date day. The bus
// validity range is the calendar dates of its start and end timestamps in loc,
// both inclusive. A non-empty weekday set further restricts the range.
func RunsOnDate(bus models.Bus, day time.Time, loc *time.Location) bool {
	day = utils.CivilDate(day, time.UTC)
	start := utils.CivilDate(bus.StartTime, loc)
	end := utils.CivilDate(bus.EndTime, loc)

	within := !day.Before(start) && !day.After(end)
	if bus.OperatingDays.Empty() {
		return within
	}
	return within && bus.OperatingDays.Has(day.Weekday())
}

// UpcomingDates lists up to n dates on or after from on which bus runs.
func UpcomingDates(bus models.Bus, from time.Time, n int, loc *time.Location) []time.Time {
	out := []time.Time{}
	day := utils.CivilDate(from, time.UTC)
	end := utils.CivilDate(bus.EndTime, loc)
	for !day.After(end) && len(out) < n {
		if RunsOnDate(bus, day, loc) {
			out = append(out, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}
