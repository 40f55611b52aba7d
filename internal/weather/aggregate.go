package weather

import "time"

const (
	// hourlyChartPoints is the length of the hourly chart series.
	hourlyChartPoints = 12

	// dailyChartDays is the number of calendar days in the daily chart series.
	dailyChartDays = 5

	// FetchLookback is how far before End the provider is queried. It covers
	// the longest window plus one day for partial-day edges.
	FetchLookback = 6 * 24 * time.Hour

	// DefaultClock is used when a request carries a date but no time.
	DefaultClock = "23:59"

	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
	hourLabel   = "15:00"
	dayLabel    = "Jan 02"
	hoursPerDay = 24
	endLayout   = dateLayout + " " + clockLayout
)

// ParseEndTime builds the reference instant from a YYYY-MM-DD date and an
// HH:MM clock. An empty clock means DefaultClock. The result is a wall-clock
// time in UTC; callers re-anchor it once the location's zone is known.
func ParseEndTime(date, clock string) (time.Time, error) {
	if clock == "" {
		clock = DefaultClock
	}
	end, err := time.Parse(endLayout, date+" "+clock)
	if err != nil {
		return time.Time{}, newError(KindInvalidInput, err,
			"invalid date/time %q %q: expected YYYY-MM-DD and HH:MM", date, clock)
	}
	return end, nil
}

// Aggregate computes the rainfall windows and chart series for observations
// ending at end. Observations must be ordered by Time ascending. It is a pure
// function of its inputs.
func Aggregate(observations []HourlyObservation, end time.Time) (*WindowResult, error) {
	filtered := upTo(observations, end)
	if len(filtered) == 0 {
		return nil, newError(KindNoData, nil, "no historical data available for the selected time")
	}

	cumulative := make(map[string]float64, len(Windows))
	intensity := make(map[string]float64, len(Windows))
	for _, w := range Windows {
		total := CumulativeRainfall(filtered, end, w.Hours)
		cumulative[w.Label] = total
		intensity[w.Label] = Intensity(total, w.Hours)
	}

	return &WindowResult{
		SoilMoisture:       filtered[len(filtered)-1].SoilMoisture,
		CumulativeRainfall: cumulative,
		RainIntensity:      intensity,
		HourlyChartData:    hourlySeries(filtered),
		DailyChartData:     dailySeries(filtered, end),
	}, nil
}

// CumulativeRainfall sums precipitation over (end-hours, end].
func CumulativeRainfall(observations []HourlyObservation, end time.Time, hours int) float64 {
	start := end.Add(-time.Duration(hours) * time.Hour)
	var total float64
	for _, o := range observations {
		if o.Time.After(start) && !o.Time.After(end) {
			total += o.Precipitation
		}
	}
	return total
}

// Intensity is the average hourly rate of cumulative over hours, 0 for an
// empty window.
func Intensity(cumulative float64, hours int) float64 {
	if hours <= 0 {
		return 0
	}
	return cumulative / float64(hours)
}

// upTo drops observations later than end.
func upTo(observations []HourlyObservation, end time.Time) []HourlyObservation {
	filtered := make([]HourlyObservation, 0, len(observations))
	for _, o := range observations {
		if !o.Time.After(end) {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// hourlySeries charts the last hourlyChartPoints observations with a running
// total that restarts at the first charted point.
func hourlySeries(observations []HourlyObservation) []HourlyPoint {
	tail := observations
	if len(tail) > hourlyChartPoints {
		tail = tail[len(tail)-hourlyChartPoints:]
	}

	amounts := make([]float64, len(tail))
	for i, o := range tail {
		amounts[i] = o.Precipitation
	}
	totals := runningTotals(amounts)

	points := make([]HourlyPoint, len(tail))
	for i, o := range tail {
		points[i] = HourlyPoint{
			Hour:       o.Time.Format(hourLabel),
			Cumulative: totals[i],
			Intensity:  o.Precipitation,
		}
	}
	return points
}

// runningTotals returns the partial sums of values.
func runningTotals(values []float64) []float64 {
	totals := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		totals[i] = sum
	}
	return totals
}

// dailySeries rolls observations up per calendar day over the dailyChartDays
// days ending on end's date. Days without observations are omitted.
func dailySeries(observations []HourlyObservation, end time.Time) []DailyPoint {
	y, m, d := end.Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, end.Location()).AddDate(0, 0, -(dailyChartDays - 1))

	points := make([]DailyPoint, 0, dailyChartDays)
	var current string
	for _, o := range observations {
		if o.Time.Before(cutoff) {
			continue
		}
		key := o.Time.Format(dateLayout)
		if key != current || len(points) == 0 {
			current = key
			points = append(points, DailyPoint{Date: o.Time.Format(dayLabel)})
		}
		points[len(points)-1].Cumulative += o.Precipitation
	}

	for i := range points {
		points[i].Intensity = points[i].Cumulative / hoursPerDay
	}
	return points
}
