package heartbeat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func every5m(from, to time.Time, skip func(time.Time) bool) []time.Time {
	var out []time.Time
	for t := from; !t.After(to); t = t.Add(5 * time.Minute) {
		if skip != nil && skip(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func midnightDaysAgo(d int) time.Time {
	return time.Date(2026, 10, 19-d, 0, 0, 0, 0, time.UTC)
}

func TestDailyStatusWithoutHeartbeats(t *testing.T) {
	days := NewEngine(90, time.UTC).DailyStatus(Log{}, now)

	require.Len(t, days, 91)
	for d := 0; d <= 90; d++ {
		assert.Equal(t, StatusNoData, days[d].Status, "day %d", d)
		assert.Zero(t, days[d].UptimeMinutes)
		assert.Zero(t, days[d].DowntimeMinutes)
		assert.Zero(t, days[d].UptimePercentage)
	}
	assert.Equal(t, midnightDaysAgo(0), days[0].Date)
	assert.Equal(t, midnightDaysAgo(90), days[90].Date)
}

func TestDailyStatusTrailingOutage(t *testing.T) {
	var heartbeats []time.Time
	heartbeats = append(heartbeats, every5m(midnightDaysAgo(2), midnightDaysAgo(1), nil)...)
	heartbeats = append(heartbeats, every5m(midnightDaysAgo(1), midnightDaysAgo(1).Add(23*time.Hour), nil)...)

	days := NewEngine(90, time.UTC).DailyStatus(Log{Heartbeats: heartbeats}, now)

	assert.Equal(t, DayStatus{
		Status:           StatusOnline,
		Date:             midnightDaysAgo(2),
		UptimeMinutes:    1440,
		DowntimeMinutes:  0,
		UptimePercentage: 100,
	}, days[2])

	// 最后一次心跳 23:00 覆盖到 23:05
	assert.Equal(t, StatusDegraded, days[1].Status)
	assert.Equal(t, 55, days[1].DowntimeMinutes)
	assert.Equal(t, 1385, days[1].UptimeMinutes)
	assert.Equal(t, 96.18, days[1].UptimePercentage)

	assert.Equal(t, StatusOffline, days[0].Status)
	assert.Equal(t, 720, days[0].DowntimeMinutes)
	assert.Equal(t, 0, days[0].UptimeMinutes)

	for d := 3; d <= 90; d++ {
		assert.Equal(t, StatusNoData, days[d].Status, "day %d", d)
	}
}

func TestDailyStatusFullDayThenSilence(t *testing.T) {
	heartbeats := every5m(midnightDaysAgo(2), midnightDaysAgo(2).Add(23*time.Hour+55*time.Minute), nil)
	require.Len(t, heartbeats, 288)

	days := NewEngine(90, time.UTC).DailyStatus(Log{Heartbeats: heartbeats}, now)

	assert.Equal(t, DayStatus{
		Status:           StatusOnline,
		Date:             midnightDaysAgo(2),
		UptimeMinutes:    1440,
		DowntimeMinutes:  0,
		UptimePercentage: 100,
	}, days[2])

	assert.Equal(t, StatusOffline, days[1].Status)
	assert.Equal(t, 1440, days[1].DowntimeMinutes)
	assert.Equal(t, StatusOffline, days[0].Status)
	assert.Equal(t, 720, days[0].DowntimeMinutes)
	assert.Equal(t, StatusNoData, days[3].Status)
}

func TestDailyStatusRecentHeartbeatIsNotAGap(t *testing.T) {
	// 最后一次心跳距今未超过阈值
	heartbeats := every5m(midnightDaysAgo(0), now.Add(-5*time.Minute), nil)

	days := NewEngine(90, time.UTC).DailyStatus(Log{Heartbeats: heartbeats}, now)

	assert.Equal(t, 0, days[0].DowntimeMinutes)
	assert.Equal(t, 720, days[0].UptimeMinutes)
}

func TestDailyStatusOneHourGap(t *testing.T) {
	gapStart := midnightDaysAgo(1).Add(10 * time.Hour)
	gapEnd := gapStart.Add(time.Hour)
	heartbeats := every5m(midnightDaysAgo(1), now, func(ts time.Time) bool {
		return ts.After(gapStart) && ts.Before(gapEnd)
	})

	days := NewEngine(90, time.UTC).DailyStatus(Log{Heartbeats: heartbeats}, now)

	assert.Equal(t, StatusDegraded, days[1].Status)
	assert.Equal(t, 60, days[1].DowntimeMinutes)
	assert.Equal(t, 1380, days[1].UptimeMinutes)

	assert.Equal(t, StatusOnline, days[0].Status)
	assert.Equal(t, 720, days[0].UptimeMinutes)
	assert.Equal(t, 100.0, days[0].UptimePercentage)
	assert.Equal(t, StatusNoData, days[2].Status)
}

func TestDailyStatusGapSpanningDays(t *testing.T) {
	outageStart := midnightDaysAgo(4).Add(18 * time.Hour)
	outageEnd := midnightDaysAgo(2).Add(6 * time.Hour)
	heartbeats := every5m(midnightDaysAgo(5), now, func(ts time.Time) bool {
		return ts.After(outageStart) && ts.Before(outageEnd)
	})

	days := NewEngine(90, time.UTC).DailyStatus(Log{Heartbeats: heartbeats}, now)

	assert.Equal(t, 360, days[4].DowntimeMinutes)
	assert.Equal(t, StatusOffline, days[4].Status)
	assert.Equal(t, 1440, days[3].DowntimeMinutes)
	assert.Equal(t, 0, days[3].UptimeMinutes)
	assert.Equal(t, 360, days[2].DowntimeMinutes)
	assert.Equal(t, 1080, days[2].UptimeMinutes)
	assert.Equal(t, StatusOnline, days[1].Status)
	assert.Equal(t, StatusOnline, days[5].Status)
}

func TestDailyStatusFirstDayMeasuredFromFirstHeartbeat(t *testing.T) {
	first := midnightDaysAgo(1).Add(6 * time.Hour)
	heartbeats := every5m(first, now, nil)

	days := NewEngine(90, time.UTC).DailyStatus(Log{Heartbeats: heartbeats}, now)

	assert.Equal(t, StatusOnline, days[1].Status)
	assert.Equal(t, 1080, days[1].UptimeMinutes)
	assert.Equal(t, 0, days[1].DowntimeMinutes)
	assert.Equal(t, StatusNoData, days[2].Status)
}

func TestDailyStatusLongDeadInstance(t *testing.T) {
	log := Log{
		FirstHeartbeat: now.AddDate(0, 0, -200),
		LastHeartbeat:  now.AddDate(0, 0, -100),
	}

	days := NewEngine(90, time.UTC).DailyStatus(log, now)

	for d := 1; d <= 90; d++ {
		assert.Equal(t, StatusOffline, days[d].Status, "day %d", d)
		assert.Equal(t, 1440, days[d].DowntimeMinutes, "day %d", d)
	}
	assert.Equal(t, 720, days[0].DowntimeMinutes)
}

func TestDailyStatusIgnoresShortJitter(t *testing.T) {
	// 心跳带秒级偏移, 分桶后不产生停机
	var heartbeats []time.Time
	for ts := midnightDaysAgo(0); !ts.After(now); ts = ts.Add(5 * time.Minute) {
		heartbeats = append(heartbeats, ts.Add(20*time.Second))
	}

	days := NewEngine(90, time.UTC).DailyStatus(Log{Heartbeats: heartbeats}, now)
	assert.Equal(t, 0, days[0].DowntimeMinutes)
	assert.Equal(t, StatusOnline, days[0].Status)
}

func TestStatusThresholds(t *testing.T) {
	assert.Equal(t, StatusOnline, statusFor(0))
	assert.Equal(t, StatusOnline, statusFor(9))
	assert.Equal(t, StatusDegraded, statusFor(10))
	assert.Equal(t, StatusDegraded, statusFor(119))
	assert.Equal(t, StatusOffline, statusFor(120))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, percentage(0, 0))
	assert.Equal(t, 66.67, percentage(2, 1))
	assert.Equal(t, 100.0, percentage(10, 0))
}
