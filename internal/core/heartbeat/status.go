// Package heartbeat 根据 agent 心跳计算每日可用性
package heartbeat

import (
	"math"
	"sort"
	"time"
)

// Status 每日状态
type Status string

const (
	StatusOnline   Status = "online"
	StatusDegraded Status = "degraded"
	StatusOffline  Status = "offline"
	StatusNoData   Status = "no_data"
)

const (
	DefaultWindowDays = 90
	BucketSize        = 5 * time.Minute
	GapThreshold      = 6 * time.Minute
	// 单日停机分钟数阈值
	DegradedMinutes = 10
	OfflineMinutes  = 120
	// HealthyTimeout 最近心跳在此时间内视为实例健康
	HealthyTimeout = 2 * time.Minute
)

// DayStatus 某一天的统计, Date 为当天零点
type DayStatus struct {
	Status           Status    `json:"status"`
	Date             time.Time `json:"date"`
	UptimeMinutes    int       `json:"uptime_minutes"`
	DowntimeMinutes  int       `json:"downtime_minutes"`
	UptimePercentage float64   `json:"uptime_percentage"`
}

// Log 单个实例的心跳记录
// FirstHeartbeat/LastHeartbeat 为全量记录中的首末心跳, 可以早于窗口; 为零值时从 Heartbeats 推导
type Log struct {
	FirstHeartbeat time.Time
	LastHeartbeat  time.Time
	Heartbeats     []time.Time
}

// Engine 每日状态计算, 无状态, 可并发使用
type Engine struct {
	windowDays int
	loc        *time.Location
}

// NewEngine windowDays <= 0 时使用默认 90 天, loc 为 nil 时按 UTC 切分自然日
func NewEngine(windowDays int, loc *time.Location) *Engine {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{windowDays: windowDays, loc: loc}
}

// WindowDays 统计窗口天数
func (e *Engine) WindowDays() int {
	return e.windowDays
}

type gap struct {
	start, end time.Time
}

// DailyStatus 返回 0..windowDays 共 windowDays+1 天的状态, key 为距今天数, 0 为今天
func (e *Engine) DailyStatus(log Log, now time.Time) map[int]DayStatus {
	now = now.In(e.loc)
	today := midnight(now)

	days := make(map[int]DayStatus, e.windowDays+1)
	for d := 0; d <= e.windowDays; d++ {
		days[d] = DayStatus{Status: StatusOnline, Date: today.AddDate(0, 0, -d)}
	}

	first, last := log.FirstHeartbeat, log.LastHeartbeat
	for _, hb := range log.Heartbeats {
		if first.IsZero() || hb.Before(first) {
			first = hb
		}
		if last.IsZero() || hb.After(last) {
			last = hb
		}
	}
	if first.IsZero() {
		for d, day := range days {
			day.Status = StatusNoData
			days[d] = day
		}
		return days
	}

	firstDay := daysBetween(midnight(first.In(e.loc)), today)
	for d := firstDay + 1; d <= e.windowDays; d++ {
		day := days[d]
		day.Status = StatusNoData
		days[d] = day
	}

	for _, g := range e.gaps(log.Heartbeats, last, now) {
		e.apportion(days, g, today)
	}

	for d, day := range days {
		if day.Status == StatusNoData {
			continue
		}

		dayStart, dayEnd := day.Date, day.Date.AddDate(0, 0, 1)
		if d == 0 {
			dayEnd = now
		}
		if d == firstDay && first.After(dayStart) {
			dayStart = first.In(e.loc)
		}
		total := int(math.Round(dayEnd.Sub(dayStart).Minutes()))

		day.UptimeMinutes = max(total-day.DowntimeMinutes, 0)
		day.Status = statusFor(day.DowntimeMinutes)
		day.UptimePercentage = percentage(day.UptimeMinutes, day.DowntimeMinutes)
		days[d] = day
	}
	return days
}

// gaps 窗口内按 5 分钟分桶, 相邻桶间隔超过阈值即为停机
// 最后一次心跳距今超过阈值时, 从其所在桶的结束时刻到 now 同样计入
func (e *Engine) gaps(heartbeats []time.Time, last, now time.Time) []gap {
	windowStart := now.AddDate(0, 0, -e.windowDays)

	seen := make(map[int64]struct{}, len(heartbeats))
	buckets := make([]time.Time, 0, len(heartbeats))
	for _, hb := range heartbeats {
		if !hb.After(windowStart) || hb.After(now) {
			continue
		}
		b := hb.Truncate(BucketSize)
		if _, ok := seen[b.Unix()]; ok {
			continue
		}
		seen[b.Unix()] = struct{}{}
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Before(buckets[j]) })

	var gaps []gap
	for i := 1; i < len(buckets); i++ {
		if buckets[i].Sub(buckets[i-1]) > GapThreshold {
			gaps = append(gaps, gap{start: buckets[i-1], end: buckets[i]})
		}
	}
	if !last.IsZero() && now.Sub(last) > GapThreshold {
		gaps = append(gaps, gap{start: last.Truncate(BucketSize).Add(BucketSize), end: now})
	}
	return gaps
}

// apportion 跨天的停机按自然日边界拆分
func (e *Engine) apportion(days map[int]DayStatus, g gap, today time.Time) {
	start, end := g.start.In(e.loc), g.end.In(e.loc)
	for dayStart := midnight(start); dayStart.Before(end); dayStart = dayStart.AddDate(0, 0, 1) {
		dayEnd := dayStart.AddDate(0, 0, 1)
		from, to := laterOf(start, dayStart), earlierOf(end, dayEnd)

		d := daysBetween(dayStart, today)
		day, ok := days[d]
		if !ok || day.Status == StatusNoData {
			continue
		}
		day.DowntimeMinutes += int(math.Round(to.Sub(from).Minutes()))
		days[d] = day
	}
}

func statusFor(downtimeMinutes int) Status {
	switch {
	case downtimeMinutes >= OfflineMinutes:
		return StatusOffline
	case downtimeMinutes >= DegradedMinutes:
		return StatusDegraded
	default:
		return StatusOnline
	}
}

func percentage(uptime, downtime int) float64 {
	total := uptime + downtime
	if total == 0 {
		return 0
	}
	return math.Round(float64(uptime)/float64(total)*100*100) / 100
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween 两个零点之间的自然日数, 夏令时切换日按四舍五入处理
func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
