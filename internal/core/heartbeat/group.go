package heartbeat

import (
	"math"
	"time"

	"github.com/samber/lo"
)

// InstanceLog 参与汇总的单个实例
type InstanceLog struct {
	Name    string
	Healthy bool
	Log     Log
}

// GroupStatus 一组实例(同一订阅方)的汇总状态
type GroupStatus struct {
	CurrentStatus    Status                 `json:"current_status"`
	UptimePercentage float64                `json:"uptime_percentage"`
	Days             []DayStatus            `json:"days"` // 由远到近
	PerInstance      map[string][]DayStatus `json:"per_instance"`
}

// Aggregate 逐日取最差状态: offline > degraded > 全部 no_data 时为 no_data > online, 分钟数求和后重新计算百分比
func (e *Engine) Aggregate(instances []InstanceLog, now time.Time) *GroupStatus {
	perInstance := make(map[string]map[int]DayStatus, len(instances))
	for _, inst := range instances {
		perInstance[inst.Name] = e.DailyStatus(inst.Log, now)
	}

	today := midnight(now.In(e.loc))
	days := make([]DayStatus, 0, e.windowDays+1)
	for d := e.windowDays; d >= 0; d-- {
		statuses := make([]DayStatus, 0, len(perInstance))
		for _, daily := range perInstance {
			statuses = append(statuses, daily[d])
		}
		days = append(days, combineDay(today.AddDate(0, 0, -d), statuses))
	}

	group := &GroupStatus{
		CurrentStatus: currentStatus(instances),
		Days:          days,
		PerInstance:   make(map[string][]DayStatus, len(perInstance)),
	}
	for name, daily := range perInstance {
		ordered := make([]DayStatus, 0, len(daily))
		for d := e.windowDays; d >= 0; d-- {
			ordered = append(ordered, daily[d])
		}
		group.PerInstance[name] = ordered
	}

	online := lo.CountBy(days, func(d DayStatus) bool { return d.Status == StatusOnline })
	group.UptimePercentage = math.Round(float64(online)/float64(len(days))*100*100) / 100
	return group
}

func combineDay(date time.Time, statuses []DayStatus) DayStatus {
	day := DayStatus{Date: date}
	for _, s := range statuses {
		day.UptimeMinutes += s.UptimeMinutes
		day.DowntimeMinutes += s.DowntimeMinutes
	}
	day.UptimePercentage = percentage(day.UptimeMinutes, day.DowntimeMinutes)

	has := func(status Status) bool {
		return lo.ContainsBy(statuses, func(s DayStatus) bool { return s.Status == status })
	}
	switch {
	case has(StatusOffline):
		day.Status = StatusOffline
	case has(StatusDegraded):
		day.Status = StatusDegraded
	case lo.EveryBy(statuses, func(s DayStatus) bool { return s.Status == StatusNoData }):
		day.Status = StatusNoData
	default:
		day.Status = StatusOnline
	}
	return day
}

// currentStatus 全部实例不健康为 offline, 部分不健康为 degraded; 没有实例时为 no_data
func currentStatus(instances []InstanceLog) Status {
	if len(instances) == 0 {
		return StatusNoData
	}
	unhealthy := lo.CountBy(instances, func(i InstanceLog) bool { return !i.Healthy })
	switch {
	case unhealthy == len(instances):
		return StatusOffline
	case unhealthy > 0:
		return StatusDegraded
	default:
		return StatusOnline
	}
}
