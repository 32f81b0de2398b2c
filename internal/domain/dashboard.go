package domain

import (
	"math"
	"slices"
	"time"
)

const recentActivityLimit = 3

// DashboardSource loads the data a dashboard needs. Only the methods the
// user's role requires are called.
type DashboardSource interface {
	UserLogs() ([]WasteLogEntry, error)
	Participants() ([]LeaderboardEntry, error)
	Platform() (PlatformData, error)
}

// PlatformData is everything an admin dashboard aggregates. WasteByType
// holds kilograms logged per waste type.
type PlatformData struct {
	Users       []*User
	WasteByType map[string]float64
}

// DashboardOptions are the tunable goals shown on dashboards
type DashboardOptions struct {
	WeeklyGoalKg float64
	Badges       []Badge
	Now          time.Time
}

// Dashboard is the role specific home screen. Exactly one of the role
// sections is set.
type Dashboard struct {
	Role   Role             `json:"role"`
	User   *User            `json:"user"`
	Child  *ChildDashboard  `json:"child,omitempty"`
	Family *FamilyDashboard `json:"family,omitempty"`
	School *SchoolDashboard `json:"school,omitempty"`
	Admin  *AdminDashboard  `json:"admin,omitempty"`
}

type ChildDashboard struct {
	Impact            Impact          `json:"impact"`
	ThisWeekWaste     float64         `json:"this_week_waste"`
	WeeklyGoal        float64         `json:"weekly_goal"`
	WeeklyGoalPercent int64           `json:"weekly_goal_percent"`
	Badges            BadgeBoard      `json:"badges"`
	RecentActivity    []WasteLogEntry `json:"recent_activity"`
}

type FamilyDashboard struct {
	Impact         Impact          `json:"impact"`
	TotalWaste     float64         `json:"total_waste"`
	CommunityRank  int64           `json:"community_rank"`
	RecentActivity []WasteLogEntry `json:"recent_activity"`
}

type SchoolDashboard struct {
	SchoolName     string          `json:"school_name"`
	TotalWaste     float64         `json:"total_waste"`
	CommunityRank  int64           `json:"community_rank"`
	ActiveDays     int             `json:"active_days"`
	RecentActivity []WasteLogEntry `json:"recent_activity"`
}

type AdminDashboard struct {
	TotalUsers   int              `json:"total_users"`
	TotalSchools int              `json:"total_schools"`
	TotalWaste   float64          `json:"total_waste"`
	TotalPoints  int64            `json:"total_points"`
	Breakdown    []WasteBreakdown `json:"breakdown"`
}

// WasteBreakdown is the share of one waste type in the platform total
type WasteBreakdown struct {
	WasteType string  `json:"waste_type"`
	Weight    float64 `json:"weight"`
	Percent   float64 `json:"percent"`
}

// BuildDashboard assembles the dashboard for the user's role.
func BuildDashboard(u *User, src DashboardSource, opts DashboardOptions) (Dashboard, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	res := MatchRole[dashboardResult](u.Role, dashboardBuilder{user: u, src: src, opts: opts})
	if res.err != nil {
		return Dashboard{}, res.err
	}
	res.dashboard.Role = u.Role
	res.dashboard.User = u
	return res.dashboard, nil
}

type dashboardResult struct {
	dashboard Dashboard
	err       error
}

type dashboardBuilder struct {
	user *User
	src  DashboardSource
	opts DashboardOptions
}

func (b dashboardBuilder) Child() dashboardResult {
	logs, err := b.src.UserLogs()
	if err != nil {
		return dashboardResult{err: err}
	}
	total := TotalWeight(logs)
	week := TotalWeight(logsSince(logs, startOfWeek(b.opts.Now)))

	d := &ChildDashboard{
		Impact:         NewImpact(total),
		ThisWeekWaste:  round1(week),
		WeeklyGoal:     b.opts.WeeklyGoalKg,
		Badges:         BuildBadgeBoard(b.opts.Badges, b.user.Points, b.user.Badges),
		RecentActivity: recent(logs),
	}
	if b.opts.WeeklyGoalKg > 0 {
		d.WeeklyGoalPercent = int64(math.Round(week / b.opts.WeeklyGoalKg * 100))
	}
	return dashboardResult{dashboard: Dashboard{Child: d}}
}

func (b dashboardBuilder) Family() dashboardResult {
	logs, err := b.src.UserLogs()
	if err != nil {
		return dashboardResult{err: err}
	}
	participants, err := b.src.Participants()
	if err != nil {
		return dashboardResult{err: err}
	}
	total := TotalWeight(logs)
	return dashboardResult{dashboard: Dashboard{Family: &FamilyDashboard{
		Impact:         NewImpact(total),
		TotalWaste:     round1(total),
		CommunityRank:  RankOf(participants, KindAll, b.user.ID),
		RecentActivity: recent(logs),
	}}}
}

func (b dashboardBuilder) School() dashboardResult {
	logs, err := b.src.UserLogs()
	if err != nil {
		return dashboardResult{err: err}
	}
	participants, err := b.src.Participants()
	if err != nil {
		return dashboardResult{err: err}
	}
	name := b.user.SchoolName
	if name == "" {
		name = b.user.Name
	}
	return dashboardResult{dashboard: Dashboard{School: &SchoolDashboard{
		SchoolName:     name,
		TotalWaste:     round1(TotalWeight(logs)),
		CommunityRank:  RankOf(participants, KindAll, b.user.ID),
		ActiveDays:     activeDays(logsSince(logs, startOfMonth(b.opts.Now))),
		RecentActivity: recent(logs),
	}}}
}

func (b dashboardBuilder) Admin() dashboardResult {
	data, err := b.src.Platform()
	if err != nil {
		return dashboardResult{err: err}
	}
	d := &AdminDashboard{TotalUsers: len(data.Users)}
	for _, u := range data.Users {
		if u.Role == RoleSchool {
			d.TotalSchools++
		}
		d.TotalPoints += u.Points
	}
	var total float64
	for _, w := range data.WasteByType {
		total += w
	}
	d.TotalWaste = round1(total)
	d.Breakdown = Breakdown(data.WasteByType)
	return dashboardResult{dashboard: Dashboard{Admin: d}}
}

// TotalWeight sums the weight of logs in kilograms.
func TotalWeight(logs []WasteLogEntry) float64 {
	var total float64
	for _, l := range logs {
		total += l.Weight
	}
	return total
}

// WeightByType sums log weights per waste type.
func WeightByType(logs []WasteLogEntry) map[string]float64 {
	byType := make(map[string]float64)
	for _, l := range logs {
		byType[l.WasteType] += l.Weight
	}
	return byType
}

// Breakdown turns per-type totals into shares of the overall weight,
// heaviest first.
func Breakdown(byType map[string]float64) []WasteBreakdown {
	var total float64
	for _, w := range byType {
		total += w
	}
	out := make([]WasteBreakdown, 0, len(byType))
	for wt, w := range byType {
		b := WasteBreakdown{WasteType: wt, Weight: round1(w)}
		if total > 0 {
			b.Percent = round1(w / total * 100)
		}
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b WasteBreakdown) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		if a.WasteType < b.WasteType {
			return -1
		}
		if a.WasteType > b.WasteType {
			return 1
		}
		return 0
	})
	return out
}

func logsSince(logs []WasteLogEntry, since time.Time) []WasteLogEntry {
	var out []WasteLogEntry
	for _, l := range logs {
		if !l.CreatedAt.Before(since) {
			out = append(out, l)
		}
	}
	return out
}

func activeDays(logs []WasteLogEntry) int {
	days := make(map[string]struct{})
	for _, l := range logs {
		days[l.CreatedAt.Format(time.DateOnly)] = struct{}{}
	}
	return len(days)
}

// recent returns the newest entries first.
func recent(logs []WasteLogEntry) []WasteLogEntry {
	out := slices.Clone(logs)
	slices.SortStableFunc(out, func(a, b WasteLogEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > recentActivityLimit {
		out = out[:recentActivityLimit]
	}
	if out == nil {
		out = []WasteLogEntry{}
	}
	return out
}

// startOfWeek returns Monday 00:00 of the week containing t.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
