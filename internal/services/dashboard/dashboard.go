// Package dashboard turns the polling store state into the status page view.
package dashboard

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vshulcz/harmonia/internal/domain"
	"github.com/vshulcz/harmonia/internal/services/stats"
)

// Placeholder is rendered for values that are not known yet.
const Placeholder = "—"

// Latency thresholds of the API latency card.
const (
	GoodLatencyMs    = 100
	WarningLatencyMs = 300
)

// Level colours a metric card.
type Level string

const (
	LevelGood    Level = "good"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// ComponentStatus is the state shown next to a service component.
type ComponentStatus string

const (
	Operational ComponentStatus = "operational"
	Degraded    ComponentStatus = "degraded"
	Down        ComponentStatus = "down"
)

// Label is the human readable status name.
func (s ComponentStatus) Label() string {
	switch s {
	case Operational:
		return "Operational"
	case Degraded:
		return "Degraded"
	default:
		return "Down"
	}
}

type Banner struct {
	Title       string `json:"title"`
	LastChecked string `json:"lastChecked"`
	Online      bool   `json:"online"`
}

type Card struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Level Level  `json:"level"`
}

type Component struct {
	Name   string          `json:"name"`
	Status ComponentStatus `json:"status"`
	Uptime string          `json:"uptime"`
}

type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type TopUser struct {
	Username  string `json:"username"`
	Commands  string `json:"commands"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type TopSong struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Plays  string `json:"plays"`
}

type Server struct {
	Name    string `json:"name"`
	Initial string `json:"initial"`
	Members string `json:"members"`
	IconURL string `json:"iconUrl,omitempty"`
}

// View is everything the status page renders.
type View struct {
	TopUser    *TopUser    `json:"topUser,omitempty"`
	TopSong    *TopSong    `json:"mostPlayedSong,omitempty"`
	Banner     Banner      `json:"banner"`
	Error      string      `json:"error,omitempty"`
	Phase      string      `json:"phase"`
	Cards      []Card      `json:"cards"`
	Components []Component `json:"components"`
	Live       []Stat      `json:"live"`
	Servers    []Server    `json:"topServers"`
}

// Build derives the view from a store state at time now.
func Build(st stats.State, now time.Time) View {
	online := st.Online()
	snap := st.Fetch.Snapshot
	uptime := uptimeText(st)

	v := View{
		Banner: Banner{
			Title:       bannerTitle(online),
			LastChecked: lastChecked(st.UpdatedAt, now),
			Online:      online,
		},
		Phase: st.Fetch.Phase.String(),
		Error: st.Fetch.Err,
		Cards: []Card{
			latencyCard(st.Ping),
			{Label: "Active Guilds", Value: count(snap, func(s *domain.StatsSnapshot) int64 { return s.Live.Guilds }), Level: LevelGood},
			{Label: "Uptime", Value: uptime, Level: uptimeLevel(st)},
		},
		Components: components(st, uptime),
		Live: []Stat{
			{Label: "Total Users", Value: count(snap, func(s *domain.StatsSnapshot) int64 { return s.Live.Users })},
			{Label: "Active Players", Value: count(snap, func(s *domain.StatsSnapshot) int64 { return s.Live.Players })},
			{Label: "Commands Run", Value: count(snap, func(s *domain.StatsSnapshot) int64 { return s.DB.TotalCmds })},
			{Label: "Shards", Value: shards(snap)},
		},
		Servers: []Server{},
	}
	if snap == nil {
		return v
	}

	if u := snap.DB.TopUser; u != nil {
		tu := &TopUser{Username: u.Username, Commands: humanize.Comma(u.Count)}
		if src, ok := u.AvatarURL(); ok {
			tu.AvatarURL = src
		}
		v.TopUser = tu
	}
	if s := snap.DB.MostPlayedSong; s != nil {
		v.TopSong = &TopSong{Title: s.Title, Author: s.Author, Plays: humanize.Comma(s.Plays)}
	}
	for _, srv := range snap.TopServers {
		row := Server{Name: srv.Name, Initial: initial(srv.Name), Members: humanize.Comma(srv.MemberCount)}
		if src, ok := srv.IconURL(); ok {
			row.IconURL = src
		}
		v.Servers = append(v.Servers, row)
	}
	return v
}

func bannerTitle(online bool) string {
	if online {
		return "All Systems Operational"
	}
	return "Service Disruption"
}

func lastChecked(at, now time.Time) string {
	if at.IsZero() {
		return Placeholder
	}
	if now.Sub(at) < time.Second {
		return "just now"
	}
	return humanize.RelTime(at, now, "ago", "from now")
}

// LatencyLevel grades a ping sample; an unknown ping is an error.
func LatencyLevel(p stats.PingSample) Level {
	switch {
	case !p.Known:
		return LevelError
	case p.Millis < GoodLatencyMs:
		return LevelGood
	case p.Millis < WarningLatencyMs:
		return LevelWarning
	default:
		return LevelError
	}
}

func latencyCard(p stats.PingSample) Card {
	value := Placeholder
	if p.Known {
		value = p.String()
	}
	return Card{Label: "API Latency", Value: value, Level: LatencyLevel(p)}
}

func uptimeText(st stats.State) string {
	ratio, ok := st.Uptime()
	if !ok {
		return Placeholder
	}
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}

func uptimeLevel(st stats.State) Level {
	ratio, ok := st.Uptime()
	switch {
	case !ok || ratio >= 0.99:
		return LevelGood
	case ratio >= 0.9:
		return LevelWarning
	default:
		return LevelError
	}
}

func components(st stats.State, uptime string) []Component {
	bot := Down
	switch {
	case st.Online():
		bot = Operational
	case st.Fetch.Snapshot != nil:
		bot = Degraded
	}
	lavalink := Down
	if st.Fetch.Snapshot != nil {
		lavalink = Operational
	}
	return []Component{
		{Name: "Discord Bot", Status: bot, Uptime: uptime},
		{Name: "API Gateway", Status: bot, Uptime: uptime},
		{Name: "Lavalink Nodes", Status: lavalink, Uptime: uptime},
		{Name: "Database", Status: bot, Uptime: uptime},
		{Name: "Web Dashboard", Status: Operational, Uptime: "100%"},
	}
}

func count(s *domain.StatsSnapshot, pick func(*domain.StatsSnapshot) int64) string {
	if s == nil {
		return Placeholder
	}
	return humanize.Comma(pick(s))
}

func shards(s *domain.StatsSnapshot) string {
	if s == nil || s.Live.Guilds == 0 {
		return Placeholder
	}
	return strconv.FormatInt(domain.Shards(s.Live.Guilds), 10)
}

func initial(name string) string {
	for _, r := range name {
		return string(r)
	}
	return "?"
}
