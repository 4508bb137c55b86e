package domain

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/vshulcz/harmonia/internal/cdn"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LiveStats reflects the in-memory state of the bot at fetch time.
type LiveStats struct {
	Guilds  int64 `json:"guilds"`
	Users   int64 `json:"users"`
	Players int64 `json:"players"`
}

// TopUser is the member who ran the most commands.
type TopUser struct {
	Avatar   *string `json:"avatar"`
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Count    int64   `json:"count"`
}

// AvatarURL resolves the CDN address of the user's avatar, if any.
func (u TopUser) AvatarURL() (string, bool) {
	return cdn.AssetURL(cdn.Avatars, u.ID, deref(u.Avatar))
}

// Song is the most played track.
type Song struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Plays  int64  `json:"plays"`
}

// DBStats holds the aggregated counters stored by the bot.
type DBStats struct {
	TopUser        *TopUser `json:"topUser"`
	MostPlayedSong *Song    `json:"mostPlayedSong"`
	TotalCmds      int64    `json:"totalCmds"`
}

// ServerSummary describes one entry of the top servers list.
type ServerSummary struct {
	Icon        *string `json:"icon"`
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	MemberCount int64   `json:"memberCount"`
}

// IconURL resolves the CDN address of the server icon, if any.
func (s ServerSummary) IconURL() (string, bool) {
	return cdn.AssetURL(cdn.Icons, s.ID, deref(s.Icon))
}

// StatsSnapshot is one telemetry payload of the bot API. It is never mutated
// after decoding; holders replace it as a whole.
type StatsSnapshot struct {
	TopServers []ServerSummary `json:"topServers"`
	DB         DBStats         `json:"db"`
	Live       LiveStats       `json:"live"`
}

type wireSnapshot struct {
	Live       *LiveStats      `json:"live"`
	DB         *DBStats        `json:"db"`
	TopServers []ServerSummary `json:"topServers"`
}

// DecodeSnapshot parses and validates a stats payload. The live section is
// required; db and topServers may be absent.
func DecodeSnapshot(b []byte) (StatsSnapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(b, &w); err != nil {
		return StatsSnapshot{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if w.Live == nil {
		return StatsSnapshot{}, fmt.Errorf("%w: missing live section", ErrMalformedResponse)
	}
	if w.Live.Guilds < 0 || w.Live.Users < 0 || w.Live.Players < 0 {
		return StatsSnapshot{}, fmt.Errorf("%w: negative live counter", ErrMalformedResponse)
	}
	s := StatsSnapshot{Live: *w.Live, TopServers: w.TopServers}
	if w.DB != nil {
		s.DB = *w.DB
	}
	return s, nil
}

// ValidJSON reports whether b is a syntactically valid JSON document.
func ValidJSON(b []byte) bool {
	return json.Valid(b)
}

// Shards estimates the shard count the bot runs with.
func Shards(guilds int64) int64 {
	if guilds <= 0 {
		return 0
	}
	return (guilds + 999) / 1000
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
