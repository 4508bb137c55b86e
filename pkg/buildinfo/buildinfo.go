// Package buildinfo carries the version stamped into binaries at link time.
package buildinfo

import "go.uber.org/zap"

// Info describes one build. Empty values render as "N/A".
type Info struct {
	Version string
	Date    string
	Commit  string
}

func na(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// New fills missing values with "N/A".
func New(version, date, commit string) Info {
	return Info{Version: na(version), Date: na(date), Commit: na(commit)}
}

// Fields returns the build as structured log fields.
func (i Info) Fields() []zap.Field {
	return []zap.Field{
		zap.String("build_version", na(i.Version)),
		zap.String("build_date", na(i.Date)),
		zap.String("build_commit", na(i.Commit)),
	}
}
