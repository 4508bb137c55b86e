package domain

import "time"

// HostHealth is the latest host sample of the web process.
type HostHealth struct {
	SampledAt     time.Time `json:"sampledAt"`
	MemTotal      uint64    `json:"memTotal"`
	MemUsedPct    float64   `json:"memUsedPercent"`
	CPUPct        float64   `json:"cpuPercent"`
	HostUptimeSec uint64    `json:"hostUptimeSeconds"`
}
