package ui

import (
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/srodi/itop/pkg/render"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonHost struct {
	Hostname      string     `json:"hostname,omitempty"`
	Load          [3]float64 `json:"load"`
	CPUPercent    float64    `json:"cpu_percent"`
	MemoryPercent float64    `json:"memory_percent"`
	TotalMemory   uint64     `json:"total_memory_bytes"`
}

type jsonProcess struct {
	PID           int32   `json:"pid"`
	PPID          int32   `json:"ppid"`
	StartTime     int64   `json:"start_time,omitempty"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	RSSBytes      uint64  `json:"rss_bytes"`
}

type jsonFrame struct {
	Cycle     uint64        `json:"cycle"`
	Time      time.Time     `json:"time"`
	Sort      string        `json:"sort"`
	Status    string        `json:"status,omitempty"`
	Host      jsonHost      `json:"host"`
	Processes []jsonProcess `json:"processes"`
}

// JSONLines writes one JSON object per frame, newline separated.
type JSONLines struct {
	enc *jsoniter.Encoder
}

// NewJSONLines returns a JSONLines writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

// Show implements engine.Sink. Encoding errors are dropped with the frame.
func (j *JSONLines) Show(m render.Model) {
	_ = j.enc.Encode(toJSONFrame(m))
}

func toJSONFrame(m render.Model) jsonFrame {
	f := jsonFrame{
		Cycle:  m.Cycle,
		Time:   m.UpdatedAt,
		Sort:   m.Key.String(),
		Status: m.Status,
		Host: jsonHost{
			Hostname:      m.Host.Hostname,
			Load:          [3]float64{m.Host.Load1, m.Host.Load5, m.Host.Load15},
			CPUPercent:    m.Host.CPUPercent,
			MemoryPercent: m.Host.MemoryPercent,
			TotalMemory:   m.Host.TotalMemory,
		},
		Processes: make([]jsonProcess, 0, len(m.Rows)),
	}
	for _, r := range m.Rows {
		f.Processes = append(f.Processes, jsonProcess{
			PID:           r.PID,
			PPID:          r.PPID,
			StartTime:     r.Identity.StartTime,
			Name:          r.Name,
			CPUPercent:    r.CPUPercent,
			MemoryPercent: r.MemoryPercent,
			RSSBytes:      r.RSSBytes,
		})
	}
	return f
}
