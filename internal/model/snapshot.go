package model

import "maps"

// Stats is the period usage summary passed through from the primary source.
type Stats map[string]any

// DayPair holds the colors resolved for today and tomorrow.
type DayPair struct {
	Today    Color
	Tomorrow Color
}

// Snapshot is the served and persisted view of the latest refresh.
type Snapshot struct {
	Today     Color  `json:"today"`
	Tomorrow  Color  `json:"tomorrow"`
	Yesterday Color  `json:"yesterday"`
	Stats     Stats  `json:"stats"`
	UpdatedAt int64  `json:"updated_at"` // unix seconds
	LastError string `json:"last_error"`
}

// Clone returns a copy whose Stats map is not shared with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Stats = s.Stats.Clone()
	return out
}

// Clone never returns nil so an empty mapping serializes as {}.
func (s Stats) Clone() Stats {
	if s == nil {
		return Stats{}
	}
	return maps.Clone(s)
}
