package storage

import "time"

// Session describes one acquisition session: a single transport connection
// recorded into the archive.
type Session struct {
	ID        int64
	StartTime time.Time
	Device    string
	Config    *string
}

// StoredSample is one archived sample row.
type StoredSample struct {
	Timestamp time.Time
	Channel   int
	Voltage   float64
	Raw       uint16
	Trigger   bool
}
