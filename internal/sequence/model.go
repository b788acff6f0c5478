package sequence

import "time"

// Counter is one row of the sequence store: the last issued value for a
// voucher number family, plus the display metadata used to format numbers.
type Counter struct {
	TypeKey   string
	Label     string
	Prefix    string
	Value     int64
	PadWidth  int
	UpdatedAt time.Time
}

// Defaults carries the metadata applied when a counter row is created lazily
// on first allocation.
type Defaults struct {
	Label    string
	Prefix   string
	PadWidth int
}

// SetInput is the administrative overwrite for a counter row.
type SetInput struct {
	Label    string
	Prefix   string
	Value    int64
	PadWidth int
}
