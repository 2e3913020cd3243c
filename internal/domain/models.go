package domain

import (
	"time"
)

// Mode is the tracking mode a user registers with. The canonical labels are
// the Japanese ones users type; ASCII aliases are accepted on input.
type Mode string

const (
	ModeParent   Mode = "親モード"
	ModeTraining Mode = "筋トレモード"
)

// ParseMode maps a user-supplied mode label to a Mode.
func ParseMode(label string) (Mode, bool) {
	switch label {
	case string(ModeParent), "parent":
		return ModeParent, true
	case string(ModeTraining), "training":
		return ModeTraining, true
	}
	return "", false
}

// ColumnRef is a single spreadsheet column letter ("B".."Y").
type ColumnRef string

// UserRecord represents a registered user and the column pair exclusively
// allocated to them. ExternalID is the opaque caller identity supplied by the
// chat platform; Row is the 1-based sheet row holding the record.
type UserRecord struct {
	Username   string
	Mode       Mode
	WeightCol  ColumnRef
	ModeCol    ColumnRef
	ExternalID string
	Row        int
}

// Observation is a single dated weight measurement.
type Observation struct {
	Date   time.Time
	Weight float64
	Mode   Mode
}
