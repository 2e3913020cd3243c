package domain

import (
	"context"
	"time"
)

// TableStore is the port to the remote tabular store. Ranges use A1 notation
// including the sheet name ("Users!A2:E"). Get trims trailing empty cells the
// way the Sheets API does, so a blanked row comes back empty.
type TableStore interface {
	Get(ctx context.Context, rng string) ([][]string, error)
	Update(ctx context.Context, rng string, values [][]string) error
	Append(ctx context.Context, rng string, row []string) error
}

// IdentityRegistry maps caller identities to user records and owns column
// pair allocation. Resolve methods return (nil, nil) when no record matches.
type IdentityRegistry interface {
	Register(ctx context.Context, username string, mode Mode, externalID string) (*UserRecord, error)
	ResolveByID(ctx context.Context, externalID string) (*UserRecord, error)
	ResolveByName(ctx context.Context, username string) (*UserRecord, error)
	Reset(ctx context.Context, externalID string) (*UserRecord, error)
}

// WeightLedger records and queries dated weight observations.
type WeightLedger interface {
	Record(ctx context.Context, user *UserRecord, date string, weight float64) (time.Time, error)
	QueryRecent(ctx context.Context, username string, windowDays int) ([]Observation, error)
}

// ChartRenderer produces a trend image and returns the generated file name
// relative to the renderer's output directory.
type ChartRenderer interface {
	RenderTrend(ctx context.Context, username string, observations []Observation) (string, error)
}
