package services

import (
	"context"
	"math"
	"sort"
	"strconv"
	"time"

	"weightmate/internal/domain"
	apperrors "weightmate/internal/errors"
)

// The Weights sheet is a flat append-only log: one row per recording,
// {username, date, weight, mode}. Appends cannot race, so recording needs no
// coordination; duplicate dates are shadowed last-write-wins at query time.
const (
	weightsRecordRange = "Weights!A2:D"
	weightsAppendRange = "Weights!A:D"

	dateLayout = "2006-01-02"
)

// LedgerService implements the weight ledger over the Weights sheet.
type LedgerService struct {
	store domain.TableStore
	now   func() time.Time
}

var _ domain.WeightLedger = (*LedgerService)(nil)

func NewLedgerService(store domain.TableStore) *LedgerService {
	return &LedgerService{store: store, now: time.Now}
}

// Record appends an observation for the given date, or for today when date
// is empty. The user's current mode is captured alongside the weight.
func (s *LedgerService) Record(ctx context.Context, user *domain.UserRecord, date string, weight float64) (time.Time, error) {
	day := s.today()
	if date != "" {
		parsed, err := time.Parse(dateLayout, date)
		if err != nil {
			return time.Time{}, apperrors.ErrInvalidDate
		}
		day = parsed
	}
	// NaN fails every comparison, so a plain <= 0 check would let it through.
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return time.Time{}, apperrors.ErrInvalidWeight
	}

	row := []string{
		user.Username,
		day.Format(dateLayout),
		strconv.FormatFloat(weight, 'f', -1, 64),
		string(user.Mode),
	}
	if err := s.store.Append(ctx, weightsAppendRange, row); err != nil {
		return time.Time{}, err
	}
	return day, nil
}

// QueryRecent returns the user's observations from the last windowDays days,
// ascending by date, one per date (the latest row for a date wins). An empty
// result is not an error; the caller decides whether the user even exists.
// Rows that fail to parse are skipped: partially written rows must not take
// down the whole query.
func (s *LedgerService) QueryRecent(ctx context.Context, username string, windowDays int) ([]domain.Observation, error) {
	rows, err := s.store.Get(ctx, weightsRecordRange)
	if err != nil {
		return nil, err
	}

	cutoff := s.today().AddDate(0, 0, -windowDays)
	byDate := make(map[string]domain.Observation)
	for _, row := range rows {
		if len(row) < 3 || row[0] != username {
			continue
		}
		day, err := time.Parse(dateLayout, row[1])
		if err != nil {
			continue
		}
		weight, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			continue
		}
		obs := domain.Observation{Date: day, Weight: weight}
		if len(row) >= 4 {
			obs.Mode = domain.Mode(row[3])
		}
		byDate[row[1]] = obs
	}

	observations := make([]domain.Observation, 0, len(byDate))
	for _, obs := range byDate {
		observations = append(observations, obs)
	}
	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Date.Before(observations[j].Date)
	})
	return observations, nil
}

func (s *LedgerService) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
