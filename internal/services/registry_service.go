package services

import (
	"context"
	"fmt"
	"sync"

	"weightmate/internal/domain"
	apperrors "weightmate/internal/errors"
	"weightmate/internal/logger"
)

// Sheet layout. The Users sheet holds one record per row from row 2 down and
// uses row 1 as the column-pair allocation header: a pair is free iff both of
// its header cells are empty.
const (
	usersHeaderRange = "Users!A1:Z1"
	usersRecordRange = "Users!A2:E"
	usersAppendRange = "Users!A:E"

	// Pairs start at column B (header index 1) and step by 2 up to (X,Y),
	// 12 pairs in total.
	firstPairIndex = 1
	lastPairIndex  = 23
)

// RegistryService implements the identity registry on top of the Users
// sheet. Register and Reset are read-modify-write sequences against a store
// with no compare-and-swap, so both are serialized behind a process-wide
// mutex and the header is re-read under the lock on every registration.
type RegistryService struct {
	store domain.TableStore
	mu    sync.Mutex
}

var _ domain.IdentityRegistry = (*RegistryService)(nil)

func NewRegistryService(store domain.TableStore) *RegistryService {
	return &RegistryService{store: store}
}

// Register allocates the first free column pair and appends a new record.
func (s *RegistryService) Register(ctx context.Context, username string, mode domain.Mode, externalID string) (*domain.UserRecord, error) {
	if username == "" {
		return nil, apperrors.NewValidationError("username must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.findByID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrAlreadyRegistered
	}

	weightCol, modeCol, err := s.allocatePair(ctx, username)
	if err != nil {
		return nil, err
	}

	record := &domain.UserRecord{
		Username:   username,
		Mode:       mode,
		WeightCol:  weightCol,
		ModeCol:    modeCol,
		ExternalID: externalID,
	}
	row := []string{username, string(mode), string(weightCol), string(modeCol), externalID}
	if err := s.store.Append(ctx, usersAppendRange, row); err != nil {
		// The pair is already marked in the header but no record references
		// it, so neither Reset nor a later registration could reclaim it.
		// Free it again, best effort.
		rng := fmt.Sprintf("Users!%s1:%s1", weightCol, modeCol)
		if rollbackErr := s.store.Update(ctx, rng, [][]string{{"", ""}}); rollbackErr != nil {
			logger.Error("failed to free column pair after append failure",
				"range", rng, "error", rollbackErr)
		}
		return nil, err
	}
	return record, nil
}

// allocatePair scans the live header for the first pair whose cells are both
// empty or absent, then marks the pair by writing the owner's name into it.
func (s *RegistryService) allocatePair(ctx context.Context, username string) (domain.ColumnRef, domain.ColumnRef, error) {
	rows, err := s.store.Get(ctx, usersHeaderRange)
	if err != nil {
		return "", "", err
	}
	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}

	for i := firstPairIndex; i <= lastPairIndex; i += 2 {
		if !cellEmpty(header, i) || !cellEmpty(header, i+1) {
			continue
		}
		weightCol := columnLetter(i)
		modeCol := columnLetter(i + 1)
		rng := fmt.Sprintf("Users!%s1:%s1", weightCol, modeCol)
		labels := [][]string{{username + " 体重", username + " モード"}}
		if err := s.store.Update(ctx, rng, labels); err != nil {
			return "", "", err
		}
		return weightCol, modeCol, nil
	}
	return "", "", apperrors.ErrNoColumnsAvailable
}

// ResolveByID returns the active record for an opaque caller identity, or
// (nil, nil) when there is none.
func (s *RegistryService) ResolveByID(ctx context.Context, externalID string) (*domain.UserRecord, error) {
	return s.findByID(ctx, externalID)
}

// ResolveByName returns the first active record with the given display name
// in row order. Display names are not unique; callers that mutate state must
// resolve by ID instead.
func (s *RegistryService) ResolveByName(ctx context.Context, username string) (*domain.UserRecord, error) {
	if username == "" {
		return nil, nil
	}
	rows, err := s.store.Get(ctx, usersRecordRange)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) >= 4 && row[0] == username {
			return recordFromRow(row, i+2), nil
		}
	}
	return nil, nil
}

// Reset soft-deletes the caller's record: the row and the header cells of its
// column pair are blanked in place, freeing the pair for reuse. Ledger rows
// referencing the freed columns are left untouched.
func (s *RegistryService) Reset(ctx context.Context, externalID string) (*domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.findByID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.ErrNotRegistered
	}

	rowRange := fmt.Sprintf("Users!A%d:E%d", record.Row, record.Row)
	if err := s.store.Update(ctx, rowRange, [][]string{{"", "", "", "", ""}}); err != nil {
		return nil, err
	}
	headerRange := fmt.Sprintf("Users!%s1:%s1", record.WeightCol, record.ModeCol)
	if err := s.store.Update(ctx, headerRange, [][]string{{"", ""}}); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *RegistryService) findByID(ctx context.Context, externalID string) (*domain.UserRecord, error) {
	if externalID == "" {
		return nil, nil
	}
	rows, err := s.store.Get(ctx, usersRecordRange)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) >= 5 && row[4] == externalID && row[0] != "" {
			return recordFromRow(row, i+2), nil
		}
	}
	return nil, nil
}

func recordFromRow(row []string, sheetRow int) *domain.UserRecord {
	record := &domain.UserRecord{
		Username:  row[0],
		Mode:      domain.Mode(row[1]),
		WeightCol: domain.ColumnRef(row[2]),
		ModeCol:   domain.ColumnRef(row[3]),
		Row:       sheetRow,
	}
	if len(row) >= 5 {
		record.ExternalID = row[4]
	}
	return record
}

func cellEmpty(header []string, i int) bool {
	return i >= len(header) || header[i] == ""
}

func columnLetter(i int) domain.ColumnRef {
	return domain.ColumnRef(string(rune('A' + i)))
}
