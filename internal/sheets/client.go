// Package sheets implements the TableStore port against the Google Sheets
// API. All values are written USER_ENTERED, matching how the sheet is also
// edited by hand.
package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"weightmate/internal/config"
	"weightmate/internal/domain"
	apperrors "weightmate/internal/errors"
	"weightmate/internal/logger"
)

type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
}

var _ domain.TableStore = (*Client)(nil)

// NewClient authenticates with the service-account credentials from config.
func NewClient(ctx context.Context, cfg config.SheetsConfig) (*Client, error) {
	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID}, nil
}

// Get reads a range and converts every cell to its string form.
func (c *Client) Get(ctx context.Context, rng string) ([][]string, error) {
	var resp *gsheets.ValueRange
	err := c.withRetry(rng, func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, apperrors.NewUpstreamError(err, "sheets")
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Update overwrites the cells of a range in place.
func (c *Client) Update(ctx context.Context, rng string, values [][]string) error {
	vr := &gsheets.ValueRange{Values: toInterfaceRows(values)}
	err := c.withRetry(rng, func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return apperrors.NewUpstreamError(err, "sheets")
	}
	return nil
}

// Append inserts a new row after the last row of the range's table.
func (c *Client) Append(ctx context.Context, rng string, row []string) error {
	vr := &gsheets.ValueRange{Values: toInterfaceRows([][]string{row})}
	err := c.withRetry(rng, func() error {
		_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return apperrors.NewUpstreamError(err, "sheets")
	}
	return nil
}

// withRetry retries a failed call exactly once. Transient API failures are
// common enough at this volume that a single retry is worth it; anything more
// belongs to the caller's error path.
func (c *Client) withRetry(rng string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	logger.Warn("sheets call failed, retrying once", "range", rng, "error", err)
	return fn()
}

func toInterfaceRows(values [][]string) [][]any {
	rows := make([][]any, len(values))
	for i, row := range values {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		rows[i] = cells
	}
	return rows
}
