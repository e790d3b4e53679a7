package source

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"procurement/internal/config"
	"procurement/pkg/contracts/domain"
)

// SheetsSource reads one range of a Google spreadsheet with a read-only
// service account.
type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
}

// NewSheetsSource creates the Sheets client. Credentials come from the JSON
// in cfg.CredentialsJSON or, failing that, from cfg.CredentialsFile. Extra
// client options are appended last.
func NewSheetsSource(ctx context.Context, cfg config.SheetsConfig, extra ...option.ClientOption) (*SheetsSource, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: spreadsheet id is empty", ErrNotConfigured)
	}

	opts := []option.ClientOption{option.WithScopes(config.SheetsReadOnlyScope)}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheets credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(data))
	case len(extra) == 0:
		return nil, fmt.Errorf("%w: no sheets credentials", ErrNotConfigured)
	}
	opts = append(opts, extra...)

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	readRange := cfg.Range
	if readRange == "" {
		readRange = "Sheet1"
	}

	return &SheetsSource{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     readRange,
	}, nil
}

// FetchRows reads the whole range; the first row holds the headers
func (s *SheetsSource) FetchRows(ctx context.Context) (*domain.Table, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read from sheets: %w", err)
	}

	grid := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			if v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		grid = append(grid, row)
	}
	return TableFromGrid(grid), nil
}

// Name implements RowSource
func (s *SheetsSource) Name() string {
	return "sheets"
}
