package tool

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Codedkv/capstone-agents-mvp/internal/domain"
	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
)

// DataLoader loads and validates business metric CSV files.
type DataLoader struct {
	requiredColumns []string
	maxRows         int
}

// NewDataLoader creates the CSV loading tool. requiredColumns must be
// present in the file header; rows beyond maxRows are ignored.
func NewDataLoader(requiredColumns []string, maxRows int) *DataLoader {
	if maxRows <= 0 {
		maxRows = 10000
	}
	return &DataLoader{requiredColumns: requiredColumns, maxRows: maxRows}
}

func (l *DataLoader) Name() string { return "load_csv_data" }

func (l *DataLoader) Description() string {
	return "Load and validate CSV files with business metrics"
}

// Execute loads the file named by the "filepath" argument. Schema validation
// can be disabled with "validate" = false.
func (l *DataLoader) Execute(ctx context.Context, args Args) Result {
	start := time.Now()

	path := args.String("filepath", "")
	if path == "" {
		return Fail(apperrors.Data("filepath argument is required")).Timed(start)
	}
	validate := args.Bool("validate", true)

	rows, err := l.load(path, validate)
	if err != nil {
		return Fail(err).Timed(start)
	}
	return Ok(rows).Timed(start)
}

func (l *DataLoader) load(path string, validate bool) ([]domain.MetricRow, *apperrors.AppError) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Data("file not found").WithDetail("filepath", path)
		}
		return nil, apperrors.Data("failed to open file").WithError(err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.Data("failed to read CSV header").WithError(err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}

	if validate {
		for _, col := range l.requiredColumns {
			if _, ok := index[col]; !ok {
				return nil, apperrors.Data("invalid CSV format: missing required columns").
					WithDetail("missing", col)
			}
		}
	}

	var rows []domain.MetricRow
	for len(rows) < l.maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Data("failed to read CSV row").WithError(err)
		}
		row, perr := parseRow(record, index)
		if perr != nil {
			return nil, perr.WithDetail("row", fmt.Sprintf("%d", len(rows)+1))
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, apperrors.Data("dataset is empty")
	}
	return rows, nil
}

func parseRow(record []string, index map[string]int) (domain.MetricRow, *apperrors.AppError) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	numeric := func(name string) (float64, *apperrors.AppError) {
		raw := field(name)
		if raw == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, apperrors.Data("non-numeric value in column " + name).WithError(err)
		}
		return v, nil
	}

	row := domain.MetricRow{Date: field("date")}
	var perr *apperrors.AppError
	if row.Revenue, perr = numeric("revenue"); perr != nil {
		return row, perr
	}
	if row.Costs, perr = numeric("costs"); perr != nil {
		return row, perr
	}
	if row.Customers, perr = numeric("customers"); perr != nil {
		return row, perr
	}
	return row, nil
}
