package treasury

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "tsfarb/internal/errors"
)

// Loader reads the three tabular inputs of the pipeline. Every load is
// strict: a missing file, an absent required column, or a cell that fails to
// parse aborts with a typed error. Empty numeric cells are missing data, not
// schema failures, and become NaN.
type Loader struct {
	// RatesInPercent normalizes percent-quoted rate columns (2.10) to
	// decimal fractions (0.0210) on load.
	RatesInPercent bool
	// Cutoff drops contract observations on or before this date when set.
	Cutoff time.Time

	logger *slog.Logger
}

// NewLoader creates a loader with the given normalization settings.
func NewLoader(ratesInPercent bool, cutoff time.Time, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{RatesInPercent: ratesInPercent, Cutoff: cutoff, logger: logger}
}

// contract table stubs; the wide input carries one column per (stub, tenor),
// e.g. "Contract_2_10" is the deferred contract code of the 10Y bucket.
var contractStubs = []string{
	"Contract_1", "Contract_2",
	"Implied_Repo_1", "Implied_Repo_2",
	"Vol_1", "Vol_2",
	"Price_1", "Price_2",
}

// LoadContracts reads the wide-format treasury futures table and reshapes it
// to one ContractRecord per (date, bucket, contract leg).
func (l *Loader) LoadContracts(path string) ([]ContractRecord, error) {
	header, rows, err := l.readCSV(path)
	if err != nil {
		return nil, err
	}
	file := filepath.Base(path)

	dateIdx, err := requireColumn(file, header, "Date")
	if err != nil {
		return nil, err
	}

	// Resolve the (stub, bucket) column grid from the header.
	type legCol struct {
		bucket Bucket
		stub   string
		idx    int
	}
	var cols []legCol
	for i, name := range header {
		for _, stub := range contractStubs {
			prefix := stub + "_"
			if strings.HasPrefix(name, prefix) {
				bucket, perr := ParseBucket(strings.TrimPrefix(name, prefix))
				if perr != nil {
					continue // not a tenor-suffixed column
				}
				cols = append(cols, legCol{bucket: bucket, stub: stub, idx: i})
			}
		}
	}
	if len(cols) == 0 {
		return nil, apperrors.NewMissingColumnError(file, "Contract_1_<tenor>")
	}

	var records []ContractRecord
	for rowNum, row := range rows {
		date, err := parseDate(row[dateIdx])
		if err != nil {
			return nil, apperrors.NewMalformedRowError(file, rowNum+2, "unparseable date", err)
		}
		if !l.Cutoff.IsZero() && !date.After(l.Cutoff) {
			continue
		}

		// Assemble one record per (bucket, leg) from the column grid.
		type legFields struct {
			contract string
			repo     float64
			vol      float64
			price    float64
		}
		legs := map[Bucket]map[int]*legFields{}
		leg := func(b Bucket, v int) *legFields {
			if legs[b] == nil {
				legs[b] = map[int]*legFields{}
			}
			if legs[b][v] == nil {
				legs[b][v] = &legFields{repo: math.NaN(), vol: math.NaN(), price: math.NaN()}
			}
			return legs[b][v]
		}

		for _, c := range cols {
			cell := strings.TrimSpace(row[c.idx])
			v := 1
			if strings.HasSuffix(c.stub, "_2") {
				v = 2
			}
			switch {
			case strings.HasPrefix(c.stub, "Contract"):
				leg(c.bucket, v).contract = cell
			case strings.HasPrefix(c.stub, "Implied_Repo"):
				rate, err := parseOptionalFloat(cell)
				if err != nil {
					return nil, apperrors.NewMalformedRowError(file, rowNum+2,
						fmt.Sprintf("unparseable %s_%d", c.stub, int(c.bucket)), err)
				}
				leg(c.bucket, v).repo = l.normalizeRate(rate)
			case strings.HasPrefix(c.stub, "Vol"):
				vol, err := parseOptionalFloat(cell)
				if err != nil {
					return nil, apperrors.NewMalformedRowError(file, rowNum+2,
						fmt.Sprintf("unparseable %s_%d", c.stub, int(c.bucket)), err)
				}
				leg(c.bucket, v).vol = vol
			case strings.HasPrefix(c.stub, "Price"):
				price, err := parseOptionalFloat(cell)
				if err != nil {
					return nil, apperrors.NewMalformedRowError(file, rowNum+2,
						fmt.Sprintf("unparseable %s_%d", c.stub, int(c.bucket)), err)
				}
				leg(c.bucket, v).price = price
			}
		}

		for _, b := range Buckets() {
			for v := 1; v <= 2; v++ {
				f := legs[b][v]
				if f == nil || f.contract == "" {
					continue
				}
				records = append(records, ContractRecord{
					Date:        date,
					Bucket:      b,
					Contract:    f.contract,
					Price:       f.price,
					ImpliedRepo: f.repo,
					Volume:      f.vol,
					Deferred:    v == 2,
				})
			}
		}
	}

	l.logger.Info("loaded treasury futures table",
		slog.String("file", file),
		slog.Int("rows", len(rows)),
		slog.Int("records", len(records)))

	return records, nil
}

// oisColumns maps input column names to tenor days on the standard grid.
var oisColumns = []struct {
	name string
	days int
}{
	{"OIS_1W", Tenor1W},
	{"OIS_1M", Tenor1M},
	{"OIS_3M", Tenor3M},
	{"OIS_6M", Tenor6M},
	{"OIS_1Y", Tenor1Y},
}

// LoadOISCurves reads the OIS rate table into one curve per date, keyed by
// DateKey.
func (l *Loader) LoadOISCurves(path string) (map[string]Curve, error) {
	header, rows, err := l.readCSV(path)
	if err != nil {
		return nil, err
	}
	file := filepath.Base(path)

	dateIdx, err := requireColumn(file, header, "Date", "date")
	if err != nil {
		return nil, err
	}
	tenorIdx := make(map[string]int, len(oisColumns))
	for _, col := range oisColumns {
		idx, err := requireColumn(file, header, col.name)
		if err != nil {
			return nil, err
		}
		tenorIdx[col.name] = idx
	}

	curves := make(map[string]Curve, len(rows))
	for rowNum, row := range rows {
		date, err := parseDate(row[dateIdx])
		if err != nil {
			return nil, apperrors.NewMalformedRowError(file, rowNum+2, "unparseable date", err)
		}

		points := make([]CurvePoint, 0, len(oisColumns))
		for _, col := range oisColumns {
			rate, err := parseOptionalFloat(strings.TrimSpace(row[tenorIdx[col.name]]))
			if err != nil {
				return nil, apperrors.NewMalformedRowError(file, rowNum+2,
					fmt.Sprintf("unparseable %s", col.name), err)
			}
			points = append(points, CurvePoint{TenorDays: col.days, Rate: l.normalizeRate(rate)})
		}
		curves[DateKey(date)] = Curve{Date: date, Points: points}
	}

	l.logger.Info("loaded OIS rate table",
		slog.String("file", file),
		slog.Int("curves", len(curves)))

	return curves, nil
}

// LoadLastTradingDays reads the last-trading-day reference table. Duplicate
// (month, year) entries are a parse failure, not a tie to break silently.
func (l *Loader) LoadLastTradingDays(path string) (*LastTradingDays, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return l.loadLastTradingDaysXLSX(path)
	}

	header, rows, err := l.readCSV(path)
	if err != nil {
		return nil, err
	}
	return l.buildLastTradingDays(filepath.Base(path), header, rows)
}

// loadLastTradingDaysXLSX reads the manually curated workbook variant of the
// reference table from the first sheet.
func (l *Loader) loadLastTradingDaysXLSX(path string) (*LastTradingDays, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, apperrors.NewMissingFileError(path, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("open workbook %s", path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewMalformedRowError(filepath.Base(path), 1, "workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("read sheet %s", sheets[0]), err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewMalformedRowError(filepath.Base(path), 1, "empty sheet", nil)
	}

	// Excel rows can be ragged; pad them to the header width.
	header := rows[0]
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		for len(row) < len(header) {
			row = append(row, "")
		}
		data = append(data, row)
	}
	return l.buildLastTradingDays(filepath.Base(path), header, data)
}

func (l *Loader) buildLastTradingDays(file string, header []string, rows [][]string) (*LastTradingDays, error) {
	monthIdx, err := requireColumn(file, header, "Mat_Month")
	if err != nil {
		return nil, err
	}
	yearIdx, err := requireColumn(file, header, "Mat_Year")
	if err != nil {
		return nil, err
	}
	dayIdx, err := requireColumn(file, header, "Mat_Day")
	if err != nil {
		return nil, err
	}

	table := NewLastTradingDays()
	for rowNum, row := range rows {
		month, err := strconv.Atoi(strings.TrimSpace(row[monthIdx]))
		if err != nil || month < 1 || month > 12 {
			return nil, apperrors.NewMalformedRowError(file, rowNum+2, "unparseable Mat_Month", err)
		}
		year, err := strconv.Atoi(strings.TrimSpace(row[yearIdx]))
		if err != nil {
			return nil, apperrors.NewMalformedRowError(file, rowNum+2, "unparseable Mat_Year", err)
		}
		day, err := strconv.Atoi(strings.TrimSpace(row[dayIdx]))
		if err != nil {
			return nil, apperrors.NewMalformedRowError(file, rowNum+2, "unparseable Mat_Day", err)
		}
		if err := table.Add(time.Month(month), year, day); err != nil {
			return nil, apperrors.NewMalformedRowError(file, rowNum+2, err.Error(), nil)
		}
	}

	l.logger.Info("loaded last-trading-day table",
		slog.String("file", file),
		slog.Int("entries", table.Len()))

	return table, nil
}

// readCSV opens a delimited file and returns its header row and data rows,
// with every data row padded to the header width.
func (l *Loader) readCSV(path string) ([]string, [][]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, apperrors.NewMissingFileError(path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.NewStorageError(fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperrors.NewMalformedRowError(filepath.Base(path), 0, "read CSV", err)
	}
	if len(all) == 0 {
		return nil, nil, apperrors.NewMalformedRowError(filepath.Base(path), 1, "empty file", nil)
	}

	header := all[0]
	rows := all[1:]
	for i, row := range rows {
		for len(row) < len(header) {
			row = append(row, "")
		}
		rows[i] = row
	}
	return header, rows, nil
}

// requireColumn returns the index of the first matching column name.
func requireColumn(file string, header []string, names ...string) (int, error) {
	for _, name := range names {
		for i, col := range header {
			if strings.TrimSpace(col) == name {
				return i, nil
			}
		}
	}
	return 0, apperrors.NewMissingColumnError(file, names[0])
}

// parseOptionalFloat treats an empty cell as missing (NaN), anything else
// must parse.
func parseOptionalFloat(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// parseDate accepts the date formats that occur in the inputs.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	formats := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"01/02/2006",
		"2006/01/02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

func (l *Loader) normalizeRate(rate float64) float64 {
	if l.RatesInPercent {
		return rate / 100
	}
	return rate
}
