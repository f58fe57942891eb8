package fetcher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/emailgen/internal/model"
)

// ReadOptions configures ReadLeads.
type ReadOptions struct {
	Sheet   string  // XLSX sheet name, default first sheet
	Limit   int     // max records, 0 = all
	Fetcher Fetcher // used for http(s) inputs, default NewHTTPFetcher
}

// LeadSheet is a parsed lead file: the column names as they appeared and one
// record per non-empty data row.
type LeadSheet struct {
	Header  []string
	Records []model.Record
}

// ReadLeads loads a CSV or XLSX lead file. The first row is the header.
func ReadLeads(ctx context.Context, path string, opts ReadOptions) (*LeadSheet, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	if IsRemote(path) {
		local, cleanup, err := download(ctx, path, format, opts.Fetcher)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		path = local
	}

	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, err = ReadXLSX(path, XLSXOptions{SheetName: opts.Sheet})
	case FormatCSV:
		rows, err = readCSVFile(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("fetcher: %s has no header row", path)
	}

	header := rows[0]
	records := RowsToRecords(header, rows[1:])
	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}

	zap.L().Info("fetcher: loaded leads",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("columns", len(header)),
		zap.Int("records", len(records)),
	)

	return &LeadSheet{Header: header, Records: records}, nil
}

// RowsToRecords builds one record per row keyed by header name. Blank header
// columns and blank cells are skipped, and rows with no values are dropped.
func RowsToRecords(header []string, rows [][]string) []model.Record {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = strings.TrimSpace(h)
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		rec := model.NewRecord()
		for i, cell := range row {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				rec.Set(keys[i], v)
			}
		}
		if rec.Len() > 0 {
			records = append(records, rec)
		}
	}
	return records
}

// EnrichedTable flattens enriched leads into rows. Columns are the input
// header followed by any other record keys in first-seen order, so the
// derived fields come last. Candidate lists are rendered as JSON text.
func EnrichedTable(header []string, leads []model.EnrichedLead) ([]string, [][]string) {
	var columns []string
	seen := map[string]bool{}
	add := func(k string) {
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		columns = append(columns, k)
	}
	for _, h := range header {
		add(strings.TrimSpace(h))
	}

	records := make([]model.Record, len(leads))
	for i, l := range leads {
		records[i] = l.Record()
		for _, k := range records[i].Keys() {
			add(k)
		}
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(columns))
		for j, col := range columns {
			v, _ := rec.Get(col)
			row[j] = cellString(v)
		}
		rows[i] = row
	}
	return columns, rows
}

// WriteLeads writes enriched leads as CSV or XLSX, chosen by extension.
func WriteLeads(path string, header []string, leads []model.EnrichedLead) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}

	columns, rows := EnrichedTable(header, leads)

	switch format {
	case FormatXLSX:
		return WriteXLSX(path, "Enriched Leads", columns, rows)
	default:
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "fetcher: create output")
		}
		if err := WriteCSV(f, columns, rows); err != nil {
			_ = f.Close()
			return err
		}
		return eris.Wrap(f.Close(), "fetcher: close output")
	}
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func readCSVFile(ctx context.Context, path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	return ReadCSV(ctx, f, CSVOptions{TrimSpace: true, LazyQuotes: true})
}

func download(ctx context.Context, url string, format Format, f Fetcher) (string, func(), error) {
	if f == nil {
		f = NewHTTPFetcher(HTTPOptions{})
	}

	dir, err := os.MkdirTemp("", "emailgen-*")
	if err != nil {
		return "", nil, eris.Wrap(err, "fetcher: create temp dir")
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	local := filepath.Join(dir, "leads."+string(format))
	n, err := f.DownloadToFile(ctx, url, local)
	if err != nil {
		cleanup()
		return "", nil, err
	}

	zap.L().Info("fetcher: downloaded lead file",
		zap.String("url", url),
		zap.Int64("bytes", n),
	)
	return local, cleanup, nil
}
