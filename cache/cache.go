// Package cache memoizes dataset reports in SQLite, keyed by the content id
// of the source file and the profile it was fingerprinted under.
package cache

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"xdao.co/unf/cidutil"
	"xdao.co/unf/dataset"
	"xdao.co/unf/internal/logging"
	"xdao.co/unf/table"
	"xdao.co/unf/unf"
)

// Store is the SQLite-backed report cache.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open creates or opens the cache database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path, logger: logging.NewComponentLogger(logger, "cache")}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Entry is one cached report.
type Entry struct {
	SourceCID  string
	Profile    string
	SourceName string
	ReportCID  string
	UNF        string
	Rows       int
	Columns    int
	CreatedAt  time.Time
	Report     *dataset.Report
}

// Profile keys a cache entry by everything besides the source bytes that
// affects a report: the UNF parameters and the reader options.
func Profile(cfg unf.Config, opts table.ReadOptions) string {
	key := struct {
		Params        string   `json:"params"`
		Delimiter     string   `json:"delimiter"`
		Encoding      string   `json:"encoding"`
		MissingTokens []string `json:"missing_tokens"`
		NaNAsMissing  bool     `json:"nan_as_missing"`
		InferTypes    bool     `json:"infer_types"`
		NoHeader      bool     `json:"no_header"`
	}{
		Params:        cfg.Header(),
		Delimiter:     string(opts.Delimiter),
		Encoding:      strings.ToLower(opts.Encoding),
		MissingTokens: opts.MissingTokens,
		NaNAsMissing:  opts.NaNAsMissing,
		InferTypes:    opts.InferTypes,
		NoHeader:      opts.NoHeader,
	}
	b, _ := json.Marshal(key)
	return cfg.Header() + cidutil.String(b)
}

// Lookup returns the report cached for (sourceCID, profile). A row whose
// bytes no longer hash to its report CID or fail to parse is dropped and
// reported as a miss.
func (s *Store) Lookup(ctx context.Context, sourceCID, profile string) (*Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM reports WHERE source_cid = ? AND profile = ?`,
		sourceCID, profile)
	e, raw, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup %s: %w", sourceCID, err)
	}

	id, err := cidutil.Parse(e.ReportCID)
	if err == nil && !cidutil.Matches(id, raw) {
		err = errors.New("report bytes do not match report cid")
	}
	if err == nil {
		e.Report, err = dataset.ParseReport(raw)
	}
	if err != nil {
		s.logger.Warn("dropping corrupt cache entry",
			logging.String(logging.FieldSourceCID, sourceCID),
			logging.Error(err),
		)
		if _, rmErr := s.Remove(ctx, sourceCID, profile); rmErr != nil {
			return nil, false, rmErr
		}
		return nil, false, nil
	}
	return e, true, nil
}

// Put records r for (sourceCID, profile), replacing any previous entry.
func (s *Store) Put(ctx context.Context, sourceCID, profile string, r *dataset.Report) (*Entry, error) {
	raw, err := r.Canonical()
	if err != nil {
		return nil, err
	}
	reportCID, err := cidutil.Sum(raw)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		SourceCID: sourceCID,
		Profile:   profile,
		ReportCID: reportCID.String(),
		UNF:       r.UNF,
		Rows:      r.Rows,
		Columns:   len(r.Columns),
		CreatedAt: time.Now().UTC(),
		Report:    r,
	}
	if r.Source != nil {
		e.SourceName = r.Source.Name
	}
	err = s.execWithoutResultRetry(ctx,
		`INSERT OR REPLACE INTO reports (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SourceCID, e.Profile, e.SourceName, e.ReportCID, e.UNF, e.Rows, e.Columns, raw,
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", sourceCID, err)
	}
	s.logger.Debug("report cached",
		logging.String(logging.FieldSourceCID, sourceCID),
		logging.String(logging.FieldReportCID, e.ReportCID),
	)
	return e, nil
}

// List returns all entries, newest first. Reports are not decoded.
func (s *Store) List(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM reports ORDER BY created_at DESC, source_cid`)
	if err != nil {
		return nil, fmt.Errorf("list cache: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, _, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Remove deletes one entry. An empty profile removes every profile of the
// source.
func (s *Store) Remove(ctx context.Context, sourceCID, profile string) (int64, error) {
	query := `DELETE FROM reports WHERE source_cid = ?`
	args := []any{sourceCID}
	if profile != "" {
		query += ` AND profile = ?`
		args = append(args, profile)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("remove %s: %w", sourceCID, err)
	}
	return res.RowsAffected()
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM reports`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return res.RowsAffected()
}

const entryColumns = "source_cid, profile, source_name, report_cid, unf, rows_count, columns, report, created_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, []byte, error) {
	var (
		e         Entry
		raw       []byte
		createdAt string
	)
	if err := scanner.Scan(&e.SourceCID, &e.Profile, &e.SourceName, &e.ReportCID, &e.UNF,
		&e.Rows, &e.Columns, &raw, &createdAt); err != nil {
		return nil, nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	return &e, bytes.Clone(raw), nil
}
