// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index maintains an optional SQLite full-text index over the
// artifact store for fast ad-hoc search. The scan-based read API never
// depends on it; the index is rebuilt from the JSON tree at any time
// and can be deleted without data loss.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperflow/internal/ident"
	"github.com/pdiddy/paperflow/internal/store"
	"github.com/pdiddy/paperflow/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "papers.db"
)

// Index wraps the SQLite database under <dataRoot>/index/papers.db.
type Index struct {
	db    *sql.DB
	store *store.Store
	log   *slog.Logger
}

// Open opens or creates the index database and its schema.
func Open(st *store.Store, log *slog.Logger) (*Index, error) {
	if log == nil {
		log = slog.Default()
	}

	dbDir := filepath.Join(st.DataRoot(), indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	x := &Index{db: db, store: st, log: log}
	if err := x.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return x, nil
}

// Close releases the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			date TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			published TEXT,
			primary_category TEXT,
			summary TEXT,
			llm_summary TEXT,
			content TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_date ON papers(date)`,
		`CREATE TABLE IF NOT EXISTS index_status (
			paper_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := x.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := x.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(
				title, summary, llm_summary, content,
				content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, summary, llm_summary, content)
				VALUES (new.rowid, new.title, new.summary, new.llm_summary, new.content);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, summary, llm_summary, content)
				VALUES('delete', old.rowid, old.title, old.summary, old.llm_summary, old.content);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, summary, llm_summary, content)
				VALUES('delete', old.rowid, old.title, old.summary, old.llm_summary, old.content);
				INSERT INTO papers_fts(rowid, title, summary, llm_summary, content)
				VALUES (new.rowid, new.title, new.summary, new.llm_summary, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := x.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// BuildSummary holds counts from one index build.
type BuildSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of papers considered.
func (s BuildSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Build walks the artifact tree and indexes every stored paper,
// skipping files unchanged since the last build. Progress is written
// to w, one line per paper.
func (x *Index) Build(ctx context.Context, w io.Writer) (BuildSummary, error) {
	dates, err := x.store.ListDates()
	if err != nil {
		return BuildSummary{}, fmt.Errorf("listing dates: %w", err)
	}

	var summary BuildSummary
	for _, date := range dates {
		papers, err := x.store.LoadForDate(date)
		if err != nil {
			return summary, fmt.Errorf("loading %s: %w", date, err)
		}

		for _, p := range papers {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			default:
			}

			id := ident.Identifier(p.Title, p.Published)

			info, err := os.Stat(x.store.JSONPath(p))
			if err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", id, err)
				summary.Failed++
				continue
			}
			modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

			var storedModTime string
			err = x.db.QueryRowContext(ctx,
				`SELECT file_mod_time FROM index_status WHERE paper_id = ?`, id,
			).Scan(&storedModTime)

			if err == nil && storedModTime == modTime {
				fmt.Fprintf(w, "skipped %s\n", id)
				summary.Skipped++
				continue
			}
			isUpdate := err == nil

			if err := x.indexPaper(ctx, id, date, p, modTime); err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", id, err)
				summary.Failed++
				continue
			}

			if isUpdate {
				fmt.Fprintf(w, "updated %s\n", id)
				summary.Updated++
			} else {
				fmt.Fprintf(w, "indexed %s\n", id)
				summary.Indexed++
			}
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (x *Index) indexPaper(ctx context.Context, id, date string, p *types.PaperRecord, modTime string) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Full text comes from the record or its sidecar when present.
	content := types.Deref(p.Content)
	if content == "" {
		if paths := x.store.ResolvePaths(p, date); paths.Content != nil {
			if data, err := os.ReadFile(*paths.Content); err == nil {
				content = string(data)
			}
		}
	}

	authorsJSON, _ := json.Marshal(p.Authors)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO papers (id, date, title, authors, published, primary_category, summary, llm_summary, content)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			date=excluded.date, title=excluded.title, authors=excluded.authors,
			published=excluded.published, primary_category=excluded.primary_category,
			summary=excluded.summary, llm_summary=excluded.llm_summary,
			content=excluded.content`,
		id, date, p.Title, string(authorsJSON), p.Published,
		p.PrimaryCategory, p.Summary, types.Deref(p.LLMSummary), content,
	)
	if err != nil {
		return fmt.Errorf("upserting paper: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO index_status (paper_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		id, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating index status: %w", err)
	}

	return tx.Commit()
}

// Result is one full-text match with a highlighted snippet.
type Result struct {
	ID              string   `json:"id"`
	Date            string   `json:"date"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Published       string   `json:"published"`
	PrimaryCategory string   `json:"primary_category"`
	Snippet         string   `json:"snippet"`
}

// Query runs an FTS5 match over title, abstract, generated summary,
// and full text, ranked by relevance.
func (x *Index) Query(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := x.db.QueryContext(ctx,
		`SELECT p.id, p.date, p.title, p.authors, p.published, p.primary_category,
			snippet(papers_fts, -1, '[', ']', '...', 12)
		FROM papers_fts
		JOIN papers p ON p.rowid = papers_fts.rowid
		WHERE papers_fts MATCH ?
		ORDER BY papers_fts.rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r           Result
			authorsJSON sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Date, &r.Title, &authorsJSON,
			&r.Published, &r.PrimaryCategory, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &r.Authors)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}
