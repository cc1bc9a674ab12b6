package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/resilience"
)

// Source yields the raw documents of a corpus in doc_id order.
type Source interface {
	Name() string
	Documents(ctx context.Context) ([]string, error)
}

// PagesFile indexes the bodies of a crawler's JSON output. Invalid pages are
// skipped.
type PagesFile struct {
	Path string
}

func (s PagesFile) Name() string { return "pages:" + s.Path }

func (s PagesFile) Documents(ctx context.Context) ([]string, error) {
	pages, err := LoadPages(s.Path)
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("component", "corpus", "source", s.Name())
	docs := make([]string, 0, len(pages))
	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := ValidatePage(p); err != nil {
			logger.Warn("skipping invalid page", "position", i, "url", p.URL, "error", err)
			continue
		}
		docs = append(docs, p.Body)
	}
	return docs, nil
}

// JSONLines reads one JSON object per line and takes TextField from each.
// A positive Limit stops after that many documents.
type JSONLines struct {
	Path      string
	TextField string
	Limit     int
}

func (s JSONLines) Name() string { return "jsonl:" + s.Path }

func (s JSONLines) Documents(ctx context.Context) ([]string, error) {
	field := s.TextField
	if field == "" {
		field = "article"
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", s.Path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var docs []string
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var record map[string]json.RawMessage
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.Path, line, err)
		}
		raw, ok := record[field]
		if !ok {
			return nil, fmt.Errorf("%s line %d: missing field %q", s.Path, line, field)
		}
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("%s line %d: field %q is not a string: %w", s.Path, line, field, err)
		}
		docs = append(docs, text)
		if s.Limit > 0 && len(docs) == s.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", s.Path, err)
	}
	return docs, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Postgres reads one text column from a table, ordered so that doc_ids are
// stable across builds.
type Postgres struct {
	Config  config.PostgresConfig
	Table   string
	Column  string
	OrderBy string
	Limit   int
	Timeout time.Duration
}

func (s Postgres) Name() string { return "postgres:" + s.Table + "." + s.Column }

func (s Postgres) Documents(ctx context.Context) ([]string, error) {
	for _, ident := range []string{s.Table, s.Column, s.OrderBy} {
		if !identifier.MatchString(ident) {
			return nil, fmt.Errorf("invalid sql identifier %q", ident)
		}
	}
	client, err := postgres.New(ctx, s.Config)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", s.Column, s.Table, s.OrderBy)
	if s.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", s.Limit)
	}
	timeout := s.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	var docs []string
	err = resilience.WithTimeout(ctx, timeout, "corpus-postgres", func(ctx context.Context) error {
		rows, err := client.DB.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("querying %s: %w", s.Table, err)
		}
		defer rows.Close()
		for rows.Next() {
			var text *string
			if err := rows.Scan(&text); err != nil {
				return fmt.Errorf("scanning %s.%s: %w", s.Table, s.Column, err)
			}
			if text == nil {
				docs = append(docs, "")
				continue
			}
			docs = append(docs, *text)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// FromConfig selects the source named by cfg.Source.
func FromConfig(cfg config.DatasetConfig, pg config.PostgresConfig) (Source, error) {
	switch cfg.Source {
	case "jsonl":
		return JSONLines{Path: cfg.Path, TextField: cfg.TextField, Limit: cfg.Limit}, nil
	case "pages":
		return PagesFile{Path: cfg.Path}, nil
	case "postgres":
		return Postgres{Config: pg, Table: cfg.Table, Column: cfg.Column, OrderBy: cfg.OrderBy, Limit: cfg.Limit}, nil
	default:
		return nil, errors.New("unknown dataset source " + cfg.Source)
	}
}
