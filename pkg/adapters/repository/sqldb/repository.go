package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"                                // PostgreSQL driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	sqlx.BindDriver("libsql", sqlx.QUESTION)
}

const documentColumns = `id, ecli, country, court, year, identifier, text, meta, labels, lang, appeal,
	hash, status, views_hash, views_public, owner_key, created_at, updated_at`

type Repository struct {
	db *sqlx.DB
}

// DriverFor picks the database/sql driver from the connection URL.
func DriverFor(dbURL string) string {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return "postgres"
	case strings.Contains(dbURL, "libsql://"), strings.Contains(dbURL, "wss://"):
		return "libsql"
	}
	return "sqlite"
}

func NewRepository(dbURL string) (*Repository, error) {
	driverName := DriverFor(dbURL)

	db, err := sqlx.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driverName == "sqlite" {
		// A single connection serialises writers and keeps in-memory databases alive.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

func migrate(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == "postgres" {
		schema = postgresSchema
	}
	_, err := db.Exec(schema)
	return err
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repository) Create(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}
	if doc.Status == "" {
		doc.Status = domain.StatusNew
	}

	query := r.db.Rebind(`INSERT INTO documents (ecli, country, court, year, identifier, text, meta, labels, lang, appeal,
		hash, status, views_hash, views_public, owner_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, query,
			doc.ECLI, doc.Country, doc.Court, doc.Year, doc.Identifier, doc.Text, doc.Meta, doc.Labels,
			doc.Lang, doc.Appeal, doc.Hash, doc.Status, doc.ViewsHash, doc.ViewsPublic, doc.OwnerKey,
			doc.CreatedAt, doc.UpdatedAt,
		).Scan(&doc.ID)
		if err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
		if err := r.upsertLabels(ctx, tx, doc.Labels); err != nil {
			return err
		}
		return r.replaceLinks(ctx, tx, doc.ID, doc.Links)
	})
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

func (r *Repository) GetByHash(ctx context.Context, hash string) (*domain.Document, error) {
	return r.getOne(ctx, `WHERE hash = ?`, hash)
}

func (r *Repository) GetPublicByECLI(ctx context.Context, ecli string) (*domain.Document, error) {
	return r.getOne(ctx, `WHERE ecli = ? AND status = 'public' ORDER BY id DESC LIMIT 1`, ecli)
}

func (r *Repository) getOne(ctx context.Context, where string, args ...interface{}) (*domain.Document, error) {
	query := r.db.Rebind(`SELECT ` + documentColumns + ` FROM documents ` + where)

	var doc domain.Document
	err := r.db.GetContext(ctx, &doc, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	doc.Links, err = r.getLinks(ctx, r.db, doc.ID)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Repository) Update(ctx context.Context, id int64, c domain.Content, status *domain.Status) (bool, error) {
	var published bool

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := r.db.Rebind(`UPDATE documents SET ecli = ?, country = ?, court = ?, year = ?, identifier = ?,
			text = ?, meta = ?, labels = ?, lang = ?, appeal = ?, updated_at = ? WHERE id = ?`)
		res, err := tx.ExecContext(ctx, query,
			c.ECLI(), c.Country, c.Court, c.Year, c.Identifier, c.Text, c.Meta, domain.StringList(c.Labels),
			c.Lang, c.Appeal, time.Now().UTC(), id,
		)
		if err != nil {
			return fmt.Errorf("failed to update document %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return domain.ErrNotFound
		}

		if err := r.upsertLabels(ctx, tx, c.Labels); err != nil {
			return err
		}
		if err := r.replaceLinks(ctx, tx, id, c.Links); err != nil {
			return err
		}

		if status == nil {
			return nil
		}
		// Only a row that actually changes state counts as a transition.
		res, err = tx.ExecContext(ctx,
			r.db.Rebind(`UPDATE documents SET status = ? WHERE id = ? AND status <> ?`),
			*status, id, *status,
		)
		if err != nil {
			return fmt.Errorf("failed to change status of document %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		published = n == 1 && *status == domain.StatusPublic
		return nil
	})
	if err != nil {
		return false, err
	}
	return published, nil
}

// IncrementHashViews counts one anonymous hash-link view if the document is
// still shareable and under max. It reports whether the view was counted.
func (r *Repository) IncrementHashViews(ctx context.Context, id int64, max int) (bool, error) {
	query := r.db.Rebind(`UPDATE documents SET views_hash = views_hash + 1
		WHERE id = ? AND views_hash < ? AND status IN ('new', 'hidden')`)
	res, err := r.db.ExecContext(ctx, query, id, max)
	if err != nil {
		return false, fmt.Errorf("failed to count hash view: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IncrementPublicViews counts one view of a published document. It returns
// ErrNotFound when the document is gone or no longer public.
func (r *Repository) IncrementPublicViews(ctx context.Context, id int64) error {
	query := r.db.Rebind(`UPDATE documents SET views_public = views_public + 1 WHERE id = ? AND status = 'public'`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to count public view: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) upsertLabels(ctx context.Context, tx *sqlx.Tx, labels []string) error {
	query := r.db.Rebind(`INSERT INTO labels (label, category) VALUES (?, 'user_defined') ON CONFLICT (label) DO NOTHING`)
	for _, label := range labels {
		if label == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, label); err != nil {
			return fmt.Errorf("failed to store label %q: %w", label, err)
		}
	}
	return nil
}

func (r *Repository) replaceLinks(ctx context.Context, tx *sqlx.Tx, id int64, links []domain.DocLink) error {
	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM document_links WHERE document_id = ?`), id); err != nil {
		return fmt.Errorf("failed to clear links of document %d: %w", id, err)
	}

	query := r.db.Rebind(`INSERT INTO document_links (document_id, position, target_type, target_identifier, target_label)
		VALUES (?, ?, ?, ?, ?)`)
	for i, l := range links {
		if _, err := tx.ExecContext(ctx, query, id, i, l.Kind, l.Target, l.Label); err != nil {
			return fmt.Errorf("failed to store link of document %d: %w", id, err)
		}
	}
	return nil
}

func (r *Repository) getLinks(ctx context.Context, q sqlx.QueryerContext, id int64) ([]domain.DocLink, error) {
	query := r.db.Rebind(`SELECT target_type, target_identifier, target_label
		FROM document_links WHERE document_id = ? ORDER BY position`)

	links := []domain.DocLink{}
	if err := sqlx.SelectContext(ctx, q, &links, query, id); err != nil {
		return nil, fmt.Errorf("failed to get links of document %d: %w", id, err)
	}
	return links, nil
}

// SearchLabels returns vocabulary entries starting with prefix, ignoring case.
func (r *Repository) SearchLabels(ctx context.Context, prefix string, limit int) ([]string, error) {
	query := r.db.Rebind(`SELECT label FROM labels WHERE LOWER(label) LIKE ? ESCAPE '\' ORDER BY label LIMIT ?`)

	labels := []string{}
	if err := r.db.SelectContext(ctx, &labels, query, escapeLike(strings.ToLower(prefix))+"%", limit); err != nil {
		return nil, fmt.Errorf("failed to search labels: %w", err)
	}
	return labels, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Browse lists one level of the public index: countries, then courts of a
// country, years of a court, and identifiers of a year.
func (r *Repository) Browse(ctx context.Context, q domain.BrowseQuery) ([]string, error) {
	var (
		query string
		args  []interface{}
	)
	switch q.Level {
	case domain.BrowseCountry:
		query = `SELECT DISTINCT country FROM documents WHERE status = 'public' ORDER BY country`
	case domain.BrowseCourt:
		query = `SELECT DISTINCT court FROM documents WHERE status = 'public' AND country = ? ORDER BY court`
		args = append(args, q.Country)
	case domain.BrowseYear:
		query = `SELECT DISTINCT year FROM documents WHERE status = 'public' AND country = ? AND court = ? ORDER BY year`
		args = append(args, q.Country, q.Court)
	case domain.BrowseDocument:
		query = `SELECT identifier FROM documents WHERE status = 'public' AND country = ? AND court = ? AND year = ?
			ORDER BY identifier`
		args = append(args, q.Country, q.Court, q.Year)
	default:
		return nil, fmt.Errorf("%w: unknown level %q", domain.ErrInvalidInput, q.Level)
	}

	if q.Level == domain.BrowseYear {
		var years []int
		if err := r.db.SelectContext(ctx, &years, r.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to list years: %w", err)
		}
		out := make([]string, len(years))
		for i, y := range years {
			out[i] = strconv.Itoa(y)
		}
		return out, nil
	}

	out := []string{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", q.Level, err)
	}
	return out, nil
}

func (r *Repository) Dump(ctx context.Context) ([]domain.Document, error) {
	docs := []domain.Document{}
	if err := r.db.SelectContext(ctx, &docs, `SELECT `+documentColumns+` FROM documents ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to dump documents: %w", err)
	}

	var rows []struct {
		DocumentID int64 `db:"document_id"`
		domain.DocLink
	}
	err := r.db.SelectContext(ctx, &rows, `SELECT document_id, target_type, target_identifier, target_label
		FROM document_links ORDER BY document_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to dump links: %w", err)
	}

	byDoc := make(map[int64][]domain.DocLink)
	for _, row := range rows {
		byDoc[row.DocumentID] = append(byDoc[row.DocumentID], row.DocLink)
	}
	for i := range docs {
		docs[i].Links = byDoc[docs[i].ID]
		if docs[i].Links == nil {
			docs[i].Links = []domain.DocLink{}
		}
	}
	return docs, nil
}

// Ensure interface compliance
var _ ports.DocumentRepository = (*Repository)(nil)
