package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
	"github.com/uptrace/bun"
)

// DefaultTable is the posts table of the source CMS.
const DefaultTable = "wp_posts"

var errBunDatabaseRequired = errors.New("documents: bun store requires a database")

// BunOption customises a BunStore.
type BunOption func(*BunStore)

// WithTable overrides the posts table name.
func WithTable(table string) BunOption {
	return func(s *BunStore) {
		if table = strings.TrimSpace(table); table != "" {
			s.table = table
		}
	}
}

// WithFilter overrides the exclusions applied to "any" queries.
func WithFilter(filter Filter) BunOption {
	return func(s *BunStore) {
		s.filter = filter
	}
}

// BunStore reads and rewrites documents in a posts table through Bun. It works
// against sqlite and postgres.
type BunStore struct {
	db     *bun.DB
	table  string
	filter Filter
}

var _ interfaces.DocumentStore = (*BunStore)(nil)

// NewBunStore constructs a Bun-backed document store.
func NewBunStore(db *bun.DB, opts ...BunOption) *BunStore {
	store := &BunStore{
		db:     db,
		table:  DefaultTable,
		filter: DefaultFilter(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// FetchIDs pushes the query down to the database.
func (s *BunStore) FetchIDs(ctx context.Context, query interfaces.DocumentQuery) ([]int64, error) {
	if s.db == nil {
		return nil, errBunDatabaseRequired
	}
	q := s.db.NewSelect().
		Table(s.table).
		Column("ID").
		Where("? > ?", bun.Ident("ID"), query.After)

	if isAny(query.PostType) {
		if len(s.filter.ExcludedTypes) > 0 {
			q = q.Where("post_type NOT IN (?)", bun.In(s.filter.ExcludedTypes))
		}
	} else {
		q = q.Where("post_type = ?", strings.TrimSpace(query.PostType))
	}
	if isAny(query.Status) {
		if len(s.filter.ExcludedStatuses) > 0 {
			q = q.Where("post_status NOT IN (?)", bun.In(s.filter.ExcludedStatuses))
		}
	} else {
		q = q.Where("post_status = ?", strings.TrimSpace(query.Status))
	}
	if query.Contains != "" {
		q = q.Where(`post_content LIKE ? ESCAPE '\'`, "%"+escapeLike(query.Contains)+"%")
	}

	var ids []int64
	err := q.OrderExpr("? ASC", bun.Ident("ID")).
		Limit(normalizeLimit(query.Limit)).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("documents: fetch ids: %w", err)
	}
	return ids, nil
}

// Fetch returns the document or interfaces.ErrDocumentNotFound.
func (s *BunStore) Fetch(ctx context.Context, id int64) (*interfaces.Document, error) {
	if s.db == nil {
		return nil, errBunDatabaseRequired
	}
	var row PostRow
	err := s.db.NewSelect().
		Table(s.table).
		Column("ID", "post_title", "post_type", "post_status", "post_content").
		Where("? = ?", bun.Ident("ID"), id).
		Limit(1).
		Scan(ctx, &row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", interfaces.ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("documents: fetch %d: %w", id, err)
	}
	doc := row.Document()
	return &doc, nil
}

// Write replaces post_content of the document.
func (s *BunStore) Write(ctx context.Context, id int64, content string) error {
	if s.db == nil {
		return errBunDatabaseRequired
	}
	res, err := s.db.NewUpdate().
		Table(s.table).
		Set("post_content = ?", content).
		Where("? = ?", bun.Ident("ID"), id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("documents: write %d: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %d", interfaces.ErrDocumentNotFound, id)
	}
	return nil
}

// Title returns post_title of the document.
func (s *BunStore) Title(ctx context.Context, id int64) (string, error) {
	if s.db == nil {
		return "", errBunDatabaseRequired
	}
	var title string
	err := s.db.NewSelect().
		Table(s.table).
		Column("post_title").
		Where("? = ?", bun.Ident("ID"), id).
		Limit(1).
		Scan(ctx, &title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %d", interfaces.ErrDocumentNotFound, id)
		}
		return "", fmt.Errorf("documents: title %d: %w", id, err)
	}
	return title, nil
}

// EnsureSchema creates the posts table when missing. Production databases
// already carry it; this serves local sqlite exports and tests.
func (s *BunStore) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return errBunDatabaseRequired
	}
	_, err := s.db.NewCreateTable().
		Model((*PostRow)(nil)).
		ModelTableExpr("?", bun.Ident(s.table)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Insert adds documents to the posts table.
func (s *BunStore) Insert(ctx context.Context, docs ...interfaces.Document) error {
	if s.db == nil {
		return errBunDatabaseRequired
	}
	if len(docs) == 0 {
		return nil
	}
	rows := make([]PostRow, len(docs))
	for i, doc := range docs {
		rows[i] = rowFromDocument(doc)
	}
	_, err := s.db.NewInsert().
		Model(&rows).
		ModelTableExpr("?", bun.Ident(s.table)).
		Exec(ctx)
	return err
}

// PostRow maps the columns of the posts table the migrator touches.
type PostRow struct {
	bun.BaseModel `bun:"table:wp_posts"`

	ID      int64  `bun:"ID,pk"`
	Title   string `bun:"post_title,notnull"`
	Type    string `bun:"post_type,notnull"`
	Status  string `bun:"post_status,notnull"`
	Content string `bun:"post_content,notnull"`
}

// Document converts the row.
func (r PostRow) Document() interfaces.Document {
	return interfaces.Document{
		ID:       r.ID,
		Title:    r.Title,
		PostType: r.Type,
		Status:   r.Status,
		Content:  r.Content,
	}
}

func rowFromDocument(doc interfaces.Document) PostRow {
	return PostRow{
		ID:      doc.ID,
		Title:   doc.Title,
		Type:    doc.PostType,
		Status:  doc.Status,
		Content: doc.Content,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
