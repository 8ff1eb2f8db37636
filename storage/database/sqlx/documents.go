package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/storage"
)

const (
	selectDocuments = `SELECT resource, id, data, created_at, updated_at FROM documents`
	uniqueViolation = "23505"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// DocumentRepository stores documents in a postgres JSONB table.
type DocumentRepository struct {
	db *sqlx.DB
}

var _ storage.Repository = (*DocumentRepository)(nil)

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

type documentRow struct {
	Resource  string    `db:"resource"`
	ID        string    `db:"id"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row documentRow) document() storage.Document {
	return storage.Document{
		Resource:  row.Resource,
		ID:        row.ID,
		Data:      row.Data,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// jsonPath turns "guardian.name" into the text[] path {guardian,name}.
func jsonPath(path string) interface{} {
	return pq.Array(strings.Split(path, "."))
}

// listQuery builds the SELECT of List. Filters are applied in sorted key order.
func listQuery(resource string, q storage.Query, filterKeys []string) (string, []interface{}) {
	args := []interface{}{resource}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var b strings.Builder
	b.WriteString(selectDocuments)
	b.WriteString(" WHERE resource = $1")

	for _, key := range filterKeys {
		p, v := arg(jsonPath(key)), arg(q.Filters[key])
		fmt.Fprintf(&b, " AND (data #>> %s = %s OR data #> %s ? %s)", p, v, p, v)
	}

	if term := strings.TrimSpace(q.Search); term != "" && len(q.SearchFields) > 0 {
		pattern := arg("%" + likeEscaper.Replace(term) + "%")
		conds := make([]string, 0, len(q.SearchFields))
		for _, f := range q.SearchFields {
			conds = append(conds, fmt.Sprintf("data #>> %s ILIKE %s", arg(jsonPath(f)), pattern))
		}
		fmt.Fprintf(&b, " AND (%s)", strings.Join(conds, " OR "))
	}

	b.WriteString(" ORDER BY ")
	for _, ord := range q.Ordering {
		fmt.Fprintf(&b, "data #>> %s %s, ", arg(jsonPath(ord.Field)), ord.Direction())
	}
	b.WriteString("created_at ASC")
	return b.String(), args
}

func (repo *DocumentRepository) List(ctx context.Context, resource string, q storage.Query) ([]storage.Document, error) {
	query, args := listQuery(resource, q, sortedKeys(q.Filters))

	var rows []documentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "selecting documents")
	}
	docs := make([]storage.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.document())
	}
	return docs, nil
}

func (repo *DocumentRepository) Get(ctx context.Context, resource, id string) (storage.Document, error) {
	var row documentRow
	err := repo.db.GetContext(ctx, &row, selectDocuments+` WHERE resource = $1 AND id = $2`, resource, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Document{}, storage.ErrNotFound
		}
		return storage.Document{}, errors.Wrap(err, "selecting document")
	}
	return row.document(), nil
}

func (repo *DocumentRepository) Create(ctx context.Context, doc storage.Document) (storage.Document, error) {
	now := storage.NowFunc().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO documents (resource, id, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		doc.Resource, doc.ID, []byte(doc.Data), doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return storage.Document{}, storage.ErrConflict
		}
		return storage.Document{}, errors.Wrap(err, "inserting document")
	}
	return doc, nil
}

func (repo *DocumentRepository) Update(ctx context.Context, doc storage.Document) (storage.Document, error) {
	var row documentRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE documents SET data = $1, updated_at = $2 WHERE resource = $3 AND id = $4 RETURNING resource, id, data, created_at, updated_at`,
		[]byte(doc.Data), storage.NowFunc().UTC(), doc.Resource, doc.ID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Document{}, storage.ErrNotFound
		}
		return storage.Document{}, errors.Wrap(err, "updating document")
	}
	return row.document(), nil
}

func (repo *DocumentRepository) Delete(ctx context.Context, resource, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM documents WHERE resource = $1 AND id = $2`, resource, id)
	if err != nil {
		return errors.Wrap(err, "deleting document")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting document")
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
