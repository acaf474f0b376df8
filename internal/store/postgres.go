package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// timeLayout is fixed-width so that string ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Postgres stores documents as JSONB rows in the records table, keyed by
// collection and id. See internal/db/migrations for the schema.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Collection(name string) Collection {
	return &postgresCollection{db: p.db, name: name}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close(ctx context.Context) error {
	return p.db.Close()
}

type postgresCollection struct {
	db   *sql.DB
	name string
}

func (c *postgresCollection) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (c *postgresCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	where, args, err := buildWhere(c.name, filter)
	if err != nil {
		return nil, err
	}
	query := `SELECT id, doc FROM records WHERE ` + where + ` ORDER BY created_at LIMIT 1`
	return scanDocument(c.db.QueryRowContext(ctx, query, args...))
}

func (c *postgresCollection) Find(ctx context.Context, filter Filter, opts FindOptions) ([]Document, error) {
	where, args, err := buildWhere(c.name, filter)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(`SELECT id, doc FROM records WHERE `)
	b.WriteString(where)
	if opts.SortField != "" {
		args = append(args, opts.SortField)
		direction := "ASC NULLS FIRST"
		if opts.SortDesc {
			direction = "DESC NULLS LAST"
		}
		fmt.Fprintf(&b, ` ORDER BY doc->$%d %s, created_at`, len(args), direction)
	} else {
		b.WriteString(` ORDER BY created_at`)
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}
	if opts.Skip > 0 {
		args = append(args, opts.Skip)
		fmt.Fprintf(&b, ` OFFSET $%d`, len(args))
	}

	rows, err := c.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *postgresCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	stored := cloneDocument(doc)
	if stored == nil {
		stored = Document{}
	}
	delete(stored, IDField)
	payload, err := encodeJSON(stored)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	const query = `INSERT INTO records (collection, id, doc) VALUES ($1, $2, $3::jsonb)`
	if _, err := c.db.ExecContext(ctx, query, c.name, id, payload); err != nil {
		return "", mapPostgresError(err)
	}
	return id, nil
}

func (c *postgresCollection) UpdateOne(ctx context.Context, filter Filter, update Update) (Document, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	where, args, err := buildWhere(c.name, filter)
	if err != nil {
		return nil, err
	}

	expr := "doc"
	for field, delta := range update.Inc {
		args = append(args, field, delta)
		k, n := len(args)-1, len(args)
		expr = fmt.Sprintf(
			`jsonb_set(%s, ARRAY[$%d::text], to_jsonb(COALESCE((doc->>$%d)::numeric, 0) + $%d))`,
			expr, k, k, n,
		)
	}
	if len(update.Set) > 0 {
		payload, err := encodeJSON(Document(update.Set))
		if err != nil {
			return nil, err
		}
		args = append(args, payload)
		expr = fmt.Sprintf(`%s || $%d::jsonb`, expr, len(args))
	}

	// The row lock serializes concurrent updates; the filter is re-checked
	// against the latest row version before the write applies.
	query := `UPDATE records SET doc = ` + expr + `, updated_at = now()
		WHERE collection = $1 AND id = (
			SELECT id FROM records WHERE ` + where + ` ORDER BY created_at LIMIT 1 FOR UPDATE
		) AND ` + where + `
		RETURNING id, doc`

	doc, err := scanDocument(c.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return doc, nil
}

func (c *postgresCollection) DeleteOne(ctx context.Context, filter Filter) error {
	where, args, err := buildWhere(c.name, filter)
	if err != nil {
		return err
	}
	query := `DELETE FROM records WHERE collection = $1 AND id = (
		SELECT id FROM records WHERE ` + where + ` ORDER BY created_at LIMIT 1
	)`
	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// buildWhere renders filter as a SQL predicate. The collection name is
// always bound to $1.
func buildWhere(collection string, filter Filter) (string, []any, error) {
	args := []any{collection}
	clauses := []string{"collection = $1"}

	for _, cond := range filter {
		if cond.Field == IDField {
			id, ok := cond.Value.(string)
			if !ok {
				return "", nil, fmt.Errorf("id filter must be a string, got %T", cond.Value)
			}
			args = append(args, id)
			switch cond.Op {
			case OpEq:
				clauses = append(clauses, fmt.Sprintf("id = $%d", len(args)))
			case OpNe:
				clauses = append(clauses, fmt.Sprintf("id <> $%d", len(args)))
			default:
				return "", nil, fmt.Errorf("unsupported id operator %d", cond.Op)
			}
			continue
		}

		args = append(args, cond.Field)
		k := len(args)
		switch cond.Op {
		case OpEq, OpNe:
			payload, err := json.Marshal(encodeValue(cond.Value))
			if err != nil {
				return "", nil, err
			}
			args = append(args, string(payload))
			op := "="
			if cond.Op == OpNe {
				op = "IS DISTINCT FROM"
			}
			clauses = append(clauses, fmt.Sprintf("doc->$%d %s $%d::jsonb", k, op, len(args)))
		case OpGte:
			n, ok := toFloat(cond.Value)
			if !ok {
				return "", nil, fmt.Errorf("gte filter on %q must be numeric, got %T", cond.Field, cond.Value)
			}
			args = append(args, n)
			clauses = append(clauses, fmt.Sprintf(
				"CASE WHEN jsonb_typeof(doc->$%d) = 'number' THEN (doc->>$%d)::numeric >= $%d ELSE false END",
				k, k, len(args),
			))
		case OpEqFold:
			args = append(args, fmt.Sprint(cond.Value))
			clauses = append(clauses, fmt.Sprintf("lower(doc->>$%d) = lower($%d)", k, len(args)))
		case OpContainsFold:
			args = append(args, fmt.Sprint(cond.Value))
			clauses = append(clauses, fmt.Sprintf("strpos(lower(doc->>$%d), lower($%d)) > 0", k, len(args)))
		default:
			return "", nil, fmt.Errorf("unsupported operator %d", cond.Op)
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		id  string
		raw []byte
	)
	if err := row.Scan(&id, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	doc := Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	doc[IDField] = id
	return doc, nil
}

func encodeJSON(doc Document) (string, error) {
	payload, err := json.Marshal(encodeValue(map[string]any(doc)))
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// encodeValue rewrites times into their fixed-width string form.
func encodeValue(v any) any {
	switch typed := v.(type) {
	case time.Time:
		return typed.UTC().Format(timeLayout)
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[k] = encodeValue(item)
		}
		return out
	case Document:
		return encodeValue(map[string]any(typed))
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = encodeValue(item)
		}
		return out
	default:
		return v
	}
}

func mapPostgresError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
