package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/apisearch-mcp/internal/detail"
	"github.com/dshills/apisearch-mcp/internal/symboldb"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedPayload is returned for payload variants without stored details
	ErrUnsupportedPayload = errors.New("unsupported payload")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Source operations

// upsertSourceWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertSourceWithQuerier(ctx context.Context, q querier, source *Source) error {
	query := `
		INSERT INTO sources (path, language, content_hash, size_bytes, parse_error, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language = excluded.language,
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			parse_error = excluded.parse_error,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now().UTC().Round(0)
	stamp := now.Format(timestampLayout)
	err := q.QueryRowContext(ctx, query,
		source.Path, source.Language, source.ContentHash[:], source.SizeBytes,
		source.ParseError, stamp, stamp, stamp).Scan(&source.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	source.LastIndexedAt = now
	source.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertSource(ctx context.Context, source *Source) error {
	return s.upsertSourceWithQuerier(ctx, s.querier(), source)
}

const sourceColumns = `id, path, language, content_hash, size_bytes, parse_error, last_indexed_at, created_at, updated_at`

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(r rowScanner) (*Source, error) {
	var source Source
	var hash []byte
	var size sql.NullInt64
	var parseError sql.NullString
	var lastIndexedAt sql.NullTime
	err := r.Scan(
		&source.ID, &source.Path, &source.Language, &hash, &size,
		&parseError, &lastIndexedAt, &source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	copy(source.ContentHash[:], hash)
	source.SizeBytes = size.Int64
	if parseError.Valid {
		source.ParseError = &parseError.String
	}
	if lastIndexedAt.Valid {
		source.LastIndexedAt = lastIndexedAt.Time
	}
	return &source, nil
}

// getSourceWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getSourceWithQuerier(ctx context.Context, q querier, path string) (*Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE path = ?`
	source, err := scanSource(q.QueryRowContext(ctx, query, path))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return source, nil
}

func (s *SQLiteStorage) GetSource(ctx context.Context, path string) (*Source, error) {
	return s.getSourceWithQuerier(ctx, s.querier(), path)
}

// listSourcesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listSourcesWithQuerier(ctx context.Context, q querier) ([]*Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources ORDER BY path`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*Source, 0)
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (s *SQLiteStorage) ListSources(ctx context.Context) ([]*Source, error) {
	return s.listSourcesWithQuerier(ctx, s.querier())
}

// deleteSourceWithQuerier removes a source; its symbols cascade
func (s *SQLiteStorage) deleteSourceWithQuerier(ctx context.Context, q querier, sourceID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, sourceID); err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	return pruneNamespaces(ctx, q)
}

func (s *SQLiteStorage) DeleteSource(ctx context.Context, sourceID int64) error {
	return s.deleteSourceWithQuerier(ctx, s.querier(), sourceID)
}

// deleteSymbolsBySourceWithQuerier removes every symbol a source declared
func (s *SQLiteStorage) deleteSymbolsBySourceWithQuerier(ctx context.Context, q querier, sourceID int64) error {
	// members first, then types; nested types cascade through outer_id
	for _, query := range []string{
		`DELETE FROM properties WHERE source_id = ?`,
		`DELETE FROM functions WHERE source_id = ?`,
		`DELETE FROM types WHERE source_id = ?`,
	} {
		if _, err := q.ExecContext(ctx, query, sourceID); err != nil {
			return fmt.Errorf("failed to delete symbols: %w", err)
		}
	}
	return pruneNamespaces(ctx, q)
}

func (s *SQLiteStorage) DeleteSymbolsBySource(ctx context.Context, sourceID int64) error {
	return s.deleteSymbolsBySourceWithQuerier(ctx, s.querier(), sourceID)
}

// pruneNamespaces drops namespaces no symbol declares into anymore
func pruneNamespaces(ctx context.Context, q querier) error {
	query := `
		DELETE FROM namespaces
		WHERE id NOT IN (SELECT namespace_id FROM types)
		  AND id NOT IN (SELECT namespace_id FROM functions)
		  AND id NOT IN (SELECT namespace_id FROM properties)
	`
	if _, err := q.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to prune namespaces: %w", err)
	}
	return nil
}

// Symbol operations

// ensureNamespaceWithQuerier returns the id of a namespace, creating it. The
// root namespace is stored under the empty name.
func (s *SQLiteStorage) ensureNamespaceWithQuerier(ctx context.Context, q querier, qualifiedName string) (int64, error) {
	query := `
		INSERT INTO namespaces (qualified_name) VALUES (?)
		ON CONFLICT(qualified_name) DO UPDATE SET qualified_name = excluded.qualified_name
		RETURNING id
	`
	var id int64
	if err := q.QueryRowContext(ctx, query, strings.TrimSpace(qualifiedName)).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to ensure namespace %q: %w", qualifiedName, err)
	}
	return id, nil
}

func (s *SQLiteStorage) EnsureNamespace(ctx context.Context, qualifiedName string) (int64, error) {
	return s.ensureNamespaceWithQuerier(ctx, s.querier(), qualifiedName)
}

// insertTypeWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertTypeWithQuerier(ctx context.Context, q querier, t *Type) error {
	if err := types.ValidateTypeKind(t.Kind); err != nil {
		return err
	}
	query := `
		INSERT INTO types (source_id, namespace_id, outer_id, name, kind, super, template, origin, signature, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err := q.QueryRowContext(ctx, query,
		t.SourceID, t.NamespaceID, t.OuterID, t.Name, string(t.Kind), t.Super,
		t.Template, string(t.Origin), t.Signature, t.Doc,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert type %s: %w", t.Name, err)
	}
	return nil
}

func (s *SQLiteStorage) InsertType(ctx context.Context, t *Type) error {
	return s.insertTypeWithQuerier(ctx, s.querier(), t)
}

// insertFunctionWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertFunctionWithQuerier(ctx context.Context, q querier, f *Function) error {
	params, err := json.Marshal(f.Params)
	if err != nil {
		return fmt.Errorf("failed to encode params of %s: %w", f.Name, err)
	}
	if f.Params == nil {
		params = []byte("[]")
	}
	query := `
		INSERT INTO functions (
			source_id, namespace_id, owner_id, name, return_type, params,
			is_constructor, is_generated, is_mixin, is_static, is_const,
			origin, signature, doc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err = q.QueryRowContext(ctx, query,
		f.SourceID, f.NamespaceID, f.OwnerID, f.Name, f.ReturnType, string(params),
		f.Constructor, f.Generated, f.Mixin, f.Static, f.Const,
		string(f.Origin), f.Signature, f.Doc,
	).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to insert function %s: %w", f.Name, err)
	}
	return nil
}

func (s *SQLiteStorage) InsertFunction(ctx context.Context, f *Function) error {
	return s.insertFunctionWithQuerier(ctx, s.querier(), f)
}

// insertPropertyWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertPropertyWithQuerier(ctx context.Context, q querier, p *Property) error {
	query := `
		INSERT INTO properties (source_id, namespace_id, owner_id, name, value_type, is_constant, origin, signature, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err := q.QueryRowContext(ctx, query,
		p.SourceID, p.NamespaceID, p.OwnerID, p.Name, p.ValueType, p.Constant,
		string(p.Origin), p.Signature, p.Doc,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert property %s: %w", p.Name, err)
	}
	return nil
}

func (s *SQLiteStorage) InsertProperty(ctx context.Context, p *Property) error {
	return s.insertPropertyWithQuerier(ctx, s.querier(), p)
}

// Read operations

// loadDatabaseWithQuerier builds an in-memory snapshot of every stored
// symbol. Rows are read in id order, so outer types precede nested ones.
func (s *SQLiteStorage) loadDatabaseWithQuerier(ctx context.Context, q querier) (*symboldb.Database, error) {
	db := symboldb.New()

	namespaces := make(map[int64]*symboldb.Namespace)
	err := eachRow(ctx, q, `SELECT id, qualified_name FROM namespaces ORDER BY id`, func(r rowScanner) error {
		var id int64
		var name string
		if err := r.Scan(&id, &name); err != nil {
			return err
		}
		namespaces[id] = db.Namespace(name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load namespaces: %w", err)
	}

	typesByID := make(map[int64]*symboldb.Type)
	err = eachRow(ctx, q, `
		SELECT id, namespace_id, outer_id, name, kind, super, template, origin, signature, doc
		FROM types ORDER BY id`, func(r rowScanner) error {
		var id, nsID int64
		var outerID sql.NullInt64
		var super, signature, doc sql.NullString
		var kind, origin string
		t := &symboldb.Type{}
		if err := r.Scan(&id, &nsID, &outerID, &t.TypeName, &kind, &super, &t.Template, &origin, &signature, &doc); err != nil {
			return err
		}
		t.TypeKind = types.TypeKind(kind)
		t.Origin = types.Origin(origin)
		t.Super, t.Signature, t.Doc = super.String, signature.String, doc.String

		if outerID.Valid {
			outer, ok := typesByID[outerID.Int64]
			if !ok {
				return fmt.Errorf("type %s: outer type %d missing", t.TypeName, outerID.Int64)
			}
			typesByID[id] = db.AddNestedType(outer, t)
			return nil
		}
		ns, ok := namespaces[nsID]
		if !ok {
			return fmt.Errorf("type %s: namespace %d missing", t.TypeName, nsID)
		}
		typesByID[id] = db.AddType(ns, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load types: %w", err)
	}

	err = eachRow(ctx, q, `
		SELECT id, namespace_id, owner_id, name, return_type, params,
		       is_constructor, is_generated, is_mixin, is_static, is_const,
		       origin, signature, doc
		FROM functions ORDER BY id`, func(r rowScanner) error {
		var nsID int64
		var ownerID sql.NullInt64
		var returnType, signature, doc sql.NullString
		var params, origin string
		m := &symboldb.Method{}
		if err := r.Scan(&m.ID, &nsID, &ownerID, &m.MethodName, &returnType, &params,
			&m.Constructor, &m.Generated, &m.Mixin, &m.Static, &m.Const,
			&origin, &signature, &doc); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(params), &m.Params); err != nil {
			return fmt.Errorf("function %s: invalid params: %w", m.MethodName, err)
		}
		m.ReturnType, m.Signature, m.Doc = returnType.String, signature.String, doc.String
		m.Origin = types.Origin(origin)

		if ownerID.Valid {
			owner, ok := typesByID[ownerID.Int64]
			if !ok {
				return fmt.Errorf("function %s: owner type %d missing", m.MethodName, ownerID.Int64)
			}
			db.AddMethod(owner, m)
			return nil
		}
		ns, ok := namespaces[nsID]
		if !ok {
			return fmt.Errorf("function %s: namespace %d missing", m.MethodName, nsID)
		}
		db.AddFunction(ns, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load functions: %w", err)
	}

	err = eachRow(ctx, q, `
		SELECT id, namespace_id, owner_id, name, value_type, is_constant, origin, signature, doc
		FROM properties ORDER BY id`, func(r rowScanner) error {
		var nsID int64
		var ownerID sql.NullInt64
		var valueType, signature, doc sql.NullString
		var origin string
		p := &symboldb.Property{}
		if err := r.Scan(&p.ID, &nsID, &ownerID, &p.PropertyName, &valueType, &p.Constant, &origin, &signature, &doc); err != nil {
			return err
		}
		p.ValueType, p.Signature, p.Doc = valueType.String, signature.String, doc.String
		p.Origin = types.Origin(origin)

		if ownerID.Valid {
			owner, ok := typesByID[ownerID.Int64]
			if !ok {
				return fmt.Errorf("property %s: owner type %d missing", p.PropertyName, ownerID.Int64)
			}
			db.AddProperty(owner, p)
			return nil
		}
		ns, ok := namespaces[nsID]
		if !ok {
			return fmt.Errorf("property %s: namespace %d missing", p.PropertyName, nsID)
		}
		db.AddVariable(ns, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}

	return db, nil
}

func (s *SQLiteStorage) LoadDatabase(ctx context.Context) (*symboldb.Database, error) {
	return s.loadDatabaseWithQuerier(ctx, s.querier())
}

// eachRow runs query and calls fn for every row
func eachRow(ctx context.Context, q querier, query string, fn func(rowScanner) error) error {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// fetchDetailWithQuerier renders the stored signature and documentation of
// the symbol p identifies
func (s *SQLiteStorage) fetchDetailWithQuerier(ctx context.Context, q querier, p types.Payload) (string, error) {
	var query string
	var args []interface{}

	switch v := p.(type) {
	case types.TypePayload:
		// nested types are addressed as Outer.Inner
		name := v.Name
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		query = `
			SELECT src.language, t.signature, t.doc
			FROM types t
			JOIN namespaces n ON n.id = t.namespace_id
			JOIN sources src ON src.id = t.source_id
			WHERE n.qualified_name = ? AND t.name = ? AND t.kind = ?
			ORDER BY t.id LIMIT 1`
		args = []interface{}{v.Namespace, name, string(v.Kind)}
	case types.FunctionPayload:
		query, args = functionDetailQuery, []interface{}{v.ID}
	case types.PropertyPayload:
		query, args = propertyDetailQuery, []interface{}{v.ID}
	case types.GlobalPayload:
		if v.Variable {
			query, args = propertyDetailQuery, []interface{}{v.ID}
		} else {
			query, args = functionDetailQuery, []interface{}{v.ID}
		}
	case types.NamespacePayload:
		return detail.FormatDetail("", "namespace "+v.Name, ""), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedPayload, p)
	}

	var language string
	var signature, doc sql.NullString
	err := q.QueryRowContext(ctx, query, args...).Scan(&language, &signature, &doc)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%s: %w", p.Identity(), ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return detail.FormatDetail(language, signature.String, doc.String), nil
}

const functionDetailQuery = `
	SELECT src.language, f.signature, f.doc
	FROM functions f JOIN sources src ON src.id = f.source_id
	WHERE f.id = ?`

const propertyDetailQuery = `
	SELECT src.language, p.signature, p.doc
	FROM properties p JOIN sources src ON src.id = p.source_id
	WHERE p.id = ?`

func (s *SQLiteStorage) FetchDetail(ctx context.Context, p types.Payload) (string, error) {
	return s.fetchDetailWithQuerier(ctx, s.querier(), p)
}

// fetchDetailsWithQuerier resolves a batch of payloads. Missing symbols
// yield empty blobs.
func (s *SQLiteStorage) fetchDetailsWithQuerier(ctx context.Context, q querier, ps []types.Payload) ([]string, error) {
	out := make([]string, len(ps))
	for i, p := range ps {
		blob, err := s.fetchDetailWithQuerier(ctx, q, p)
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsupportedPayload) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch detail of %s: %w", p.Identity(), err)
		}
		out[i] = blob
	}
	return out, nil
}

func (s *SQLiteStorage) FetchDetails(ctx context.Context, ps []types.Payload) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	return s.fetchDetailsWithQuerier(ctx, tx, ps)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier) (*Status, error) {
	status := &Status{BuildMode: BuildMode}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM sources`, &status.Sources},
		{`SELECT COUNT(*) FROM sources WHERE parse_error IS NOT NULL`, &status.FailedSources},
		{`SELECT COUNT(*) FROM namespaces WHERE qualified_name != ''`, &status.Namespaces},
		{`SELECT COUNT(*) FROM types`, &status.Types},
		{`SELECT COUNT(*) FROM functions`, &status.Functions},
		{`SELECT COUNT(*) FROM properties`, &status.Properties},
	}
	for _, c := range counts {
		if err := q.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count: %w", err)
		}
	}

	var lastIndexed sql.NullString
	if err := q.QueryRowContext(ctx, `SELECT MAX(last_indexed_at) FROM sources`).Scan(&lastIndexed); err != nil {
		return nil, fmt.Errorf("failed to read last index time: %w", err)
	}
	if lastIndexed.Valid {
		status.LastIndexedAt = parseTimestamp(lastIndexed.String)
	}

	// Calculate database size
	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	version, err := SchemaVersion(ctx, s.db)
	if err != nil {
		return nil, err
	}
	status.SchemaVersion = version.String()
	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	return s.getStatusWithQuerier(ctx, s.querier())
}

// timestampLayout is how timestamps are bound. Both drivers read it back into
// time.Time, and its fixed width keeps MAX() ordering chronological.
const timestampLayout = "2006-01-02 15:04:05.000000000-07:00"

// parseTimestamp reads the text form of an aggregated TIMESTAMP column;
// drivers only convert declared columns to time.Time
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		timestampLayout,
		"2006-01-02 15:04:05.999999999-07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Transaction implementations

func (t *sqliteTx) UpsertSource(ctx context.Context, source *Source) error {
	return t.storage.upsertSourceWithQuerier(ctx, t.querier(), source)
}

func (t *sqliteTx) GetSource(ctx context.Context, path string) (*Source, error) {
	return t.storage.getSourceWithQuerier(ctx, t.querier(), path)
}

func (t *sqliteTx) ListSources(ctx context.Context) ([]*Source, error) {
	return t.storage.listSourcesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) DeleteSource(ctx context.Context, sourceID int64) error {
	return t.storage.deleteSourceWithQuerier(ctx, t.querier(), sourceID)
}

func (t *sqliteTx) DeleteSymbolsBySource(ctx context.Context, sourceID int64) error {
	return t.storage.deleteSymbolsBySourceWithQuerier(ctx, t.querier(), sourceID)
}

func (t *sqliteTx) EnsureNamespace(ctx context.Context, qualifiedName string) (int64, error) {
	return t.storage.ensureNamespaceWithQuerier(ctx, t.querier(), qualifiedName)
}

func (t *sqliteTx) InsertType(ctx context.Context, typ *Type) error {
	return t.storage.insertTypeWithQuerier(ctx, t.querier(), typ)
}

func (t *sqliteTx) InsertFunction(ctx context.Context, f *Function) error {
	return t.storage.insertFunctionWithQuerier(ctx, t.querier(), f)
}

func (t *sqliteTx) InsertProperty(ctx context.Context, p *Property) error {
	return t.storage.insertPropertyWithQuerier(ctx, t.querier(), p)
}

func (t *sqliteTx) LoadDatabase(ctx context.Context) (*symboldb.Database, error) {
	return t.storage.loadDatabaseWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) FetchDetail(ctx context.Context, p types.Payload) (string, error) {
	return t.storage.fetchDetailWithQuerier(ctx, t.querier(), p)
}

func (t *sqliteTx) FetchDetails(ctx context.Context, ps []types.Payload) ([]string, error) {
	return t.storage.fetchDetailsWithQuerier(ctx, t.querier(), ps)
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return nil, errors.New("status is not available inside a transaction")
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}
