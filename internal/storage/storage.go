package storage

import (
	"context"
	"time"

	"github.com/dshills/apisearch-mcp/internal/symboldb"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

// Storage persists indexed API symbols and serves them back as an in-memory
// symbol database and as formatted detail blobs
type Storage interface {
	// Source operations
	UpsertSource(ctx context.Context, source *Source) error
	GetSource(ctx context.Context, path string) (*Source, error)
	ListSources(ctx context.Context) ([]*Source, error)
	DeleteSource(ctx context.Context, sourceID int64) error
	DeleteSymbolsBySource(ctx context.Context, sourceID int64) error

	// Symbol operations
	EnsureNamespace(ctx context.Context, qualifiedName string) (int64, error)
	InsertType(ctx context.Context, t *Type) error
	InsertFunction(ctx context.Context, f *Function) error
	InsertProperty(ctx context.Context, p *Property) error

	// Read operations
	LoadDatabase(ctx context.Context) (*symboldb.Database, error)
	FetchDetail(ctx context.Context, p types.Payload) (string, error)
	FetchDetails(ctx context.Context, ps []types.Payload) ([]string, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Source is an indexed input: a Go source file or a symbol dump
type Source struct {
	ID            int64
	Path          string
	Language      string
	ContentHash   [32]byte
	SizeBytes     int64
	ParseError    *string // Nullable
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Type is a stored class, struct, enum, delegate, event or primitive
type Type struct {
	ID          int64
	SourceID    int64
	NamespaceID int64
	OuterID     *int64 // Set for nested types
	Name        string
	Kind        types.TypeKind
	Super       string
	Template    bool
	Origin      types.Origin
	Signature   string
	Doc         string
}

// Function is a stored method, constructor or namespace-level function
type Function struct {
	ID          int64
	SourceID    int64
	NamespaceID int64
	OwnerID     *int64 // Nil for namespace-level functions
	Name        string
	ReturnType  string
	Params      []types.Param
	Constructor bool
	Generated   bool
	Mixin       bool
	Static      bool
	Const       bool
	Origin      types.Origin
	Signature   string
	Doc         string
}

// Property is a stored property or global variable
type Property struct {
	ID          int64
	SourceID    int64
	NamespaceID int64
	OwnerID     *int64 // Nil for global variables
	Name        string
	ValueType   string
	Constant    bool
	Origin      types.Origin
	Signature   string
	Doc         string
}

// Status summarizes the stored index
type Status struct {
	Sources       int
	FailedSources int
	Namespaces    int
	Types         int
	Functions     int
	Properties    int
	LastIndexedAt time.Time
	IndexSizeMB   float64
	SchemaVersion string
	BuildMode     string
}
