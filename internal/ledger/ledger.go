package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/zinrai/frr-clab/internal/addressing"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS plan_runs (
		id TEXT PRIMARY KEY,
		lab_name TEXT NOT NULL,
		parent_prefix TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS plan_allocations (
		run_id TEXT NOT NULL REFERENCES plan_runs(id),
		link_index INTEGER NOT NULL,
		subnet TEXT NOT NULL,
		a_endpoint TEXT NOT NULL,
		a_address TEXT NOT NULL,
		b_endpoint TEXT NOT NULL,
		b_address TEXT NOT NULL,
		PRIMARY KEY (run_id, link_index)
	)`,
}

// Run is a stored address plan header.
type Run struct {
	ID           string
	LabName      string
	ParentPrefix string
	CreatedAt    time.Time
}

// Allocation is one link's stored subnet binding.
type Allocation struct {
	LinkIndex int    `yaml:"link"`
	Subnet    string `yaml:"subnet"`
	AEndpoint string `yaml:"a_endpoint"`
	AAddress  string `yaml:"a_address"`
	BEndpoint string `yaml:"b_endpoint"`
	BAddress  string `yaml:"b_address"`
}

// Store records address plans in SQLite or PostgreSQL.
type Store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// Open opens the store at dsn. A postgres:// or postgresql:// DSN selects
// PostgreSQL, anything else is a SQLite database path.
func Open(dsn string) (*Store, error) {
	driver, source := driverFor(dsn)
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan database: %w", err)
	}
	return &Store{db: db, driver: driver, now: time.Now}, nil
}

// NewStore wraps an open database. driver selects the placeholder style.
func NewStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver, now: time.Now}
}

func driverFor(dsn string) (string, string) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres, dsn
	}
	return driverSQLite, strings.TrimPrefix(dsn, "sqlite://")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate plan database: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != driverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save stores every binding of assignment under a new run ID and returns it.
func (s *Store) Save(ctx context.Context, labName string, block addressing.AddressBlock, assignment *addressing.Assignment) (Run, error) {
	run := Run{
		ID:           uuid.NewString(),
		LabName:      labName,
		ParentPrefix: block.String(),
		CreatedAt:    s.now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		s.rebind(`INSERT INTO plan_runs (id, lab_name, parent_prefix, created_at) VALUES (?, ?, ?, ?)`),
		run.ID, run.LabName, run.ParentPrefix, run.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert plan run: %w", err)
	}

	for i, b := range assignment.Bindings() {
		_, err = tx.ExecContext(ctx,
			s.rebind(`INSERT INTO plan_allocations (run_id, link_index, subnet, a_endpoint, a_address, b_endpoint, b_address) VALUES (?, ?, ?, ?, ?, ?, ?)`),
			run.ID, i, b.Subnet.String(), b.Link.A.String(), b.AAddress.String(), b.Link.B.String(), b.BAddress.String())
		if err != nil {
			return Run{}, fmt.Errorf("failed to insert allocation for link %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("failed to commit plan: %w", err)
	}
	return run, nil
}

// Run returns the header of a stored plan, or sql.ErrNoRows.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, lab_name, parent_prefix, created_at FROM plan_runs WHERE id = ?`), id).
		Scan(&run.ID, &run.LabName, &run.ParentPrefix, &run.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, fmt.Errorf("plan run %s not found: %w", id, err)
		}
		return Run{}, fmt.Errorf("failed to get plan run: %w", err)
	}
	return run, nil
}

// Allocations returns the link allocations of a run in link order.
func (s *Store) Allocations(ctx context.Context, runID string) ([]Allocation, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT link_index, subnet, a_endpoint, a_address, b_endpoint, b_address FROM plan_allocations WHERE run_id = ? ORDER BY link_index`),
		runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	var allocs []Allocation
	for rows.Next() {
		var a Allocation
		if err := rows.Scan(&a.LinkIndex, &a.Subnet, &a.AEndpoint, &a.AAddress, &a.BEndpoint, &a.BAddress); err != nil {
			return nil, fmt.Errorf("failed to scan allocation row: %w", err)
		}
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}
