package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/zinrai/frr-clab/internal/addressing"
	"github.com/zinrai/frr-clab/internal/topology"
)

func testAssignment(t *testing.T) (addressing.AddressBlock, *addressing.Assignment) {
	t.Helper()
	block, err := addressing.ParseAddressBlock("10.254.0.0/24")
	if err != nil {
		t.Fatal(err)
	}
	pool, err := addressing.NewSubnetPool(block, addressing.LowestFirst)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := topology.ParseEndpoint("r1:eth1")
	b, _ := topology.ParseEndpoint("r2:eth1")
	assignment, err := addressing.Assign(pool, []topology.Link{{A: a, B: b}})
	if err != nil {
		t.Fatal(err)
	}
	return block, assignment
}

func TestSave(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer mockDB.Close()

	store := NewStore(mockDB, driverSQLite)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	block, assignment := testAssignment(t)

	t.Run("Record plan", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO plan_runs").
			WithArgs(sqlmock.AnyArg(), "lab_example", "10.254.0.0/24", fixed).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO plan_allocations").
			WithArgs(sqlmock.AnyArg(), 0, "10.254.0.0/31", "r1:eth1", "10.254.0.0", "r2:eth1", "10.254.0.1").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		run, err := store.Save(context.Background(), "lab_example", block, assignment)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.ID == "" || run.ParentPrefix != "10.254.0.0/24" || !run.CreatedAt.Equal(fixed) {
			t.Errorf("unexpected run: %+v", run)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("Allocation insert fails", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO plan_runs").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO plan_allocations").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		if _, err := store.Save(context.Background(), "lab_example", block, assignment); err == nil {
			t.Error("expected an error, got nil")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestRun(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer mockDB.Close()

	store := NewStore(mockDB, driverPostgres)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, lab_name, parent_prefix, created_at FROM plan_runs WHERE id = \$1`).
			WithArgs("run-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "lab_name", "parent_prefix", "created_at"}).
				AddRow("run-1", "lab_example", "10.254.0.0/24", created))

		run, err := store.Run(context.Background(), "run-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.LabName != "lab_example" || !run.CreatedAt.Equal(created) {
			t.Errorf("unexpected run: %+v", run)
		}
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, lab_name").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := store.Run(context.Background(), "missing")
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("error = %v, want sql.ErrNoRows", err)
		}
	})
}

func TestAllocations(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer mockDB.Close()

	store := NewStore(mockDB, driverSQLite)

	mock.ExpectQuery("SELECT link_index, subnet, a_endpoint, a_address, b_endpoint, b_address FROM plan_allocations").
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"link_index", "subnet", "a_endpoint", "a_address", "b_endpoint", "b_address"}).
			AddRow(0, "10.254.0.0/31", "r1:eth1", "10.254.0.0", "r2:eth1", "10.254.0.1").
			AddRow(1, "10.254.0.2/31", "r1:eth2", "10.254.0.2", "r3:eth1", "10.254.0.3"))

	allocs, err := store.Allocations(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(allocs) != 2 {
		t.Fatalf("got %d allocations, want 2", len(allocs))
	}
	if allocs[1].BEndpoint != "r3:eth1" || allocs[1].Subnet != "10.254.0.2/31" {
		t.Errorf("unexpected allocation: %+v", allocs[1])
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: driverPostgres}
	if got := pg.rebind("INSERT INTO t (a, b) VALUES (?, ?)"); got != "INSERT INTO t (a, b) VALUES ($1, $2)" {
		t.Errorf("postgres rebind = %q", got)
	}

	lite := &Store{driver: driverSQLite}
	if got := lite.rebind("SELECT ? "); got != "SELECT ? " {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestDriverFor(t *testing.T) {
	tests := []struct {
		dsn, driver, source string
	}{
		{"plans.db", driverSQLite, "plans.db"},
		{"sqlite:///var/lib/plans.db", driverSQLite, "/var/lib/plans.db"},
		{"postgres://u:p@localhost/plans", driverPostgres, "postgres://u:p@localhost/plans"},
		{"postgresql://localhost/plans", driverPostgres, "postgresql://localhost/plans"},
	}
	for _, tt := range tests {
		driver, source := driverFor(tt.dsn)
		if driver != tt.driver || source != tt.source {
			t.Errorf("driverFor(%q) = %s, %s; want %s, %s", tt.dsn, driver, source, tt.driver, tt.source)
		}
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir() + "/plans.db")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	block, assignment := testAssignment(t)
	run, err := store.Save(ctx, "lab_example", block, assignment)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Run(ctx, run.ID)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got.LabName != "lab_example" || got.ParentPrefix != "10.254.0.0/24" {
		t.Errorf("unexpected run: %+v", got)
	}

	allocs, err := store.Allocations(ctx, run.ID)
	if err != nil {
		t.Fatalf("Allocations failed: %v", err)
	}
	if len(allocs) != 1 || allocs[0].AAddress != "10.254.0.0" || allocs[0].BAddress != "10.254.0.1" {
		t.Errorf("unexpected allocations: %+v", allocs)
	}
}
