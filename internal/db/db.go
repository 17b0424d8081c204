package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/tphummel/server_inventory/internal/models"
	_ "modernc.org/sqlite"
)

const table = "server_inventory"

// DB wraps a connection pool to the inventory store, either SQLite or
// PostgreSQL depending on the DSN it was opened with.
type DB struct {
	conn    *sql.DB
	dialect dialect
	memory  bool
}

// New opens the store at dsn and runs migrations. A postgres:// or
// postgresql:// URL selects PostgreSQL; anything else is treated as a SQLite
// path, with WAL enabled.
func New(dsn string) (*DB, error) {
	driver, d, source := parseDSN(dsn)
	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, dialect: d}
	if d == sqliteDialect {
		// Every connection to :memory: is a separate database.
		if strings.Contains(source, ":memory:") {
			db.memory = true
			conn.SetMaxOpenConns(1)
		}
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}

	if err := migrate(conn, d); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func parseDSN(dsn string) (driver string, d dialect, source string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", postgresDialect, dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", sqliteDialect, strings.TrimPrefix(dsn, "sqlite://")
	}
	return "sqlite", sqliteDialect, dsn
}

func migrate(conn *sql.DB, d dialect) error {
	cols := make([]string, 0, len(models.Columns))
	for _, c := range models.Columns {
		switch {
		case c == "id":
			cols = append(cols, quote(c)+" TEXT PRIMARY KEY")
		case models.IntegerColumns[c]:
			cols = append(cols, quote(c)+" INTEGER")
		default:
			cols = append(cols, quote(c)+" TEXT")
		}
	}
	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", table, strings.Join(cols, ",\n\t")),
	}
	for _, f := range models.FilterColumns {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", table, f.Column, table, quote(f.Column)))
	}
	stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_server_name ON %s(%s)", table, table, quote("server_name")))

	for _, s := range stmts {
		if _, err := conn.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// SetMaxOpenConns bounds the connection pool. In-memory SQLite stays pinned
// to its single connection.
func (d *DB) SetMaxOpenConns(n int) {
	if d.memory || n <= 0 {
		return
	}
	d.conn.SetMaxOpenConns(n)
}

// Dialect names the backing store: "sqlite" or "postgres".
func (d *DB) Dialect() string {
	return d.dialect.String()
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Ping verifies the database connection is alive.
func (d *DB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

// List returns one page of summaries matching q together with its pagination
// metadata. The count and the page are read by two separate statements, so a
// concurrent write between them can make the total disagree with the page.
func (d *DB) List(ctx context.Context, q models.ListQuery) (*models.ServerPage, error) {
	countSQL, countArgs := d.dialect.countQuery(q)
	var total int64
	if err := d.conn.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count servers: %w", err)
	}

	listSQL, listArgs := d.dialect.listQuery(q)
	rows, err := d.conn.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	defer rows.Close()

	items := []models.ServerSummary{}
	for rows.Next() {
		var s models.ServerSummary
		if err := rows.Scan(summaryDest(&s)...); err != nil {
			return nil, fmt.Errorf("scan server: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}

	return &models.ServerPage{
		Items: items,
		Meta:  models.NewPageMeta(q.Page, q.Limit, int(total)),
	}, nil
}

// GetByID returns the server with the given ID, or sql.ErrNoRows if not found.
func (d *DB) GetByID(ctx context.Context, id string) (*models.Server, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		columnList(models.Columns), table, quote("id"), d.dialect.placeholder(1))
	var s models.Server
	if err := d.conn.QueryRowContext(ctx, query, id).Scan(serverDest(&s)...); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts f and returns the stored row. Inserting an id that already
// exists returns an error matching ErrDuplicateID.
func (d *DB) Create(ctx context.Context, f models.Fields) (*models.Server, error) {
	if err := checkColumns(f, models.CreatableColumns); err != nil {
		return nil, err
	}
	query, args := d.dialect.insertQuery(f)
	var s models.Server
	if err := d.conn.QueryRowContext(ctx, query, args...).Scan(serverDest(&s)...); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateID, err)
		}
		return nil, err
	}
	return &s, nil
}

// Update applies f to the server with the given ID in one statement and
// returns the updated row. Returns sql.ErrNoRows if no such server exists.
func (d *DB) Update(ctx context.Context, id string, f models.Fields) (*models.Server, error) {
	if f.Len() == 0 {
		return nil, &models.ValidationError{Msg: "no valid fields to update"}
	}
	if err := checkColumns(f, models.UpdatableColumns); err != nil {
		return nil, err
	}
	query, args := d.dialect.updateQuery(id, f)
	var s models.Server
	if err := d.conn.QueryRowContext(ctx, query, args...).Scan(serverDest(&s)...); err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes the server with the given ID.
// Returns sql.ErrNoRows if no such server exists.
func (d *DB) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s RETURNING %s",
		table, quote("id"), d.dialect.placeholder(1), quote("id"))
	var deleted string
	return d.conn.QueryRowContext(ctx, query, id).Scan(&deleted)
}

// CountByStatus returns the number of servers per status. Rows without a
// status are counted under "unknown".
func (d *DB) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := d.conn.QueryContext(ctx, fmt.Sprintf(
		"SELECT COALESCE(%s, 'unknown'), COUNT(*) FROM %s GROUP BY 1", quote("status"), table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] += int(n)
	}
	return counts, rows.Err()
}

func checkColumns(f models.Fields, allowed map[string]bool) error {
	for _, c := range f.Columns {
		if !allowed[c] {
			return fmt.Errorf("column %q is not permitted", c)
		}
	}
	return nil
}

func serverDest(s *models.Server) []any {
	return []any{
		&s.ID, &s.ServerName, &s.IPAddress, &s.DNSName, &s.PowerState,
		&s.CreateDate, &s.Location, &s.ZoneLV, &s.ApplicationName,
		&s.SystemEnvironment, &s.Function, &s.Status, &s.DecommissionDate,
		&s.DecomDurationDays, &s.NeedTerminateProcess, &s.TerminatedDate,
		&s.OS, &s.OSVersion, &s.ServicePack, &s.CPU, &s.Memory, &s.Disk,
		&s.UpdatePatchProject, &s.VeritasBackup, &s.TestDR, &s.CriticalApp,
		&s.PTTEPServerOwner, &s.PTTEPApplicationOwner,
		&s.ApplicationSupportDepartment, &s.ApplicationSupportName,
		&s.ApplicationSupportEmail, &s.ServerFocalPoint,
		&s.RequestChannelForPTTEP, &s.TicketIDRequestForPTTDigital, &s.Remark,
	}
}

func summaryDest(s *models.ServerSummary) []any {
	return []any{
		&s.ID, &s.ServerName, &s.IPAddress, &s.ApplicationName, &s.Location,
		&s.SystemEnvironment, &s.Status, &s.PowerState, &s.CriticalApp,
		&s.PTTEPServerOwner,
	}
}
