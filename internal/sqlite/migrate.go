package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/myrjola/coach21k/internal/errors"
)

// migrateTo brings the live schema in line with schemaDefinition declaratively.
//
// The target schema is created in an attached in-memory database named schemaTarget and diffed against the live
// one. Dropped tables are dropped, new tables created, and changed tables rebuilt with the generalized ALTER TABLE
// procedure from https://www.sqlite.org/lang_altertable.html#otheralter, copying the columns both versions share.
// Indexes and triggers are synchronised last.
//
// Inspired by https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target: %w", err)
	}
	defer detach()

	// Foreign keys cannot be toggled inside a transaction.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("re-enable foreign keys: %w", fkErr))
		}
	}()

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		m := migration{tx: tx, logger: db.logger}
		if txErr := m.tables(ctx); txErr != nil {
			return fmt.Errorf("migrate tables: %w", txErr)
		}
		for _, typ := range []schemaType{schemaTypeTrigger, schemaTypeIndex} {
			if txErr := m.schemaObjects(ctx, typ); txErr != nil {
				return fmt.Errorf("migrate %ss: %w", typ, txErr)
			}
		}
		if _, txErr := tx.ExecContext(ctx, "PRAGMA foreign_key_check"); txErr != nil {
			return fmt.Errorf("foreign key check: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachSchemaTarget creates the target schema in a fresh in-memory database and attaches it as schemaTarget.
// The returned function detaches it.
func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	// The shared-cache database lives as long as a connection to it is open, so keep target open until detached.
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, errors.Join(fmt.Errorf("create target schema: %w", err), target.Close())
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, errors.Join(fmt.Errorf("attach: %w", err), target.Close())
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "detach schema target failed", errors.SlogError(detachErr))
		}
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "close schema target failed", errors.SlogError(closeErr))
		}
	}, nil
}

type schemaType string

const (
	schemaTypeTrigger schemaType = "trigger"
	schemaTypeIndex   schemaType = "index"
)

// Internal objects of SQLite and Litestream are never touched.
const (
	// queryRemoved lists live objects of a type missing from the target.
	queryRemoved = `SELECT live.name FROM sqlite_schema AS live
LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ? AND target.type IS NULL
  AND live.name NOT LIKE 'sqlite_%' AND live.name NOT LIKE '_litestream_%'`

	// queryAdded lists the SQL of target objects of a type missing from the live schema.
	queryAdded = `SELECT target.sql FROM schemaTarget.sqlite_schema AS target
LEFT JOIN sqlite_schema AS live ON live.name = target.name AND live.type = target.type
WHERE target.type = ? AND live.type IS NULL AND target.sql IS NOT NULL
  AND target.name NOT LIKE 'sqlite_%' AND target.name NOT LIKE '_litestream_%'`

	// queryChanged lists objects of a type whose SQL differs. Renaming a table quotes its name, so quotes are
	// ignored in the comparison.
	queryChanged = `SELECT live.name, target.sql FROM sqlite_schema AS live
JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND live.name NOT LIKE 'sqlite_%' AND live.name NOT LIKE '_litestream_%'
  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`

	// querySharedColumns lists the quoted columns present in both versions of a table.
	querySharedColumns = `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS live
JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = live.name`
)

type migration struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (m migration) exec(ctx context.Context, query string) error {
	m.logger.LogAttrs(ctx, slog.LevelInfo, "migration step", slog.String("query", query))
	if _, err := m.tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("exec %q: %w", query, err)
	}
	return nil
}

func (m migration) tables(ctx context.Context) error {
	removed, err := m.strings(ctx, queryRemoved, "table")
	if err != nil {
		return fmt.Errorf("query removed tables: %w", err)
	}
	for _, name := range removed {
		if err = m.exec(ctx, "DROP TABLE "+name); err != nil {
			return err
		}
	}

	added, err := m.strings(ctx, queryAdded, "table")
	if err != nil {
		return fmt.Errorf("query added tables: %w", err)
	}
	for _, createSQL := range added {
		if err = m.exec(ctx, createSQL); err != nil {
			return err
		}
	}

	changed, err := m.changed(ctx, "table")
	if err != nil {
		return fmt.Errorf("query changed tables: %w", err)
	}
	for _, table := range changed {
		if err = m.rebuildTable(ctx, table); err != nil {
			return fmt.Errorf("rebuild %s: %w", table.name, err)
		}
	}
	return nil
}

// rebuildTable creates the new table under a temporary name, copies shared columns, drops the old table and
// renames the new one into place.
func (m migration) rebuildTable(ctx context.Context, table changedObject) error {
	temp := table.name + "_migration_temp"
	if err := m.exec(ctx, strings.Replace(table.newSQL, table.name, temp, 1)); err != nil {
		return err
	}
	shared, err := m.strings(ctx, querySharedColumns, sql.Named("table_name", table.name))
	if err != nil {
		return fmt.Errorf("query shared columns: %w", err)
	}
	columns := strings.Join(shared, ", ")
	steps := []string{
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", temp, columns, columns, table.name),
		"DROP TABLE " + table.name,
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", temp, table.name),
	}
	for _, step := range steps {
		if err = m.exec(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

// schemaObjects synchronises indexes or triggers. Changed objects are dropped and recreated.
func (m migration) schemaObjects(ctx context.Context, typ schemaType) error {
	keyword := strings.ToUpper(string(typ))

	removed, err := m.strings(ctx, queryRemoved, string(typ))
	if err != nil {
		return fmt.Errorf("query removed: %w", err)
	}
	for _, name := range removed {
		if err = m.exec(ctx, fmt.Sprintf("DROP %s %s", keyword, name)); err != nil {
			return err
		}
	}

	added, err := m.strings(ctx, queryAdded, string(typ))
	if err != nil {
		return fmt.Errorf("query added: %w", err)
	}
	for _, createSQL := range added {
		if err = m.exec(ctx, createSQL); err != nil {
			return err
		}
	}

	changed, err := m.changed(ctx, string(typ))
	if err != nil {
		return fmt.Errorf("query changed: %w", err)
	}
	for _, obj := range changed {
		if err = m.exec(ctx, fmt.Sprintf("DROP %s %s", keyword, obj.name)); err != nil {
			return err
		}
		if err = m.exec(ctx, obj.newSQL); err != nil {
			return err
		}
	}
	return nil
}

// strings runs a query returning a single text column.
func (m migration) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := m.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	var results []string
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		results = append(results, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}

type changedObject struct {
	name   string
	newSQL string
}

func (m migration) changed(ctx context.Context, typ string) ([]changedObject, error) {
	rows, err := m.tx.QueryContext(ctx, queryChanged, typ)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	var results []changedObject
	for rows.Next() {
		var obj changedObject
		if err = rows.Scan(&obj.name, &obj.newSQL); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		results = append(results, obj)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}
