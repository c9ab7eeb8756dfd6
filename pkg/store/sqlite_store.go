package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/model"
)

// SQLiteStore keeps the catalog in a categories table with parent_id and
// sequence columns. Deleting a row promotes its children to roots.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps transactions and pragmas on the same handle.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		parent_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
		sequence INTEGER NOT NULL DEFAULT 0,
		product_count INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_categories_parent ON categories(parent_id, sequence);
	`
	_, err := s.db.Exec(schema)
	return err
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadRows(ctx context.Context, q queryer) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, parent_id, sequence, product_count
		FROM categories
		ORDER BY sequence, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		var parent, count sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &parent, &c.Sequence, &count); err != nil {
			return nil, err
		}
		if parent.Valid {
			c.ParentID = model.IntPtr(int(parent.Int64))
		}
		if count.Valid {
			c.ProductCount = model.IntPtr(int(count.Int64))
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Load reads every row into a forest with subtree totals filled in.
func (s *SQLiteStore) Load(ctx context.Context) (*hierarchy.Forest, error) {
	cats, err := loadRows(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	f, err := hierarchy.FromFlat(cats)
	if err != nil {
		return nil, err
	}
	f.FillTotals()
	return f, nil
}

// Move re-parents a category and rewrites the sequence of both sibling lists
// inside one transaction.
func (s *SQLiteStore) Move(ctx context.Context, req model.MoveRequest) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		cats, err := loadRows(ctx, tx)
		if err != nil {
			return err
		}
		f, err := hierarchy.FromFlat(cats)
		if err != nil {
			return err
		}
		oldSiblings := f.Siblings(req.CategoryID)
		if err := f.Apply(req); err != nil {
			return err
		}

		touched := append(oldSiblings, f.Siblings(req.CategoryID)...)
		stmt, err := tx.PrepareContext(ctx, `UPDATE categories SET parent_id = ?, sequence = ? WHERE id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, id := range touched {
			c, ok := f.Get(id)
			if !ok {
				continue
			}
			if _, err := stmt.ExecContext(ctx, nullableID(c.ParentID), c.Sequence, c.ID); err != nil {
				return fmt.Errorf("update category %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

// Rename changes a category name.
func (s *SQLiteStore) Rename(ctx context.Context, id int, name string) error {
	c := model.Category{ID: id, Name: name}
	if err := c.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename category %d: %w", id, err)
	}
	return expectRow(res, id)
}

// Delete removes a category. Children are promoted to roots explicitly so the
// behaviour does not depend on the foreign_keys pragma.
func (s *SQLiteStore) Delete(ctx context.Context, id int) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE categories SET parent_id = NULL WHERE parent_id = ?`, id); err != nil {
			return fmt.Errorf("promote children of %d: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
		return expectRow(res, id)
	})
}

// Replace clears the table and inserts every category of f.
func (s *SQLiteStore) Replace(ctx context.Context, f *hierarchy.Forest) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO categories (id, name, parent_id, sequence, product_count)
			VALUES (?, ?, NULL, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		// Insert first without parents so rows can reference each other in
		// any order, then link.
		rows := f.Flatten()
		for _, c := range rows {
			if _, err := stmt.ExecContext(ctx, c.ID, c.Name, c.Sequence, nullableID(c.ProductCount)); err != nil {
				return fmt.Errorf("insert category %d: %w", c.ID, err)
			}
		}
		for _, c := range rows {
			if c.ParentID == nil {
				continue
			}
			if _, err := tx.ExecContext(ctx, `UPDATE categories SET parent_id = ? WHERE id = ?`, *c.ParentID, c.ID); err != nil {
				return fmt.Errorf("link category %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func expectRow(res sql.Result, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

func nullableID(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
