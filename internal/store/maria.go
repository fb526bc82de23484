package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/Faultbox/tilenav/internal/grid"
	"github.com/Faultbox/tilenav/internal/logger"
)

var _ GridStore = (*MariaStore)(nil)

// DefaultTable is the table grids are written to when no name is chosen.
const DefaultTable = "tiles"

// MariaStore keeps each grid in its own MariaDB/MySQL table, one row per
// terrain tile. Cells without a tile record are not persisted.
type MariaStore struct {
	db  *sql.DB
	log *zap.Logger
}

// tileRow mirrors one row of a tiles table.
type tileRow struct {
	GlobalX, GlobalY, Plane int
	Height                  int
	OverlayID, UnderlayID   int
	Settings                int
	Walkable                bool
	BlockN, BlockE          bool
	BlockS, BlockW          bool
	DebugReason             string
}

// NewMariaStore connects to dsn (user:pass@tcp(host:port)/dbname) and
// checks the connection.
func NewMariaStore(ctx context.Context, dsn string) (*MariaStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening MariaDB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging MariaDB: %w", err)
	}
	return &MariaStore{db: db, log: logger.Named("store.maria")}, nil
}

func createTableQuery(table string) string {
	return `
		CREATE TABLE IF NOT EXISTS ` + table + ` (
			global_x     INT     NOT NULL,
			global_y     INT     NOT NULL,
			plane        INT     NOT NULL,
			height       INT     NOT NULL DEFAULT 0,
			overlay_id   INT     NOT NULL DEFAULT -1,
			underlay_id  INT     NOT NULL DEFAULT -1,
			settings     INT     NOT NULL DEFAULT 0,
			is_walkable  BOOLEAN NOT NULL,
			blockN       BOOLEAN NOT NULL DEFAULT FALSE,
			blockE       BOOLEAN NOT NULL DEFAULT FALSE,
			blockS       BOOLEAN NOT NULL DEFAULT FALSE,
			blockW       BOOLEAN NOT NULL DEFAULT FALSE,
			debug_reason TEXT    NOT NULL,
			PRIMARY KEY (global_x, global_y, plane)
		) ENGINE=InnoDB
	`
}

func insertQuery(table string) string {
	return `
		INSERT INTO ` + table + ` (global_x, global_y, plane, height, overlay_id, underlay_id,
			settings, is_walkable, blockN, blockE, blockS, blockW, debug_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
}

func selectQuery(table string) string {
	return `
		SELECT global_x, global_y, plane, height, overlay_id, underlay_id,
			settings, is_walkable, blockN, blockE, blockS, blockW, debug_reason
		FROM ` + table + `
		ORDER BY plane, global_x, global_y
	`
}

// Save replaces the contents of table name with the tiles of g, creating the
// table if needed. Old rows are deleted in the same transaction as the
// inserts, so readers see either the previous grid or the new one.
func (s *MariaStore) Save(ctx context.Context, name string, g *grid.Grid) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, createTableQuery(name)); err != nil {
		return fmt.Errorf("creating table %s: %w", name, err)
	}

	rows := rowsFromGrid(g)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+name); err != nil {
		return fmt.Errorf("clearing table %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertQuery(name))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.GlobalX, r.GlobalY, r.Plane, r.Height, r.OverlayID, r.UnderlayID,
			r.Settings, r.Walkable, r.BlockN, r.BlockE, r.BlockS, r.BlockW, r.DebugReason)
		if err != nil {
			return fmt.Errorf("saving tile (%d,%d,%d): %w", r.GlobalX, r.GlobalY, r.Plane, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.log.Info("grid saved", zap.String("table", name), zap.Int("rows", len(rows)))
	return nil
}

// Load reads table name back into a grid.
func (s *MariaStore) Load(ctx context.Context, name string) (*grid.Grid, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectQuery(name))
	if err != nil {
		if isMissingTable(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("querying %s: %w", name, err)
	}
	defer rows.Close()

	var cells []grid.Cell
	for rows.Next() {
		var r tileRow
		err := rows.Scan(&r.GlobalX, &r.GlobalY, &r.Plane, &r.Height, &r.OverlayID, &r.UnderlayID,
			&r.Settings, &r.Walkable, &r.BlockN, &r.BlockE, &r.BlockS, &r.BlockW, &r.DebugReason)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", name, err)
		}
		cells = append(cells, r.cell())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	return grid.New(cells), nil
}

// Close closes the database connection.
func (s *MariaStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func rowsFromGrid(g *grid.Grid) []tileRow {
	rows := make([]tileRow, 0, g.Len())
	g.Range(func(c grid.Cell) bool {
		if c.HasTile {
			rows = append(rows, tileRow{
				GlobalX:     c.Coord.X,
				GlobalY:     c.Coord.Y,
				Plane:       c.Coord.Plane,
				Height:      c.Height,
				OverlayID:   c.OverlayID,
				UnderlayID:  c.UnderlayID,
				Settings:    c.Settings,
				Walkable:    c.Walkable,
				BlockN:      c.North,
				BlockE:      c.East,
				BlockS:      c.South,
				BlockW:      c.West,
				DebugReason: c.DebugReason(),
			})
		}
		return true
	})
	return rows
}

func (r tileRow) cell() grid.Cell {
	c := grid.Cell{
		Coord:      grid.At(r.GlobalX, r.GlobalY, r.Plane),
		Height:     r.Height,
		OverlayID:  r.OverlayID,
		UnderlayID: r.UnderlayID,
		Settings:   r.Settings,
		HasTile:    true,
		Walkable:   r.Walkable,
		North:      r.BlockN,
		East:       r.BlockE,
		South:      r.BlockS,
		West:       r.BlockW,
	}
	if r.DebugReason != "" {
		c.Reasons = strings.Split(r.DebugReason, grid.ReasonSeparator)
	}
	return c
}

// ER_NO_SUCH_TABLE
const errNoSuchTable = 1146

func isMissingTable(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errNoSuchTable
}
