package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/tilenav/internal/catalog"
)

// Tables written by SaveObjects.
const (
	ObjectsTable         = "objects"
	ObjectLocationsTable = "object_locations"
)

// Columns every objects row has. Unclassified flags get one TEXT column each
// after these.
var objectBaseColumns = []string{
	"object_id", "name", "dim_x", "dim_y", "actions", "models_present",
	"occludes", "deck_primary", "deck_secondary", "overhead_threshold", "transparent",
}

// MySQL's identifier length limit.
const maxColumnName = 64

// flagColumns returns the unclassified flag names that can be stored as
// columns, in catalog order. Names longer than MySQL allows, and names that
// collide with a base column or an earlier flag once case is ignored, are
// dropped.
func flagColumns(names []string) (cols, dropped []string) {
	taken := make(map[string]bool, len(objectBaseColumns)+len(names))
	for _, c := range objectBaseColumns {
		taken[c] = true
	}
	for _, n := range names {
		key := strings.ToLower(n)
		if n == "" || len(n) > maxColumnName || taken[key] {
			dropped = append(dropped, n)
			continue
		}
		taken[key] = true
		cols = append(cols, n)
	}
	return cols, dropped
}

// quoteIdent quotes a column name for MySQL.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func createObjectsQuery(flagCols []string) string {
	var b strings.Builder
	b.WriteString(`
		CREATE TABLE ` + ObjectsTable + ` (
			object_id          INT     NOT NULL PRIMARY KEY,
			name               TEXT    NOT NULL,
			dim_x              INT     NOT NULL,
			dim_y              INT     NOT NULL,
			actions            TEXT    NOT NULL,
			models_present     BOOLEAN NOT NULL,
			occludes           BOOLEAN NULL,
			deck_primary       BOOLEAN NULL,
			deck_secondary     BOOLEAN NULL,
			overhead_threshold INT     NULL,
			transparent        BOOLEAN NULL`)
	for _, c := range flagCols {
		b.WriteString(",\n\t\t\t" + quoteIdent(c) + " TEXT NULL")
	}
	b.WriteString("\n\t\t) ENGINE=InnoDB\n\t")
	return b.String()
}

func createObjectLocationsQuery() string {
	return `
		CREATE TABLE ` + ObjectLocationsTable + ` (
			id        BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			object_id INT    NOT NULL,
			global_x  INT    NOT NULL,
			global_y  INT    NOT NULL,
			plane     INT    NOT NULL,
			rotation  INT    NOT NULL,
			INDEX idx_object_locations_object (object_id),
			INDEX idx_object_locations_tile (plane, global_x, global_y)
		) ENGINE=InnoDB
	`
}

func insertObjectQuery(flagCols []string) string {
	cols := make([]string, 0, len(objectBaseColumns)+len(flagCols))
	cols = append(cols, objectBaseColumns...)
	for _, c := range flagCols {
		cols = append(cols, quoteIdent(c))
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return "INSERT INTO " + ObjectsTable + " (" + strings.Join(cols, ", ") + ") VALUES (" + marks + ")"
}

func insertObjectLocationQuery() string {
	return "INSERT INTO " + ObjectLocationsTable +
		" (object_id, global_x, global_y, plane, rotation) VALUES (?, ?, ?, ?, ?)"
}

// objectArgs returns the insert arguments for d in insertObjectQuery order.
func objectArgs(d catalog.Definition, flagCols []string) ([]any, error) {
	actions := d.Actions
	if actions == nil {
		actions = []string{}
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return nil, err
	}

	var overhead any
	if d.Flags.OverheadThreshold != nil {
		overhead = *d.Flags.OverheadThreshold
	}

	args := []any{
		d.ID, d.Name, d.DimX, d.DimY, string(actionsJSON), d.HasModels,
		tristateArg(d.Flags.Occludes),
		tristateArg(d.Flags.DeckPrimary),
		tristateArg(d.Flags.DeckSecondary),
		overhead,
		tristateArg(d.Flags.Transparent),
	}
	for _, c := range flagCols {
		v, ok := d.Extra[c]
		if !ok {
			args = append(args, nil)
			continue
		}
		s, err := flagText(v)
		if err != nil {
			return nil, fmt.Errorf("flag %s: %w", c, err)
		}
		args = append(args, s)
	}
	return args, nil
}

// tristateArg maps Unset to NULL.
func tristateArg(t catalog.Tristate) any {
	switch t {
	case catalog.True:
		return true
	case catalog.False:
		return false
	default:
		return nil
	}
}

// flagText renders a flag value for a TEXT column: lists as JSON, scalars in
// their plain form, null as NULL.
func flagText(v catalog.Value) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
}

// SaveObjects replaces the objects and object_locations tables with the
// catalog's definitions and the given placements. The objects table is
// recreated on every save because its flag columns follow the catalog.
func (s *MariaStore) SaveObjects(ctx context.Context, cat *catalog.Catalog, placements []catalog.Placement) error {
	flagCols, dropped := flagColumns(cat.FlagNames())
	if len(dropped) > 0 {
		s.log.Warn("flags without a usable column name are not stored", zap.Strings("flags", dropped))
	}

	for _, q := range []string{
		"DROP TABLE IF EXISTS " + ObjectLocationsTable,
		"DROP TABLE IF EXISTS " + ObjectsTable,
		createObjectsQuery(flagCols),
		createObjectLocationsQuery(),
	} {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("preparing object tables: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	objStmt, err := tx.PrepareContext(ctx, insertObjectQuery(flagCols))
	if err != nil {
		return fmt.Errorf("preparing object insert: %w", err)
	}
	defer objStmt.Close()

	ids := cat.IDs()
	for _, id := range ids {
		d, _ := cat.Definition(id)
		args, err := objectArgs(d, flagCols)
		if err != nil {
			return fmt.Errorf("object %d: %w", id, err)
		}
		if _, err := objStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("saving object %d: %w", id, err)
		}
	}

	locStmt, err := tx.PrepareContext(ctx, insertObjectLocationQuery())
	if err != nil {
		return fmt.Errorf("preparing location insert: %w", err)
	}
	defer locStmt.Close()

	for _, p := range placements {
		o := p.Origin()
		if _, err := locStmt.ExecContext(ctx, p.ObjectID, o.X, o.Y, o.Plane, p.Rotation); err != nil {
			return fmt.Errorf("saving placement of object %d at %v: %w", p.ObjectID, o, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.log.Info("objects saved",
		zap.Int("objects", len(ids)),
		zap.Int("flag_columns", len(flagCols)),
		zap.Int("locations", len(placements)),
	)
	return nil
}
