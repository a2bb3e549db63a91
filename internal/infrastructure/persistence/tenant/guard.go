// Package tenant guards GORM queries on tenant-owned tables.
//
// Repositories always filter on tenant_id explicitly. The guard catches the
// queries that forget to: a SELECT or DELETE on a guarded table whose WHERE
// clause never mentions the tenant column is logged, or rejected in strict
// mode. Cross-tenant scans opt out with AllowCrossTenant.
package tenant

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrTenantConditionMissing is added to statements rejected in strict mode
var ErrTenantConditionMissing = errors.New("query on tenant-owned table has no tenant condition")

const crossTenantKey = "tenant:cross_tenant"

// Mode selects what happens to an unscoped query
type Mode string

const (
	ModeOff    Mode = "off"
	ModeWarn   Mode = "warn"
	ModeStrict Mode = "strict"
)

// ParseMode maps a config value to a Mode; unknown values mean warn
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeOff:
		return ModeOff
	case ModeStrict:
		return ModeStrict
	}
	return ModeWarn
}

// AllowCrossTenant marks a statement as intentionally spanning tenants
func AllowCrossTenant(db *gorm.DB) *gorm.DB {
	return db.Set(crossTenantKey, true)
}

// Guard inspects statements before they run
type Guard struct {
	column string
	tables map[string]bool
	mode   Mode
	logger *zap.Logger
}

// NewGuard creates a guard over tables
func NewGuard(mode Mode, logger *zap.Logger, tables ...string) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t] = true
	}
	return &Guard{column: "tenant_id", tables: set, mode: mode, logger: logger}
}

// Register installs the guard callbacks. ModeOff installs nothing.
func (g *Guard) Register(db *gorm.DB) error {
	if g.mode == ModeOff {
		return nil
	}
	return errors.Join(
		db.Callback().Query().Before("gorm:query").Register("tenant:guard_query", g.check),
		db.Callback().Row().Before("gorm:row").Register("tenant:guard_row", g.check),
		db.Callback().Delete().Before("gorm:delete").Register("tenant:guard_delete", g.check),
	)
}

func (g *Guard) check(db *gorm.DB) {
	if db.Error != nil || db.Statement == nil {
		return
	}
	table := baseTable(db.Statement)
	if !g.tables[table] {
		return
	}
	if v, ok := db.Get(crossTenantKey); ok && v == true {
		return
	}
	if g.hasTenantCondition(db.Statement) {
		return
	}

	if g.mode == ModeStrict {
		_ = db.AddError(ErrTenantConditionMissing)
		return
	}
	g.logger.Warn("Query without tenant condition", zap.String("table", table))
}

func baseTable(stmt *gorm.Statement) string {
	table := stmt.Table
	if table == "" && stmt.Schema != nil {
		table = stmt.Schema.Table
	}
	if fields := strings.Fields(table); len(fields) > 0 {
		return strings.Trim(fields[0], `"`)
	}
	return ""
}

func (g *Guard) hasTenantCondition(stmt *gorm.Statement) bool {
	c, ok := stmt.Clauses["WHERE"]
	if !ok {
		return false
	}
	where, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, expr := range where.Exprs {
		if g.mentionsTenant(expr) {
			return true
		}
	}
	return false
}

func (g *Guard) mentionsTenant(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Expr:
		return strings.Contains(e.SQL, g.column)
	case clause.NamedExpr:
		return strings.Contains(e.SQL, g.column)
	case clause.Eq:
		return g.isTenantColumn(e.Column)
	case clause.IN:
		return g.isTenantColumn(e.Column)
	case clause.AndConditions:
		for _, sub := range e.Exprs {
			if g.mentionsTenant(sub) {
				return true
			}
		}
	}
	return false
}

func (g *Guard) isTenantColumn(col any) bool {
	switch c := col.(type) {
	case clause.Column:
		return c.Name == g.column
	case string:
		return c == g.column || strings.HasSuffix(c, "."+g.column)
	}
	return false
}
