package config

import (
	"strings"

	"github.com/mmdatafocus/float_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShopGuardPlugin adds "shop_id = <request shop>" to queries, updates and
// deletes of models that carry a shop_id, unless the statement already filters
// on shop_id. Raw SQL is not scoped. Tooling can opt out with
// ContextKeySkipShopScope.
type ShopGuardPlugin struct{}

func NewShopGuardPlugin() *ShopGuardPlugin { return &ShopGuardPlugin{} }

func (p *ShopGuardPlugin) Name() string { return "shop_guard" }

func (p *ShopGuardPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("shop_guard:query", scopeToShop); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("shop_guard:row", scopeToShop); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("shop_guard:update", scopeToShop); err != nil {
		return err
	}
	return cb.Delete().Before("gorm:delete").Register("shop_guard:delete", scopeToShop)
}

func scopeToShop(db *gorm.DB) {
	stmt := db.Statement
	if stmt == nil || stmt.Schema == nil || stmt.Context == nil {
		return
	}
	if skip, ok := appctx.GetBool(stmt.Context, appctx.ContextKeySkipShopScope); ok && skip {
		return
	}
	shopId, _ := appctx.GetString(stmt.Context, appctx.ContextKeyShopId)
	if shopId == "" || stmt.Schema.LookUpField("shop_id") == nil || filtersShop(stmt) {
		return
	}
	stmt.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.Column{Table: stmt.Table, Name: "shop_id"}, Value: shopId},
	}})
}

// filtersShop reports whether the WHERE clause already names shop_id, either
// as a string condition or as a column comparison.
func filtersShop(stmt *gorm.Statement) bool {
	where, ok := stmt.Clauses["WHERE"].Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range where.Exprs {
		switch v := e.(type) {
		case clause.Expr:
			if strings.Contains(strings.ToLower(v.SQL), "shop_id") {
				return true
			}
		case clause.Eq:
			if col, ok := v.Column.(clause.Column); ok && col.Name == "shop_id" {
				return true
			}
		}
	}
	return false
}
