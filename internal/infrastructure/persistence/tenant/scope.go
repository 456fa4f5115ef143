// Package tenant provides multi-tenant database scoping for GORM.
//
// Every business table carries a tenant_id column. The helpers here apply
// WHERE tenant_id = ? conditions so that no statement built through them can
// read or write rows belonging to another tenant.
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when a tenant id is required but missing
var ErrTenantIDRequired = errors.New("tenant_id is required but was not provided")

// Scope applies tenant filtering to a GORM query
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// ScopeTable applies tenant filtering with an explicit table qualifier,
// for statements that join other tenant-carrying tables.
func ScopeTable(table string, tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".tenant_id = ?", tenantID)
	}
}

// Require returns a DB that fails on execution when tenantID is nil.
// This turns a missing tenant into an explicit error instead of an
// accidentally unscoped statement.
func Require(db *gorm.DB, tenantID uuid.UUID) *gorm.DB {
	if tenantID == uuid.Nil {
		_ = db.AddError(ErrTenantIDRequired)
		return db
	}
	return db.Scopes(Scope(tenantID))
}
