// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// Every implementation maps gorm.ErrRecordNotFound to store.ErrNotFound and
// Postgres unique violations to store.ErrConflict. Models that carry
// encrypted fields need the database session to be opened with a cipher
// (see db.Open).
package gorm
