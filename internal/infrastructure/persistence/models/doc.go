// Package models contains GORM persistence models for data that is stored in
// a different shape than its domain type.
package models
