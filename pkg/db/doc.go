// Package db establishes the GORM database connection.
package db
