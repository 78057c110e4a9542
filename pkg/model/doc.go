// Package model contains the GORM entity definitions shared by the stores.
package model
