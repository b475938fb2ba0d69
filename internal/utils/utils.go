// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// PageWindow converts a 1-based page number and page size into an
// offset/limit pair. Out-of-range inputs are clamped: page < 1 becomes 1,
// size < 1 becomes defSize.
func PageWindow(page, size, defSize int) (offset, limit int) {
	if size < 1 {
		size = defSize
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * size, size
}
