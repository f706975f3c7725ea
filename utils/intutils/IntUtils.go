// Package intutils provides utilities for working with integers
package intutils

// Pow returns base**exp for a non-negative exponent
func Pow(base, exp int) int {
	result := 1
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
