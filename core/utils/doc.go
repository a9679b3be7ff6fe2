// Package utils provides loose type conversion helpers.
// Schema files are evaluated into untyped values (float64 numbers, strings, bools),
// and these helpers turn them into the typed fields of a collection definition.
package utils
