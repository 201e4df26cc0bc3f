// Package coerce converts loosely typed Go numbers into the exact widths a
// native slot holds, rejecting values that would not survive the trip.
//
// Converters return whatever numeric type is convenient (int, int64,
// float64 from JSON or YAML); the marshal driver narrows them here.
//
// This package is internal to the module.
package coerce
