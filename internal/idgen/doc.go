// Package idgen produces run identifiers. Tests may replace NewFunc to get
// stable values.
package idgen
