// Package sizes collects the byte sizes of files matching a name suffix.
//
// It walks directory trees using fastwalk for parallel traversal and
// records one sample per matching regular file. Any traversal error aborts
// the walk; no partial result is ever returned.
package sizes
