// Package gateway emulates a hierarchical filesystem over the drives REST
// surface of an object store.
//
// Object stores have no directories and no rename. Directories are key
// prefixes, optionally with a zero-byte marker object whose key ends in "/".
// Listing a directory lists every key under its prefix and folds the rows into
// immediate children. Rename and copy enumerate the prefix, move or copy every
// key, then move or copy the root object; delete removes every key and then
// the marker. None of these are atomic: a failure part way through leaves the
// tree partially moved, copied or deleted and nothing is rolled back.
//
// The gateway never retries. Every call issues a single request per object
// through a Requester and returns its failure as-is, annotated with the drive
// and path it concerned.
package gateway
