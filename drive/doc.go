// Package drive is the content-provider facade over every registered drive.
//
// Paths are composite: "drive/relative/path". The empty path is the registry
// root, whose listing has one directory per visible drive.
//
// Mutating methods return a model and an error, and both may be set: when a
// remote call fails part way the change event is still published with the
// model assembled so far, and the error is returned alongside it so observers
// can refresh while the caller reports the failure.
//
// Operations that make no sense at the registry root, such as creating a file
// or downloading the root, do nothing: they return a nil result and a nil
// error, issue no request, log a warning and raise a Notice.
package drive
