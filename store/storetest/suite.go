// Package storetest provides a conformance test suite for store.Store
// implementations.
//
// The suite checks the contracts the drives server relies on: NotFound for
// missing buckets and objects, recursive prefix listings ordered by key,
// directory markers and copies. Providers differ in how they keep markers, so
// the behavior that varies is described by a Config.
//
// Example usage:
//
//	func TestMyStore(t *testing.T) {
//	    storetest.TestSuite(t, func(t *testing.T) store.Store {
//	        return mystore.New()
//	    })
//	}
package storetest

import (
	"testing"

	"github.com/jmgilman/go/drives/store"
)

// Config describes provider behavior the suite must accommodate.
type Config struct {
	// PersistentMarkers indicates a marker stays listed after objects are
	// written below it. Object stores keep markers as real objects; local
	// directories only report a marker while they are empty.
	PersistentMarkers bool

	// Presign indicates PresignGet returns a URL instead of
	// errors.CodeUnsupported.
	Presign bool

	// Buckets lists bucket names that already exist and are reused between
	// tests. When empty, each test creates its own bucket.
	Buckets []string

	// SkipTests lists test names to skip, e.g. "Objects/Copy".
	SkipTests []string
}

// LocalConfig returns the configuration for directory-backed stores.
func LocalConfig() Config {
	return Config{}
}

// ObjectStoreConfig returns the configuration for S3-compatible stores.
func ObjectStoreConfig() Config {
	return Config{PersistentMarkers: true, Presign: true}
}

// TestSuite runs the suite with LocalConfig.
func TestSuite(t *testing.T, newStore func(t *testing.T) store.Store) {
	TestSuiteWithConfig(t, newStore, LocalConfig())
}

// TestSuiteWithConfig runs every conformance test. newStore must return a
// store that can create fresh buckets for each test.
func TestSuiteWithConfig(t *testing.T, newStore func(t *testing.T) store.Store, config Config) {
	t.Run("Buckets", func(t *testing.T) {
		testBuckets(t, newStore, config)
	})
	t.Run("Objects", func(t *testing.T) {
		testObjects(t, newStore, config)
	})
	t.Run("Listing", func(t *testing.T) {
		testListing(t, newStore, config)
	})
	t.Run("Markers", func(t *testing.T) {
		testMarkers(t, newStore, config)
	})
	t.Run("Helpers", func(t *testing.T) {
		testHelpers(t, newStore, config)
	})
}

func (c Config) skip(t *testing.T, name string) {
	t.Helper()
	for _, s := range c.SkipTests {
		if s == name {
			t.Skip("Skipped by provider configuration")
		}
	}
}
