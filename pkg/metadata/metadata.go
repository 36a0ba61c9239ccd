// Package metadata provides read access to the external library registry.
//
// The registry records which externally managed libraries exist, whether they
// are active, and descriptive metadata shown in the editor. Records are
// created and updated elsewhere; this package only reads them.
//
// # Backends
//
//   - [MemoryGateway]: fixed records, for tests and configuration seeding
//   - [MongoGateway]: a MongoDB collection keyed by machineName
//   - [CachingGateway]: a decorator that caches lookups in a [cache.Cache]
//
// # Usage
//
//	gw := metadata.NewMongoGateway(client.Database("codebender").Collection("external_libraries"))
//	rec, err := gw.FindActiveByName(ctx, "Blynk")
//	if err != nil {
//	    return err
//	}
//	if rec == nil {
//	    // not registered, or disabled
//	}
package metadata

import (
	"context"
)

// Record is an external library registry entry.
type Record struct {
	MachineName string         `json:"machineName" bson:"machineName" toml:"machine_name"`
	Active      bool           `json:"active" bson:"active" toml:"active"`
	Meta        map[string]any `json:"meta,omitempty" bson:"meta,omitempty" toml:"meta"`
}

// Gateway looks up external library records by canonical name.
// Implementations must be safe for concurrent use.
type Gateway interface {
	// FindActiveByName returns the active record for name.
	// Returns nil, nil if no record exists or the record is disabled.
	FindActiveByName(ctx context.Context, name string) (*Record, error)

	// FindAnyByName returns the record for name. Disabled records are
	// returned only when includeDisabled is true.
	// Returns nil, nil if no matching record exists.
	FindAnyByName(ctx context.Context, name string, includeDisabled bool) (*Record, error)
}

// visible applies the includeDisabled filter to a found record.
func visible(rec *Record, includeDisabled bool) *Record {
	if rec == nil || (!includeDisabled && !rec.Active) {
		return nil
	}
	return rec
}
