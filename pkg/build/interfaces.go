package build

import "github.com/lockship/lock-to-image/pkg/api"

// Builder is the interface all build strategies implement. Build executes
// the whole pipeline for the given configuration and returns the Result.
type Builder interface {
	Build(*api.Config) (*api.Result, error)
}

// Preparer is implemented by strategies that need to set up host state, such
// as a temporary working directory, before the build runs.
type Preparer interface {
	Prepare(*api.Config) error
}

// Cleaner is implemented by strategies that need to clean up temporary
// containers or directories after the build finishes.
type Cleaner interface {
	Cleanup(*api.Config)
}
