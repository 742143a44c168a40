package models

import "fmt"

// DiscoveryError means the account's regions could not be enumerated.
// It is the only error that aborts a whole run.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("region discovery failed: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// RegionScanError means one region's resources could not be read. It is
// attached to that region's RegionResult; the run continues elsewhere.
type RegionScanError struct {
	Region string
	Err    error
}

func (e *RegionScanError) Error() string {
	return fmt.Sprintf("scan failed in %s: %v", e.Region, e.Err)
}

func (e *RegionScanError) Unwrap() error { return e.Err }

// PlanningError marks a single malformed resource that could not be planned.
// The rest of the region's plan proceeds.
type PlanningError struct {
	Region   string
	Resource string
	Reason   string
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("cannot plan %s in %s: %s", e.Resource, e.Region, e.Reason)
}

// DeletionError marks one failed deletion step. Later independent steps in
// the same region are still attempted.
type DeletionError struct {
	Region   string
	Resource string
	Err      error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete %s in %s: %v", e.Resource, e.Region, e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }
