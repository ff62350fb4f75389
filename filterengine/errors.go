package filterengine

import "gopkg.in/src-d/go-errors.v1"

// Error kinds, grouped by taxonomy bucket (Preflight, Contention, Runtime).
var (
	// ErrConfigInvalid is Preflight: an unresolved placeholder remained in
	// the launch template, or the strategy is not family=filter.
	ErrConfigInvalid = errors.NewKind("invalid filter configuration: %s")
	// ErrHostListUnreadable is Preflight: the referenced host-list path does
	// not exist or cannot be read.
	ErrHostListUnreadable = errors.NewKind("host list unreadable: %s")
	// ErrDriverBusy is Contention: another filter-family strategy already
	// holds the kernel driver.
	ErrDriverBusy = errors.NewKind("driver busy")
	// ErrEarlyExit is Runtime: the helper terminated within the crash
	// window before being confirmed running.
	ErrEarlyExit = errors.NewKind("helper exited early (code %d): %s")
)
