package pkg

import "errors"

var (
	// Build errors 🧱
	ErrDoesNotFit    = errors.New("❌ changes do not fit in the rom")
	ErrNoLabelTables = errors.New("❌ no label tables configured")
	ErrNoChanges     = errors.New("❌ nothing to write")

	// Integrity errors 🔒
	ErrIntegrityCheckFailed = errors.New("❌ integrity check failed")
)
