package database

import "errors"

// Validation failures for a candidate block. Checks run in order and
// stop at the first violation, so the returned error identifies the
// exact rule that failed. All of these are recoverable: the submission
// is rejected and the chain is unchanged.
var (
	// ErrLinkage means the candidate's previous hash doesn't match the
	// digest of the chain tip.
	ErrLinkage = errors.New("previous hash doesn't match the chain tip")

	// ErrMerkleMismatch means the recomputed merkle root over the
	// candidate's transactions doesn't match its header.
	ErrMerkleMismatch = errors.New("merkle root doesn't match the transactions")

	// ErrInsufficientWork means the header digest exceeds the target
	// encoded by the candidate's own difficulty.
	ErrInsufficientWork = errors.New("header digest exceeds the difficulty target")

	// ErrWrongDifficulty means the candidate doesn't carry the
	// difficulty the chain's adjustment schedule requires at its height.
	ErrWrongDifficulty = errors.New("difficulty doesn't match the chain schedule")

	// ErrBadTimestamp means the candidate's timestamp is too far ahead
	// of local time.
	ErrBadTimestamp = errors.New("timestamp too far in the future")
)

// ErrPersistence is returned by Write when a block passed validation and
// was appended in memory but the storage layer failed to record it. The
// in-memory chain stays authoritative; the caller decides how loudly to
// report the gap.
var ErrPersistence = errors.New("block accepted but not persisted")
