// Package apperr normalises heterogeneous failure causes into a closed
// taxonomy of five kinds: network, wallet, validation, blockchain, and
// unknown.
//
// Classify assigns exactly one kind per input via priority-ordered matching:
// typed sentinels first, then provider error codes, then message substrings
// as a last resort for opaque upstream errors. The ordering is part of the
// contract and documented on Classify.
//
// Two predicates drive presentation: IsRecoverable marks errors the user
// may simply retry, and IsUserActionError marks wallet rejections that
// should be shown softly rather than as faults.
package apperr
