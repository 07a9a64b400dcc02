package nix

import "errors"

// ErrUnsupportedKind reports an operation kind with no command template.
// This is a caller error and is never retried.
var ErrUnsupportedKind = errors.New("unsupported operation kind")

// ErrTierUnsupported reports that a tier has no command form for an
// operation kind. The fallback loop skips the tier and moves on.
var ErrTierUnsupported = errors.New("tier does not support operation")
