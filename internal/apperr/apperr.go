// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package apperr defines the closed set of error kinds the cleanup cycle
// engine reasons about (spec §7). Callers inspect a Kind with Is or KindOf;
// the cycle scheduler does not: it logs a failed step and goes on, and
// setup aborts on any error regardless of its Kind.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories from spec §7.
type Kind string

const (
	// KindConfigInvalid: setup-time config validation failure. Always fatal.
	KindConfigInvalid Kind = "config_invalid"
	// KindBackendUnreachable: any HTTP transport failure. Fatal at setup for
	// a mandatory backend, otherwise skip the current step and continue.
	KindBackendUnreachable Kind = "backend_unreachable"
	// KindAuthFailed: session refresh or probe rejected credentials.
	KindAuthFailed Kind = "auth_failed"
	// KindVersionTooLow: setup probe found an unsupported backend version.
	KindVersionTooLow Kind = "version_too_low"
	// KindBackendDisconnected: probeConnected reported a disconnected client.
	KindBackendDisconnected Kind = "backend_disconnected"
	// KindBadResponse: JSON parse failure or missing expected key. Treated
	// identically to KindBackendUnreachable by callers (spec §7).
	KindBadResponse Kind = "bad_response"
	// KindActionRejected: a remove/tag call returned non-success. The
	// affected downloadId must NOT be recorded in Tracker.deleted so it is
	// retried next cycle (spec §7).
	KindActionRejected Kind = "action_rejected"
)

// Error wraps an underlying error with a Kind so callers can dispatch on it
// via errors.As without string-matching messages.
type Error struct {
	Kind   Kind
	Op     string // the operation that failed, e.g. "curator.getQueue"
	Target string // the backend/curator/client name, for log context
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Kind, e.Target)
	}
	return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error.
func New(kind Kind, op, target string, err error) *Error {
	return &Error{Kind: kind, Op: op, Target: target, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, defaulting to KindBackendUnreachable for
// errors with no explicit classification — the conservative choice, since an
// unclassified failure during a network call should be treated exactly like
// spec §7's BadResponse/BackendUnreachable pairing.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindBackendUnreachable
}

// FatalAtSetup reports whether, per spec §7, an error of this kind
// encountered during setup must abort the process.
func (k Kind) FatalAtSetup() bool {
	switch k {
	case KindConfigInvalid, KindBackendUnreachable, KindBadResponse, KindAuthFailed, KindVersionTooLow:
		return true
	default:
		return false
	}
}
