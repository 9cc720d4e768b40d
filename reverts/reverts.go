// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Rule codes reported by Violation errors.
const (
	RuleAmountOutOfRange    = "amount-out-of-range"
	RuleInvalidLockPeriod   = "invalid-lock-period"
	RuleNotOwner            = "not-owner"
	RuleInvalidStatus       = "invalid-status"
	RuleInsufficientBalance = "insufficient-balance"
	RuleSelfDelegation      = "self-delegation"
	RuleDelegationCap       = "delegation-exceeds-stake"
	RuleBelowThreshold      = "proposer-below-threshold"
	RuleTooManyActions      = "too-many-actions"
	RuleUnknownType         = "unknown-proposal-type"
	RuleDoubleVote          = "double-vote"
	RuleNotActive           = "proposal-not-active"
	RuleNoVotingPower       = "no-voting-power"
	RuleUnauthorized        = "unauthorized"
	RuleTimelock            = "timelock-not-elapsed"
	RuleDeadlinePassed      = "deadline-passed"
	RuleInvalidArgument     = "invalid-argument"
	RuleAccessDenied        = "access-denied"
)

// ErrRevert is a user facing rule violation. Rule identifies the violated rule.
type ErrRevert struct {
	Rule    string
	message string
}

// New creates a revert error without a rule code.
func New(message string) *ErrRevert {
	return &ErrRevert{message: message}
}

// Violation creates a revert error for the given rule.
func Violation(rule, format string, args ...any) *ErrRevert {
	return &ErrRevert{Rule: rule, message: fmt.Sprintf(format, args...)}
}

func (e *ErrRevert) Error() string {
	if e.Rule == "" {
		return e.message
	}
	return e.Rule + ": " + e.message
}

// IsRevertErr reports whether err is, or wraps, an *ErrRevert.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// RuleOf returns the rule code of a revert error, or "" for any other error.
func RuleOf(err error) string {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.Rule
	}
	return ""
}

// ErrNotFound reports an unknown entity id.
type ErrNotFound struct {
	Kind string
	ID   string
}

// NotFound creates a not-found error for an entity of kind.
func NotFound(kind, id string) *ErrNotFound {
	return &ErrNotFound{Kind: kind, ID: id}
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// IsNotFound reports whether err is, or wraps, an *ErrNotFound.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// ErrFatal marks configuration errors that must hard-fail at the API boundary.
type ErrFatal struct {
	cause error
}

// Fatal wraps cause as a fatal configuration error.
func Fatal(cause error) error {
	return &ErrFatal{cause: cause}
}

func (e *ErrFatal) Error() string { return "fatal: " + e.cause.Error() }
func (e *ErrFatal) Unwrap() error { return e.cause }

// IsFatal reports whether err is, or wraps, a fatal configuration error.
func IsFatal(err error) bool {
	var fe *ErrFatal
	return errors.As(err, &fe)
}

var ErrSlashingDisabled = Fatal(errors.New("slashing is disabled"))
