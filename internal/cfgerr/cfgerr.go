// Package cfgerr defines the error kinds produced while resolving and
// assembling a strategy configuration.
package cfgerr

import (
	"errors"
	"fmt"
)

// Kind classifies a configuration error.
type Kind string

const (
	KindUnknownField            Kind = "UnknownField"
	KindDuplicateField          Kind = "DuplicateField"
	KindUnresolvedField         Kind = "UnresolvedField"
	KindUnresolvedDependency    Kind = "UnresolvedDependency"
	KindInvalidValue            Kind = "InvalidValue"
	KindUnsupportedMarket       Kind = "UnsupportedMarket"
	KindUnknownTradingPair      Kind = "UnknownTradingPair"
	KindInvalidOrderAmount      Kind = "InvalidOrderAmount"
	KindBelowMinimumOrderAmount Kind = "BelowMinimumOrderAmount"
	KindInvalidOrderSpread      Kind = "InvalidOrderSpread"
	KindSpreadBelowZero         Kind = "SpreadBelowZero"
	KindSpreadAboveOne          Kind = "SpreadAboveOne"
	KindAssetDecomposition      Kind = "AssetDecompositionError"
	KindMarketInstantiation     Kind = "MarketInstantiationError"
	KindIncompleteConfiguration Kind = "IncompleteConfiguration"
	KindDuplicateMarketRole     Kind = "DuplicateMarketRole"
)

// Fatal reports whether an error of this kind aborts the whole resolution
// pass instead of leaving the field re-promptable.
func (k Kind) Fatal() bool {
	switch k {
	case KindIncompleteConfiguration, KindDuplicateMarketRole,
		KindMarketInstantiation, KindAssetDecomposition:
		return true
	}
	return false
}

// Error is a configuration error. Msg is the operator-facing text and is
// returned verbatim by Error().
type Error struct {
	Kind Kind
	Key  string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil || e == nil {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an error of kind k for field key.
func New(k Kind, key, msg string) *Error {
	return &Error{Kind: k, Key: key, Msg: msg}
}

// Errorf builds an error of kind k with a formatted message.
func Errorf(k Kind, key, format string, args ...any) *Error {
	return &Error{Kind: k, Key: key, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind k to a lower-level cause.
func Wrap(k Kind, key string, err error, msg string) *Error {
	return &Error{Kind: k, Key: key, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return ""
}

// KeyOf returns the field key of the first *Error in err's chain, or "".
func KeyOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Key
	}
	return ""
}

// Sentinels for errors.Is.
var (
	ErrUnknownField            = &Error{Kind: KindUnknownField}
	ErrDuplicateField          = &Error{Kind: KindDuplicateField}
	ErrUnresolvedField         = &Error{Kind: KindUnresolvedField}
	ErrUnresolvedDependency    = &Error{Kind: KindUnresolvedDependency}
	ErrInvalidValue            = &Error{Kind: KindInvalidValue}
	ErrUnsupportedMarket       = &Error{Kind: KindUnsupportedMarket}
	ErrUnknownTradingPair      = &Error{Kind: KindUnknownTradingPair}
	ErrInvalidOrderAmount      = &Error{Kind: KindInvalidOrderAmount}
	ErrBelowMinimumOrderAmount = &Error{Kind: KindBelowMinimumOrderAmount}
	ErrInvalidOrderSpread      = &Error{Kind: KindInvalidOrderSpread}
	ErrSpreadBelowZero         = &Error{Kind: KindSpreadBelowZero}
	ErrSpreadAboveOne          = &Error{Kind: KindSpreadAboveOne}
	ErrAssetDecomposition      = &Error{Kind: KindAssetDecomposition}
	ErrMarketInstantiation     = &Error{Kind: KindMarketInstantiation}
	ErrIncompleteConfiguration = &Error{Kind: KindIncompleteConfiguration}
	ErrDuplicateMarketRole     = &Error{Kind: KindDuplicateMarketRole}
)
