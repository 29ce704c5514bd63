// Package fault names the ways a telegram can fail on its way from the serial
// line to published readings. Errors produced by mbus and cosem are annotated
// with github.com/juju/errors on top of one of the sentinels below, so
// Classify(err) works on any depth of annotation.
package fault

import (
	"github.com/juju/errors"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindFraming
	KindChecksum
	KindAuthentication
	KindTruncation
	KindMalformed
	KindUnknownObject
	KindOther
)

var (
	ErrFraming        = errors.New("framing")
	ErrChecksum       = errors.New("checksum")
	ErrAuthentication = errors.New("authentication")
	ErrTruncation     = errors.New("truncation")
	ErrMalformed      = errors.New("malformed")
	ErrUnknownObject  = errors.New("unknown object code")
)

// Causer lets typed errors from other packages (mbus.InvalidChecksum) declare their kind.
type Causer interface {
	FaultKind() Kind
}

func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	cause := errors.Cause(err)
	if k, ok := cause.(Causer); ok {
		return k.FaultKind()
	}
	switch cause {
	case ErrFraming:
		return KindFraming
	case ErrChecksum:
		return KindChecksum
	case ErrAuthentication:
		return KindAuthentication
	case ErrTruncation:
		return KindTruncation
	case ErrMalformed:
		return KindMalformed
	case ErrUnknownObject:
		return KindUnknownObject
	}
	return KindOther
}

// Fatal reports whether the frame must be dropped.
// Only an unknown object code lets decoding continue.
func (k Kind) Fatal() bool { return k != KindNone && k != KindUnknownObject }

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindFraming:
		return "framing"
	case KindChecksum:
		return "checksum"
	case KindAuthentication:
		return "authentication"
	case KindTruncation:
		return "truncation"
	case KindMalformed:
		return "malformed"
	case KindUnknownObject:
		return "unknown_object"
	}
	return "other"
}

// Framingf and friends keep call sites short: fault.Framingf("L=%d", l).
func Framingf(format string, args ...interface{}) error {
	return errors.Annotatef(ErrFraming, format, args...)
}

func Authenticationf(format string, args ...interface{}) error {
	return errors.Annotatef(ErrAuthentication, format, args...)
}

func Truncationf(format string, args ...interface{}) error {
	return errors.Annotatef(ErrTruncation, format, args...)
}

func Malformedf(format string, args ...interface{}) error {
	return errors.Annotatef(ErrMalformed, format, args...)
}
