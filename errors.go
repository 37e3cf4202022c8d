package onward

import "errors"

var (
	// Registration errors.
	ErrInvalidSignature  = errors.New("onward: invalid operation signature")
	ErrDuplicateProvider = errors.New("onward: duplicate provider")

	// Graph construction errors.
	ErrUnknownDependency = errors.New("onward: dependency has no provider")
	ErrCycle             = errors.New("onward: dependency cycle")
	ErrNotPrepared       = errors.New("onward: graph not prepared")

	// Run-time contract errors.
	ErrInvalidReturn = errors.New("onward: invalid operation return")
	ErrStateExists   = errors.New("onward: state already recorded")

	// Executor errors.
	ErrSuspendNotSupported = errors.New("onward: executor does not support suspending operations")
	ErrNotRunning          = errors.New("onward: no operations in flight")
	ErrJoinTimeout         = errors.New("onward: join timed out")
	ErrClosed              = errors.New("onward: executor closed")
)
