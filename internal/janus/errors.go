package janus

import "errors"

var (
	ErrUnsupportedRequest   = errors.New("unsupported request")
	ErrInvalidMessage       = errors.New("invalid message")
	ErrNoTransaction        = errors.New("no transaction id")
	ErrDuplicateTransaction = errors.New("transaction already pending")
	ErrTransactionRejected  = errors.New("transaction rejected")
	ErrTransactionExpired   = errors.New("transaction expired")
	ErrUnknownHandle        = errors.New("unknown plugin handle")
	ErrConnectionClosed     = errors.New("connection closed")
)
