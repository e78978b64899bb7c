// Package services defines the business logic for client registration and
// ticket handling. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer; translation
// into localized operator- or client-facing messages is performed by the
// dispatcher.
package services

import "errors"

var (
	// ErrTicketNotFound indicates the requested ticket does not exist.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrTicketAssigned is returned when an operator tries to claim a ticket
	// that another operator already holds.
	ErrTicketAssigned = errors.New("ticket assigned to another operator")

	// ErrTicketClosed is returned on any attempt to act on a closed ticket.
	// Closed is terminal.
	ErrTicketClosed = errors.New("ticket is closed")

	// ErrClientNotFound indicates the Telegram user has no client row yet.
	ErrClientNotFound = errors.New("client not found")

	// ErrEmptyMessage is returned when a message to append or forward is
	// blank after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNotPermitted is returned when an operator attempts a close they are
	// not allowed to perform.
	ErrNotPermitted = errors.New("operation not permitted for this operator")
)
