// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("access denied")
	ErrEmptyInput   = errors.New("empty input")
	ErrDispatch     = errors.New("dispatch failed")
	ErrStorage      = errors.New("storage error")
)

// OpError records the operation, group and item an error happened on.
type OpError struct {
	Op    string
	Group string
	ID    string
	Err   error
}

func (e *OpError) Error() string {
	msg := e.Op
	if e.Group != "" {
		msg += " [" + e.Group + "]"
	}
	if e.ID != "" {
		msg += " id=" + e.ID
	}
	return msg + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

// Wrap attaches operation context to err. Errors outside the taxonomy are
// marked as storage errors.
func Wrap(op, group, id string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	if !IsKnown(err) {
		err = fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return &OpError{Op: op, Group: group, ID: id, Err: err}
}

// IsKnown reports whether err belongs to the error taxonomy.
func IsKnown(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrConflict, ErrInvalidState, ErrValidation,
		ErrForbidden, ErrEmptyInput, ErrDispatch, ErrStorage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Message returns the client-safe part of err: the taxonomy error text plus
// whatever detail was attached to it, without storage internals.
func Message(err error) string {
	if errors.Is(err, ErrStorage) {
		return "Database error"
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error()
	}
	return err.Error()
}
