package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapStoreError_SerializationFailure(t *testing.T) {
	for _, code := range []string{"40001", "40P01"} {
		err := mapStoreError(&pgconn.PgError{Code: code, Message: "could not serialize access"})
		assert.ErrorIs(t, err, ErrTxConflict)
	}
}

func TestMapStoreError_OtherPgErrorPassesThrough(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23514", Message: "check constraint violated"}
	err := mapStoreError(pgErr)

	assert.NotErrorIs(t, err, ErrTxConflict)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
	var got *pgconn.PgError
	assert.ErrorAs(t, err, &got)
}

func TestMapStoreError_ContextErrors(t *testing.T) {
	for _, cause := range []error{context.DeadlineExceeded, context.Canceled} {
		err := mapStoreError(fmt.Errorf("query failed: %w", cause))
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	}
}

func TestMapStoreError_ConnectivityFailures(t *testing.T) {
	// Dial recusado, conexão resetada e falha de DNS: todas são
	// StoreUnavailable, não erro interno
	causes := []error{
		&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
		&net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET},
		&net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "db"}},
	}
	for _, cause := range causes {
		err := mapStoreError(fmt.Errorf("failed to connect: %w", cause))
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	}
}

func TestMapStoreError_UnknownErrorPassesThrough(t *testing.T) {
	cause := errors.New("something else")
	err := mapStoreError(cause)

	assert.Equal(t, cause, err)
}
