package retry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refused = &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

func TestRecoverablePostgresErrors(t *testing.T) {
	assert.True(t, IsRecoverable(&pq.Error{Code: "57P03", Message: "the database system is starting up"}))
	assert.True(t, IsRecoverable(fmt.Errorf("ping: %w", &pq.Error{Code: "53300"})))
	assert.False(t, IsRecoverable(&pq.Error{Code: "42P01", Message: `relation "statuses" does not exist`}))
	assert.False(t, IsRecoverable(&pq.Error{Code: "28P01", Message: "password authentication failed"}))
}

func TestRecoverableSQLiteErrors(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "locked.db")

	holder, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer holder.Close()
	conn, err := holder.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.ExecContext(ctx, "BEGIN EXCLUSIVE")
	require.NoError(t, err)
	defer conn.ExecContext(ctx, "ROLLBACK")

	other, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer other.Close()
	_, err = other.ExecContext(ctx, "CREATE TABLE t (x INTEGER)")
	require.Error(t, err)
	assert.True(t, IsRecoverable(err), err.Error())

	// A syntax error is permanent
	_, err = other.ExecContext(ctx, "CREATE TABLEX")
	require.Error(t, err)
	assert.False(t, IsRecoverable(err))
}

func TestRecoverableNetworkErrors(t *testing.T) {
	assert.True(t, IsRecoverable(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route to host")}))
	assert.True(t, IsRecoverable(fmt.Errorf("connect: %w", syscall.ECONNREFUSED)))
	assert.True(t, IsRecoverable(context.DeadlineExceeded))
	assert.False(t, IsRecoverable(context.Canceled))
	assert.False(t, IsRecoverable(&net.OpError{Op: "read", Net: "tcp", Err: errors.New("unexpected EOF")}))
	assert.False(t, IsRecoverable(errors.New("connection refused")))
	assert.False(t, IsRecoverable(nil))
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	count := 0
	err := Do(ctx, func() error {
		count++
		return refused
	}, WithMaxRetries(3), WithBaseWait(time.Millisecond*20))
	assert.Error(t, err)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Equal(t, 4, count)
}

func TestRetryZeroMaxRetries(t *testing.T) {
	ctx := context.Background()
	count := 0
	err := Do(ctx, func() error {
		count++
		return refused
	}, WithMaxRetries(0), WithBaseWait(time.Millisecond*20))
	assert.Error(t, err)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Equal(t, 1, count) // Should still try once even with 0 retries
}

func TestRetryStopsOnNonRecoverable(t *testing.T) {
	count := 0
	err := Do(context.Background(), func() error {
		count++
		return errors.New("syntax error")
	}, WithMaxRetries(5), WithBaseWait(time.Millisecond))
	assert.EqualError(t, err, "syntax error")
	assert.Equal(t, 1, count)
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	count := 0
	err := Do(context.Background(), func() error {
		count++
		if count < 3 {
			return &pq.Error{Code: "57P03"}
		}
		return nil
	}, WithMaxRetries(5), WithBaseWait(time.Millisecond))
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRetryStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	count := 0
	err := Do(ctx, func() error {
		count++
		return refused
	}, WithMaxRetries(5), WithBaseWait(time.Second))
	assert.Error(t, err)
	assert.Equal(t, 1, count)
}
