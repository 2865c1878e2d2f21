package janus

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestTransactionsRegisterRequiresID(t *testing.T) {
	tx := NewTransactions(0)
	_, err := tx.Register("")
	require.ErrorIs(t, err, ErrNoTransaction)
}

func TestTransactionsRejectsDuplicateRegistration(t *testing.T) {
	tx := NewTransactions(0)
	_, err := tx.Register("txn")
	require.NoError(t, err)

	_, err = tx.Register("txn")
	require.ErrorIs(t, err, ErrDuplicateTransaction)
}

func TestTransactionsExecuteResolvesAndRemoves(t *testing.T) {
	tx := NewTransactions(0)
	p, err := tx.Register("txn")
	require.NoError(t, err)

	resp := Response{Janus: VerbEvent, Transaction: "txn"}
	assert.True(t, tx.Execute("txn", resp))
	assert.False(t, tx.Has("txn"))

	got, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, resp, got)

	// single use: the same id can be registered again
	_, err = tx.Register("txn")
	require.NoError(t, err)
}

func TestTransactionsExecuteUnknownIsNoop(t *testing.T) {
	tx := NewTransactions(0)
	assert.NotPanics(t, func() {
		assert.False(t, tx.Execute("late", Response{Janus: VerbEvent}))
	})
}

func TestTransactionsOutOfOrderResponses(t *testing.T) {
	tx := NewTransactions(0)
	first, err := tx.Register("first")
	require.NoError(t, err)
	second, err := tx.Register("second")
	require.NoError(t, err)

	tx.Execute("second", Response{Transaction: "second"})
	tx.Execute("first", Response{Transaction: "first"})

	r1, err := first.Wait(context.Background())
	require.NoError(t, err)
	r2, err := second.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", r1.Transaction)
	assert.Equal(t, "second", r2.Transaction)
}

func TestTransactionsWaitHonoursContext(t *testing.T) {
	tx := NewTransactions(0)
	p, err := tx.Register("txn")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = p.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, tx.Has("txn"))
	assert.False(t, tx.Execute("txn", Response{}))
}

func TestTransactionsReject(t *testing.T) {
	tx := NewTransactions(0)
	p, err := tx.Register("txn")
	require.NoError(t, err)

	assert.True(t, tx.Reject("txn", nil))
	_, err = p.Wait(context.Background())
	require.ErrorIs(t, err, ErrTransactionRejected)
	assert.False(t, tx.Reject("txn", nil))
}

func TestTransactionsRejectAll(t *testing.T) {
	tx := NewTransactions(0)
	a, err := tx.Register("a")
	require.NoError(t, err)
	b, err := tx.Register("b")
	require.NoError(t, err)

	tx.RejectAll(ErrConnectionClosed)

	_, err = a.Wait(context.Background())
	require.ErrorIs(t, err, ErrConnectionClosed)
	_, err = b.Wait(context.Background())
	require.ErrorIs(t, err, ErrConnectionClosed)
	assert.Zero(t, tx.Len())
}

func TestTransactionsExpireWithTTL(t *testing.T) {
	tx := NewTransactions(30 * time.Millisecond)
	defer tx.Close()

	p, err := tx.Register("txn")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = p.Wait(ctx)
	require.ErrorIs(t, err, ErrTransactionExpired)
}

func TestTransactionsConcurrentExecute(t *testing.T) {
	tx := NewTransactions(0)
	pendings := make([]*Pending, 100)
	for i := range pendings {
		p, err := tx.Register(fmt.Sprintf("txn-%d", i))
		require.NoError(t, err)
		pendings[i] = p
	}

	var g errgroup.Group
	for i := range pendings {
		g.Go(func() error {
			id := fmt.Sprintf("txn-%d", i)
			if !tx.Execute(id, Response{Transaction: id}) {
				return fmt.Errorf("%s not pending", id)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i, p := range pendings {
		resp, err := p.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("txn-%d", i), resp.Transaction)
	}
}
