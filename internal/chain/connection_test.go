package chain

import (
	"context"
	"errors"
	"testing"

	"fula-deployer/internal/signer"

	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	closes int
}

func (c *countingClient) SubmitAndWait(context.Context, *signer.Signer, xdr.HostFunction) (*TransactionOutcome, error) {
	return &TransactionOutcome{Included: true}, nil
}

func (c *countingClient) Query(context.Context, string, xdr.HostFunction) (xdr.ScVal, error) {
	return Void(), nil
}

func (c *countingClient) Close() error {
	c.closes++
	return nil
}

func dialer(c *countingClient) Dialer {
	return func(context.Context) (Client, error) { return c, nil }
}

func TestConnection_CloseIsIdempotent(t *testing.T) {
	client := &countingClient{}
	conn := NewConnection(dialer(client))

	require.NoError(t, conn.Start(context.Background()))
	assert.True(t, conn.IsAvailable())

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.Equal(t, 1, client.closes)
	assert.False(t, conn.IsAvailable())

	_, err := conn.HandleBackend()
	assert.Error(t, err)
}

func TestConnection_DialFailure(t *testing.T) {
	dialErr := errors.New("no route")
	conn := NewConnection(func(context.Context) (Client, error) { return nil, dialErr })

	assert.ErrorIs(t, conn.Start(context.Background()), dialErr)
	_, err := conn.HandleBackend()
	assert.ErrorIs(t, err, dialErr)
	assert.NoError(t, conn.Close())
}

func TestWithConnection_ClosesOnEveryPath(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := &countingClient{}
		err := WithConnection(context.Background(), dialer(client), func(Client) error { return nil })
		require.NoError(t, err)
		assert.Equal(t, 1, client.closes)
	})

	t.Run("failure", func(t *testing.T) {
		client := &countingClient{}
		stepErr := &TransactionError{Op: "deploy"}
		err := WithConnection(context.Background(), dialer(client), func(Client) error { return stepErr })

		var txErr *TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Same(t, stepErr, txErr)
		assert.Equal(t, 1, client.closes)
	})

	t.Run("panic", func(t *testing.T) {
		client := &countingClient{}
		assert.Panics(t, func() {
			_ = WithConnection(context.Background(), dialer(client), func(Client) error { panic("boom") })
		})
		assert.Equal(t, 1, client.closes)
	})
}
