package fakechain

import (
	"context"
	"crypto/sha256"
	"errors"
	"math/big"
	"testing"
	"time"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/contracts/fulaproxy"
	"fula-deployer/internal/contracts/fulatoken"
	"fula-deployer/internal/signer"

	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deployToken(t *testing.T, c *Chain, owner *signer.Signer) string {
	t.Helper()
	ctx := context.Background()

	for _, wasm := range [][]byte{TokenWasm, ProxyWasm} {
		out, err := c.SubmitAndWait(ctx, owner, chain.UploadWasm(wasm))
		require.NoError(t, err)
		require.True(t, out.Included)
	}

	deployer, err := chain.ScAddress(owner.Address)
	require.NoError(t, err)
	impl := xdr.Hash(sha256.Sum256(TokenWasm))
	out, err := c.SubmitAndWait(ctx, owner, chain.CreateContract(deployer, [32]byte{1}, sha256.Sum256(ProxyWasm), fulaproxy.ConstructorArgs(impl)...))
	require.NoError(t, err)
	require.True(t, out.Included)

	address, err := chain.ToAddress(out.ReturnValue)
	require.NoError(t, err)
	return address
}

func TestUpload_ReturnsSHA256(t *testing.T) {
	c := New()
	out, err := c.SubmitAndWait(context.Background(), signer.Random(), chain.UploadWasm(TokenWasm))
	require.NoError(t, err)

	hash, err := chain.ToHash(out.ReturnValue)
	require.NoError(t, err)
	assert.Equal(t, xdr.Hash(sha256.Sum256(TokenWasm)), hash)
	assert.True(t, c.Installed(hash))
	assert.Len(t, out.Hash, 64)
}

func TestCreate_SameSaltTwiceFails(t *testing.T) {
	c := New()
	owner := signer.Random()
	deployToken(t, c, owner)

	deployer, err := chain.ScAddress(owner.Address)
	require.NoError(t, err)
	out, err := c.SubmitAndWait(context.Background(), owner,
		chain.CreateContract(deployer, [32]byte{1}, sha256.Sum256(ProxyWasm), fulaproxy.ConstructorArgs(sha256.Sum256(TokenWasm))...))
	require.NoError(t, err)
	assert.False(t, out.Included)
	assert.Equal(t, "Storage", out.Revert.Kind)
	assert.Equal(t, 1, c.ContractCount())
}

func TestCreate_ProxyRejectsUnknownImplementation(t *testing.T) {
	c := New()
	owner := signer.Random()
	_, err := c.SubmitAndWait(context.Background(), owner, chain.UploadWasm(ProxyWasm))
	require.NoError(t, err)

	deployer, err := chain.ScAddress(owner.Address)
	require.NoError(t, err)
	out, err := c.SubmitAndWait(context.Background(), owner,
		chain.CreateContract(deployer, [32]byte{2}, sha256.Sum256(ProxyWasm), fulaproxy.ConstructorArgs(xdr.Hash{9})...))
	require.NoError(t, err)
	require.False(t, out.Included)
	assert.True(t, out.Revert.SamePayload(fulaproxy.ErrInvalidImplementation))
	assert.Zero(t, c.ContractCount())
}

func TestInvoke_RevertLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	c := New()
	owner := signer.Random()
	token, err := fulatoken.New(c, deployToken(t, c, owner), owner.Address)
	require.NoError(t, err)

	_, err = token.Initialize(ctx, owner, big.NewInt(100))
	require.NoError(t, err)

	out, err := token.Transfer(ctx, owner, signer.Random().Address, big.NewInt(101))
	require.NoError(t, err)
	assert.False(t, out.Included)
	assert.Empty(t, out.Events)

	balance, err := token.BalanceOf(ctx, owner.Address)
	require.NoError(t, err)
	assert.Equal(t, "100", balance.String())
}

func TestInvoke_RequiresAuthOfSource(t *testing.T) {
	ctx := context.Background()
	c := New()
	owner := signer.Random()
	address := deployToken(t, c, owner)
	token, err := fulatoken.New(c, address, owner.Address)
	require.NoError(t, err)
	_, err = token.Initialize(ctx, owner, big.NewInt(100))
	require.NoError(t, err)

	// Signed by someone else on behalf of owner
	contract, err := chain.ScAddress(address)
	require.NoError(t, err)
	amount, err := chain.I128(big.NewInt(1))
	require.NoError(t, err)
	fn := chain.Invoke(contract, "transfer", chain.MustAddress(owner.Address), chain.MustAddress(owner.Address), amount)

	out, err := c.SubmitAndWait(ctx, signer.Random(), fn)
	require.NoError(t, err)
	require.False(t, out.Included)
	assert.Equal(t, "Auth", out.Revert.Kind)
}

func TestQuery_NeverCommits(t *testing.T) {
	ctx := context.Background()
	c := New()
	owner := signer.Random()
	address := deployToken(t, c, owner)

	contract, err := chain.ScAddress(address)
	require.NoError(t, err)
	supply, err := chain.I128(big.NewInt(5))
	require.NoError(t, err)

	_, err = c.Query(ctx, owner.Address, chain.Invoke(contract, "initialize", chain.MustAddress(owner.Address), supply))
	require.NoError(t, err)

	_, err = c.Query(ctx, owner.Address, chain.Invoke(contract, "total_supply"))
	require.NoError(t, err)

	_, err = c.Query(ctx, owner.Address, chain.Invoke(contract, "owner"))
	var txErr *chain.TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.True(t, txErr.Reason.SamePayload(fulatoken.ErrNotInitialized))
	assert.Equal(t, "query owner", txErr.Op)

	_, err = c.Query(ctx, owner.Address, chain.UploadWasm(TokenWasm))
	assert.Error(t, err)
}

func TestFailureInjection(t *testing.T) {
	ctx := context.Background()
	s := signer.Random()

	t.Run("fail next", func(t *testing.T) {
		c := New()
		c.FailNext("upload", chain.RevertReason{Kind: "Budget"})

		out, err := c.SubmitAndWait(ctx, s, chain.UploadWasm(TokenWasm))
		require.NoError(t, err)
		assert.False(t, out.Included)
		assert.False(t, c.Installed(sha256.Sum256(TokenWasm)))

		out, err = c.SubmitAndWait(ctx, s, chain.UploadWasm(TokenWasm))
		require.NoError(t, err)
		assert.True(t, out.Included)
	})

	t.Run("error next", func(t *testing.T) {
		c := New()
		cause := errors.New("reset")
		c.ErrorNext("upload", cause)

		_, err := c.SubmitAndWait(ctx, s, chain.UploadWasm(TokenWasm))
		assert.Same(t, cause, err)
		assert.Equal(t, []Call{{Op: "upload", Signer: s.Address}}, c.Calls())
	})

	t.Run("stall next", func(t *testing.T) {
		c := New()
		c.StallNext("upload")
		stepCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, err := c.SubmitAndWait(stepCtx, s, chain.UploadWasm(TokenWasm))
		assert.ErrorIs(t, err, chain.ErrInclusionTimeout)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("wrong upload hash", func(t *testing.T) {
		c := New()
		c.ReportWrongUploadHash()

		out, err := c.SubmitAndWait(ctx, s, chain.UploadWasm(TokenWasm))
		require.NoError(t, err)
		hash, err := chain.ToHash(out.ReturnValue)
		require.NoError(t, err)
		assert.NotEqual(t, xdr.Hash(sha256.Sum256(TokenWasm)), hash)
	})

	t.Run("cancelled context", func(t *testing.T) {
		c := New()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := c.SubmitAndWait(cancelled, s, chain.UploadWasm(TokenWasm))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, c.Calls())
	})
}

func TestClose_Counts(t *testing.T) {
	c := New()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 2, c.Closes())
}
