package fulatoken_test

import (
	"context"
	"crypto/sha256"
	"math/big"
	"testing"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/contracts/fulaproxy"
	"fula-deployer/internal/contracts/fulatoken"
	"fula-deployer/internal/signer"
	"fula-deployer/internal/testutil/fakechain"

	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deploy(t *testing.T) (*fakechain.Chain, *fulatoken.Token, *signer.Signer) {
	t.Helper()
	ctx := context.Background()
	fake := fakechain.New()
	owner := signer.Random()

	for _, wasm := range [][]byte{fakechain.TokenWasm, fakechain.ProxyWasm} {
		_, err := fake.SubmitAndWait(ctx, owner, chain.UploadWasm(wasm))
		require.NoError(t, err)
	}
	deployer, err := chain.ScAddress(owner.Address)
	require.NoError(t, err)
	impl := xdr.Hash(sha256.Sum256(fakechain.TokenWasm))
	out, err := fake.SubmitAndWait(ctx, owner, chain.CreateContract(deployer, [32]byte{7}, sha256.Sum256(fakechain.ProxyWasm), fulaproxy.ConstructorArgs(impl)...))
	require.NoError(t, err)
	address, err := chain.ToAddress(out.ReturnValue)
	require.NoError(t, err)

	token, err := fulatoken.New(fake, address, owner.Address)
	require.NoError(t, err)
	return fake, token, owner
}

func TestNew_RejectsAccountAddress(t *testing.T) {
	_, err := fulatoken.New(fakechain.New(), signer.Random().Address, "")
	assert.Error(t, err)

	_, err = fulatoken.New(fakechain.New(), "garbage", "")
	assert.Error(t, err)
}

func TestToken_InitializeAndMetadata(t *testing.T) {
	ctx := context.Background()
	_, token, owner := deploy(t)

	_, err := token.Name(ctx)
	var txErr *chain.TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.True(t, txErr.Reason.SamePayload(fulatoken.ErrNotInitialized))

	out, err := token.Initialize(ctx, owner, big.NewInt(1_000))
	require.NoError(t, err)
	require.True(t, out.Included)
	require.Len(t, out.Events, 1)
	mint, err := fulatoken.DecodeMint(out.Events[0])
	require.NoError(t, err)
	assert.Equal(t, owner.Address, mint.To)
	assert.Equal(t, "1000", mint.Amount.String())

	name, err := token.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, fulatoken.TokenName, name)
	symbol, err := token.Symbol(ctx)
	require.NoError(t, err)
	assert.Equal(t, fulatoken.TokenSymbol, symbol)
	decimals, err := token.Decimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(fulatoken.TokenDecimals), decimals)
	got, err := token.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, owner.Address, got)
}

func TestToken_TransferEvents(t *testing.T) {
	ctx := context.Background()
	_, token, owner := deploy(t)
	_, err := token.Initialize(ctx, owner, big.NewInt(1_000))
	require.NoError(t, err)

	receiver := signer.Random()
	out, err := token.Transfer(ctx, owner, receiver.Address, big.NewInt(250))
	require.NoError(t, err)
	require.True(t, out.Included)

	transfers, err := fulatoken.Transfers(out.Events)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, owner.Address, transfers[0].From)
	assert.Equal(t, receiver.Address, transfers[0].To)
	assert.Equal(t, "250", transfers[0].Amount.String())

	_, err = fulatoken.DecodeMint(out.Events[0])
	assert.Error(t, err)

	balance, err := token.BalanceOf(ctx, receiver.Address)
	require.NoError(t, err)
	assert.Equal(t, "250", balance.String())
	supply, err := token.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000", supply.String())
}

func TestToken_NegativeAmountIsRejectedByContract(t *testing.T) {
	ctx := context.Background()
	_, token, owner := deploy(t)
	_, err := token.Initialize(ctx, owner, big.NewInt(10))
	require.NoError(t, err)

	out, err := token.Approve(ctx, owner, signer.Random().Address, big.NewInt(-1))
	require.NoError(t, err)
	require.False(t, out.Included)
	assert.True(t, out.Revert.SamePayload(fulatoken.ErrNegativeAmount))
}

func TestProxy_Implementation(t *testing.T) {
	fake, token, owner := deploy(t)

	proxy, err := fulaproxy.New(fake, token.Address(), owner.Address)
	require.NoError(t, err)
	impl, err := proxy.Implementation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, xdr.Hash(sha256.Sum256(fakechain.TokenWasm)), impl)

	_, err = fulaproxy.New(fake, owner.Address, owner.Address)
	assert.Error(t, err)
}
