package chain

import (
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostFunctions(t *testing.T) {
	wasm := []byte("\x00asm")
	upload := UploadWasm(wasm)
	wasm[0] = 0xff
	assert.Equal(t, "upload", OpName(upload))
	assert.Equal(t, byte(0x00), (*upload.Wasm)[0])

	deployer, err := ScAddress(keypair.MustRandom().Address())
	require.NoError(t, err)
	hash := xdr.Hash{4}
	create := CreateContract(deployer, [32]byte{1}, xdr.Hash{2}, Bytes(hash[:]))
	assert.Equal(t, "create", OpName(create))
	assert.Len(t, create.CreateContractV2.ConstructorArgs, 1)
	assert.Equal(t, xdr.Hash{2}, *create.CreateContractV2.Executable.WasmHash)

	call := Invoke(deployer, "transfer", U32(1))
	assert.Equal(t, "transfer", OpName(call))
	assert.Len(t, call.InvokeContract.Args, 1)
}
