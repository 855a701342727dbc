package chain

import (
	"github.com/stellar/go/xdr"
)

// UploadWasm builds the host function that installs a contract binary.
func UploadWasm(wasm []byte) xdr.HostFunction {
	code := append([]byte(nil), wasm...)
	return xdr.HostFunction{
		Type: xdr.HostFunctionTypeHostFunctionTypeUploadContractWasm,
		Wasm: &code,
	}
}

// CreateContract builds the host function that instantiates wasmHash at
// the address derived from deployer and salt, passing args to the
// constructor.
func CreateContract(deployer xdr.ScAddress, salt [32]byte, wasmHash xdr.Hash, args ...xdr.ScVal) xdr.HostFunction {
	hash := wasmHash
	return xdr.HostFunction{
		Type: xdr.HostFunctionTypeHostFunctionTypeCreateContractV2,
		CreateContractV2: &xdr.CreateContractArgsV2{
			ContractIdPreimage: xdr.ContractIdPreimage{
				Type: xdr.ContractIdPreimageTypeContractIdPreimageFromAddress,
				FromAddress: &xdr.ContractIdPreimageFromAddress{
					Address: deployer,
					Salt:    xdr.Uint256(salt),
				},
			},
			Executable: xdr.ContractExecutable{
				Type:     xdr.ContractExecutableTypeContractExecutableWasm,
				WasmHash: &hash,
			},
			ConstructorArgs: args,
		},
	}
}

// Invoke builds a contract call.
func Invoke(contract xdr.ScAddress, function string, args ...xdr.ScVal) xdr.HostFunction {
	return xdr.HostFunction{
		Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
		InvokeContract: &xdr.InvokeContractArgs{
			ContractAddress: contract,
			FunctionName:    xdr.ScSymbol(function),
			Args:            args,
		},
	}
}

// OpName labels a host function for logs and metrics.
func OpName(fn xdr.HostFunction) string {
	switch fn.Type {
	case xdr.HostFunctionTypeHostFunctionTypeUploadContractWasm:
		return "upload"
	case xdr.HostFunctionTypeHostFunctionTypeCreateContract, xdr.HostFunctionTypeHostFunctionTypeCreateContractV2:
		return "create"
	case xdr.HostFunctionTypeHostFunctionTypeInvokeContract:
		if fn.InvokeContract != nil {
			return string(fn.InvokeContract.FunctionName)
		}
	}
	return fn.Type.String()
}
