package fulaproxy

import (
	"context"
	"fmt"

	"fula-deployer/internal/chain"

	"github.com/stellar/go/xdr"
)

// ErrInvalidImplementation is returned by the constructor when the
// implementation hash does not reference installed code.
var ErrInvalidImplementation = chain.ContractError(10)

const fnImplementation = "implementation"

// ConstructorArgs encodes the constructor arguments of the proxy: the code
// hash of the implementation it delegates to.
func ConstructorArgs(implHash xdr.Hash) []xdr.ScVal {
	return []xdr.ScVal{chain.Bytes(implHash[:])}
}

// Proxy is the typed interface of a deployed proxy.
type Proxy struct {
	client   chain.Client
	contract xdr.ScAddress
	reader   string
}

// New binds the proxy at address. Queries are simulated from reader.
func New(client chain.Client, address, reader string) (*Proxy, error) {
	contract, err := chain.ScAddress(address)
	if err != nil {
		return nil, err
	}
	if contract.Type != xdr.ScAddressTypeScAddressTypeContract {
		return nil, fmt.Errorf("%s is not a contract address", address)
	}
	return &Proxy{client: client, contract: contract, reader: reader}, nil
}

// Implementation returns the code hash the proxy delegates to.
func (p *Proxy) Implementation(ctx context.Context) (xdr.Hash, error) {
	v, err := p.client.Query(ctx, p.reader, chain.Invoke(p.contract, fnImplementation))
	if err != nil {
		return xdr.Hash{}, err
	}
	return chain.ToHash(v)
}
