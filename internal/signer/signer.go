package signer

import (
	"github.com/stellar/go/keypair"
)

// Signer is an authorized transaction signer: an account address bound to its
// signing keypair. It lives for one orchestration run or one test scenario and
// is never persisted.
type Signer struct {
	Address    string
	Credential *keypair.Full
}

// New binds a keypair to its address.
func New(kp *keypair.Full) *Signer {
	return &Signer{Address: kp.Address(), Credential: kp}
}

// Random returns a throwaway signer, used for receivers in verification scenarios.
func Random() *Signer {
	return New(keypair.MustRandom())
}

func (s *Signer) String() string {
	return s.Address
}
