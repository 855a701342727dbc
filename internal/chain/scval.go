package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

var (
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	two128  = new(big.Int).Lsh(big.NewInt(1), 128)
	mask64  = new(big.Int).SetUint64(^uint64(0))
)

// ScAddress parses a G... account or C... contract strkey.
func ScAddress(address string) (xdr.ScAddress, error) {
	switch {
	case strkey.IsValidEd25519PublicKey(address):
		var aid xdr.AccountId
		if err := aid.SetAddress(address); err != nil {
			return xdr.ScAddress{}, err
		}
		return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &aid}, nil
	default:
		raw, err := strkey.Decode(strkey.VersionByteContract, address)
		if err != nil {
			return xdr.ScAddress{}, fmt.Errorf("invalid address %q: %w", address, err)
		}
		var cid xdr.ContractId
		copy(cid[:], raw)
		return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &cid}, nil
	}
}

// ContractAddress encodes a contract id as a C... strkey.
func ContractAddress(id xdr.ContractId) (string, error) {
	return strkey.Encode(strkey.VersionByteContract, id[:])
}

// AddressString encodes an ScAddress as a strkey.
func AddressString(addr xdr.ScAddress) (string, error) {
	switch addr.Type {
	case xdr.ScAddressTypeScAddressTypeAccount:
		return strkey.Encode(strkey.VersionByteAccountID, addr.AccountId.Ed25519[:])
	case xdr.ScAddressTypeScAddressTypeContract:
		return strkey.Encode(strkey.VersionByteContract, addr.ContractId[:])
	default:
		return "", fmt.Errorf("unsupported address type %s", addr.Type)
	}
}

// Address builds an address ScVal from a strkey.
func Address(address string) (xdr.ScVal, error) {
	addr, err := ScAddress(address)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &addr}, nil
}

// MustAddress is Address for values known to be valid.
func MustAddress(address string) xdr.ScVal {
	v, err := Address(address)
	if err != nil {
		panic(err)
	}
	return v
}

// ToAddress reads an address ScVal as a strkey.
func ToAddress(v xdr.ScVal) (string, error) {
	addr, ok := v.GetAddress()
	if !ok {
		return "", fmt.Errorf("expected address, got %s", v.Type)
	}
	return AddressString(addr)
}

// I128 encodes v as a two's complement i128 ScVal.
func I128(v *big.Int) (xdr.ScVal, error) {
	if v.Cmp(minI128) < 0 || v.Cmp(maxI128) > 0 {
		return xdr.ScVal{}, fmt.Errorf("value %s out of i128 range", v)
	}
	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, two128)
	}
	lo := new(big.Int).And(u, mask64).Uint64()
	hi := new(big.Int).Rsh(u, 64).Uint64()

	parts := xdr.Int128Parts{Hi: xdr.Int64(int64(hi)), Lo: xdr.Uint64(lo)}
	return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &parts}, nil
}

// I128ToBig decodes i128 parts.
func I128ToBig(p xdr.Int128Parts) *big.Int {
	out := new(big.Int).Lsh(big.NewInt(int64(p.Hi)), 64)
	return out.Add(out, new(big.Int).SetUint64(uint64(p.Lo)))
}

// ToBig reads an i128 ScVal.
func ToBig(v xdr.ScVal) (*big.Int, error) {
	p, ok := v.GetI128()
	if !ok {
		return nil, fmt.Errorf("expected i128, got %s", v.Type)
	}
	return I128ToBig(p), nil
}

// Symbol builds a symbol ScVal.
func Symbol(s string) xdr.ScVal {
	sym := xdr.ScSymbol(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}
}

// String builds a string ScVal.
func String(s string) xdr.ScVal {
	str := xdr.ScString(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvString, Str: &str}
}

// Bytes builds a bytes ScVal.
func Bytes(b []byte) xdr.ScVal {
	bs := xdr.ScBytes(b)
	return xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &bs}
}

// U32 builds a u32 ScVal.
func U32(n uint32) xdr.ScVal {
	u := xdr.Uint32(n)
	return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &u}
}

// Void is the unit value.
func Void() xdr.ScVal {
	return xdr.ScVal{Type: xdr.ScValTypeScvVoid}
}

// Vec builds a vector ScVal.
func Vec(vals ...xdr.ScVal) xdr.ScVal {
	vec := xdr.ScVec(vals)
	pvec := &vec
	return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &pvec}
}

// ToHash reads a 32-byte bytes ScVal, the form upload returns a code hash in.
func ToHash(v xdr.ScVal) (xdr.Hash, error) {
	b, ok := v.GetBytes()
	if !ok {
		return xdr.Hash{}, fmt.Errorf("expected bytes, got %s", v.Type)
	}
	if len(b) != len(xdr.Hash{}) {
		return xdr.Hash{}, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	var h xdr.Hash
	copy(h[:], b)
	return h, nil
}

// ToString converts an ScVal to a short string representation.
func ToString(val xdr.ScVal) string {
	switch val.Type {
	case xdr.ScValTypeScvBool:
		if val.MustB() {
			return "true"
		}
		return "false"
	case xdr.ScValTypeScvVoid:
		return "void"
	case xdr.ScValTypeScvU32:
		return fmt.Sprintf("%d", val.MustU32())
	case xdr.ScValTypeScvI32:
		return fmt.Sprintf("%d", val.MustI32())
	case xdr.ScValTypeScvU64:
		return fmt.Sprintf("%d", val.MustU64())
	case xdr.ScValTypeScvI64:
		return fmt.Sprintf("%d", val.MustI64())
	case xdr.ScValTypeScvI128:
		return I128ToBig(val.MustI128()).String()
	case xdr.ScValTypeScvSymbol:
		return string(val.MustSym())
	case xdr.ScValTypeScvString:
		return string(val.MustStr())
	case xdr.ScValTypeScvAddress:
		str, _ := AddressString(val.MustAddress())
		return str
	case xdr.ScValTypeScvBytes:
		return hex.EncodeToString(val.MustBytes())
	default:
		return fmt.Sprintf("<%s>", val.Type.String())
	}
}

// ToInterface converts an ScVal to a Go value for logging and JSON.
func ToInterface(val xdr.ScVal) interface{} {
	switch val.Type {
	case xdr.ScValTypeScvBool:
		return val.MustB()
	case xdr.ScValTypeScvVoid:
		return nil
	case xdr.ScValTypeScvU32:
		return val.MustU32()
	case xdr.ScValTypeScvI32:
		return val.MustI32()
	case xdr.ScValTypeScvU64:
		return val.MustU64()
	case xdr.ScValTypeScvI64:
		return val.MustI64()
	case xdr.ScValTypeScvU128:
		u128 := val.MustU128()
		n := new(big.Int).Lsh(new(big.Int).SetUint64(uint64(u128.Hi)), 64)
		return n.Add(n, new(big.Int).SetUint64(uint64(u128.Lo))).String()
	case xdr.ScValTypeScvI128:
		return I128ToBig(val.MustI128()).String()
	case xdr.ScValTypeScvSymbol, xdr.ScValTypeScvString, xdr.ScValTypeScvAddress, xdr.ScValTypeScvBytes:
		return ToString(val)
	case xdr.ScValTypeScvError:
		return RevertFromScError(val.MustError()).String()
	case xdr.ScValTypeScvVec:
		vec := *val.MustVec()
		result := make([]interface{}, len(vec))
		for i, element := range vec {
			result[i] = ToInterface(element)
		}
		return result
	case xdr.ScValTypeScvMap:
		scMap := *val.MustMap()
		result := make(map[string]interface{})
		for _, entry := range scMap {
			result[ToString(entry.Key)] = ToInterface(entry.Val)
		}
		return result
	default:
		return val.Type.String()
	}
}

// Equal compares two ScVals by their XDR encoding.
func Equal(a, b xdr.ScVal) bool {
	ab, errA := a.MarshalBinary()
	bb, errB := b.MarshalBinary()
	return errA == nil && errB == nil && string(ab) == string(bb)
}
