package hibachi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/shopspring/decimal"
)

// signer produces the hex signature the exchange verifies on order,
// withdraw, and transfer requests. Two key formats are supported, matching
// the two Hibachi account flavors:
//
//   - wallet accounts use a secp256k1 private key, hex-encoded with a 0x
//     prefix; payloads are signed ECDSA over their SHA-256 digest and the
//     signature is hex(r) || hex(s) || hex(v)
//   - web accounts use an opaque HMAC key; payloads are signed
//     HMAC-SHA256 and hex encoded
//
// The flavor is detected from the 0x prefix when the key is set.
type signer struct {
	ecdsaKey *secp256k1.PrivateKey
	hmacKey  []byte
}

// newSigner parses a private key in either supported format.
func newSigner(privateKey string) (*signer, error) {
	if strings.HasPrefix(privateKey, "0x") {
		raw, err := hex.DecodeString(strings.TrimPrefix(privateKey, "0x"))
		if err != nil {
			return nil, validationError("invalid private key hex: %v", err)
		}
		if len(raw) != 32 {
			return nil, validationError("private key must be 32 bytes, got %d", len(raw))
		}
		return &signer{ecdsaKey: secp256k1.PrivKeyFromBytes(raw)}, nil
	}
	return &signer{hmacKey: []byte(privateKey)}, nil
}

// Sign signs payload and returns the hex signature.
func (s *signer) Sign(payload []byte) (string, error) {
	if s.ecdsaKey != nil {
		digest := sha256.Sum256(payload)
		sig := ecdsa.SignCompact(s.ecdsaKey, digest[:], false)
		// SignCompact prepends the recovery byte; the exchange wants it
		// trailing, normalized from the 27/28 convention to 0/1.
		r := sig[1:33]
		sv := sig[33:65]
		v := sig[0] - 27
		return hex.EncodeToString(r) + hex.EncodeToString(sv) + hex.EncodeToString([]byte{v}), nil
	}
	if s.hmacKey != nil {
		mac := hmac.New(sha256.New, s.hmacKey)
		mac.Write(payload)
		return hex.EncodeToString(mac.Sum(nil)), nil
	}
	return "", &MissingCredentialsError{CredentialType: "private key"}
}

// be64 appends v to b as 8 big-endian bytes.
func be64(b []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(b, v)
}

// be32 appends v to b as 4 big-endian bytes.
func be32(b []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(b, v)
}

// scaledUint converts d * 10^exp to a uint64, failing if the result does
// not fit or is negative.
func scaledUint(d decimal.Decimal, exp int32) (uint64, error) {
	scaled := d.Shift(exp)
	if scaled.IsNegative() {
		return 0, validationError("negative value %s not allowed in signing payload", d)
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, validationError("value %s too large for signing payload", d)
	}
	return bi.Uint64(), nil
}

// priceToBytes encodes a price as 8 big-endian bytes: the price shifted by
// the contract's decimal spread and scaled by 2^32 fixed point.
func priceToBytes(price decimal.Decimal, contract *FutureContract) ([]byte, error) {
	shifted := price.Shift(contract.SettlementDecimals - contract.UnderlyingDecimals)
	fixed := shifted.Mul(decimal.NewFromInt(1 << 32))
	bi := fixed.BigInt()
	if !bi.IsUint64() {
		return nil, validationError("price %s out of range for contract %s", price, contract.Symbol)
	}
	return be64(nil, bi.Uint64()), nil
}

// orderPayload builds the signing payload shared by order creation and
// updates: nonce, contract id, quantity, side, optional price, max fees.
func orderPayload(contract *FutureContract, nonce Nonce, quantity decimal.Decimal, side Side, maxFeesPercent decimal.Decimal, price *decimal.Decimal) ([]byte, error) {
	qty, err := scaledUint(quantity, contract.UnderlyingDecimals)
	if err != nil {
		return nil, fmt.Errorf("order quantity: %w", err)
	}
	fees, err := scaledUint(maxFeesPercent, 8)
	if err != nil {
		return nil, fmt.Errorf("order max fees: %w", err)
	}

	payload := be64(nil, uint64(nonce))
	payload = be32(payload, uint32(contract.ID))
	payload = be64(payload, qty)
	if side.normalize() == SideAsk {
		payload = be32(payload, 0)
	} else {
		payload = be32(payload, 1)
	}
	if price != nil {
		priceBytes, err := priceToBytes(*price, contract)
		if err != nil {
			return nil, err
		}
		payload = append(payload, priceBytes...)
	}
	return be64(payload, fees), nil
}

// cancelPayload builds the signing payload for a cancel: the order id when
// known, otherwise the creation nonce.
func cancelPayload(orderID *OrderID, nonce *Nonce) ([]byte, error) {
	if orderID != nil {
		return be64(nil, uint64(*orderID)), nil
	}
	if nonce == nil {
		return nil, validationError("either orderID or nonce must be provided")
	}
	return be64(nil, uint64(*nonce)), nil
}

// withdrawPayload builds the signing payload for a withdrawal. Quantities
// are scaled by 10^6, the settlement token's decimals.
func withdrawPayload(assetID int64, quantity, maxFees decimal.Decimal, withdrawAddress string) ([]byte, error) {
	qty, err := scaledUint(quantity, 6)
	if err != nil {
		return nil, fmt.Errorf("withdraw quantity: %w", err)
	}
	fees, err := scaledUint(maxFees, 6)
	if err != nil {
		return nil, fmt.Errorf("withdraw max fees: %w", err)
	}
	address, err := hex.DecodeString(strings.TrimPrefix(withdrawAddress, "0x"))
	if err != nil {
		return nil, validationError("invalid withdraw address %q: %v", withdrawAddress, err)
	}

	payload := be32(nil, uint32(assetID))
	payload = be64(payload, qty)
	payload = be64(payload, fees)
	return append(payload, address...), nil
}

// transferPayload builds the signing payload for an account transfer.
func transferPayload(nonce Nonce, assetID int64, quantity decimal.Decimal, dstPublicKey string, maxFees decimal.Decimal) ([]byte, error) {
	qty, err := scaledUint(quantity, 6)
	if err != nil {
		return nil, fmt.Errorf("transfer quantity: %w", err)
	}
	fees, err := scaledUint(maxFees, 0)
	if err != nil {
		return nil, fmt.Errorf("transfer max fees: %w", err)
	}
	dst, err := hex.DecodeString(strings.TrimPrefix(dstPublicKey, "0x"))
	if err != nil {
		return nil, validationError("invalid destination public key %q: %v", dstPublicKey, err)
	}

	payload := be64(nil, uint64(nonce))
	payload = be32(payload, uint32(assetID))
	payload = be64(payload, qty)
	payload = append(payload, dst...)
	return be64(payload, fees), nil
}
