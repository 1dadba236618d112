package blkreader

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Uint256 holds a hash in wire (hashing) order. Bitcoin displays
// hashes reversed, which is what String() does.
type Uint256 [32]byte

func (u Uint256) String() string {
	for i := 0; i < 16; i++ {
		u[i], u[31-i] = u[31-i], u[i]
	}
	return hex.EncodeToString(u[:])
}

// Hex is the wire order hex, no reversal.
func (u Uint256) Hex() string {
	return hex.EncodeToString(u[:])
}

func (u Uint256) IsZero() bool {
	return u == Uint256{}
}

func (u Uint256) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// sql.Scanner so that hashes can be scanned from postgres
func (u *Uint256) Scan(value interface{}) error {
	if b, ok := value.([]byte); !ok {
		return fmt.Errorf("Unexpected type: %T", value)
	} else {
		copy(u[:], b)
	}
	return nil
}

// Hash256 is SHA256(SHA256(b)).
func Hash256(b []byte) Uint256 {
	return Uint256(chainhash.DoubleHashH(b))
}

func Sha256(b []byte) [32]byte {
	return chainhash.HashH(b)
}

func Uint256FromBytes(from []byte) Uint256 {
	var result Uint256
	copy(result[:], from)
	return result
}

// Uint256FromString parses a display (reversed) hex hash.
func Uint256FromString(from string) (Uint256, error) {
	if len(from) != 32*2 {
		return Uint256{}, fmt.Errorf("Incorrect length: %d", len(from))
	}
	b, err := hex.DecodeString(from)
	if err != nil {
		return Uint256{}, err
	}
	return Uint256FromBytes(SwapEndian(b)), nil
}
