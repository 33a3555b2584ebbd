// Package commitment packs the five round choices of a player and derives the
// hiding, binding commitment submitted before any choice is revealed.
//
// The byte layout is the Solidity abi.encodePacked form of
// (uint256 roomId, uint8 choices, bytes32 salt) hashed with Keccak-256, so a
// commitment built by a browser client with ethers verifies here unchanged.
package commitment

import (
	"crypto/rand"
	"errors"
	"io"
	"strings"

	"split-or-steal/internal/apperr"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const (
	Rounds   = 5
	SaltSize = 32
	// MaxPacked is the largest valid packed choice vector (all five rounds steal).
	MaxPacked = 1<<Rounds - 1
)

var (
	ErrInvalidChoiceCount = apperr.New(apperr.ErrValidation, "invalid_choice_count")
	ErrInvalidChoices     = apperr.New(apperr.ErrValidation, "invalid_choices")
	ErrInvalidSalt        = apperr.New(apperr.ErrValidation, "invalid_salt")
	ErrInvalidCommitment  = apperr.New(apperr.ErrValidation, "invalid_commitment")
)

var errWrongLength = errors.New("want 32 bytes")

type Salt [SaltSize]byte

func (s Salt) Hex() string {
	return hexutil.Encode(s[:])
}

// Pack sets bit i when round i is a steal.
func Pack(choices []bool) (uint8, error) {
	if len(choices) != Rounds {
		return 0, ErrInvalidChoiceCount
	}
	var n uint8
	for i, steal := range choices {
		if steal {
			n |= 1 << i
		}
	}
	return n, nil
}

func Unpack(packed uint8) ([Rounds]bool, error) {
	var out [Rounds]bool
	if packed > MaxPacked {
		return out, ErrInvalidChoices
	}
	for i := 0; i < Rounds; i++ {
		out[i] = Steals(packed, i)
	}
	return out, nil
}

// Steals reports whether round (0-based) is a steal in packed.
func Steals(packed uint8, round int) bool {
	return packed&(1<<round) != 0
}

// Layout returns the exact preimage hashed by Commit:
// room id as 32-byte big-endian, one byte of choices, 32 bytes of salt.
func Layout(roomID uint64, packed uint8, salt Salt) []byte {
	id := uint256.NewInt(roomID).Bytes32()
	buf := make([]byte, 0, 32+1+SaltSize)
	buf = append(buf, id[:]...)
	buf = append(buf, packed)
	buf = append(buf, salt[:]...)
	return buf
}

func Commit(roomID uint64, packed uint8, salt Salt) common.Hash {
	return crypto.Keccak256Hash(Layout(roomID, packed, salt))
}

// Verify reports whether (roomID, packed, salt) opens want.
func Verify(roomID uint64, packed uint8, salt Salt, want common.Hash) bool {
	if packed > MaxPacked || want == (common.Hash{}) {
		return false
	}
	return Commit(roomID, packed, salt) == want
}

// NewSalt draws a fresh uniformly random salt. Salts must never be reused.
func NewSalt() (Salt, error) {
	var s Salt
	if _, err := io.ReadFull(rand.Reader, s[:]); err != nil {
		return Salt{}, err
	}
	return s, nil
}

// ParseSalt accepts 64 hex digits with or without a 0x prefix.
func ParseSalt(v string) (Salt, error) {
	b, err := decodeHex32(v)
	if err != nil {
		return Salt{}, ErrInvalidSalt
	}
	var s Salt
	copy(s[:], b)
	return s, nil
}

func ParseCommitment(v string) (common.Hash, error) {
	b, err := decodeHex32(v)
	if err != nil {
		return common.Hash{}, ErrInvalidCommitment
	}
	h := common.BytesToHash(b)
	if h == (common.Hash{}) {
		return common.Hash{}, ErrInvalidCommitment
	}
	return h, nil
}

// ParseChoices reads round choices spelled "split"/"steal" (or "0"/"1").
func ParseChoices(words []string) ([]bool, error) {
	out := make([]bool, 0, len(words))
	for _, w := range words {
		switch strings.ToLower(strings.TrimSpace(w)) {
		case "steal", "1", "true":
			out = append(out, true)
		case "split", "0", "false":
			out = append(out, false)
		default:
			return nil, ErrInvalidChoices
		}
	}
	if len(out) != Rounds {
		return nil, ErrInvalidChoiceCount
	}
	return out, nil
}

func decodeHex32(v string) ([]byte, error) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "0x") && !strings.HasPrefix(v, "0X") {
		v = "0x" + v
	}
	b, err := hexutil.Decode(v)
	if err != nil {
		return nil, err
	}
	if len(b) != 32 {
		return nil, errWrongLength
	}
	return b, nil
}
