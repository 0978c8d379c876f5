package codec

import (
	"fmt"
	"math/big"
	"strings"

	"battleship-leap/internal/merkle"
	"battleship-leap/internal/zk"
)

// Secret is what the committing side keeps to open cells later.
type Secret struct {
	Cells   []uint8      `json:"cells"`
	Tree    *merkle.Tree `json:"tree"`
	SaltHex string       `json:"salt_hex"`
}

type ShotProofPayload struct {
	Proof  []byte        `json:"proof"`
	Public zk.ShotPublic `json:"public"` // root, row, col and the hit bit
}

// Commitment is published at match start.
type Commitment struct {
	RootHex string `json:"rootHex"`
	VKB64   string `json:"vkB64,omitempty"`
}

func FormatHex(x *big.Int) string { return fmt.Sprintf("0x%x", x) }

// ParseHex accepts 0x-prefixed or bare hex.
func ParseHex(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if s == "" {
		return nil, fmt.Errorf("empty hex value")
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("cannot parse hex %q", s)
	}
	return n, nil
}
