// Package merkle commits a flattened board to a MiMC Merkle root that the
// shot circuit can open one cell at a time.
package merkle

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bnmimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

const (
	Depth  = 7
	Leaves = 1 << Depth // 100 board cells padded to 128
)

// encode BN254 field elements as 32-byte big-endian
func feBytes(x *big.Int) []byte {
	b := x.Bytes()
	if len(b) == 32 {
		return b
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func bytesToFE(b []byte) *big.Int { return new(big.Int).SetBytes(b) }

// Reduce maps x into the BN254 scalar field so it can be hashed as one block.
func Reduce(x *big.Int) *big.Int {
	return new(big.Int).Mod(x, ecc.BN254.ScalarField())
}

// HashLeaf is MiMC(bit), matching the leaf hash inside the circuit.
func HashLeaf(bit uint8) *big.Int {
	h := bnmimc.NewMiMC()
	h.Write(feBytes(new(big.Int).SetUint64(uint64(bit))))
	return bytesToFE(h.Sum(nil))
}

func HashNode(left, right *big.Int) *big.Int {
	h := bnmimc.NewMiMC()
	h.Write(feBytes(left))
	h.Write(feBytes(right))
	return bytesToFE(h.Sum(nil))
}

// Salted hides the tree root behind a secret salt: MiMC(salt, root).
func Salted(salt, root *big.Int) *big.Int { return HashNode(salt, root) }

// Tree is a fixed-size binary Merkle tree stored level by level.
type Tree struct {
	Depth  int          `json:"depth"`
	Levels [][]*big.Int `json:"levels"` // Levels[0]=leaves, Levels[Depth]=root
}

// Build hashes bits into a tree of Leaves leaves, padding with MiMC(0).
func Build(bits []uint8) (*Tree, error) {
	if len(bits) > Leaves {
		return nil, errors.New("too many leaves")
	}
	pad := HashLeaf(0)

	l0 := make([]*big.Int, Leaves)
	for i := range l0 {
		switch {
		case i >= len(bits):
			l0[i] = new(big.Int).Set(pad)
		case bits[i] > 1:
			return nil, errors.New("leaf is not a bit")
		default:
			l0[i] = HashLeaf(bits[i])
		}
	}
	levels := [][]*big.Int{l0}
	for n := Leaves; n > 1; n /= 2 {
		prev := levels[len(levels)-1]
		up := make([]*big.Int, n/2)
		for i := range up {
			up[i] = HashNode(prev[2*i], prev[2*i+1])
		}
		levels = append(levels, up)
	}
	return &Tree{Depth: len(levels) - 1, Levels: levels}, nil
}

func (t *Tree) Root() *big.Int { return new(big.Int).Set(t.Levels[len(t.Levels)-1][0]) }

// Path returns sibling hashes + direction bits for index idx.
// dir[i]=0 ⇒ current is left child; dir[i]=1 ⇒ current is right child.
func (t *Tree) Path(idx int) (path []*big.Int, dir []uint8, err error) {
	if idx < 0 || idx >= len(t.Levels[0]) {
		return nil, nil, errors.New("idx OOB")
	}
	path = make([]*big.Int, 0, t.Depth)
	dir = make([]uint8, 0, t.Depth)
	cur := idx
	for level := 0; level < t.Depth; level++ {
		sib := cur ^ 1
		path = append(path, new(big.Int).Set(t.Levels[level][sib]))
		dir = append(dir, uint8(cur&1))
		cur /= 2
	}
	return path, dir, nil
}

// VerifyPath recomputes the root from a leaf bit and its path, the same
// walk the circuit performs.
func VerifyPath(bit uint8, path []*big.Int, dir []uint8, root *big.Int) bool {
	if len(path) != len(dir) {
		return false
	}
	cur := HashLeaf(bit)
	for i := range path {
		if dir[i] == 1 {
			cur = HashNode(path[i], cur)
		} else {
			cur = HashNode(cur, path[i])
		}
	}
	return cur.Cmp(root) == 0
}
