package zk

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"

	"battleship-leap/internal/game"
	"battleship-leap/internal/merkle"
)

const MerkleDepth = merkle.Depth

// ShotCircuit proves that the cell at (Row, Col) of a committed board holds
// Hit, without revealing any other cell or the salt.
type ShotCircuit struct {
	Bit  frontend.Variable              `gnark:",secret"`
	Salt frontend.Variable              `gnark:",secret"`
	Path [MerkleDepth]frontend.Variable `gnark:",secret"`
	Dir  [MerkleDepth]frontend.Variable `gnark:",secret"`

	Root frontend.Variable `gnark:",public"` // salted root
	Row  frontend.Variable `gnark:",public"`
	Col  frontend.Variable `gnark:",public"`
	Hit  frontend.Variable `gnark:",public"`
}

func (c *ShotCircuit) Define(api frontend.API) error {
	api.AssertIsBoolean(c.Bit)
	api.AssertIsEqual(c.Hit, c.Bit) // reveal only Hit = Bit

	// the direction bits spell the leaf index of (Row, Col)
	api.AssertIsLessOrEqual(c.Row, game.BoardSize-1)
	api.AssertIsLessOrEqual(c.Col, game.BoardSize-1)
	for i := 0; i < MerkleDepth; i++ {
		api.AssertIsBoolean(c.Dir[i])
	}
	idx := api.Add(api.Mul(c.Row, game.BoardSize), c.Col)
	api.AssertIsEqual(api.FromBinary(c.Dir[:]...), idx)

	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Reset()
	h.Write(c.Bit)
	curr := h.Sum()

	for i := 0; i < MerkleDepth; i++ {
		h.Reset()
		isRight := c.Dir[i]

		left := api.Select(isRight, c.Path[i], curr)
		right := api.Select(isRight, curr, c.Path[i])

		h.Write(left, right)
		curr = h.Sum()
	}

	h.Reset()
	h.Write(c.Salt, curr)
	api.AssertIsEqual(h.Sum(), c.Root)
	return nil
}
