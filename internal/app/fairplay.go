package app

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"

	"battleship-leap/internal/codec"
	"battleship-leap/internal/game"
	"battleship-leap/internal/merkle"
	"battleship-leap/internal/zk"
)

// FairPlay commits a fleet before play and proves every reported outcome
// against that commitment.
type FairPlay struct {
	prover *zk.Prover
	secret codec.Secret
	salt   *big.Int
	root   *big.Int
}

// Commit validates the board and binds it to a salted MiMC root.
func Commit(b *game.Board, p *zk.Prover) (*FairPlay, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	cells := b.Occupancy()
	t, err := merkle.Build(cells)
	if err != nil {
		return nil, err
	}

	// this is to make root unique for same boards
	saltBytes := make([]byte, 32)
	if _, err := rand.Read(saltBytes); err != nil {
		return nil, err
	}
	salt := merkle.Reduce(new(big.Int).SetBytes(saltBytes))

	return &FairPlay{
		prover: p,
		secret: codec.Secret{Cells: cells, Tree: t, SaltHex: codec.FormatHex(salt)},
		salt:   salt,
		root:   merkle.Salted(salt, t.Root()),
	}, nil
}

func (f *FairPlay) Root() *big.Int { return new(big.Int).Set(f.root) }

func (f *FairPlay) Commitment() (codec.Commitment, error) {
	vk, err := f.prover.VerifyingKeyBytes()
	if err != nil {
		return codec.Commitment{}, err
	}
	return codec.Commitment{
		RootHex: codec.FormatHex(f.root),
		VKB64:   base64.StdEncoding.EncodeToString(vk),
	}, nil
}

// Prove opens one cell of the committed board.
func (f *FairPlay) Prove(c game.Cell) (codec.ShotProofPayload, error) {
	if !c.InBounds() {
		return codec.ShotProofPayload{}, fmt.Errorf("prove %s: %w", c, game.ErrOutOfBounds)
	}
	idx := c.Index()
	path, dir, err := f.secret.Tree.Path(idx)
	if err != nil {
		return codec.ShotProofPayload{}, err
	}
	proof, pub, err := f.prover.Prove(zk.Witness{
		Bit:  f.secret.Cells[idx],
		Row:  uint8(c.Row),
		Col:  uint8(c.Col),
		Path: path,
		Dir:  dir,
		Salt: f.salt,
		Root: f.root,
	})
	if err != nil {
		return codec.ShotProofPayload{}, fmt.Errorf("prove %s: %w", c, err)
	}
	return codec.ShotProofPayload{Proof: proof, Public: pub}, nil
}

type VerifyResult struct {
	Valid bool      `json:"valid"`
	Cell  game.Cell `json:"cell"`
	Hit   bool      `json:"hit"`
}

// VerifyWithRoot checks a payload against a committed root using a
// serialised verifying key. The root in the payload is ignored in favour
// of the one the caller trusts.
func VerifyWithRoot(vkBytes []byte, root *big.Int, payload codec.ShotProofPayload) (*VerifyResult, error) {
	vk, err := zk.ReadVerifyingKey(bytes.NewReader(vkBytes))
	if err != nil {
		return nil, fmt.Errorf("read verifying key: %w", err)
	}
	payload.Public.Root = new(big.Int).Set(root)
	if err := zk.Verify(vk, payload.Proof, payload.Public, root); err != nil {
		return nil, err
	}
	return &VerifyResult{
		Valid: true,
		Cell:  game.Cell{Row: int(payload.Public.Row), Col: int(payload.Public.Col)},
		Hit:   payload.Public.Hit == 1,
	}, nil
}
