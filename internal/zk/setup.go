package zk

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	gnarklog "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

const (
	VKFile = "shot.vk"
	PKFile = "shot.pk"
)

var ErrInvalidProof = errors.New("invalid shot proof")

// ShotPublic is the public part of a shot proof.
type ShotPublic struct {
	Root *big.Int `json:"root"`
	Row  uint8    `json:"row"`
	Col  uint8    `json:"col"`
	Hit  uint8    `json:"hit"`
}

// Witness is everything the prover needs to open one cell.
type Witness struct {
	Bit  uint8
	Row  uint8
	Col  uint8
	Path []*big.Int
	Dir  []uint8
	Salt *big.Int
	Root *big.Int // salted
}

// SetLogOutput routes gnark's compile/setup/prove logging to w.
func SetLogOutput(w io.Writer) {
	gnarklog.Set(zerolog.New(w).With().Timestamp().Logger())
}

// DisableLog silences gnark.
func DisableLog() { gnarklog.Disable() }

// Prover holds the compiled shot circuit and its keys.
type Prover struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

// Setup compiles the circuit once and loads the keys from dir, generating
// and writing them when they are missing or unreadable.
func Setup(dir string) (*Prover, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var circuit ShotCircuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("compile shot circuit: %w", err)
	}

	vkPath := filepath.Join(dir, VKFile)
	pkPath := filepath.Join(dir, PKFile)
	if vk, pk, err := readKeys(vkPath, pkPath); err == nil {
		return &Prover{ccs: ccs, pk: pk, vk: vk}, nil
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup: %w", err)
	}
	if err := writeKey(vkPath, vk); err != nil {
		return nil, err
	}
	if err := writeKey(pkPath, pk); err != nil {
		return nil, err
	}
	return &Prover{ccs: ccs, pk: pk, vk: vk}, nil
}

// Prove one shot.
func (p *Prover) Prove(w Witness) ([]byte, ShotPublic, error) {
	if len(w.Path) != MerkleDepth || len(w.Dir) != MerkleDepth {
		return nil, ShotPublic{}, errors.New("bad path length")
	}
	if w.Salt == nil || w.Root == nil {
		return nil, ShotPublic{}, errors.New("missing salt or root")
	}

	var assign ShotCircuit
	assign.Bit = w.Bit
	assign.Salt = w.Salt
	for i := 0; i < MerkleDepth; i++ {
		assign.Path[i] = w.Path[i]
		assign.Dir[i] = w.Dir[i]
	}
	assign.Root = w.Root
	assign.Row = w.Row
	assign.Col = w.Col
	assign.Hit = w.Bit

	fullWit, err := frontend.NewWitness(&assign, ecc.BN254.ScalarField())
	if err != nil {
		return nil, ShotPublic{}, err
	}
	proof, err := groth16.Prove(p.ccs, p.pk, fullWit)
	if err != nil {
		return nil, ShotPublic{}, err
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, ShotPublic{}, err
	}
	pub := ShotPublic{Root: new(big.Int).Set(w.Root), Row: w.Row, Col: w.Col, Hit: w.Bit}
	return buf.Bytes(), pub, nil
}

func (p *Prover) VerifyingKey() groth16.VerifyingKey { return p.vk }

// VerifyingKeyBytes serialises the verifying key for sharing with a checker.
func (p *Prover) VerifyingKeyBytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.vk.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadVerifyingKey parses a key written by VerifyingKeyBytes or Setup.
func ReadVerifyingKey(r io.Reader) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(r); err != nil {
		return nil, err
	}
	return vk, nil
}

// Verify checks a shot proof against the root the verifier expects.
func Verify(vk groth16.VerifyingKey, proofBin []byte, pub ShotPublic, root *big.Int) error {
	if pub.Root == nil {
		return errors.New("proof payload missing public root")
	}
	if pub.Root.Cmp(root) != 0 {
		return errors.New("root mismatch: proof root != committed root")
	}
	if pub.Hit > 1 {
		return errors.New("invalid hit public output")
	}

	var pubAssign ShotCircuit
	pubAssign.Root = root
	pubAssign.Row = pub.Row
	pubAssign.Col = pub.Col
	pubAssign.Hit = pub.Hit

	pubWit, err := frontend.NewWitness(&pubAssign, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return err
	}
	pr := groth16.NewProof(ecc.BN254)
	if _, err := pr.ReadFrom(bytes.NewReader(proofBin)); err != nil {
		return err
	}
	if err := groth16.Verify(pr, vk, pubWit); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	return nil
}

// --- key IO helpers using io.WriterTo / io.ReaderFrom ---

func writeKey(path string, k io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = k.WriteTo(f)
	return err
}

func LoadVerifyingKey(path string) (groth16.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadVerifyingKey(f)
}

func readPK(path string) (groth16.ProvingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pk := groth16.NewProvingKey(ecc.BN254)
	_, err = pk.ReadFrom(f)
	return pk, err
}

func readKeys(vkPath, pkPath string) (groth16.VerifyingKey, groth16.ProvingKey, error) {
	vk, err := LoadVerifyingKey(vkPath)
	if err != nil {
		return nil, nil, err
	}
	pk, err := readPK(pkPath)
	if err != nil {
		return nil, nil, err
	}
	return vk, pk, nil
}
