package game

import "errors"

var (
	ErrInvalidPlacement = errors.New("invalid placement")
	ErrPlacementFailed  = errors.New("failed to place ships")
	ErrFleetLocked      = errors.New("fleet is locked")
	ErrIncompleteFleet  = errors.New("fleet is incomplete")
	ErrUnknownShip      = errors.New("unknown ship type")
	ErrDuplicateShot    = errors.New("cell already targeted")
	ErrOutOfBounds      = errors.New("cell out of bounds")
)
