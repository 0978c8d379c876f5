package game

// Shot records one fired shot and its outcome. Boards keep their own copies.
type Shot struct {
	Position Cell `json:"position"`
	IsHit    bool `json:"isHit"`
}

// ShotResult is what FireShot reports back to the caller.
// SunkShip is ShipUndefined unless this shot completed a ship.
type ShotResult struct {
	Shot     Shot     `json:"shot"`
	SunkShip ShipType `json:"sunkShip"`
	GameOver bool     `json:"isGameOver"`
}

func (r ShotResult) Sank() bool { return r.SunkShip != ShipUndefined }
