package server

import (
	"fmt"

	"battleship-leap/internal/app"
	"battleship-leap/internal/game"
)

// EventMsg is the JSON form of an app.Event.
//
//	{"type":"frame","cursor":{"row":1,"col":4},"grabbing":true,"orientation":"vertical"}
//	{"type":"speech","transcript":"fire"}
type EventMsg struct {
	Type        string           `json:"type"`
	Cursor      *game.Cell       `json:"cursor,omitempty"`
	Grabbing    bool             `json:"grabbing,omitempty"`
	Orientation game.Orientation `json:"orientation"`
	Transcript  string           `json:"transcript,omitempty"`
}

func (m EventMsg) Event() (app.Event, error) {
	switch m.Type {
	case "frame":
		if m.Cursor != nil && !m.Cursor.InBounds() {
			// tracking past the edge is the same as pointing at nothing
			return app.Frame{Grabbing: m.Grabbing, Orientation: m.Orientation}, nil
		}
		return app.Frame{Cursor: m.Cursor, Grabbing: m.Grabbing, Orientation: m.Orientation}, nil
	case "speech":
		return app.Speech{Transcript: m.Transcript}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", m.Type)
	}
}

// EffectMsg wraps an app.Effect with its type name.
type EffectMsg struct {
	Type   string     `json:"type"`
	Effect app.Effect `json:"effect,omitempty"`
}

func effectType(e app.Effect) string {
	switch e.(type) {
	case app.Speak:
		return "speak"
	case app.BlinkTile:
		return "blinkTile"
	case app.ClearBlink:
		return "clearBlink"
	case app.ShipGrabbed:
		return "shipGrabbed"
	case app.ShipPlaced:
		return "shipPlaced"
	case app.PlacementRejected:
		return "placementRejected"
	case app.ShotResolved:
		return "shotResolved"
	case app.ShotRejected:
		return "shotRejected"
	case app.PhaseChanged:
		return "phaseChanged"
	case app.ShotProven:
		return "shotProven"
	default:
		return fmt.Sprintf("%T", e)
	}
}

func wrapEffects(fx []app.Effect) []EffectMsg {
	out := make([]EffectMsg, 0, len(fx))
	for _, e := range fx {
		out = append(out, EffectMsg{Type: effectType(e), Effect: e})
	}
	return out
}

// socketMsg is what a websocket client receives: either effects or an error
// for the event it sent.
type socketMsg struct {
	Effects []EffectMsg `json:"effects,omitempty"`
	Error   string      `json:"error,omitempty"`
}
