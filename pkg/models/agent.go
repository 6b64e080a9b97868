package models

import "github.com/gravitas-games/freepath/pkg/hex"

// AgentView is the client-facing snapshot of a simulated agent.
type AgentView struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	Kind      string          `json:"kind"`
	State     string          `json:"state"`
	Pos       hex.Axial       `json:"pos"`
	Goal      *hex.Axial      `json:"goal,omitempty"`
	Remaining []hex.Direction `json:"remaining,omitempty"`
}
