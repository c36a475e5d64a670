package bot

import (
	"fmt"

	"flip/internal/domain"
)

// NewBrain creates a new AI brain for variant. script is the Lua source used
// by LevelScript.
func NewBrain(variant domain.Variant, level Level, script string) (Brain, error) {
	if level == LevelScript {
		if script == "" {
			return nil, fmt.Errorf("script bot needs a Lua script")
		}
		return NewLuaBrain(script)
	}
	switch variant {
	case domain.VariantDeduction:
		return NewDeductionBrain(level), nil
	case domain.VariantShedding:
		return NewSheddingBrain(level), nil
	}
	return nil, fmt.Errorf("unknown variant: %q", variant)
}

// NewAgent builds an agent whose backup is a plain easy brain.
func NewAgent(id string, variant domain.Variant, level Level, script string) (*Agent, error) {
	strategy, err := NewBrain(variant, level, script)
	if err != nil {
		return nil, err
	}
	backup, err := NewBrain(variant, LevelEasy, "")
	if err != nil {
		return nil, err
	}
	return &Agent{ID: id, Strategy: strategy, Backup: backup}, nil
}
