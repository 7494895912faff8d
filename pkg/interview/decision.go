package interview

import (
	"fmt"
	"strings"
)

// Decision is the next action chosen after an evaluated turn.
type Decision string

const (
	DecisionAskFollowUp        Decision = "ASK_FOLLOWUP"
	DecisionNextTopic          Decision = "NEXT_TOPIC"
	DecisionIncreaseDifficulty Decision = "INCREASE_DIFFICULTY"
	DecisionEndInterview       Decision = "END_INTERVIEW"
)

// ParseDecision rejects anything outside the four known actions.
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToUpper(strings.TrimSpace(s))) {
	case DecisionAskFollowUp:
		return DecisionAskFollowUp, nil
	case DecisionNextTopic:
		return DecisionNextTopic, nil
	case DecisionIncreaseDifficulty:
		return DecisionIncreaseDifficulty, nil
	case DecisionEndInterview:
		return DecisionEndInterview, nil
	default:
		return "", fmt.Errorf("%w: unknown decision %q", ErrDecisionSchema, s)
	}
}

// Status is the lifecycle of a session. It only moves ongoing -> ended.
type Status string

const (
	StatusOngoing Status = "ongoing"
	StatusEnded   Status = "ended"
)

// Difficulty is the level requested from the question oracle.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts easy, medium or hard.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Harder returns the next level up, saturating at hard.
func (d Difficulty) Harder() Difficulty {
	switch d {
	case DifficultyEasy:
		return DifficultyMedium
	case DifficultyMedium, DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyEasy
	}
}

// Simpler returns the next level down, saturating at easy.
func (d Difficulty) Simpler() Difficulty {
	switch d {
	case DifficultyHard:
		return DifficultyMedium
	case DifficultyMedium, DifficultyEasy:
		return DifficultyEasy
	default:
		return DifficultyEasy
	}
}
