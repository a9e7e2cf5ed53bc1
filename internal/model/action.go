package model

import "strings"

// Action is the administrative operation applied to each resolved user
type Action string

const (
	// ActionLock blocks sign-in for the account without removing it
	ActionLock Action = "lock"
	// ActionDelete removes the account permanently
	ActionDelete Action = "delete"
)

// ParseAction validates an action name from flag or environment input.
// Input is trimmed and lowercased; the second return is false for
// anything other than lock or delete.
func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionLock, ActionDelete:
		return a, true
	default:
		return "", false
	}
}

// Valid reports whether the action is one of the supported operations
func (a Action) Valid() bool {
	return a == ActionLock || a == ActionDelete
}
