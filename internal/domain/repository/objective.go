package repository

// Objective selects what the price optimizer maximizes.
type Objective string

const (
	ObjectiveRevenue   Objective = "maximize_revenue"
	ObjectiveOccupancy Objective = "maximize_occupancy"
	ObjectiveBalanced  Objective = "balanced"
)

// IsValidObjective returns true if o is a supported objective.
func IsValidObjective(o Objective) bool {
	switch o {
	case ObjectiveRevenue, ObjectiveOccupancy, ObjectiveBalanced:
		return true
	default:
		return false
	}
}

// DefaultObjective returns the default optimizer objective.
func DefaultObjective() Objective { return ObjectiveBalanced }

// NormalizeObjective converts a raw string to a valid objective (or default).
func NormalizeObjective(s string) Objective {
	if s == "" {
		return DefaultObjective()
	}
	o := Objective(s)
	if IsValidObjective(o) {
		return o
	}
	return DefaultObjective()
}
