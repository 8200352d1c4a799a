package models

import (
	"gorm.io/gorm"
)

// AssignmentRecord is a single user's result for an assignment.
// Check means the work was submitted, Pass means it was accepted.
type AssignmentRecord struct {
	gorm.Model

	UserID     string `gorm:"uniqueIndex:idx_assignment_user"`
	Assignment string `gorm:"uniqueIndex:idx_assignment_user"`

	Check    bool
	Pass     bool
	Defended bool
}

const (
	AssignmentStatusPassed  = "passed"
	AssignmentStatusLacking = "lacking"
	AssignmentStatusMissing = "missing"
)

type AssignmentStatus = string

func (r *AssignmentRecord) Status() AssignmentStatus {
	switch {
	case !r.Check:
		return AssignmentStatusMissing
	case !r.Pass:
		return AssignmentStatusLacking
	default:
		return AssignmentStatusPassed
	}
}
