package models

import "time"

// Homework holds one homework assignment and the client's responses.
// AssignedAt is set when the coach creates the row; SubmittedAt stays
// nil until the client saves responses.
type Homework struct {
	ID           uint64     `gorm:"primaryKey"`
	ClientEmail  string     `gorm:"size:255;not null;index"`
	HomeworkType string     `gorm:"size:100;not null"`
	Responses    []byte     `gorm:"type:blob"`
	AssignedAt   time.Time  `gorm:"index"`
	SubmittedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides GORM's default pluralized table naming.
func (Homework) TableName() string {
	return "homework"
}
