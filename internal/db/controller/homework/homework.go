// Package homework provides CRUD operations for homework assignments
// and the pending-homework snapshot used by the homework alert automation.
package homework

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/db/models"
)

var (
	// ErrHomeworkNotFound is returned when no homework matches the lookup.
	ErrHomeworkNotFound = errors.New("homework not found")
	// ErrEmailEmpty is returned when an operation has no client email.
	ErrEmailEmpty = errors.New("client email cannot be empty")
	// ErrTypeEmpty is returned when an operation has no homework type.
	ErrTypeEmpty = errors.New("homework type cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// PendingClient is one row of the homework alert eligibility snapshot.
type PendingClient struct {
	Email        string
	FullName     string
	HomeworkType string
	AssignedAt   time.Time
}

// Assign creates a homework row for a client, or returns the existing one
// if the same type is already assigned and unanswered.
func Assign(db *gorm.DB, clientEmail, homeworkType string, now time.Time) (*models.Homework, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if clientEmail == "" {
		return nil, ErrEmailEmpty
	}
	if homeworkType == "" {
		return nil, ErrTypeEmpty
	}

	var hw models.Homework
	result := db.Where("client_email = ? AND homework_type = ? AND submitted_at IS NULL", clientEmail, homeworkType).
		First(&hw)
	if result.Error == nil {
		return &hw, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	hw = models.Homework{
		ClientEmail:  clientEmail,
		HomeworkType: homeworkType,
		AssignedAt:   now,
	}

	if err := db.Create(&hw).Error; err != nil {
		return nil, err
	}

	return &hw, nil
}

// Submit stores the client's responses and stamps the submission time.
// Saving responses upserts: a submission without a prior assignment
// creates the row, matching how the client portal saves homework.
func Submit(db *gorm.DB, clientEmail, homeworkType string, responses []byte, now time.Time) (*models.Homework, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if clientEmail == "" {
		return nil, ErrEmailEmpty
	}
	if homeworkType == "" {
		return nil, ErrTypeEmpty
	}

	var hw models.Homework
	result := db.Where("client_email = ? AND homework_type = ?", clientEmail, homeworkType).
		Order("assigned_at DESC").
		First(&hw)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		hw = models.Homework{
			ClientEmail:  clientEmail,
			HomeworkType: homeworkType,
			AssignedAt:   now,
		}
	} else if result.Error != nil {
		return nil, result.Error
	}

	hw.Responses = responses
	hw.SubmittedAt = &now

	if err := db.Save(&hw).Error; err != nil {
		return nil, err
	}

	return &hw, nil
}

// Get retrieves the latest homework of a type for a client.
func Get(db *gorm.DB, clientEmail, homeworkType string) (*models.Homework, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if clientEmail == "" {
		return nil, ErrEmailEmpty
	}
	if homeworkType == "" {
		return nil, ErrTypeEmpty
	}

	var hw models.Homework
	result := db.Where("client_email = ? AND homework_type = ?", clientEmail, homeworkType).
		Order("assigned_at DESC").
		First(&hw)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrHomeworkNotFound
		}
		return nil, result.Error
	}

	return &hw, nil
}

// ListForClient retrieves all homework rows for a client, newest first.
func ListForClient(db *gorm.DB, clientEmail string) ([]models.Homework, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if clientEmail == "" {
		return nil, ErrEmailEmpty
	}

	var rows []models.Homework
	result := db.Where("client_email = ?", clientEmail).Order("assigned_at DESC").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// PendingClients returns clients holding homework assigned more than
// `days` days ago with no submission. This is the eligibility snapshot
// for the homework alert automation; one row per client and type.
func PendingClients(db *gorm.DB, days int, now time.Time) ([]PendingClient, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	var rows []PendingClient
	result := db.Model(&models.Homework{}).
		Select("homework.client_email AS email, users.full_name AS full_name, homework.homework_type AS homework_type, homework.assigned_at AS assigned_at").
		Joins("JOIN users ON users.email = homework.client_email").
		Where("users.admin = ? AND users.active = ?", false, true).
		Where("homework.submitted_at IS NULL AND homework.assigned_at < ?", cutoff).
		Order("homework.assigned_at ASC").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}
