package daemon

import (
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/config"
	"github.com/sparkcoach/sparkcoach/internal/db/models"
)

func seed(cfg *config.Config, db *gorm.DB) {
	// Seed the coach account if the user table is empty. The password
	// must be changed on first login.

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count == 0 {
		db.Create(
			&models.User{
				Email:              cfg.Mail.FromAddress,
				FullName:           "Coach",
				Password:           models.HashPassword("changeme"),
				Active:             true,
				Admin:              true,
				MustChangePassword: true,
			},
		)
	}
}
