package db

import (
	"gorm.io/gorm"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/domain/videos"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&videos.Transcript{},
	)
}
