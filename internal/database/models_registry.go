package database

import "linkvault/internal/models"

// PersistentModels lists every GORM model backed by a table, in dependency order.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Tag{},
		&models.Bookmark{},
		&models.BookmarkTag{},
	}
}
