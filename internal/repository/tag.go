package repository

import (
	"context"
	"errors"

	"linkvault/internal/models"
	"linkvault/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository defines persistence operations for owner-scoped tags.
type TagRepository interface {
	Resolve(ctx context.Context, ownerID uint, name string) (uint, error)
	Create(ctx context.Context, ownerID uint, name string) (*models.Tag, error)
	Delete(ctx context.Context, ownerID, tagID uint) error
	ListWithUsage(ctx context.Context, ownerID uint) ([]models.TagUsage, error)
	Popular(ctx context.Context, limit int) ([]models.PopularTag, error)
}

type tagRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db, log: observability.NewRepoLogger("tags")}
}

// Resolve returns the id of the owner's tag with the given normalized name,
// creating it on first use.
func (r *tagRepository) Resolve(ctx context.Context, ownerID uint, name string) (uint, error) {
	defer observability.TrackQuery("resolve", "tags")()

	id, err := resolveTag(r.db.WithContext(ctx), ownerID, name)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return id, nil
}

// resolveTag inserts the tag unless (user_id, name) already exists, then
// reads the id back. The unique index settles concurrent callers; a losing
// insert is a no-op rather than an error.
func resolveTag(db *gorm.DB, ownerID uint, name string) (uint, error) {
	tag := models.Tag{UserID: ownerID, Name: name}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoNothing: true,
	}).Create(&tag)
	if res.Error != nil && !isUniqueConstraintError(res.Error) {
		return 0, res.Error
	}
	if res.Error == nil && res.RowsAffected > 0 && tag.ID != 0 {
		return tag.ID, nil
	}

	var existing models.Tag
	if err := db.Select("id").
		Where("user_id = ? AND name = ?", ownerID, name).
		Take(&existing).Error; err != nil {
		return 0, err
	}
	return existing.ID, nil
}

func (r *tagRepository) Create(ctx context.Context, ownerID uint, name string) (*models.Tag, error) {
	tag := &models.Tag{UserID: ownerID, Name: name}
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.NewConflictError("Tag already exists")
		}
		r.log.LogError(ctx, err, "create")
		return nil, models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"tag_id": tag.ID, "user_id": ownerID})
	return tag, nil
}

// Delete removes the owner's tag and detaches it from every bookmark.
// A tag owned by someone else is reported as not found.
func (r *tagRepository) Delete(ctx context.Context, ownerID, tagID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", tagID, ownerID).Delete(&models.Tag{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Tag", tagID)
		}
		return tx.Where("tag_id = ?", tagID).Delete(&models.BookmarkTag{}).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]any{"tag_id": tagID, "user_id": ownerID})
	return nil
}

// ListWithUsage returns the owner's tags with usage counts, most used first.
func (r *tagRepository) ListWithUsage(ctx context.Context, ownerID uint) ([]models.TagUsage, error) {
	tags := []models.TagUsage{}
	err := r.db.WithContext(ctx).
		Table("tags AS t").
		Select("t.id, t.name, t.created_at, COUNT(bt.bookmark_id) AS usage_count").
		Joins("LEFT JOIN bookmark_tags bt ON bt.tag_id = t.id").
		Where("t.user_id = ?", ownerID).
		Group("t.id, t.name, t.created_at").
		Order("usage_count DESC, t.name ASC").
		Scan(&tags).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

// Popular ranks tag names by how many public bookmarks carry them, across all owners.
func (r *tagRepository) Popular(ctx context.Context, limit int) ([]models.PopularTag, error) {
	defer observability.TrackQuery("popular", "tags")()

	tags := []models.PopularTag{}
	err := r.db.WithContext(ctx).
		Table("tags AS t").
		Select("t.name, COUNT(DISTINCT b.id) AS usage_count").
		Joins("JOIN bookmark_tags bt ON bt.tag_id = t.id").
		Joins("JOIN bookmarks b ON b.id = bt.bookmark_id").
		Where("b.is_public = ?", true).
		Group("t.name").
		Order("usage_count DESC, t.name ASC").
		Limit(limit).
		Scan(&tags).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}
