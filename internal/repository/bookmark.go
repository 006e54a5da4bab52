package repository

import (
	"context"
	"errors"
	"slices"
	"time"

	"linkvault/internal/models"
	"linkvault/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookmarkFilter narrows bookmark listings. Empty fields do not filter.
// Limit <= 0 returns every match.
type BookmarkFilter struct {
	Folder   string
	Tag      string
	Search   string
	Username string
	Limit    int
	Offset   int
}

// BookmarkRepository defines the interface for bookmark data operations
type BookmarkRepository interface {
	Create(ctx context.Context, bookmark *models.Bookmark, tags []string) error
	GetByID(ctx context.Context, id uint) (*models.Bookmark, error)
	Update(ctx context.Context, bookmark *models.Bookmark, fields map[string]any, tags *[]string) error
	TogglePublic(ctx context.Context, ownerID, id uint) (bool, error)
	Delete(ctx context.Context, ownerID, id uint) error
	ListByOwner(ctx context.Context, ownerID uint, filter BookmarkFilter) ([]*models.Bookmark, error)
	ListPublic(ctx context.Context, filter BookmarkFilter) ([]*models.Bookmark, error)
	ListFolders(ctx context.Context, ownerID uint) ([]models.FolderCount, error)
}

type bookmarkRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewBookmarkRepository creates a new bookmark repository
func NewBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{db: db, log: observability.NewRepoLogger("bookmarks")}
}

// Create inserts the bookmark and attaches tags in one transaction.
// tags must already be normalized and free of duplicates.
func (r *bookmarkRepository) Create(ctx context.Context, bookmark *models.Bookmark, tags []string) error {
	defer observability.TrackQuery("create", "bookmarks")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bookmark).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("Bookmark with this URL already exists")
			}
			return err
		}
		return attachTags(tx, bookmark.UserID, bookmark.ID, tags)
	})
	if err != nil {
		return r.wrap(ctx, err, "create")
	}

	bookmark.Tags = append([]string{}, tags...)
	slices.Sort(bookmark.Tags)
	r.log.LogCreate(ctx, map[string]any{"bookmark_id": bookmark.ID, "user_id": bookmark.UserID})
	return nil
}

func (r *bookmarkRepository) GetByID(ctx context.Context, id uint) (*models.Bookmark, error) {
	var bookmark models.Bookmark
	if err := r.db.WithContext(ctx).First(&bookmark, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Bookmark", id)
		}
		return nil, models.NewInternalError(err)
	}
	if err := loadTags(r.db.WithContext(ctx), []*models.Bookmark{&bookmark}); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &bookmark, nil
}

// Update applies fields to the bookmark and, when tags is non-nil, replaces
// its whole tag set. Both happen in one transaction so readers never observe
// a bookmark without its tags. The bookmark is reloaded afterwards.
func (r *bookmarkRepository) Update(ctx context.Context, bookmark *models.Bookmark, fields map[string]any, tags *[]string) error {
	defer observability.TrackQuery("update", "bookmarks")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			updates[k] = v
		}
		updates["updated_at"] = time.Now()

		if err := tx.Model(&models.Bookmark{}).
			Where("id = ? AND user_id = ?", bookmark.ID, bookmark.UserID).
			Updates(updates).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("Bookmark with this URL already exists")
			}
			return err
		}
		if tags == nil {
			return nil
		}
		if err := tx.Where("bookmark_id = ?", bookmark.ID).Delete(&models.BookmarkTag{}).Error; err != nil {
			return err
		}
		return attachTags(tx, bookmark.UserID, bookmark.ID, *tags)
	})
	if err != nil {
		return r.wrap(ctx, err, "update")
	}

	fresh, err := r.GetByID(ctx, bookmark.ID)
	if err != nil {
		return err
	}
	*bookmark = *fresh
	return nil
}

// TogglePublic flips is_public with a single UPDATE and returns the new value.
func (r *bookmarkRepository) TogglePublic(ctx context.Context, ownerID, id uint) (bool, error) {
	var isPublic bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Bookmark{}).
			Where("id = ? AND user_id = ?", id, ownerID).
			Updates(map[string]any{
				"is_public":  gorm.Expr("NOT is_public"),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Bookmark", id)
		}
		var current models.Bookmark
		if err := tx.Select("is_public").Take(&current, id).Error; err != nil {
			return err
		}
		isPublic = current.IsPublic
		return nil
	})
	if err != nil {
		return false, r.wrap(ctx, err, "toggle_public")
	}
	return isPublic, nil
}

// Delete removes the bookmark only when ownerID owns it. Missing and foreign
// bookmarks both report not found.
func (r *bookmarkRepository) Delete(ctx context.Context, ownerID, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Bookmark{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Bookmark", id)
		}
		return tx.Where("bookmark_id = ?", id).Delete(&models.BookmarkTag{}).Error
	})
	if err != nil {
		return r.wrap(ctx, err, "delete")
	}
	r.log.LogDelete(ctx, map[string]any{"bookmark_id": id, "user_id": ownerID})
	return nil
}

// ListByOwner returns the owner's bookmarks, newest first, with tags attached.
func (r *bookmarkRepository) ListByOwner(ctx context.Context, ownerID uint, filter BookmarkFilter) ([]*models.Bookmark, error) {
	defer observability.TrackQuery("list", "bookmarks")()

	q := r.db.WithContext(ctx).Model(&models.Bookmark{}).Where("bookmarks.user_id = ?", ownerID)
	if filter.Folder != "" {
		q = q.Where("bookmarks.folder = ?", filter.Folder)
	}
	return r.find(ctx, r.applyFilter(q, filter, false))
}

// ListPublic returns public bookmarks of every owner, newest first, each
// annotated with its owner's public profile fields.
func (r *bookmarkRepository) ListPublic(ctx context.Context, filter BookmarkFilter) ([]*models.Bookmark, error) {
	defer observability.TrackQuery("list_public", "bookmarks")()

	q := r.db.WithContext(ctx).Model(&models.Bookmark{}).
		Joins("JOIN users ON users.id = bookmarks.user_id").
		Where("bookmarks.is_public = ? AND users.is_active = ?", true, true)
	if filter.Username != "" {
		q = q.Where("users.username = ?", filter.Username)
	}
	bookmarks, err := r.find(ctx, r.applyFilter(q, filter, true))
	if err != nil {
		return nil, err
	}
	if err := r.attachOwners(ctx, bookmarks); err != nil {
		return nil, models.NewInternalError(err)
	}
	return bookmarks, nil
}

func (r *bookmarkRepository) ListFolders(ctx context.Context, ownerID uint) ([]models.FolderCount, error) {
	folders := []models.FolderCount{}
	err := r.db.WithContext(ctx).Model(&models.Bookmark{}).
		Select("folder, COUNT(*) AS count").
		Where("user_id = ?", ownerID).
		Group("folder").
		Order("folder ASC").
		Scan(&folders).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return folders, nil
}

// applyFilter adds tag, search, ordering and paging. withOwner means the
// query joins users, so search also matches the owner's username.
func (r *bookmarkRepository) applyFilter(q *gorm.DB, filter BookmarkFilter, withOwner bool) *gorm.DB {
	if filter.Tag != "" {
		q = q.Where(`EXISTS (SELECT 1 FROM bookmark_tags bt JOIN tags t ON t.id = bt.tag_id
			WHERE bt.bookmark_id = bookmarks.id AND t.name = ?)`, filter.Tag)
	}
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		cond := `LOWER(bookmarks.title) LIKE ? ESCAPE '\' OR LOWER(bookmarks.url) LIKE ? ESCAPE '\'
			OR LOWER(bookmarks.description) LIKE ? ESCAPE '\'`
		args := []any{pattern, pattern, pattern}
		if withOwner {
			cond += ` OR LOWER(users.username) LIKE ? ESCAPE '\'`
			args = append(args, pattern)
		}
		q = q.Where("("+cond+")", args...)
	}
	q = q.Order("bookmarks.created_at DESC").Order("bookmarks.id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}
	return q
}

func (r *bookmarkRepository) find(ctx context.Context, q *gorm.DB) ([]*models.Bookmark, error) {
	bookmarks := []*models.Bookmark{}
	if err := q.Select("bookmarks.*").Find(&bookmarks).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := loadTags(r.db.WithContext(ctx), bookmarks); err != nil {
		return nil, models.NewInternalError(err)
	}
	return bookmarks, nil
}

func (r *bookmarkRepository) attachOwners(ctx context.Context, bookmarks []*models.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(bookmarks))
	for _, b := range bookmarks {
		ids = append(ids, b.UserID)
	}

	var users []models.User
	if err := r.db.WithContext(ctx).
		Select("id, username, full_name, avatar_url").
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return err
	}

	owners := make(map[uint]*models.BookmarkOwner, len(users))
	for _, u := range users {
		owners[u.ID] = &models.BookmarkOwner{Username: u.Username, FullName: u.FullName, AvatarURL: u.AvatarURL}
	}
	for _, b := range bookmarks {
		b.Owner = owners[b.UserID]
	}
	return nil
}

func (r *bookmarkRepository) wrap(ctx context.Context, err error, operation string) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	r.log.LogError(ctx, err, operation)
	return models.NewInternalError(err)
}

// attachTags resolves each name to the owner's tag and links it to the bookmark.
func attachTags(tx *gorm.DB, ownerID, bookmarkID uint, names []string) error {
	for _, name := range names {
		tagID, err := resolveTag(tx, ownerID, name)
		if err != nil {
			return err
		}
		link := models.BookmarkTag{BookmarkID: bookmarkID, TagID: tagID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

// loadTags fills Tags on every bookmark with one query, names sorted.
func loadTags(db *gorm.DB, bookmarks []*models.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}
	byID := make(map[uint]*models.Bookmark, len(bookmarks))
	ids := make([]uint, 0, len(bookmarks))
	for _, b := range bookmarks {
		b.Tags = []string{}
		byID[b.ID] = b
		ids = append(ids, b.ID)
	}

	var rows []struct {
		BookmarkID uint
		Name       string
	}
	err := db.Table("bookmark_tags AS bt").
		Select("bt.bookmark_id, t.name").
		Joins("JOIN tags t ON t.id = bt.tag_id").
		Where("bt.bookmark_id IN ?", ids).
		Order("t.name ASC").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		if b, ok := byID[row.BookmarkID]; ok {
			b.Tags = append(b.Tags, row.Name)
		}
	}
	return nil
}
