package service

import (
	"context"

	"linkvault/internal/cache"
	"linkvault/internal/models"
	"linkvault/internal/repository"
	"linkvault/internal/validation"
)

const (
	defaultPopularLimit = 20
	maxPopularLimit     = 100
)

type TagService struct {
	tags repository.TagRepository
}

func NewTagService(tags repository.TagRepository) *TagService {
	return &TagService{tags: tags}
}

// List returns the owner's tags, most used first.
func (s *TagService) List(ctx context.Context, ownerID uint) ([]models.TagUsage, error) {
	return s.tags.ListWithUsage(ctx, ownerID)
}

func (s *TagService) Create(ctx context.Context, ownerID uint, rawName string) (*models.Tag, error) {
	name, err := validation.NormalizeTagName(rawName)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.tags.Create(ctx, ownerID, name)
}

// Delete removes the owner's tag and detaches it from their bookmarks.
func (s *TagService) Delete(ctx context.Context, ownerID, tagID uint) error {
	if err := s.tags.Delete(ctx, ownerID, tagID); err != nil {
		return err
	}
	cache.InvalidatePopularTags(ctx)
	return nil
}

// Popular ranks tag names by public bookmark count. Results are cached briefly.
func (s *TagService) Popular(ctx context.Context, limit int) ([]models.PopularTag, error) {
	if limit <= 0 {
		limit = defaultPopularLimit
	}
	if limit > maxPopularLimit {
		limit = maxPopularLimit
	}

	var tags []models.PopularTag
	err := cache.Aside(ctx, cache.PopularTagsKey(limit), &tags, cache.PopularTagsTTL, func() error {
		var err error
		tags, err = s.tags.Popular(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}
