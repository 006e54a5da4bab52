package service

import (
	"context"
	"net/url"
	"strings"

	"linkvault/internal/cache"
	"linkvault/internal/featureflags"
	"linkvault/internal/metadata"
	"linkvault/internal/models"
	"linkvault/internal/observability"
	"linkvault/internal/repository"
	"linkvault/internal/validation"
)

const (
	defaultPublicLimit = 50
	maxPublicLimit     = 100
)

// MetadataFetcher supplies title, description and favicon for a URL and
// never fails.
type MetadataFetcher interface {
	Fetch(ctx context.Context, rawURL string) metadata.Result
}

type BookmarkService struct {
	bookmarks repository.BookmarkRepository
	users     repository.UserRepository
	fetcher   MetadataFetcher
	flags     *featureflags.Manager
}

type CreateBookmarkInput struct {
	URL         string   `json:"url" validate:"required,http_url,max=2048"`
	Title       *string  `json:"title" validate:"omitempty,min=1,max=500"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Favicon     *string  `json:"favicon" validate:"omitempty,url,max=2048"`
	Folder      *string  `json:"folder" validate:"omitempty,max=100"`
	IsPublic    *bool    `json:"is_public"`
	Tags        []string `json:"tags" validate:"omitempty,max=50,dive,max=50"`
}

// UpdateBookmarkInput holds the fields to change; nil leaves a field alone.
// A non-nil Tags replaces the whole tag set, an empty list clears it.
type UpdateBookmarkInput struct {
	URL         *string   `json:"url" validate:"omitempty,http_url,max=2048"`
	Title       *string   `json:"title" validate:"omitempty,min=1,max=500"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Folder      *string   `json:"folder" validate:"omitempty,max=100"`
	IsPublic    *bool     `json:"is_public"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=50,dive,max=50"`
}

type ListBookmarksInput struct {
	Folder string
	Tag    string
	Search string
}

type PublicBookmarksInput struct {
	Tag    string
	Search string
	Limit  int
	Offset int
}

func NewBookmarkService(
	bookmarks repository.BookmarkRepository,
	users repository.UserRepository,
	fetcher MetadataFetcher,
	flags *featureflags.Manager,
) *BookmarkService {
	if fetcher == nil {
		fetcher = metadata.Static{}
	}
	return &BookmarkService{
		bookmarks: bookmarks,
		users:     users,
		fetcher:   fetcher,
		flags:     flags,
	}
}

// Create stores a new bookmark for ownerID. Missing title, description or
// favicon are filled from the page; a failed fetch never fails creation.
func (s *BookmarkService) Create(ctx context.Context, ownerID uint, in CreateBookmarkInput) (*models.Bookmark, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	rawURL := strings.TrimSpace(in.URL)
	if err := checkWebURL(rawURL); err != nil {
		return nil, err
	}
	tags, err := validation.NormalizeTagNames(in.Tags)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	b := &models.Bookmark{
		UserID: ownerID,
		URL:    rawURL,
		Folder: models.DefaultFolder,
	}
	if in.Title != nil {
		if title := validation.NormalizeText(*in.Title); title != "" {
			b.Title = title
		} else {
			in.Title = nil
		}
	}
	if in.Description != nil {
		b.Description = strings.TrimSpace(*in.Description)
	}
	if in.Favicon != nil {
		b.Favicon = strings.TrimSpace(*in.Favicon)
	}
	if in.Folder != nil {
		if folder := validation.NormalizeText(*in.Folder); folder != "" {
			b.Folder = folder
		}
	}
	if in.IsPublic != nil {
		b.IsPublic = *in.IsPublic
	}

	if in.Title == nil || in.Description == nil || in.Favicon == nil {
		meta := s.fetchMetadata(ctx, ownerID, rawURL)
		if in.Title == nil {
			b.Title = meta.Title
		}
		if in.Description == nil {
			b.Description = meta.Description
		}
		if in.Favicon == nil {
			b.Favicon = meta.Favicon
		}
	}

	if err := s.bookmarks.Create(ctx, b, tags); err != nil {
		return nil, err
	}

	observability.BookmarksCreated.Inc()
	if b.IsPublic {
		s.invalidatePublic(ctx, ownerID)
	}
	return b, nil
}

func (s *BookmarkService) fetchMetadata(ctx context.Context, ownerID uint, rawURL string) metadata.Result {
	if !s.flags.EnabledOr(featureflags.MetadataFetch, ownerID, true) {
		return metadata.Static{}.Fetch(ctx, rawURL)
	}
	return s.fetcher.Fetch(ctx, rawURL)
}

// Update changes only the supplied fields. Ownership is checked before any write.
func (s *BookmarkService) Update(ctx context.Context, ownerID, bookmarkID uint, in UpdateBookmarkInput) (*models.Bookmark, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	b, err := s.owned(ctx, ownerID, bookmarkID)
	if err != nil {
		return nil, err
	}
	wasPublic := b.IsPublic

	fields := map[string]any{}
	if in.URL != nil {
		rawURL := strings.TrimSpace(*in.URL)
		if err := checkWebURL(rawURL); err != nil {
			return nil, err
		}
		fields["url"] = rawURL
	}
	if in.Title != nil {
		title := validation.NormalizeText(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("title must not be blank")
		}
		fields["title"] = title
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Folder != nil {
		folder := validation.NormalizeText(*in.Folder)
		if folder == "" {
			folder = models.DefaultFolder
		}
		fields["folder"] = folder
	}
	if in.IsPublic != nil {
		fields["is_public"] = *in.IsPublic
	}

	var tags *[]string
	if in.Tags != nil {
		names, err := validation.NormalizeTagNames(*in.Tags)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		tags = &names
	}

	if err := s.bookmarks.Update(ctx, b, fields, tags); err != nil {
		return nil, err
	}
	if wasPublic || b.IsPublic {
		s.invalidatePublic(ctx, ownerID)
	}
	return b, nil
}

// Delete removes the bookmark. Missing and foreign bookmarks are both not found.
func (s *BookmarkService) Delete(ctx context.Context, ownerID, bookmarkID uint) error {
	if err := s.bookmarks.Delete(ctx, ownerID, bookmarkID); err != nil {
		return err
	}
	s.invalidatePublic(ctx, ownerID)
	return nil
}

// TogglePrivacy flips is_public and returns the new value.
func (s *BookmarkService) TogglePrivacy(ctx context.Context, ownerID, bookmarkID uint) (bool, error) {
	if _, err := s.owned(ctx, ownerID, bookmarkID); err != nil {
		return false, err
	}
	isPublic, err := s.bookmarks.TogglePublic(ctx, ownerID, bookmarkID)
	if err != nil {
		return false, err
	}
	s.invalidatePublic(ctx, ownerID)
	return isPublic, nil
}

// List returns the owner's bookmarks with their tags, newest first.
func (s *BookmarkService) List(ctx context.Context, ownerID uint, in ListBookmarksInput) ([]*models.Bookmark, error) {
	filter := repository.BookmarkFilter{
		Folder: validation.NormalizeText(in.Folder),
		Search: strings.TrimSpace(in.Search),
	}
	if in.Tag != "" {
		tag, err := validation.NormalizeTagName(in.Tag)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		filter.Tag = tag
	}
	return s.bookmarks.ListByOwner(ctx, ownerID, filter)
}

// Get returns a bookmark visible to requester: public ones to anyone,
// private ones only to their owner. A nil requester is anonymous.
func (s *BookmarkService) Get(ctx context.Context, requester *models.Identity, bookmarkID uint) (*models.Bookmark, error) {
	b, err := s.bookmarks.GetByID(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}
	if b.IsPublic || (requester != nil && requester.UserID == b.UserID) {
		return b, nil
	}
	return nil, models.NewForbiddenError("Access denied to private bookmark")
}

// ListPublic returns public bookmarks of all users with owner details.
func (s *BookmarkService) ListPublic(ctx context.Context, in PublicBookmarksInput) ([]*models.Bookmark, error) {
	if !s.flags.EnabledOr(featureflags.PublicFeed, 0, true) {
		return nil, models.NewForbiddenError("Public feed is disabled")
	}
	filter, err := publicFilter(in)
	if err != nil {
		return nil, err
	}
	return s.bookmarks.ListPublic(ctx, filter)
}

// ListPublicByUsername returns one user's public bookmarks.
func (s *BookmarkService) ListPublicByUsername(ctx context.Context, username string, in PublicBookmarksInput) ([]*models.Bookmark, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, models.NewNotFoundError("User", username)
	}
	filter, err := publicFilter(in)
	if err != nil {
		return nil, err
	}
	filter.Username = user.Username
	return s.bookmarks.ListPublic(ctx, filter)
}

func (s *BookmarkService) ListFolders(ctx context.Context, ownerID uint) ([]models.FolderCount, error) {
	return s.bookmarks.ListFolders(ctx, ownerID)
}

// owned loads a bookmark and checks it belongs to ownerID.
func (s *BookmarkService) owned(ctx context.Context, ownerID, bookmarkID uint) (*models.Bookmark, error) {
	b, err := s.bookmarks.GetByID(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}
	if b.UserID != ownerID {
		return nil, models.NewForbiddenError("You do not own this bookmark")
	}
	return b, nil
}

// invalidatePublic drops cached views that count or list public bookmarks.
func (s *BookmarkService) invalidatePublic(ctx context.Context, ownerID uint) {
	cache.InvalidatePopularTags(ctx)
	if s.users == nil {
		return
	}
	if u, err := s.users.GetByID(ctx, ownerID); err == nil {
		cache.InvalidatePublicProfile(ctx, u.Username)
	}
}

func publicFilter(in PublicBookmarksInput) (repository.BookmarkFilter, error) {
	filter := repository.BookmarkFilter{
		Search: strings.TrimSpace(in.Search),
		Limit:  in.Limit,
		Offset: in.Offset,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPublicLimit
	}
	if filter.Limit > maxPublicLimit {
		filter.Limit = maxPublicLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if in.Tag != "" {
		tag, err := validation.NormalizeTagName(in.Tag)
		if err != nil {
			return filter, models.NewValidationError(err.Error())
		}
		filter.Tag = tag
	}
	return filter, nil
}

// checkWebURL accepts absolute http and https URLs only.
func checkWebURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return models.NewValidationError("Invalid URL format")
	}
	return nil
}
