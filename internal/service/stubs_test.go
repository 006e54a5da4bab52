package service

import (
	"context"
	"sync"
	"time"

	"linkvault/internal/metadata"
	"linkvault/internal/models"
	"linkvault/internal/repository"
)

// bookmarkRepoStub is a stub for repository.BookmarkRepository.
type bookmarkRepoStub struct {
	createFn       func(context.Context, *models.Bookmark, []string) error
	getByIDFn      func(context.Context, uint) (*models.Bookmark, error)
	updateFn       func(context.Context, *models.Bookmark, map[string]any, *[]string) error
	togglePublicFn func(context.Context, uint, uint) (bool, error)
	deleteFn       func(context.Context, uint, uint) error
	listByOwnerFn  func(context.Context, uint, repository.BookmarkFilter) ([]*models.Bookmark, error)
	listPublicFn   func(context.Context, repository.BookmarkFilter) ([]*models.Bookmark, error)
	listFoldersFn  func(context.Context, uint) ([]models.FolderCount, error)
}

func (s *bookmarkRepoStub) Create(ctx context.Context, b *models.Bookmark, tags []string) error {
	return s.createFn(ctx, b, tags)
}
func (s *bookmarkRepoStub) GetByID(ctx context.Context, id uint) (*models.Bookmark, error) {
	return s.getByIDFn(ctx, id)
}
func (s *bookmarkRepoStub) Update(ctx context.Context, b *models.Bookmark, fields map[string]any, tags *[]string) error {
	return s.updateFn(ctx, b, fields, tags)
}
func (s *bookmarkRepoStub) TogglePublic(ctx context.Context, ownerID, id uint) (bool, error) {
	return s.togglePublicFn(ctx, ownerID, id)
}
func (s *bookmarkRepoStub) Delete(ctx context.Context, ownerID, id uint) error {
	return s.deleteFn(ctx, ownerID, id)
}
func (s *bookmarkRepoStub) ListByOwner(ctx context.Context, ownerID uint, filter repository.BookmarkFilter) ([]*models.Bookmark, error) {
	return s.listByOwnerFn(ctx, ownerID, filter)
}
func (s *bookmarkRepoStub) ListPublic(ctx context.Context, filter repository.BookmarkFilter) ([]*models.Bookmark, error) {
	return s.listPublicFn(ctx, filter)
}
func (s *bookmarkRepoStub) ListFolders(ctx context.Context, ownerID uint) ([]models.FolderCount, error) {
	return s.listFoldersFn(ctx, ownerID)
}

func noopBookmarkRepo() *bookmarkRepoStub {
	return &bookmarkRepoStub{
		createFn: func(_ context.Context, b *models.Bookmark, tags []string) error {
			b.ID = 1
			b.Tags = tags
			return nil
		},
		getByIDFn:      func(_ context.Context, id uint) (*models.Bookmark, error) { return nil, models.NewNotFoundError("Bookmark", id) },
		updateFn:       func(_ context.Context, _ *models.Bookmark, _ map[string]any, _ *[]string) error { return nil },
		togglePublicFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		deleteFn:       func(_ context.Context, _, _ uint) error { return nil },
		listByOwnerFn: func(_ context.Context, _ uint, _ repository.BookmarkFilter) ([]*models.Bookmark, error) {
			return nil, nil
		},
		listPublicFn: func(_ context.Context, _ repository.BookmarkFilter) ([]*models.Bookmark, error) {
			return nil, nil
		},
		listFoldersFn: func(_ context.Context, _ uint) ([]models.FolderCount, error) { return nil, nil },
	}
}

// fetcherStub records the URLs it is asked for.
type fetcherStub struct {
	mu     sync.Mutex
	result metadata.Result
	urls   []string
}

func (f *fetcherStub) Fetch(_ context.Context, rawURL string) metadata.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, rawURL)
	return f.result
}

func (f *fetcherStub) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.urls)
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(context.Context, string) (*models.User, error) { return nil, nil }
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) ExistsByUsernameOrEmail(context.Context, string, string) (bool, error) {
	return false, nil
}
func (s *userRepoStub) Create(context.Context, *models.User) error { return nil }
func (s *userRepoStub) UpdateProfile(context.Context, uint, *string, *string) error {
	return nil
}
func (s *userRepoStub) UpdatePassword(context.Context, uint, string) error { return nil }
func (s *userRepoStub) TouchLastLogin(context.Context, uint, time.Time) error {
	return nil
}
func (s *userRepoStub) Delete(context.Context, uint) error { return nil }
func (s *userRepoStub) CountBookmarks(context.Context, uint) (int64, int64, error) {
	return 0, 0, nil
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user", IsActive: true}, nil
		},
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
	}
}
