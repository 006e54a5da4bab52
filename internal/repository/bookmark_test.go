package repository

import (
	"context"
	"testing"
	"time"

	"linkvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type bookmarkFixture struct {
	db    *gorm.DB
	repo  BookmarkRepository
	alice *models.User
	bob   *models.User
}

func newBookmarkFixture(t *testing.T) *bookmarkFixture {
	db := newTestDB(t)
	return &bookmarkFixture{
		db:    db,
		repo:  NewBookmarkRepository(db),
		alice: createUser(t, db, "alice"),
		bob:   createUser(t, db, "bob"),
	}
}

func (f *bookmarkFixture) create(t *testing.T, owner *models.User, url, title string, tags ...string) *models.Bookmark {
	t.Helper()
	b := &models.Bookmark{UserID: owner.ID, URL: url, Title: title, Folder: models.DefaultFolder}
	require.NoError(t, f.repo.Create(context.Background(), b, tags))
	// Keep created_at strictly increasing so ordering assertions are stable.
	time.Sleep(2 * time.Millisecond)
	return b
}

func TestBookmarkRepository_CreateAttachesTags(t *testing.T) {
	f := newBookmarkFixture(t)
	b := f.create(t, f.alice, "https://go.dev", "Go", "lang", "docs")

	assert.NotZero(t, b.ID)
	assert.Equal(t, []string{"docs", "lang"}, b.Tags)
	assert.False(t, b.IsPublic)

	got, err := f.repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs", "lang"}, got.Tags)
	assert.Equal(t, models.DefaultFolder, got.Folder)
}

func TestBookmarkRepository_DuplicateURLIsScopedPerOwner(t *testing.T) {
	f := newBookmarkFixture(t)
	ctx := context.Background()
	f.create(t, f.alice, "https://go.dev", "Go")

	err := f.repo.Create(ctx, &models.Bookmark{UserID: f.alice.ID, URL: "https://go.dev", Title: "Again"}, []string{"x"})
	assertAppError(t, err, models.CodeConflict)

	require.NoError(t, f.repo.Create(ctx, &models.Bookmark{UserID: f.bob.ID, URL: "https://go.dev", Title: "Bob's"}, nil))

	var tagCount int64
	require.NoError(t, f.db.Model(&models.Tag{}).Where("user_id = ?", f.alice.ID).Count(&tagCount).Error)
	assert.Equal(t, int64(0), tagCount, "failed create must not leave tags behind")
}

func TestBookmarkRepository_GetByIDMissing(t *testing.T) {
	f := newBookmarkFixture(t)
	_, err := f.repo.GetByID(context.Background(), 404)
	assertAppError(t, err, models.CodeNotFound)
}

func TestBookmarkRepository_ListByOwnerFilters(t *testing.T) {
	f := newBookmarkFixture(t)
	ctx := context.Background()

	goDev := f.create(t, f.alice, "https://go.dev", "The Go Programming Language", "lang")
	rust := f.create(t, f.alice, "https://rust-lang.org", "Rust", "lang", "systems")
	pct := f.create(t, f.alice, "https://example.com/100%25", "100% coverage")
	f.create(t, f.bob, "https://go.dev/blog", "Go Blog", "lang")

	require.NoError(t, f.repo.Update(ctx, rust, map[string]any{"folder": "Work"}, nil))

	all, err := f.repo.ListByOwner(ctx, f.alice.ID, BookmarkFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{pct.ID, rust.ID, goDev.ID}, ids(all))

	byTag, err := f.repo.ListByOwner(ctx, f.alice.ID, BookmarkFilter{Tag: "lang"})
	require.NoError(t, err)
	assert.Equal(t, []uint{rust.ID, goDev.ID}, ids(byTag))

	byFolder, err := f.repo.ListByOwner(ctx, f.alice.ID, BookmarkFilter{Folder: "Work", Tag: "lang"})
	require.NoError(t, err)
	assert.Equal(t, []uint{rust.ID}, ids(byFolder))

	bySearch, err := f.repo.ListByOwner(ctx, f.alice.ID, BookmarkFilter{Search: "PROGRAMMING"})
	require.NoError(t, err)
	assert.Equal(t, []uint{goDev.ID}, ids(bySearch))

	byURL, err := f.repo.ListByOwner(ctx, f.alice.ID, BookmarkFilter{Search: "rust-lang"})
	require.NoError(t, err)
	assert.Equal(t, []uint{rust.ID}, ids(byURL))

	literal, err := f.repo.ListByOwner(ctx, f.alice.ID, BookmarkFilter{Search: "0%"})
	require.NoError(t, err)
	assert.Equal(t, []uint{pct.ID}, ids(literal))

	bobs, err := f.repo.ListByOwner(ctx, f.bob.ID, BookmarkFilter{Tag: "lang"})
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, f.bob.ID, bobs[0].UserID)
}

func TestBookmarkRepository_UpdateReplacesTagsAtomically(t *testing.T) {
	f := newBookmarkFixture(t)
	ctx := context.Background()
	b := f.create(t, f.alice, "https://go.dev", "Go", "a", "b")

	require.NoError(t, f.repo.Update(ctx, b, map[string]any{"title": "Go!"}, nil))
	assert.Equal(t, "Go!", b.Title)
	assert.Equal(t, []string{"a", "b"}, b.Tags)

	next := []string{"b", "c"}
	require.NoError(t, f.repo.Update(ctx, b, nil, &next))
	assert.Equal(t, "Go!", b.Title)
	assert.Equal(t, []string{"b", "c"}, b.Tags)

	empty := []string{}
	require.NoError(t, f.repo.Update(ctx, b, nil, &empty))
	assert.Empty(t, b.Tags)

	var links int64
	require.NoError(t, f.db.Model(&models.BookmarkTag{}).Where("bookmark_id = ?", b.ID).Count(&links).Error)
	assert.Equal(t, int64(0), links)
}

func TestBookmarkRepository_TogglePublic(t *testing.T) {
	f := newBookmarkFixture(t)
	ctx := context.Background()
	b := f.create(t, f.alice, "https://go.dev", "Go")

	on, err := f.repo.TogglePublic(ctx, f.alice.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, on)

	off, err := f.repo.TogglePublic(ctx, f.alice.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, off)

	_, err = f.repo.TogglePublic(ctx, f.bob.ID, b.ID)
	assertAppError(t, err, models.CodeNotFound)
}

func TestBookmarkRepository_DeleteIsOwnerScoped(t *testing.T) {
	f := newBookmarkFixture(t)
	ctx := context.Background()
	b := f.create(t, f.alice, "https://go.dev", "Go", "lang")

	assertAppError(t, f.repo.Delete(ctx, f.bob.ID, b.ID), models.CodeNotFound)
	assertAppError(t, f.repo.Delete(ctx, f.alice.ID, 999), models.CodeNotFound)

	require.NoError(t, f.repo.Delete(ctx, f.alice.ID, b.ID))
	_, err := f.repo.GetByID(ctx, b.ID)
	assertAppError(t, err, models.CodeNotFound)

	var links int64
	require.NoError(t, f.db.Model(&models.BookmarkTag{}).Count(&links).Error)
	assert.Equal(t, int64(0), links)
}

func TestBookmarkRepository_ListPublic(t *testing.T) {
	f := newBookmarkFixture(t)
	ctx := context.Background()

	private := f.create(t, f.alice, "https://private.example", "Private")
	first := f.create(t, f.alice, "https://one.example", "One", "go")
	second := f.create(t, f.bob, "https://two.example", "Two", "go")
	for _, b := range []*models.Bookmark{first, second} {
		_, err := f.repo.TogglePublic(ctx, b.UserID, b.ID)
		require.NoError(t, err)
	}

	all, err := f.repo.ListPublic(ctx, BookmarkFilter{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID, first.ID}, ids(all))
	require.NotNil(t, all[0].Owner)
	assert.Equal(t, "bob", all[0].Owner.Username)
	assert.NotContains(t, ids(all), private.ID)

	page, err := f.repo.ListPublic(ctx, BookmarkFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID}, ids(page))

	byOwnerName, err := f.repo.ListPublic(ctx, BookmarkFilter{Search: "BOB", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID}, ids(byOwnerName))

	byUser, err := f.repo.ListPublic(ctx, BookmarkFilter{Username: "alice", Tag: "go", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID}, ids(byUser))
	assert.Equal(t, []string{"go"}, byUser[0].Tags)
}

func TestBookmarkRepository_ListFolders(t *testing.T) {
	f := newBookmarkFixture(t)
	ctx := context.Background()
	f.create(t, f.alice, "https://a.example", "A")
	b := f.create(t, f.alice, "https://b.example", "B")
	f.create(t, f.bob, "https://c.example", "C")
	require.NoError(t, f.repo.Update(ctx, b, map[string]any{"folder": "Articles"}, nil))

	folders, err := f.repo.ListFolders(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.FolderCount{
		{Folder: "Articles", Count: 1},
		{Folder: models.DefaultFolder, Count: 1},
	}, folders)
}

func ids(bookmarks []*models.Bookmark) []uint {
	out := make([]uint, 0, len(bookmarks))
	for _, b := range bookmarks {
		out = append(out, b.ID)
	}
	return out
}
