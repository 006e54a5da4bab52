// Package seed populates a database with demo users, tags and bookmarks.
// It is intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"linkvault/internal/models"
	"linkvault/internal/observability"
	"linkvault/internal/repository"
	"linkvault/internal/service"
	"linkvault/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "LinkVault#2024"

var (
	folders = []string{models.DefaultFolder, "Reading", "Work", "Recipes", "Tools", "Inspiration"}
	tagPool = []string{
		"go", "databases", "design", "devops", "docs", "frontend", "linux",
		"music", "news", "productivity", "security", "tutorial", "video", "web",
	}
)

// Options configures a seeding run.
type Options struct {
	NumUsers         int
	BookmarksPerUser int
	ShouldClean      bool
	// Seed makes a run reproducible; zero picks a random one.
	Seed int64
	// BcryptCost defaults to bcrypt.DefaultCost when out of range.
	BcryptCost int
}

// Seeder writes demo data through the regular repositories so that tag
// normalization and ownership rules apply exactly as they do for API traffic.
type Seeder struct {
	db        *gorm.DB
	users     repository.UserRepository
	bookmarks repository.BookmarkRepository
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:        db,
		users:     repository.NewUserRepository(db),
		bookmarks: repository.NewBookmarkRepository(db),
	}
}

// ClearAll removes every user. Bookmarks, tags and their links go with them
// through the foreign key cascades.
func (s *Seeder) ClearAll(ctx context.Context) error {
	for _, table := range []string{"bookmark_tags", "bookmarks", "tags", "users"} {
		if err := s.db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	observability.GlobalLogger.InfoContext(ctx, "database cleared")
	return nil
}

// Run creates opts.NumUsers users with opts.BookmarksPerUser bookmarks each.
func (s *Seeder) Run(ctx context.Context, opts Options) ([]*models.User, error) {
	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	faker := gofakeit.New(opts.Seed)
	creds := service.NewCredentialService(opts.BcryptCost)
	digest, err := creds.Hash(DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := range opts.NumUsers {
		user := fakeUser(faker, i, digest)
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user %s: %w", user.Username, err)
		}
		users = append(users, user)

		for j := range opts.BookmarksPerUser {
			bookmark, tags := fakeBookmark(faker, user.ID, j)
			if err := s.bookmarks.Create(ctx, bookmark, tags); err != nil {
				return nil, fmt.Errorf("create bookmark for %s: %w", user.Username, err)
			}
		}
	}

	observability.GlobalLogger.InfoContext(ctx, "seeding complete",
		slog.Int("users", len(users)),
		slog.Int("bookmarks", len(users)*opts.BookmarksPerUser),
	)
	return users, nil
}

func fakeUser(f *gofakeit.Faker, n int, digest string) *models.User {
	first := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, strings.ToLower(f.FirstName()))
	if first == "" {
		first = "user"
	}
	username := fmt.Sprintf("%s%d", first, n+1)
	fullName := f.Name()
	avatar := fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username)
	return &models.User{
		Username:     username,
		Email:        username + "@linkvault.dev",
		PasswordHash: digest,
		FullName:     &fullName,
		AvatarURL:    &avatar,
		IsActive:     true,
	}
}

func fakeBookmark(f *gofakeit.Faker, ownerID uint, n int) (*models.Bookmark, []string) {
	domain := f.DomainName()
	picked := make([]string, f.Number(0, 3))
	for i := range picked {
		picked[i] = f.RandomString(tagPool)
	}
	// Duplicates collapse here the same way they do for API input.
	tags, _ := validation.NormalizeTagNames(picked)

	return &models.Bookmark{
		UserID:      ownerID,
		URL:         fmt.Sprintf("https://%s/%s-%d", domain, strings.ToLower(f.Word()), n),
		Title:       strings.TrimSuffix(f.Sentence(5), "."),
		Description: f.Sentence(14),
		Favicon:     fmt.Sprintf("https://%s/favicon.ico", domain),
		Folder:      f.RandomString(folders),
		IsPublic:    f.Bool(),
	}, tags
}
