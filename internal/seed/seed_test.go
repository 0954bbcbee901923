package seed

import (
	"testing"

	"mangafas/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSeedDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Suspension{},
		&models.Manga{},
		&models.Chapter{},
		&models.PendingContent{},
		&models.Comment{},
		&models.CommentReaction{},
		&models.Report{},
		&models.Notification{},
		&models.Favorite{},
		&models.ReadingHistoryEntry{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSeeder_FullRun(t *testing.T) {
	db := openSeedDB(t)
	seeder := NewSeeder(db, Options{SkipBcrypt: true, MaxDays: 30})

	users, err := seeder.SeedCommunity(20)
	if err != nil {
		t.Fatalf("seed community: %v", err)
	}
	if len(users) != 20 {
		t.Fatalf("expected 20 users, got %d", len(users))
	}
	if users[0].Role != models.RoleOwner {
		t.Fatalf("first account should be the owner, got %s", users[0].Role)
	}

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if userCount != 20 {
		t.Fatalf("expected 20 persisted users, got %d", userCount)
	}

	mangas, err := seeder.SeedCatalog(users, 3)
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	if len(mangas) != 3 {
		t.Fatalf("expected 3 titles, got %d", len(mangas))
	}

	var chapterCount int64
	if err := db.Model(&models.Chapter{}).Count(&chapterCount).Error; err != nil {
		t.Fatalf("count chapters: %v", err)
	}
	if chapterCount < int64(len(mangas)) {
		t.Fatalf("every title needs at least one chapter, got %d chapters", chapterCount)
	}

	if err := seeder.SeedEngagement(users, mangas, 20); err != nil {
		t.Fatalf("seed engagement: %v", err)
	}

	var commentCount int64
	if err := db.Model(&models.Comment{}).Count(&commentCount).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if commentCount != 20 {
		t.Fatalf("expected 20 comments, got %d", commentCount)
	}

	// Replies must stay on the same title as their parent.
	rows, err := db.Raw(`
		SELECT c.id
		FROM comments c
		JOIN comments p ON p.id = c.parent_id
		WHERE c.manga_id != p.manga_id
	`).Rows()
	if err != nil {
		t.Fatalf("cross-title reply check query failed: %v", err)
	}
	defer func() { _ = rows.Close() }()
	if rows.Next() {
		t.Fatal("found a reply attached to a parent on a different title")
	}

	if err := seeder.SeedModerationBacklog(users); err != nil {
		t.Fatalf("seed moderation backlog: %v", err)
	}

	var pendingCount int64
	if err := db.Model(&models.PendingContent{}).
		Where("status = ?", models.PendingContentStatusPending).
		Count(&pendingCount).Error; err != nil {
		t.Fatalf("count pending submissions: %v", err)
	}
	if pendingCount == 0 {
		t.Fatal("expected a moderation backlog of pending submissions")
	}

	var siteSuspensions, commentSuspensions int64
	if err := db.Model(&models.Suspension{}).
		Where("kind = ? AND active = ?", models.SuspensionKindSite, true).
		Count(&siteSuspensions).Error; err != nil {
		t.Fatalf("count site suspensions: %v", err)
	}
	if err := db.Model(&models.Suspension{}).
		Where("kind = ? AND active = ?", models.SuspensionKindComment, true).
		Count(&commentSuspensions).Error; err != nil {
		t.Fatalf("count comment suspensions: %v", err)
	}
	if siteSuspensions != 1 || commentSuspensions != 1 {
		t.Fatalf("expected one site and one comment suspension, got %d and %d",
			siteSuspensions, commentSuspensions)
	}
}

func TestSeeder_CatalogNeedsContributors(t *testing.T) {
	db := openSeedDB(t)
	seeder := NewSeeder(db, Options{SkipBcrypt: true})

	member, err := seeder.factory.CreateUser(func(u *models.User) {
		u.Role = models.RoleMember
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	_, err = seeder.SeedCatalog([]models.User{*member}, 1)
	if err == nil {
		t.Fatal("expected an error when no account can be credited with uploads")
	}
}
