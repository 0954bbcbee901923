package seed

import (
	"encoding/json"
	"testing"
	"time"

	"mangafas/internal/models"
)

func TestFactory_CreateUser_DryRun(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, SkipBcrypt: true})

	user, err := f.CreateUser()
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected synthetic ID in dry-run mode")
	}
	if user.Role != models.RoleMember {
		t.Fatalf("expected default member role, got %s", user.Role)
	}
	if user.Password != "password123" {
		t.Fatalf("SkipBcrypt should store the plaintext dev password")
	}

	leader, err := f.CreateUser(func(u *models.User) {
		u.Role = models.RoleGroupLeader
	})
	if err != nil {
		t.Fatalf("CreateUser with override: %v", err)
	}
	if leader.Role != models.RoleGroupLeader {
		t.Fatalf("override not applied, got %s", leader.Role)
	}
	if leader.ID == user.ID {
		t.Fatalf("synthetic IDs must be unique")
	}
}

func TestFactory_CreateManga_DryRun(t *testing.T) {
	opts := Options{DryRun: true, MaxDays: 30}
	f := NewFactory(nil, opts)
	creator := &models.User{ID: 7}

	manga, err := f.CreateManga(creator)
	if err != nil {
		t.Fatalf("CreateManga: %v", err)
	}
	if manga.CreatedByUserID != 7 {
		t.Fatalf("manga not credited to creator, got %d", manga.CreatedByUserID)
	}

	var genres []string
	if err := json.Unmarshal(manga.Genres, &genres); err != nil {
		t.Fatalf("genres are not valid JSON: %v", err)
	}
	if len(genres) != 3 {
		t.Fatalf("expected 3 genres, got %d", len(genres))
	}

	// timestamp should be within MaxDays
	if time.Since(manga.CreatedAt) > (time.Duration(opts.MaxDays)+1)*24*time.Hour {
		t.Fatalf("created_at too old: %v", manga.CreatedAt)
	}
}

func TestFactory_CreateChapter_DryRun(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true})
	manga := &models.Manga{ID: 3, CreatedByUserID: 7}

	chapter, err := f.CreateChapter(manga, 12.5)
	if err != nil {
		t.Fatalf("CreateChapter: %v", err)
	}
	if chapter.MangaID != 3 {
		t.Fatalf("chapter not bound to its manga, got %d", chapter.MangaID)
	}
	if chapter.Number != 12.5 {
		t.Fatalf("chapter number not preserved, got %v", chapter.Number)
	}

	var pages []string
	if err := json.Unmarshal(chapter.Pages, &pages); err != nil {
		t.Fatalf("pages are not valid JSON: %v", err)
	}
	if len(pages) == 0 {
		t.Fatalf("expected generated page URLs")
	}
}

func TestFactory_CreateSuspension_DryRun(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true})
	issuer := &models.User{ID: 1}
	target := &models.User{ID: 2}

	temp, err := f.CreateSuspension(issuer, target, models.SuspensionKindComment, models.SuspensionTemporary)
	if err != nil {
		t.Fatalf("CreateSuspension: %v", err)
	}
	if temp.ExpiresAt == nil {
		t.Fatalf("temporary suspension needs an expiry")
	}
	if !temp.Active {
		t.Fatalf("seeded suspensions start active")
	}

	perm, err := f.CreateSuspension(issuer, target, models.SuspensionKindSite, models.SuspensionPermanent)
	if err != nil {
		t.Fatalf("CreateSuspension: %v", err)
	}
	if perm.ExpiresAt != nil {
		t.Fatalf("permanent suspension must not carry an expiry")
	}
}

func TestFactory_CreatePendingContent_DryRun(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true})
	submitter := &models.User{ID: 4}

	pc, err := f.CreatePendingContent(submitter)
	if err != nil {
		t.Fatalf("CreatePendingContent: %v", err)
	}
	if pc.Status != models.PendingContentStatusPending {
		t.Fatalf("expected pending status, got %s", pc.Status)
	}
	if pc.SubmittedByUserID != 4 {
		t.Fatalf("submission not credited to submitter")
	}

	var payload models.MangaPayload
	if err := json.Unmarshal(pc.Payload, &payload); err != nil {
		t.Fatalf("payload is not a valid manga payload: %v", err)
	}
	if payload.Title == "" {
		t.Fatalf("generated payload needs a title")
	}
}
