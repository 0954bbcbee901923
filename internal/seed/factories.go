// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"mangafas/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	// SkipBcrypt stores plaintext passwords; dev fast mode only.
	SkipBcrypt bool
	// DryRun builds entities without persisting them.
	DryRun bool
	// MaxDays spreads generated timestamps over this many days back.
	MaxDays int
	// BatchSize for bulk inserts.
	BatchSize int
}

var genrePool = []string{
	"action", "adventure", "comedy", "drama", "fantasy", "horror",
	"isekai", "mystery", "romance", "sci-fi", "slice of life", "sports",
	"supernatural", "thriller",
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts, nextID: 1000}
}

func (f *Factory) spreadTime(r *rand.Rand) time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := r.Intn(maxDays)
	hoursBack := r.Intn(24)
	minsBack := r.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Role:     models.RoleMember,
		Bio:      gofakeit.Sentence(10),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s (%s)", user.Username, user.Role)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateManga constructs and persists a catalog title credited to the given user.
func (f *Factory) CreateManga(creator *models.User, overrides ...func(*models.Manga)) (*models.Manga, error) {
	// #nosec G404: acceptable for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	genres := make([]string, 0, 3)
	for _, i := range r.Perm(len(genrePool))[:3] {
		genres = append(genres, genrePool[i])
	}
	rawGenres, _ := json.Marshal(genres)

	statuses := []models.MangaStatus{models.MangaStatusOngoing, models.MangaStatusCompleted, models.MangaStatusHiatus}
	types := []models.MangaType{models.MangaTypeManga, models.MangaTypeManhwa, models.MangaTypeManhua}

	manga := &models.Manga{
		Title:           gofakeit.BookTitle(),
		Description:     gofakeit.Paragraph(1, 3, 8, "\n"),
		CoverURL:        fmt.Sprintf("https://picsum.photos/seed/%s/400/600", gofakeit.UUID()),
		Author:          gofakeit.Name(),
		Artist:          gofakeit.Name(),
		Year:            gofakeit.Number(1990, 2026),
		Status:          statuses[r.Intn(len(statuses))],
		Type:            types[r.Intn(len(types))],
		Genres:          datatypes.JSON(rawGenres),
		Views:           int64(r.Intn(100000)),
		CreatedByUserID: creator.ID,
		CreatedAt:       f.spreadTime(r),
	}

	for _, override := range overrides {
		override(manga)
	}

	if f.opts.DryRun {
		f.nextID++
		manga.ID = f.nextID
		log.Printf("[dry-run] CreateManga: %q by %s", manga.Title, manga.Author)
		return manga, nil
	}

	if err := f.db.Create(manga).Error; err != nil {
		return nil, err
	}
	return manga, nil
}

// CreateChapter persists a chapter for the given title.
func (f *Factory) CreateChapter(manga *models.Manga, number float64, overrides ...func(*models.Chapter)) (*models.Chapter, error) {
	// #nosec G404: acceptable for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	pages := make([]string, 0, 18)
	for i := 0; i < 18; i++ {
		pages = append(pages, fmt.Sprintf("https://picsum.photos/seed/%s-%d/900/1350", gofakeit.UUID(), i))
	}
	rawPages, _ := json.Marshal(pages)

	chapter := &models.Chapter{
		MangaID:         manga.ID,
		Title:           gofakeit.Sentence(4),
		Number:          number,
		Pages:           datatypes.JSON(rawPages),
		PublishedAt:     f.spreadTime(r),
		CreatedByUserID: manga.CreatedByUserID,
	}

	for _, override := range overrides {
		override(chapter)
	}

	if f.opts.DryRun {
		f.nextID++
		chapter.ID = f.nextID
		return chapter, nil
	}

	if err := f.db.Create(chapter).Error; err != nil {
		return nil, err
	}
	return chapter, nil
}

// CreateComment persists a comment from `user` on `manga`.
func (f *Factory) CreateComment(user *models.User, manga *models.Manga, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		MangaID: manga.ID,
		UserID:  user.ID,
		Content: gofakeit.Sentence(12),
		Status:  models.CommentStatusActive,
	}

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateReaction persists a like or dislike from `user` on `comment`.
func (f *Factory) CreateReaction(user *models.User, comment *models.Comment, kind models.ReactionKind) error {
	if f.opts.DryRun {
		return nil
	}
	reaction := &models.CommentReaction{
		CommentID: comment.ID,
		UserID:    user.ID,
		Kind:      kind,
	}
	return f.db.Create(reaction).Error
}

// CreateFavorite puts `manga` on `user`'s shelf.
func (f *Factory) CreateFavorite(user *models.User, manga *models.Manga) error {
	if f.opts.DryRun {
		return nil
	}
	fav := &models.Favorite{
		UserID:  user.ID,
		MangaID: manga.ID,
		AddedAt: time.Now(),
	}
	return f.db.Create(fav).Error
}

// CreateSuspension persists an active suspension issued by `issuer` on `user`.
func (f *Factory) CreateSuspension(issuer, user *models.User, kind models.SuspensionKind, duration models.SuspensionDuration, overrides ...func(*models.Suspension)) (*models.Suspension, error) {
	suspension := &models.Suspension{
		UserID:         user.ID,
		IssuedByUserID: issuer.ID,
		Kind:           kind,
		Duration:       duration,
		Reason:         gofakeit.Sentence(6),
		IssuedAt:       time.Now(),
		Active:         true,
	}
	if duration == models.SuspensionTemporary {
		expires := time.Now().Add(72 * time.Hour)
		suspension.ExpiresAt = &expires
	}

	for _, override := range overrides {
		override(suspension)
	}

	if f.opts.DryRun {
		f.nextID++
		suspension.ID = f.nextID
		return suspension, nil
	}

	if err := f.db.Create(suspension).Error; err != nil {
		return nil, err
	}
	return suspension, nil
}

// CreatePendingContent queues a title submission from `submitter` for review.
func (f *Factory) CreatePendingContent(submitter *models.User, overrides ...func(*models.PendingContent)) (*models.PendingContent, error) {
	payload := models.MangaPayload{
		Title:       gofakeit.BookTitle(),
		Description: gofakeit.Paragraph(1, 2, 6, "\n"),
		Author:      gofakeit.Name(),
		Year:        gofakeit.Number(2000, 2026),
		Genres:      []string{genrePool[gofakeit.Number(0, len(genrePool)-1)]},
	}
	raw, _ := json.Marshal(payload)

	pc := &models.PendingContent{
		Kind:              models.ContentKindTitle,
		Payload:           datatypes.JSON(raw),
		SubmittedByUserID: submitter.ID,
		SubmittedAt:       time.Now(),
		Status:            models.PendingContentStatusPending,
	}

	for _, override := range overrides {
		override(pc)
	}

	if f.opts.DryRun {
		f.nextID++
		pc.ID = f.nextID
		return pc, nil
	}

	if err := f.db.Create(pc).Error; err != nil {
		return nil, err
	}
	return pc, nil
}
