package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"mangafas/internal/models"

	"gorm.io/gorm"
)

// Seeder orchestrates factories to build a coherent demo community: users
// across every role, a catalog with chapters, engagement on top of it, and a
// moderation backlog for staff accounts to work through.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts ...Options) *Seeder {
	o := Options{}
	if len(opts) > 0 {
		o = opts[0]
	}
	return &Seeder{db: db, factory: NewFactory(db, o)}
}

// ClearAll truncates every seeded table.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE comment_reactions, comments, reports, notifications,
		reading_history, favorites, chapters, pending_contents, mangas,
		suspensions, users RESTART IDENTITY CASCADE;`
	return s.db.Exec(sql).Error
}

// SeedCommunity creates count users spread across the role ladder. The first
// few accounts are deterministic so the demo login credentials stay stable.
func (s *Seeder) SeedCommunity(count int) ([]models.User, error) {
	users := make([]models.User, 0, count)

	staff := []struct {
		username string
		role     models.Role
	}{
		{"owner", models.RoleOwner},
		{"mod", models.RoleModerator},
		{"leader", models.RoleGroupLeader},
		{"senior", models.RoleSeniorContributor},
		{"apprentice", models.RoleApprenticeContributor},
	}
	for _, st := range staff {
		st := st
		user, err := s.factory.CreateUser(func(u *models.User) {
			u.Username = st.username
			u.Email = fmt.Sprintf("%s@example.com", st.username)
			u.Role = st.role
			u.Bio = "Part of the founding crew."
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", st.username, err)
		}
		users = append(users, *user)
	}

	// #nosec G404: acceptable for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := len(users); i < count; i++ {
		role := models.RoleMember
		switch {
		case r.Float32() < 0.05:
			role = models.RoleSeniorContributor
		case r.Float32() < 0.15:
			role = models.RoleApprenticeContributor
		}
		user, err := s.factory.CreateUser(func(u *models.User) { u.Role = role })
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, *user)

		if i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}

	return users, nil
}

// SeedCatalog creates numManga titles with chapters, credited to the
// contributor accounts among users.
func (s *Seeder) SeedCatalog(users []models.User, numManga int) ([]models.Manga, error) {
	contributors := make([]models.User, 0)
	for _, u := range users {
		if u.Permissions().CanUpload {
			contributors = append(contributors, u)
		}
	}
	if len(contributors) == 0 {
		return nil, fmt.Errorf("no contributor accounts to credit the catalog to")
	}

	// #nosec G404: acceptable for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	mangas := make([]models.Manga, 0, numManga)
	for i := 0; i < numManga; i++ {
		creator := contributors[r.Intn(len(contributors))]
		manga, err := s.factory.CreateManga(&creator)
		if err != nil {
			return nil, err
		}

		chapters := r.Intn(40) + 1
		for n := 1; n <= chapters; n++ {
			if _, err := s.factory.CreateChapter(manga, float64(n)); err != nil {
				return nil, err
			}
		}
		mangas = append(mangas, *manga)

		if i%25 == 0 {
			log.Printf("Created %d titles...", i)
		}
	}

	return mangas, nil
}

// SeedEngagement spreads comments, reactions and favorites across the catalog.
func (s *Seeder) SeedEngagement(users []models.User, mangas []models.Manga, numComments int) error {
	if len(users) == 0 || len(mangas) == 0 {
		return fmt.Errorf("need users and titles before seeding engagement")
	}

	// #nosec G404: acceptable for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	comments := make([]*models.Comment, 0, numComments)
	for i := 0; i < numComments; i++ {
		user := users[r.Intn(len(users))]
		manga := mangas[r.Intn(len(mangas))]

		comment, err := s.factory.CreateComment(&user, &manga, func(c *models.Comment) {
			// A third of comments are replies to an earlier one on the
			// same title.
			if len(comments) > 0 && r.Float32() < 0.33 {
				parent := comments[r.Intn(len(comments))]
				if parent.MangaID == manga.ID && parent.ParentID == nil {
					c.ParentID = &parent.ID
				}
			}
		})
		if err != nil {
			return err
		}
		comments = append(comments, comment)

		// Reactions from a few other readers.
		for j := 0; j < r.Intn(5); j++ {
			reactor := users[r.Intn(len(users))]
			if reactor.ID == user.ID {
				continue
			}
			kind := models.ReactionLike
			if r.Float32() < 0.25 {
				kind = models.ReactionDislike
			}
			_ = s.factory.CreateReaction(&reactor, comment, kind)
		}
	}

	// Favorites: each user shelves a handful of titles.
	for _, u := range users {
		for _, i := range r.Perm(len(mangas))[:minInt(r.Intn(6), len(mangas))] {
			_ = s.factory.CreateFavorite(&u, &mangas[i])
		}
	}

	log.Printf("✓ %d comments with reactions and favorites created", len(comments))
	return nil
}

// SeedModerationBacklog gives staff accounts something to review: pending
// submissions and a few active suspensions.
func (s *Seeder) SeedModerationBacklog(users []models.User) error {
	var issuer *models.User
	apprentices := make([]models.User, 0)
	members := make([]models.User, 0)
	for i := range users {
		switch {
		case users[i].Permissions().CanAdminister && issuer == nil:
			issuer = &users[i]
		case models.UploadRequiresApproval(users[i].Role):
			apprentices = append(apprentices, users[i])
		case users[i].Role == models.RoleMember:
			members = append(members, users[i])
		}
	}
	if issuer == nil {
		return fmt.Errorf("no administrator account to issue suspensions")
	}

	for i := range apprentices {
		if i >= 5 {
			break
		}
		if _, err := s.factory.CreatePendingContent(&apprentices[i]); err != nil {
			return err
		}
	}

	if len(members) >= 2 {
		if _, err := s.factory.CreateSuspension(issuer, &members[0],
			models.SuspensionKindComment, models.SuspensionTemporary); err != nil {
			return err
		}
		if _, err := s.factory.CreateSuspension(issuer, &members[1],
			models.SuspensionKindSite, models.SuspensionPermanent); err != nil {
			return err
		}
	}

	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
