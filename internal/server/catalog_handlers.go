// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"mangafas/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMangaList returns a page of the catalog, most recently updated first (public)
// @Summary List manga
// @Tags catalog
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Manga
// @Router /manga [get]
func (s *Server) GetMangaList(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 20)

	items, err := s.catalogService.ListManga(ctx, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(items)
}

// SearchManga finds titles by name or author fragment (public)
// @Summary Search manga
// @Tags catalog
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {array} models.Manga
// @Router /manga/search [get]
func (s *Server) SearchManga(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 20)

	items, err := s.catalogService.SearchManga(ctx, c.Query("q"), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(items)
}

// GetManga returns one title and counts the view (public)
// @Summary Get a manga
// @Tags catalog
// @Produce json
// @Param id path int true "Manga ID"
// @Success 200 {object} models.Manga
// @Failure 404 {object} object{error=string}
// @Router /manga/{id} [get]
func (s *Server) GetManga(c *fiber.Ctx) error {
	ctx := c.UserContext()

	mangaID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	manga, err := s.catalogService.GetManga(ctx, mangaID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(manga)
}

// GetChapters returns a title's chapters in reading order (public)
// @Summary List chapters
// @Tags catalog
// @Produce json
// @Param id path int true "Manga ID"
// @Success 200 {array} models.Chapter
// @Router /manga/{id}/chapters [get]
func (s *Server) GetChapters(c *fiber.Ctx) error {
	ctx := c.UserContext()

	mangaID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	chapters, err := s.catalogService.ListChapters(ctx, mangaID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(chapters)
}

// GetChapter returns one chapter with its title preloaded (public)
// @Summary Get a chapter
// @Tags catalog
// @Produce json
// @Param id path int true "Chapter ID"
// @Success 200 {object} models.Chapter
// @Failure 404 {object} object{error=string}
// @Router /chapters/{id} [get]
func (s *Server) GetChapter(c *fiber.Ctx) error {
	ctx := c.UserContext()

	chapterID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	chapter, err := s.catalogService.GetChapter(ctx, chapterID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(chapter)
}

// AddFavorite puts a title on the caller's favorites shelf (protected)
// @Summary Favorite a manga
// @Tags catalog
// @Produce json
// @Param id path int true "Manga ID"
// @Success 201 {object} object{message=string}
// @Failure 409 {object} object{error=string}
// @Router /manga/{id}/favorite [post]
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	mangaID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.catalogService.AddFavorite(ctx, userID, mangaID); err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Added to favorites"})
}

// RemoveFavorite takes a title off the caller's shelf (protected)
// @Summary Unfavorite a manga
// @Tags catalog
// @Produce json
// @Param id path int true "Manga ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /manga/{id}/favorite [delete]
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	mangaID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.catalogService.RemoveFavorite(ctx, userID, mangaID); err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "Removed from favorites"})
}

// GetMyFavorites returns the caller's shelf, most recently added first (protected)
// @Summary List own favorites
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Favorite
// @Router /users/me/favorites [get]
func (s *Server) GetMyFavorites(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	favorites, err := s.catalogService.ListFavorites(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(favorites)
}

// RecordChapterRead logs a chapter read into the caller's history (protected)
// @Summary Record a chapter read
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path int true "Chapter ID"
// @Param request body object{progress=int} false "Read progress percent"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /chapters/{id}/read [post]
func (s *Server) RecordChapterRead(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	chapterID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Progress int `json:"progress"`
	}
	// An empty body means the chapter was read to the end.
	_ = c.BodyParser(&req)

	if err := s.catalogService.RecordRead(ctx, userID, chapterID, req.Progress); err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "Read recorded"})
}

// GetMyHistory returns the caller's reading history, newest first (protected)
// @Summary List own reading history
// @Tags catalog
// @Produce json
// @Success 200 {array} models.ReadingHistoryEntry
// @Router /users/me/history [get]
func (s *Server) GetMyHistory(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, 50)

	history, err := s.catalogService.ListHistory(ctx, userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(history)
}
