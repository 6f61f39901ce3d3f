package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/bookmark"
)

type BookmarkHandler struct {
	toggleUC *bookmark.ToggleBookmarkUseCase
	listUC   *bookmark.ListMyBookmarksUseCase
}

func NewBookmarkHandler(toggleUC *bookmark.ToggleBookmarkUseCase, listUC *bookmark.ListMyBookmarksUseCase) *BookmarkHandler {
	return &BookmarkHandler{toggleUC: toggleUC, listUC: listUC}
}

// Toggle обрабатывает POST /api/gigs/:id/bookmark.
func (h *BookmarkHandler) Toggle(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	gigID, ok := parseUUIDParam(c, "id", "некорректный ID смены")
	if !ok {
		return
	}

	bookmarked, err := h.toggleUC.Execute(c.Request.Context(), userID, gigID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.BookmarkToggleResponse{GigID: gigID, Bookmarked: bookmarked})
}

func (h *BookmarkHandler) List(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.listUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBookmarkResponses(items))
}
