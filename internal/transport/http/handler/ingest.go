package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linkcraft/internal/app"
	"linkcraft/internal/transport/http/response"
)

type IngestHandler struct {
	ingestService *app.IngestService
}

func NewIngestHandler(ingestService *app.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

type UserPostPayload struct {
	Content  string `json:"content"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
	Shares   int    `json:"shares"`
	Views    int    `json:"views"`
}

type IngestUserPostsRequest struct {
	Posts []UserPostPayload `json:"posts" binding:"required"`
}

type ViralPostPayload struct {
	Content   string   `json:"content"`
	Topics    []string `json:"topics"`
	Intent    string   `json:"intent"`
	Likes     int      `json:"likes"`
	Comments  int      `json:"comments"`
	Shares    int      `json:"shares"`
	Views     int      `json:"views"`
	SourceURL string   `json:"source_url"`
}

type IngestViralPostsRequest struct {
	Posts []ViralPostPayload `json:"posts" binding:"required"`
}

func (h *IngestHandler) IngestUserPosts(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req IngestUserPostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	items := make([]app.UserPostItem, len(req.Posts))
	for i, p := range req.Posts {
		items[i] = app.UserPostItem{
			Content:  p.Content,
			Likes:    p.Likes,
			Comments: p.Comments,
			Shares:   p.Shares,
			Views:    p.Views,
		}
	}

	result, err := h.ingestService.IngestUserPosts(c.Request.Context(), userID, items)
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Created(c, result)
}

func (h *IngestHandler) IngestViralPosts(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req IngestViralPostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	items := make([]app.ViralPostItem, len(req.Posts))
	for i, p := range req.Posts {
		items[i] = app.ViralPostItem{
			Content:   p.Content,
			Topics:    p.Topics,
			Intent:    p.Intent,
			Likes:     p.Likes,
			Comments:  p.Comments,
			Shares:    p.Shares,
			Views:     p.Views,
			SourceURL: p.SourceURL,
		}
	}

	result, err := h.ingestService.IngestViralPosts(c.Request.Context(), userID, items)
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Created(c, result)
}
