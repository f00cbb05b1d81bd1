package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linkcraft/internal/ai"
	"linkcraft/internal/app"
	"linkcraft/internal/model"
	"linkcraft/internal/transport/http/response"
)

type RetrieveHandler struct {
	retrievalService *app.RetrievalService
	embeddingService *ai.EmbeddingService
}

func NewRetrieveHandler(retrievalService *app.RetrievalService, embeddingService *ai.EmbeddingService) *RetrieveHandler {
	return &RetrieveHandler{
		retrievalService: retrievalService,
		embeddingService: embeddingService,
	}
}

type RetrieveRequest struct {
	Topic     string `json:"topic" binding:"required"`
	Intent    string `json:"intent"`
	TopKUser  int    `json:"top_k_user"`
	TopKViral int    `json:"top_k_viral"`
	UseCache  *bool  `json:"use_cache"`
}

// Retrieve exposes the RAG retrieval stage on its own, mainly for
// debugging what grounding context a topic would pull in.
func (h *RetrieveHandler) Retrieve(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req RetrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	var intent model.Intent
	if req.Intent != "" {
		parsed, ok := model.ParseIntent(req.Intent)
		if !ok {
			writeAppError(c, app.NewValidationError(app.FieldError{Field: "intent", Reason: "must be a valid intent"}))
			return
		}
		intent = parsed
	}

	queryVec, err := h.embeddingService.Embed(c.Request.Context(), req.Topic)
	if err != nil {
		writeAppError(c, app.NewExternalServiceError("embedding", err))
		return
	}

	useCache := true
	if req.UseCache != nil {
		useCache = *req.UseCache
	}

	result := h.retrievalService.Retrieve(c.Request.Context(), app.RetrieveInput{
		UserID:         userID,
		Topic:          req.Topic,
		Intent:         intent,
		QueryEmbedding: queryVec,
		TopKUser:       req.TopKUser,
		TopKViral:      req.TopKViral,
		UseCache:       useCache,
	})

	response.OK(c, result)
}
