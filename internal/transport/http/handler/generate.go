package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"linkcraft/internal/app"
	"linkcraft/internal/repository"
	"linkcraft/internal/transport/http/response"
)

type GenerateHandler struct {
	generationService *app.GenerationService
	generationRepo    *repository.GenerationRepository
}

func NewGenerateHandler(generationService *app.GenerationService, generationRepo *repository.GenerationRepository) *GenerateHandler {
	return &GenerateHandler{
		generationService: generationService,
		generationRepo:    generationRepo,
	}
}

type GenerateRequest struct {
	Topic             string  `json:"topic" binding:"required"`
	Intent            string  `json:"intent" binding:"required"`
	AdditionalContext string  `json:"additional_context"`
	Temperature       float64 `json:"temperature"`
	TopKUser          int     `json:"top_k_user"`
	TopKViral         int     `json:"top_k_viral"`
}

type GenerateResponse struct {
	GenerationID      string   `json:"generation_id"`
	VariantA          string   `json:"variantA"`
	VariantB          string   `json:"variantB"`
	UserExamplesUsed  []string `json:"user_examples_used"`
	ViralExamplesUsed []string `json:"viral_examples_used"`
	CreatedAt         string   `json:"created_at"`
}

func (h *GenerateHandler) Generate(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.generationService.Generate(c.Request.Context(), app.GenerateInput{
		UserID:            userID,
		Topic:             req.Topic,
		Intent:            req.Intent,
		AdditionalContext: req.AdditionalContext,
		Temperature:       req.Temperature,
		TopKUser:          req.TopKUser,
		TopKViral:         req.TopKViral,
	})
	if err != nil {
		writeAppError(c, err)
		return
	}

	response.OK(c, GenerateResponse{
		GenerationID:      result.GenerationID,
		VariantA:          result.VariantA,
		VariantB:          result.VariantB,
		UserExamplesUsed:  formatIDs(result.UserExamplesUsed),
		ViralExamplesUsed: formatIDs(result.ViralExamplesUsed),
		CreatedAt:         result.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *GenerateHandler) ListGenerations(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit := 20
	if s := c.Query("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	records, err := h.generationRepo.ListByUserID(userID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeStorage, "list generations failed")
		return
	}
	response.OK(c, records)
}

func (h *GenerateHandler) GetGeneration(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	record, err := h.generationRepo.GetByIDAndUserID(c.Param("id"), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeStorage, "get generation failed")
		return
	}
	if record == nil {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "generation not found")
		return
	}
	response.OK(c, record)
}

func formatIDs(ids []uint) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatUint(uint64(id), 10)
	}
	return out
}
