package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"linkcraft/internal/ai"
	"linkcraft/internal/model"
)

const (
	minTopicLength     = 3
	generationCredits  = 1
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)

// Embedder produces the query embedding for a generation request.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChatCompleter calls the generation model.
type ChatCompleter interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
}

// Retriever supplies grounding context for the prompt.
type Retriever interface {
	Retrieve(ctx context.Context, input RetrieveInput) *RetrieveResult
}

// CreditStore reads balances and performs the atomic debit.
type CreditStore interface {
	GetByID(id uint) (*model.User, error)
	DebitCredit(userID uint) error
}

// GenerationRecorder persists generation records. Persistence is
// best-effort: the orchestrator inspects the result only for logging,
// never for control flow.
type GenerationRecorder interface {
	Persist(ctx context.Context, record model.GenerationRecord) error
}

// GenerationService is the RAG orchestrator. Per request it runs
// validate, credit check, query embedding, retrieval, prompt build,
// generation, best-effort persist, best-effort debit, respond.
type GenerationService struct {
	users     CreditStore
	embedder  Embedder
	retriever Retriever
	chat      ChatCompleter
	recorder  GenerationRecorder
	chatCfg   ai.ChatConfig
}

func NewGenerationService(
	users CreditStore,
	embedder Embedder,
	retriever Retriever,
	chat ChatCompleter,
	recorder GenerationRecorder,
	chatCfg ai.ChatConfig,
) *GenerationService {
	if chatCfg.Temperature == 0 {
		chatCfg.Temperature = defaultTemperature
	}
	if chatCfg.MaxTokens == 0 {
		chatCfg.MaxTokens = defaultMaxTokens
	}
	return &GenerationService{
		users:     users,
		embedder:  embedder,
		retriever: retriever,
		chat:      chat,
		recorder:  recorder,
		chatCfg:   chatCfg,
	}
}

type GenerateInput struct {
	UserID            uint
	Topic             string
	Intent            string
	AdditionalContext string
	Temperature       float64 // 0 = configured default
	TopKUser          int
	TopKViral         int
}

type GenerateResult struct {
	GenerationID      string    `json:"generation_id"` // empty when persistence failed
	VariantA          string    `json:"variantA"`
	VariantB          string    `json:"variantB"`
	UserExamplesUsed  []uint    `json:"user_examples_used"`
	ViralExamplesUsed []uint    `json:"viral_examples_used"`
	CreatedAt         time.Time `json:"created_at"`
}

// Generate runs the full request cycle. Terminal failures before the
// model call leave the credit balance untouched; failures after a
// successful model call (persist, debit) are logged and the content is
// still returned.
func (s *GenerationService) Generate(ctx context.Context, input GenerateInput) (*GenerateResult, error) {
	topic := strings.TrimSpace(input.Topic)
	intent, fieldErrs := validateGenerateInput(topic, input)
	if len(fieldErrs) > 0 {
		return nil, NewValidationError(fieldErrs...)
	}

	user, err := s.users.GetByID(input.UserID)
	if err != nil {
		return nil, NewStorageError("load credit balance failed", err)
	}
	if user == nil {
		return nil, NewUnauthorizedError("unknown user")
	}
	if user.Credits < generationCredits {
		return nil, NewInsufficientCreditsError(generationCredits, int(user.Credits))
	}

	queryVec, err := s.embedder.Embed(ctx, topic)
	if err != nil {
		// Not charged: the debit only happens after a successful generation.
		return nil, NewExternalServiceError("embedding", err)
	}

	retrieval := s.retriever.Retrieve(ctx, RetrieveInput{
		UserID:         input.UserID,
		Topic:          topic,
		Intent:         intent,
		QueryEmbedding: queryVec,
		TopKUser:       input.TopKUser,
		TopKViral:      input.TopKViral,
		UseCache:       true,
	})

	cfg := s.chatCfg
	if input.Temperature > 0 {
		cfg.Temperature = input.Temperature
	}
	messages := []ai.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(topic, intent, strings.TrimSpace(input.AdditionalContext), retrieval.UserPosts, retrieval.ViralPosts)},
	}

	raw, err := s.chat.Complete(ctx, cfg, messages)
	if err != nil {
		return nil, NewExternalServiceError("generation", err)
	}
	variantA, variantB, err := parseVariants(raw)
	if err != nil {
		// Terminal and never retried here: silently re-invoking a
		// non-deterministic model could double-charge the user.
		return nil, NewMalformedGenerationError(err)
	}

	userIDs := make([]uint, len(retrieval.UserPosts))
	for i, p := range retrieval.UserPosts {
		userIDs[i] = p.PostID
	}
	viralIDs := make([]uint, len(retrieval.ViralPosts))
	for i, p := range retrieval.ViralPosts {
		viralIDs[i] = p.PostID
	}

	record := model.GenerationRecord{
		ID:                uuid.NewString(),
		UserID:            input.UserID,
		Topic:             topic,
		Intent:            intent,
		AdditionalContext: strings.TrimSpace(input.AdditionalContext),
		VariantA:          variantA,
		VariantB:          variantB,
		Model:             cfg.Model,
		Temperature:       cfg.Temperature,
		CreatedAt:         time.Now(),
	}
	record.SetUserPostIDs(userIDs)
	record.SetViralPostIDs(viralIDs)

	generationID := record.ID
	if err := s.recorder.Persist(ctx, record); err != nil {
		// The user still gets their content; losing one history row is the
		// accepted tradeoff. Noteworthy enough to log loudly.
		log.Printf("generation: persist record %s failed (content still returned): %v", record.ID, err)
		generationID = ""
	}

	if err := s.users.DebitCredit(input.UserID); err != nil {
		// Documented leakage risk: generation already succeeded, so a
		// failed debit is logged rather than surfaced.
		log.Printf("generation: debit credit for user %d failed: %v", input.UserID, err)
	}

	return &GenerateResult{
		GenerationID:      generationID,
		VariantA:          variantA,
		VariantB:          variantB,
		UserExamplesUsed:  userIDs,
		ViralExamplesUsed: viralIDs,
		CreatedAt:         record.CreatedAt,
	}, nil
}

func validateGenerateInput(topic string, input GenerateInput) (model.Intent, []FieldError) {
	var fieldErrs []FieldError
	if len([]rune(topic)) < minTopicLength {
		fieldErrs = append(fieldErrs, FieldError{Field: "topic", Reason: fmt.Sprintf("must be at least %d characters", minTopicLength)})
	}
	intent, ok := model.ParseIntent(input.Intent)
	if !ok {
		fieldErrs = append(fieldErrs, FieldError{Field: "intent", Reason: "must be one of: educational, inspirational, promotional, entertainment"})
	}
	if input.Temperature < 0 || input.Temperature > 2 {
		fieldErrs = append(fieldErrs, FieldError{Field: "temperature", Reason: "must be between 0 and 2"})
	}
	if input.TopKUser < 0 || input.TopKUser > MaxTopKUser {
		fieldErrs = append(fieldErrs, FieldError{Field: "top_k_user", Reason: fmt.Sprintf("must be between 0 and %d", MaxTopKUser)})
	}
	if input.TopKViral < 0 || input.TopKViral > MaxTopKViral {
		fieldErrs = append(fieldErrs, FieldError{Field: "top_k_viral", Reason: fmt.Sprintf("must be between 0 and %d", MaxTopKViral)})
	}
	return intent, fieldErrs
}

// parseVariants extracts the two variants from the model output. Models
// occasionally wrap the JSON in code fences or prose, so parsing starts at
// the outermost braces.
func parseVariants(raw string) (string, string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", "", fmt.Errorf("no JSON object in model output")
	}

	var parsed struct {
		VariantA string `json:"variantA"`
		VariantB string `json:"variantB"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return "", "", fmt.Errorf("parse model output failed: %w", err)
	}
	if strings.TrimSpace(parsed.VariantA) == "" || strings.TrimSpace(parsed.VariantB) == "" {
		return "", "", fmt.Errorf("model output missing variantA or variantB")
	}
	return parsed.VariantA, parsed.VariantB, nil
}
