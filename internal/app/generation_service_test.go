package app

import (
	"context"
	"errors"
	"testing"

	"linkcraft/internal/ai"
	"linkcraft/internal/model"
)

type stubCreditStore struct {
	user     *model.User
	getErr   error
	debitErr error
	debits   int
}

func (s *stubCreditStore) GetByID(id uint) (*model.User, error) {
	return s.user, s.getErr
}

func (s *stubCreditStore) DebitCredit(userID uint) error {
	s.debits++
	return s.debitErr
}

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	return s.vec, s.err
}

type stubRetriever struct {
	result *RetrieveResult
}

func (s *stubRetriever) Retrieve(ctx context.Context, input RetrieveInput) *RetrieveResult {
	if s.result != nil {
		return s.result
	}
	return &RetrieveResult{}
}

type stubChat struct {
	raw string
	err error
}

func (s *stubChat) Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error) {
	return s.raw, s.err
}

type stubRecorder struct {
	records []model.GenerationRecord
	err     error
}

func (s *stubRecorder) Persist(ctx context.Context, record model.GenerationRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

type generationFixture struct {
	store    *stubCreditStore
	embedder *stubEmbedder
	chat     *stubChat
	recorder *stubRecorder
	service  *GenerationService
}

func newGenerationFixture(t *testing.T) *generationFixture {
	t.Helper()
	f := &generationFixture{
		store:    &stubCreditStore{user: &model.User{ID: 1, Username: "maya", Credits: 5}},
		embedder: &stubEmbedder{vec: []float32{0.1, 0.2, 0.3}},
		chat:     &stubChat{raw: `{"variantA":"short take","variantB":"long take with more depth"}`},
		recorder: &stubRecorder{},
	}
	f.service = NewGenerationService(
		f.store,
		f.embedder,
		&stubRetriever{result: &RetrieveResult{
			UserPosts:  []SimilarUserPost{{PostID: 11, Content: "old post", Similarity: 0.9}},
			ViralPosts: []SimilarViralPost{{PostID: 21, Content: "viral post", Similarity: 0.8, EngagementRate: 0.12}},
		}},
		f.chat,
		f.recorder,
		ai.ChatConfig{Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 2000},
	)
	return f
}

func validInput() GenerateInput {
	return GenerateInput{
		UserID: 1,
		Topic:  "remote team onboarding",
		Intent: "educational",
	}
}

func Test_Generate_Success(t *testing.T) {
	t.Parallel()
	f := newGenerationFixture(t)

	result, err := f.service.Generate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.VariantA != "short take" || result.VariantB != "long take with more depth" {
		t.Errorf("unexpected variants: %q / %q", result.VariantA, result.VariantB)
	}
	if len(f.recorder.records) != 1 {
		t.Fatalf("want 1 persisted record, got %d", len(f.recorder.records))
	}
	if result.GenerationID == "" || result.GenerationID != f.recorder.records[0].ID {
		t.Errorf("generation id %q does not match persisted record %q", result.GenerationID, f.recorder.records[0].ID)
	}
	if f.store.debits != 1 {
		t.Errorf("want exactly one debit, got %d", f.store.debits)
	}
	if len(result.UserExamplesUsed) != 1 || result.UserExamplesUsed[0] != 11 {
		t.Errorf("unexpected user examples: %v", result.UserExamplesUsed)
	}
	if len(result.ViralExamplesUsed) != 1 || result.ViralExamplesUsed[0] != 21 {
		t.Errorf("unexpected viral examples: %v", result.ViralExamplesUsed)
	}
}

func Test_Generate_ValidationCollectsAllFieldErrors(t *testing.T) {
	t.Parallel()
	f := newGenerationFixture(t)

	_, err := f.service.Generate(context.Background(), GenerateInput{
		UserID:      1,
		Topic:       "ai",
		Intent:      "clickbait",
		Temperature: 3,
	})

	appErr, ok := AsError(err)
	if !ok || appErr.Kind != KindValidation {
		t.Fatalf("want validation error, got %v", err)
	}
	if len(appErr.Fields) != 3 {
		t.Errorf("want all 3 violations reported, got %d: %v", len(appErr.Fields), appErr.Fields)
	}
	if f.embedder.calls != 0 {
		t.Errorf("embedding should not run on invalid input")
	}
}

func Test_Generate_InsufficientCredits(t *testing.T) {
	t.Parallel()
	f := newGenerationFixture(t)
	f.store.user.Credits = 0

	_, err := f.service.Generate(context.Background(), validInput())

	appErr, ok := AsError(err)
	if !ok || appErr.Kind != KindInsufficientCredits {
		t.Fatalf("want insufficient credits error, got %v", err)
	}
	if appErr.Required != 1 || appErr.Available != 0 {
		t.Errorf("want required=1 available=0, got required=%d available=%d", appErr.Required, appErr.Available)
	}
	if f.embedder.calls != 0 {
		t.Errorf("no external calls should happen without credits")
	}
}

func Test_Generate_EmbeddingFailureLeavesBalanceUntouched(t *testing.T) {
	t.Parallel()
	f := newGenerationFixture(t)
	f.embedder.err = errors.New("connection refused")

	_, err := f.service.Generate(context.Background(), validInput())

	appErr, ok := AsError(err)
	if !ok || appErr.Kind != KindExternalService || appErr.Service != "embedding" {
		t.Fatalf("want external service error for embedding, got %v", err)
	}
	if f.store.debits != 0 {
		t.Errorf("failed generation must not be charged, got %d debits", f.store.debits)
	}
	if len(f.recorder.records) != 0 {
		t.Errorf("no record should be persisted, got %d", len(f.recorder.records))
	}
}

func Test_Generate_MalformedModelOutput(t *testing.T) {
	t.Parallel()
	f := newGenerationFixture(t)
	f.chat.raw = "I'd be happy to help with that!"

	_, err := f.service.Generate(context.Background(), validInput())

	if KindOf(err) != KindMalformedGeneration {
		t.Fatalf("want malformed generation error, got %v", err)
	}
	if f.store.debits != 0 {
		t.Errorf("malformed output must not be charged, got %d debits", f.store.debits)
	}
	if len(f.recorder.records) != 0 {
		t.Errorf("malformed output must not be recorded, got %d records", len(f.recorder.records))
	}
}

func Test_Generate_CodeFencedOutputAccepted(t *testing.T) {
	t.Parallel()
	f := newGenerationFixture(t)
	f.chat.raw = "```json\n{\"variantA\":\"hook first\",\"variantB\":\"story first\"}\n```"

	result, err := f.service.Generate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.VariantA != "hook first" || result.VariantB != "story first" {
		t.Errorf("unexpected variants: %q / %q", result.VariantA, result.VariantB)
	}
}

func Test_Generate_PersistFailureReturnsEmptyID(t *testing.T) {
	t.Parallel()
	f := newGenerationFixture(t)
	f.recorder.err = errors.New("broker unavailable")

	result, err := f.service.Generate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("persistence failure must not fail the request, got %v", err)
	}
	if result.GenerationID != "" {
		t.Errorf("want empty generation id when persistence fails, got %q", result.GenerationID)
	}
	if result.VariantA == "" || result.VariantB == "" {
		t.Errorf("content must still be returned")
	}
	if f.store.debits != 1 {
		t.Errorf("successful generation is still charged, got %d debits", f.store.debits)
	}
}

func Test_Generate_DebitFailureStillReturnsContent(t *testing.T) {
	t.Parallel()
	f := newGenerationFixture(t)
	f.store.debitErr = errors.New("deadlock")

	result, err := f.service.Generate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("debit failure must not fail the request, got %v", err)
	}
	if result.VariantA == "" || result.VariantB == "" {
		t.Errorf("content must still be returned")
	}
}

func Test_Generate_UnknownUser(t *testing.T) {
	t.Parallel()
	f := newGenerationFixture(t)
	f.store.user = nil

	_, err := f.service.Generate(context.Background(), validInput())
	if KindOf(err) != KindUnauthorized {
		t.Fatalf("want unauthorized error, got %v", err)
	}
}
