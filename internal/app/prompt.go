package app

import (
	"fmt"
	"strings"

	"linkcraft/internal/model"
)

// systemPrompt fixes the model's role for every generation request.
const systemPrompt = "You are an expert LinkedIn ghostwriter. You study a person's real posts " +
	"to absorb their voice, then write new content that sounds unmistakably like them " +
	"while borrowing the structure of posts proven to perform well."

// buildUserPrompt renders the deterministic generation prompt: the topic
// and intent, the user's retrieved posts labeled with similarity, the
// viral references labeled with similarity and engagement, the structural
// rules for both variants, and the strict JSON output contract.
func buildUserPrompt(topic string, intent model.Intent, additionalContext string, userPosts []SimilarUserPost, viralPosts []SimilarViralPost) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write two LinkedIn post variants about: %s\n", topic)
	fmt.Fprintf(&b, "Content intent: %s\n", intent)
	if additionalContext != "" {
		fmt.Fprintf(&b, "Additional context from the author: %s\n", additionalContext)
	}

	b.WriteString("\n## The author's own posts (imitate this voice)\n")
	if len(userPosts) == 0 {
		b.WriteString("(no prior posts available — use a clear, direct professional voice)\n")
	}
	for i, p := range userPosts {
		fmt.Fprintf(&b, "\n### Author post %d (%.0f%% similar to the topic)\n%s\n", i+1, p.Similarity*100, p.Content)
	}

	b.WriteString("\n## High-performing reference posts (borrow structure, not voice)\n")
	if len(viralPosts) == 0 {
		b.WriteString("(no references available)\n")
	}
	for i, p := range viralPosts {
		fmt.Fprintf(&b, "\n### Reference %d (%.0f%% similar, engagement rate %.3f)\n%s\n", i+1, p.Similarity*100, p.EngagementRate, p.Content)
	}

	b.WriteString(`
## Rules for both variants
- Variant A: short form, 150-300 words.
- Variant B: long form, 300-600 words.
- Open with a strong hook in the first two lines.
- Use at most 3 hashtags.
- End with a question or a call to action.

## Output format
Respond with a single JSON object with exactly two keys, "variantA" and "variantB", whose values are the post texts. Do not include any prose, explanation, or markdown outside the JSON object.`)

	return b.String()
}
