package translator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey_SensitiveToEveryParameter(t *testing.T) {
	base := Request{SourceLang: "Russian", TargetLang: "English", Model: "m", Instructions: "i"}

	key := CacheKey("text", base)
	assert.Equal(t, key, CacheKey("text", base), "identical input must hash identically")

	variants := []Request{
		{SourceLang: "German", TargetLang: "English", Model: "m", Instructions: "i"},
		{SourceLang: "Russian", TargetLang: "French", Model: "m", Instructions: "i"},
		{SourceLang: "Russian", TargetLang: "English", Model: "other", Instructions: "i"},
		{SourceLang: "Russian", TargetLang: "English", Model: "m", Instructions: "j"},
	}
	for _, v := range variants {
		assert.NotEqual(t, key, CacheKey("text", v))
	}
	assert.NotEqual(t, key, CacheKey("other text", base))
}

func TestCacheKey_FieldBoundariesAreUnambiguous(t *testing.T) {
	// "ab"+"c" vs "a"+"bc" across field boundaries must not collide.
	a := CacheKey("ab", Request{SourceLang: "c"})
	b := CacheKey("a", Request{SourceLang: "bc"})
	assert.NotEqual(t, a, b)
}

func TestSystemPrompt(t *testing.T) {
	p := systemPrompt(Request{SourceLang: "Russian", TargetLang: "English"})

	assert.Contains(t, p, "Russian")
	assert.Contains(t, p, "English")
	assert.Contains(t, p, "CHUNK_START")
	assert.NotContains(t, p, "PROJECT-SPECIFIC")

	p = systemPrompt(Request{SourceLang: "Russian", TargetLang: "English", Instructions: "keep TODO tags"})
	assert.Contains(t, p, "PROJECT-SPECIFIC")
	assert.True(t, strings.HasSuffix(p, "keep TODO tags"))
}

func TestUserPrompt_CarriesLineCount(t *testing.T) {
	p := userPrompt("a\nb\nc\n")
	assert.Contains(t, p, "INPUT (3 lines):")
	assert.Contains(t, p, "OUTPUT (3 lines required):")
}

func TestValidateInput(t *testing.T) {
	assert.Error(t, ValidateInput(""))
	assert.NoError(t, ValidateInput("x"))
}
