package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// English is the language the knowledge base and prompts are written in
const English = "en"

// translatable are the non-English languages queries may arrive in
var translatable = map[string]string{
	"hi":  "Hindi",
	"ne":  "Nepali",
	"mai": "Maithili",
}

const detectPrompt = `Identify the language of the text below. Reply with exactly one code and nothing else:
hi for Hindi, ne for Nepali, mai for Maithili, en for English or anything else.

Text:
%s`

const translatePrompt = `Translate the text below from %s to %s. Keep HS codes, numbers, percentages, emoji and markdown unchanged. Reply with the translation only.

Text:
%s`

// Translator moves queries and answers between English and the regional
// languages the assistant serves, using the model for both detection and
// translation. A nil Translator treats everything as English.
type Translator struct {
	gen Generator
}

func NewTranslator(gen Generator) *Translator {
	return &Translator{gen: gen}
}

// hasDevanagari reports whether text contains any Devanagari letter, the
// script all translatable languages are written in
func hasDevanagari(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Devanagari, r) {
			return true
		}
	}
	return false
}

// Detect returns the language code of text, English unless it is one of
// the translatable languages
func (t *Translator) Detect(ctx context.Context, text string) string {
	if t == nil || !hasDevanagari(text) {
		return English
	}
	reply, err := t.gen.Generate(ctx, "", []Turn{{Role: RoleUser, Text: fmt.Sprintf(detectPrompt, truncateRunes(text, 500))}})
	if err != nil {
		slog.Warn("language detection failed, assuming English", "error", err)
		return English
	}
	code := strings.ToLower(strings.Trim(strings.TrimSpace(reply), ".`'\""))
	if _, ok := translatable[code]; ok {
		return code
	}
	return English
}

// ToEnglish detects the language of text and returns it with the English
// rendering. Translation failures keep the original text.
func (t *Translator) ToEnglish(ctx context.Context, text string) (lang, english string) {
	lang = t.Detect(ctx, text)
	if lang == English {
		return lang, text
	}
	out, err := t.translate(ctx, text, lang, English)
	if err != nil {
		slog.Warn("translation to English failed", "lang", lang, "error", err)
		return lang, text
	}
	return lang, out
}

// FromEnglish renders English text in lang. Translation failures keep the
// English text.
func (t *Translator) FromEnglish(ctx context.Context, text, lang string) string {
	if t == nil || lang == English || text == "" {
		return text
	}
	out, err := t.translate(ctx, text, English, lang)
	if err != nil {
		slog.Warn("translation from English failed", "lang", lang, "error", err)
		return text
	}
	return out
}

func (t *Translator) translate(ctx context.Context, text, from, to string) (string, error) {
	prompt := fmt.Sprintf(translatePrompt, languageName(from), languageName(to), text)
	return t.gen.Generate(ctx, "", []Turn{{Role: RoleUser, Text: prompt}})
}

func languageName(code string) string {
	if name, ok := translatable[code]; ok {
		return name
	}
	return "English"
}
