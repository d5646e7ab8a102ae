package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// maxVerifyChars bounds how much document text goes into the prompt
const maxVerifyChars = 3000

const noReadableText = "No readable text found."

const verificationPrompt = `You are a Customs Document Verification Assistant.
Analyze the text and classify the document type.
Check for: HS Code, Product Description, Origin, Value, Importer/Exporter.
Respond in this format:
📄 Document Type: 
📋 Status: 
🔍 Verification: 
💡 Issues: 

Document:
%s`

// Verification is the outcome of checking one document
type Verification struct {
	DocumentType string
	Verified     bool
	Report       string
}

// Verifier decides whether an uploaded document is fit for customs clearance
type Verifier interface {
	Verify(ctx context.Context, filename, text string) (Verification, error)
}

// LLMVerifier asks the model for a structured report and reads the verdict
// from its Status line. Model failures fall back to the keyword check.
type LLMVerifier struct {
	gen      Generator
	fallback *KeywordVerifier
}

func NewLLMVerifier(gen Generator) *LLMVerifier {
	return &LLMVerifier{gen: gen, fallback: NewKeywordVerifier()}
}

func (v *LLMVerifier) Verify(ctx context.Context, filename, text string) (Verification, error) {
	if strings.TrimSpace(text) == "" {
		return Verification{DocumentType: "Unknown", Report: noReadableText}, nil
	}

	prompt := fmt.Sprintf(verificationPrompt, truncateRunes(text, maxVerifyChars))
	report, err := v.gen.Generate(ctx, "", []Turn{{Role: RoleUser, Text: prompt}})
	if err != nil {
		slog.Warn("model verification failed, using keyword check", "filename", filename, "error", err)
		return v.fallback.Verify(ctx, filename, text)
	}

	docType := reportField(report, "Document Type")
	if docType == "" {
		docType = classify(text)
	}
	return Verification{
		DocumentType: docType,
		Verified:     statusVerified(reportField(report, "Status")),
		Report:       report,
	}, nil
}

// reportField returns the value after "<name>:" on the first matching line
func reportField(report, name string) string {
	for _, line := range strings.Split(report, "\n") {
		idx := strings.Index(strings.ToLower(line), strings.ToLower(name)+":")
		if idx < 0 {
			continue
		}
		value := line[idx+len(name)+1:]
		return strings.Trim(strings.TrimSpace(value), "*")
	}
	return ""
}

var (
	negativeStatus = regexp.MustCompile(`(?i)\b(not|unverified|invalid|incomplete|missing|failed|fail|rejected|non-compliant)\b`)
	positiveStatus = regexp.MustCompile(`(?i)\b(verified|valid|compliant|complete|approved|passed)\b`)
)

func statusVerified(status string) bool {
	if negativeStatus.MatchString(status) {
		return false
	}
	return positiveStatus.MatchString(status)
}

// requiredField is one element a clearance document must mention
type requiredField struct {
	name    string
	pattern *regexp.Regexp
}

// KeywordVerifier checks for the required fields without a model
type KeywordVerifier struct {
	fields []requiredField
}

func NewKeywordVerifier() *KeywordVerifier {
	return &KeywordVerifier{fields: []requiredField{
		{"HS Code", regexp.MustCompile(`(?i)\bhs\s*code\b|\b\d{4}\.\d{2}(\.\d{2})?\b`)},
		{"Product Description", regexp.MustCompile(`(?i)\bdescription\b|\bgoods\b|\bproduct\b`)},
		{"Origin", regexp.MustCompile(`(?i)\borigin\b`)},
		{"Value", regexp.MustCompile(`(?i)\bvalue\b|\bamount\b|\btotal\b|\bprice\b`)},
		{"Importer/Exporter", regexp.MustCompile(`(?i)\bimporter\b|\bexporter\b|\bconsignee\b|\bshipper\b`)},
	}}
}

func (v *KeywordVerifier) Verify(_ context.Context, _ string, text string) (Verification, error) {
	if strings.TrimSpace(text) == "" {
		return Verification{DocumentType: "Unknown", Report: noReadableText}, nil
	}

	var found, missing []string
	for _, f := range v.fields {
		if f.pattern.MatchString(text) {
			found = append(found, f.name)
		} else {
			missing = append(missing, f.name)
		}
	}

	docType := classify(text)
	verified := len(missing) == 0
	status := "Verified"
	issues := "None"
	if !verified {
		status = "Not verified"
		issues = "Missing " + strings.Join(missing, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📄 Document Type: %s\n", docType)
	fmt.Fprintf(&b, "📋 Status: %s\n", status)
	fmt.Fprintf(&b, "🔍 Verification: found %d of %d required fields", len(found), len(v.fields))
	if len(found) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(found, ", "))
	}
	fmt.Fprintf(&b, "\n💡 Issues: %s", issues)

	return Verification{DocumentType: docType, Verified: verified, Report: b.String()}, nil
}

var documentTypes = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"Packing List", regexp.MustCompile(`(?i)packing\s+list`)},
	{"Bill of Lading", regexp.MustCompile(`(?i)bill\s+of\s+lading|\bairway\s+bill\b`)},
	{"Certificate of Origin", regexp.MustCompile(`(?i)certificate\s+of\s+origin`)},
	{"Import License", regexp.MustCompile(`(?i)import\s+licen[cs]e`)},
	{"Commercial Invoice", regexp.MustCompile(`(?i)\binvoice\b`)},
}

func classify(text string) string {
	for _, dt := range documentTypes {
		if dt.pattern.MatchString(text) {
			return dt.name
		}
	}
	return "Unknown"
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
