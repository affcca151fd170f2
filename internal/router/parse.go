package router

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sha1n/mcp-doc-agent/internal/domain"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

var validate = validator.New()

// rawDecision accepts the current keys and the legacy Spanish ones.
type rawDecision struct {
	Intent     string         `json:"intent"`
	Intencion  string         `json:"intencion"`
	Parameters map[string]any `json:"parameters"`
	Detalles   map[string]any `json:"detalles"`
}

// decisionParams is checked with struct tags once the raw payload is normalized.
type decisionParams struct {
	Intent   string `validate:"required,oneof=find_file list_folder search_knowledge"`
	Keywords string `validate:"required_if=Intent find_file"`
	Folder   string `validate:"required_if=Intent list_folder"`
	Question string
}

var intentAliases = map[string]domain.Intent{
	"find_file":             domain.IntentFindFile,
	"find_specific_file":    domain.IntentFindFile,
	"list_folder":           domain.IntentListFolder,
	"list_files_in_folder":  domain.IntentListFolder,
	"search_knowledge":      domain.IntentSearchKnowledge,
	"search_knowledge_base": domain.IntentSearchKnowledge,
}

var paramAliases = map[string][]string{
	domain.ParamKeywords: {"keywords", "file_keywords"},
	domain.ParamFolder:   {"folder", "folder_name"},
	domain.ParamQuestion: {"question"},
}

// StripCodeFence returns the body of the first fenced block, or s trimmed when there is none.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ParseDecision turns raw model output into a Decision. It never fails: any malformed
// or incomplete output yields domain.FallbackDecision(query).
func ParseDecision(raw, query string) domain.Decision {
	body := StripCodeFence(raw)

	var rd rawDecision
	if err := json.Unmarshal([]byte(body), &rd); err != nil {
		start, end := strings.Index(body, "{"), strings.LastIndex(body, "}")
		if start < 0 || end <= start {
			return domain.FallbackDecision(query)
		}
		rd = rawDecision{}
		if err := json.Unmarshal([]byte(body[start:end+1]), &rd); err != nil {
			return domain.FallbackDecision(query)
		}
	}

	name := rd.Intent
	if name == "" {
		name = rd.Intencion
	}
	intent, ok := intentAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.FallbackDecision(query)
	}

	params := rd.Parameters
	if params == nil {
		params = rd.Detalles
	}

	p := decisionParams{
		Intent:   string(intent),
		Keywords: lookup(params, domain.ParamKeywords),
		Folder:   lookup(params, domain.ParamFolder),
		Question: lookup(params, domain.ParamQuestion),
	}
	if err := validate.Struct(p); err != nil {
		return domain.FallbackDecision(query)
	}

	switch intent {
	case domain.IntentFindFile:
		return domain.Decision{Intent: intent, Params: map[string]string{domain.ParamKeywords: p.Keywords}}
	case domain.IntentListFolder:
		return domain.Decision{Intent: intent, Params: map[string]string{domain.ParamFolder: p.Folder}}
	default:
		question := p.Question
		if question == "" {
			question = query
		}
		return domain.Decision{Intent: intent, Params: map[string]string{domain.ParamQuestion: question}}
	}
}

// lookup returns the first string value found under the key or its aliases, trimmed.
// Non-string values count as absent.
func lookup(params map[string]any, key string) string {
	for _, alias := range paramAliases[key] {
		if s, ok := params[alias].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
