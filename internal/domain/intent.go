package domain

import "strings"

// Intent is the action the router chose for a query.
type Intent string

const (
	// IntentFindFile retrieves specific documents by keywords.
	IntentFindFile Intent = "find_file"
	// IntentListFolder lists the documents of a category.
	IntentListFolder Intent = "list_folder"
	// IntentSearchKnowledge answers a question from the corpus content.
	IntentSearchKnowledge Intent = "search_knowledge"
)

// Decision parameter keys.
const (
	ParamKeywords = "keywords"
	ParamFolder   = "folder"
	ParamQuestion = "question"
)

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentFindFile, IntentListFolder, IntentSearchKnowledge:
		return true
	}
	return false
}

// RequiredParam returns the parameter key the intent cannot do without.
func (i Intent) RequiredParam() string {
	switch i {
	case IntentFindFile:
		return ParamKeywords
	case IntentListFolder:
		return ParamFolder
	default:
		return ParamQuestion
	}
}

// Decision is the structured action produced for a query.
type Decision struct {
	Intent Intent            `json:"intent"`
	Params map[string]string `json:"parameters"`
}

// Param returns the trimmed value of a parameter, or "" when absent.
func (d Decision) Param(key string) string {
	if d.Params == nil {
		return ""
	}
	return strings.TrimSpace(d.Params[key])
}

// FallbackDecision is the safe default: answer the query as a knowledge question.
func FallbackDecision(query string) Decision {
	return Decision{
		Intent: IntentSearchKnowledge,
		Params: map[string]string{ParamQuestion: query},
	}
}
