// Package prompts holds the routing and answering templates sent to the chat model.
package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Set is a pair of prompt templates. Routing receives {{.Query}}; Answer receives
// {{.Context}} and {{.Question}}.
type Set struct {
	Routing string `yaml:"routing"`
	Answer  string `yaml:"answer"`

	routing *template.Template
	answer  *template.Template
}

type routingData struct {
	Query string
}

type answerData struct {
	Context  string
	Question string
}

// Defaults returns the built-in templates.
func Defaults() *Set {
	s, err := newSet(defaultRouting, defaultAnswer)
	if err != nil {
		panic(fmt.Sprintf("built-in prompts do not parse: %v", err))
	}
	return s
}

// Load reads a YAML file with optional "routing" and "answer" keys. Missing keys keep
// the built-in template. An empty path returns the defaults.
func Load(path string) (*Set, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var overrides Set
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	routing, answer := defaultRouting, defaultAnswer
	if strings.TrimSpace(overrides.Routing) != "" {
		routing = overrides.Routing
	}
	if strings.TrimSpace(overrides.Answer) != "" {
		answer = overrides.Answer
	}
	return newSet(routing, answer)
}

func newSet(routing, answer string) (*Set, error) {
	if !strings.Contains(routing, "{{.Query}}") {
		return nil, errors.New("routing prompt must reference {{.Query}}")
	}
	if !strings.Contains(answer, "{{.Context}}") || !strings.Contains(answer, "{{.Question}}") {
		return nil, errors.New("answer prompt must reference {{.Context}} and {{.Question}}")
	}

	rt, err := template.New("routing").Option("missingkey=error").Parse(routing)
	if err != nil {
		return nil, fmt.Errorf("routing prompt: %w", err)
	}
	at, err := template.New("answer").Option("missingkey=error").Parse(answer)
	if err != nil {
		return nil, fmt.Errorf("answer prompt: %w", err)
	}

	return &Set{Routing: routing, Answer: answer, routing: rt, answer: at}, nil
}

// RenderRouting fills the routing template with the user query.
func (s *Set) RenderRouting(query string) (string, error) {
	var buf bytes.Buffer
	if err := s.routing.Execute(&buf, routingData{Query: query}); err != nil {
		return "", fmt.Errorf("render routing prompt: %w", err)
	}
	return buf.String(), nil
}

// RenderAnswer fills the answer template with retrieved context and the question.
func (s *Set) RenderAnswer(context, question string) (string, error) {
	var buf bytes.Buffer
	if err := s.answer.Execute(&buf, answerData{Context: context, Question: question}); err != nil {
		return "", fmt.Errorf("render answer prompt: %w", err)
	}
	return buf.String(), nil
}
