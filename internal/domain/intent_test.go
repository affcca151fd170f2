package domain

import (
	"errors"
	"io"
	"testing"
	"time"
)

func TestIntent_Valid(t *testing.T) {
	for _, i := range []Intent{IntentFindFile, IntentListFolder, IntentSearchKnowledge} {
		if !i.Valid() {
			t.Errorf("%q should be valid", i)
		}
	}
	for _, i := range []Intent{"", "find_specific_file", "FIND_FILE"} {
		if i.Valid() {
			t.Errorf("%q should be invalid", i)
		}
	}
}

func TestIntent_RequiredParam(t *testing.T) {
	tests := map[Intent]string{
		IntentFindFile:        ParamKeywords,
		IntentListFolder:      ParamFolder,
		IntentSearchKnowledge: ParamQuestion,
	}
	for intent, want := range tests {
		if got := intent.RequiredParam(); got != want {
			t.Errorf("%q.RequiredParam() = %q, want %q", intent, got, want)
		}
	}
}

func TestFallbackDecision(t *testing.T) {
	d := FallbackDecision("what is the flange torque?")
	if d.Intent != IntentSearchKnowledge {
		t.Errorf("Intent = %q", d.Intent)
	}
	if d.Param(ParamQuestion) != "what is the flange torque?" {
		t.Errorf("question = %q", d.Param(ParamQuestion))
	}
}

func TestDecision_ParamOnNilMap(t *testing.T) {
	var d Decision
	if d.Param(ParamKeywords) != "" {
		t.Error("Expected empty value")
	}
}

func TestDocumentRecord_IsImage(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"docs/Fotos/pump.JPG", true},
		{"docs/Fotos/pump.png", true},
		{"docs/report.pdf", false},
		{"docs/noext", false},
	}
	for _, tt := range tests {
		r := NewDocumentRecord(tt.path, "https://x", time.Now())
		if r.IsImage() != tt.want {
			t.Errorf("IsImage(%q) = %v, want %v", tt.path, r.IsImage(), tt.want)
		}
	}
}

func TestNewDocumentRecord_Name(t *testing.T) {
	r := NewDocumentRecord("root/Preventivo/plan 2024.pdf", "u", time.Time{})
	if r.Name != "plan 2024.pdf" {
		t.Errorf("Name = %q", r.Name)
	}
}

func TestStorageError_Is(t *testing.T) {
	err := &StorageError{Op: "list", Path: "root/", Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, ErrStorage) {
		t.Error("Expected errors.Is(err, ErrStorage)")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("Expected cause to be reachable")
	}

	var se *StorageError
	if !errors.As(error(err), &se) || se.Op != "list" {
		t.Error("Expected errors.As to find StorageError")
	}
}

func TestModelError_Is(t *testing.T) {
	err := &ModelError{Op: "embed", Err: io.EOF}
	if !errors.Is(err, ErrModel) || !errors.Is(err, io.EOF) {
		t.Error("ModelError should match ErrModel and its cause")
	}
	if errors.Is(err, ErrStorage) {
		t.Error("ModelError should not match ErrStorage")
	}
}
