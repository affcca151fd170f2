package agent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sha1n/mcp-doc-agent/internal/domain"
	"github.com/sha1n/mcp-doc-agent/internal/locator"
)

// Kind tells a surface how to render a Response.
type Kind string

const (
	KindText    Kind = "text"
	KindLink    Kind = "link"
	KindImage   Kind = "image"
	KindList    Kind = "list"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// User-facing messages.
const (
	MsgIndexNotReady = "Knowledge search is not available yet. Synchronize the index first."
	MsgNeedDetail    = "Please tell me what to look for."
)

// Response is the rendered outcome of a query. Text is always markdown.
type Response struct {
	Kind     Kind                    `json:"kind"`
	Text     string                  `json:"text"`
	ImageURL string                  `json:"image_url,omitempty"`
	Caption  string                  `json:"caption,omitempty"`
	Decision domain.Decision         `json:"decision"`
	Records  []domain.DocumentRecord `json:"records,omitempty"`
}

// IsError reports whether the response describes a failure.
func (r Response) IsError() bool {
	return r.Kind == KindError
}

func presentRecords(records []domain.DocumentRecord, notFound string) Response {
	switch locator.Present(records) {
	case locator.PresentNotFound:
		return Response{Kind: KindText, Text: notFound}
	case locator.PresentImage:
		r := records[0]
		return Response{
			Kind:     KindImage,
			Text:     fmt.Sprintf("![%s](%s)", r.Name, r.URL),
			ImageURL: r.URL,
			Caption:  r.Name,
			Records:  records,
		}
	case locator.PresentLink:
		r := records[0]
		return Response{
			Kind:    KindLink,
			Text:    fmt.Sprintf("Here is the document: [%s](%s)", r.Name, r.URL),
			Records: records,
		}
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "Found %d documents:\n", len(records))
		for i, r := range records {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, r.Name, r.URL)
		}
		return Response{Kind: KindList, Text: strings.TrimRight(b.String(), "\n"), Records: records}
	}
}

func errorResponse(decision domain.Decision, err error) (Response, error) {
	return Response{Kind: KindError, Text: describeError(err), Decision: decision}, err
}

func describeError(err error) string {
	var storageErr *domain.StorageError
	switch {
	case errors.Is(err, domain.ErrMissingParameter):
		return MsgNeedDetail
	case errors.As(err, &storageErr):
		return fmt.Sprintf("Could not access document storage: %v", storageErr.Err)
	case errors.Is(err, domain.ErrModel):
		return fmt.Sprintf("The language model could not process the request: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
