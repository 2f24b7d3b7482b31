package orchestrator

import (
	"context"
	"errors"

	"github.com/Yates-Labs/kural/internal/literary"
	"github.com/Yates-Labs/kural/internal/rag"
	"github.com/Yates-Labs/kural/internal/speech"
)

var ErrInvalidRequest = errors.New("invalid request")

// ErrorKind groups errors by how a caller should report them.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindInvalidRequest
	KindStorage
	KindDimensionMismatch
	KindUpstreamEmptyResponse
	KindUpstream
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidRequest:
		return "invalid_request"
	case KindStorage:
		return "storage"
	case KindDimensionMismatch:
		return "dimension_mismatch"
	case KindUpstreamEmptyResponse:
		return "upstream_empty_response"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Classify maps an error returned by this package (or the packages it drives) to its kind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, literary.ErrEmptyPoem),
		errors.Is(err, speech.ErrEmptyText),
		errors.Is(err, speech.ErrUnsupportedLanguage):
		return KindInvalidRequest
	case errors.Is(err, rag.ErrDimensionMismatch):
		return KindDimensionMismatch
	case errors.Is(err, rag.ErrStorage), errors.Is(err, rag.ErrStoreClosed):
		return KindStorage
	case errors.Is(err, literary.ErrUpstreamEmptyResponse):
		return KindUpstreamEmptyResponse
	case errors.Is(err, literary.ErrLLMFailed),
		errors.Is(err, literary.ErrInvalidAnalysisJSON),
		errors.Is(err, rag.ErrEmbeddingFailed),
		errors.Is(err, speech.ErrSynthesisFailed),
		errors.Is(err, context.DeadlineExceeded):
		return KindUpstream
	default:
		return KindInternal
	}
}
