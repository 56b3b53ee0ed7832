package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/davidandw190/image-generation-server/internal/inference"
	"github.com/davidandw190/image-generation-server/internal/models"
)

// publishTimeout bounds event delivery, which runs after the response.
const publishTimeout = 10 * time.Second

const (
	msgKeywordRequired  = "키워드를 입력하세요!"
	msgGenerationFailed = "이미지 생성에 실패했습니다."
	msgUpstreamFailed   = "API 요청에 실패했습니다."
)

// ImageGenerator turns a keyword into the URL of a generated image.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, keyword string) (string, error)
}

// EventPublisher is notified after each successful generation.
type EventPublisher interface {
	PublishGenerated(ctx context.Context, generation models.GenerationEvent) (string, error)
}

type GenerateHandler struct {
	generator ImageGenerator
	publisher EventPublisher
	inflight  sync.WaitGroup
}

// NewGenerateHandler returns the POST /generate-image handler. publisher may
// be nil.
func NewGenerateHandler(generator ImageGenerator, publisher EventPublisher) *GenerateHandler {
	return &GenerateHandler{
		generator: generator,
		publisher: publisher,
	}
}

func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONResponse(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Only POST method is allowed"})
		return
	}

	// A keyword that is not a JSON string fails decoding and is rejected
	// like a missing one.
	var req models.ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		klog.V(2).InfoS("Rejecting undecodable request body", "err", err)
		sendJSONResponse(w, http.StatusBadRequest, models.ErrorResponse{Error: msgKeywordRequired})
		return
	}

	if req.Keyword == "" {
		sendJSONResponse(w, http.StatusBadRequest, models.ErrorResponse{Error: msgKeywordRequired})
		return
	}

	// A client hanging up does not cancel the upstream call.
	ctx := context.WithoutCancel(r.Context())

	imageURL, err := h.generator.GenerateImage(ctx, req.Keyword)
	if err != nil {
		if errors.Is(err, inference.ErrUpstreamContract) {
			klog.ErrorS(err, "Upstream returned an unexpected payload", "keyword", req.Keyword)
			sendJSONResponse(w, http.StatusInternalServerError, models.ErrorResponse{Error: msgGenerationFailed})
			return
		}
		klog.ErrorS(err, "Upstream request failed", "keyword", req.Keyword)
		sendJSONResponse(w, http.StatusInternalServerError, models.ErrorResponse{Error: msgUpstreamFailed})
		return
	}

	sendJSONResponse(w, http.StatusOK, models.ImageResponse{ImageURL: imageURL})

	if h.publisher != nil {
		h.publish(ctx, models.GenerationEvent{Keyword: req.Keyword, ImageURL: imageURL})
	}
}

// publish delivers the event in the background so a slow sink never holds
// back the response.
func (h *GenerateHandler) publish(ctx context.Context, generation models.GenerationEvent) {
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()

		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()

		if _, err := h.publisher.PublishGenerated(ctx, generation); err != nil {
			klog.ErrorS(err, "Failed to publish generation event", "keyword", generation.Keyword)
		}
	}()
}

// Wait blocks until every background event delivery has finished.
func (h *GenerateHandler) Wait() {
	h.inflight.Wait()
}

func sendJSONResponse(w http.ResponseWriter, statusCode int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		klog.ErrorS(err, "Failed to write response")
	}
}
