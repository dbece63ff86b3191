package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"safetube-pipeline/internal/config"
	"safetube-pipeline/internal/download"
	"safetube-pipeline/internal/logger"
	"safetube-pipeline/internal/types"
	"safetube-pipeline/internal/youtube"
)

type Ledger interface {
	Get(ctx context.Context, videoID string) (*types.VideoRecord, error)
	PutNew(ctx context.Context, rec types.VideoRecord) error
}

type Submitter interface {
	SendAttempt(ctx context.Context, msg types.QueueMessage) error
}

type Prober interface {
	Probe(ctx context.Context, sourceURL, cookiesPath string) (*download.ProbeResult, error)
}

// Handler exposes the submission surface. Processing is fully asynchronous:
// submit writes the ledger row, enqueues the first attempt and returns.
type Handler struct {
	cfg    *config.Config
	ledger Ledger
	queue  Submitter
	prober Prober
	log    *logger.Logger
	now    func() time.Time
}

func NewHandler(cfg *config.Config, l Ledger, q Submitter, p Prober) *Handler {
	return &Handler{cfg: cfg, ledger: l, queue: q, prober: p, log: logger.New(), now: time.Now}
}

// Router wires the versioned API surface.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/videos", h.SubmitVideo).Methods("POST")
	api.HandleFunc("/videos/{id}", h.GetVideo).Methods("GET")

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type submitRequest struct {
	YouTubeLink string `json:"youtube_link"`
	UploadedBy  string `json:"uploaded_by"`
}

type submitResponse struct {
	VideoID         string       `json:"video_id"`
	Status          types.Status `json:"status"`
	Message         string       `json:"message,omitempty"`
	TranscriptS3Key string       `json:"transcript_s3_key,omitempty"`
	InsightsS3Key   string       `json:"insights_s3_key,omitempty"`
}

// SubmitVideo registers a link for processing. The video id is derived from
// the link itself, so resubmitting the same video lands on the same ledger
// row; a row already marked done short-circuits without enqueueing.
func (h *Handler) SubmitVideo(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequest(r).WithField("handler", "submit_video")

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Warn("invalid request body")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.YouTubeLink == "" {
		writeError(w, http.StatusBadRequest, "youtube_link is required")
		return
	}
	if req.UploadedBy == "" {
		writeError(w, http.StatusBadRequest, "uploaded_by is required")
		return
	}

	videoID := youtube.ExtractID(req.YouTubeLink)
	if videoID == "" {
		log.WithField("youtube_link", req.YouTubeLink).Warn("unrecognized youtube link")
		writeError(w, http.StatusBadRequest, "could not derive video id from youtube_link")
		return
	}
	log = log.WithField("video_id", videoID)

	existing, err := h.ledger.Get(r.Context(), videoID)
	if err != nil {
		log.WithError(err).Error("ledger lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if existing != nil && existing.Status == types.StatusDone {
		log.Info("video already processed, skipping enqueue")
		writeJSON(w, http.StatusOK, submitResponse{
			VideoID:         videoID,
			Status:          existing.Status,
			Message:         "already processed",
			TranscriptS3Key: existing.TranscriptS3Key,
			InsightsS3Key:   existing.InsightsS3Key,
		})
		return
	}

	rec := types.VideoRecord{
		VideoID:     videoID,
		YouTubeLink: req.YouTubeLink,
		UploadedBy:  req.UploadedBy,
		Status:      types.StatusPending,
		CreatedAt:   types.Timestamp(h.now()),
		RetryCount:  h.cfg.InitialRetryCount,
	}

	// metadata enrichment is best-effort; a probe failure never blocks submission
	if meta, err := h.prober.Probe(r.Context(), req.YouTubeLink, ""); err != nil {
		log.WithError(err).Warn("metadata probe failed")
	} else {
		rec.Title = meta.Title
		rec.Description = meta.Description
		rec.Picture = meta.Thumbnail
		rec.Duration = meta.Duration
		rec.UserName = meta.Uploader
	}

	if err := h.ledger.PutNew(r.Context(), rec); err != nil {
		log.WithError(err).Error("ledger write failed")
		writeError(w, http.StatusInternalServerError, "could not register video")
		return
	}

	msg := types.QueueMessage{
		VideoID:           videoID,
		YouTubeLink:       req.YouTubeLink,
		DynamoVideosTable: h.cfg.VideosTable,
		RetryCount:        h.cfg.InitialRetryCount,
	}
	if err := h.queue.SendAttempt(r.Context(), msg); err != nil {
		log.WithError(err).Error("enqueue failed")
		writeError(w, http.StatusInternalServerError, "could not enqueue video")
		return
	}

	log.Info("video submitted")
	writeJSON(w, http.StatusCreated, submitResponse{VideoID: videoID, Status: types.StatusPending})
}

// GetVideo returns the ledger row for one video.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequest(r).WithField("handler", "get_video")

	videoID := mux.Vars(r)["id"]
	rec, err := h.ledger.Get(r.Context(), videoID)
	if err != nil {
		log.WithError(err).Error("ledger lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
