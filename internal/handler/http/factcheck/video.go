package factcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"factseeker/internal/domain/entity"
	"factseeker/internal/handler/http/respond"
)

// Driver is the subset of pipeline.Driver this package depends on.
type Driver interface {
	FactCheckVideo(ctx context.Context, videoURL string) (entity.PipelineResult, error)
	FactCheckArticle(ctx context.Context, articleURL string) (entity.PipelineResult, error)
}

// VideoHandler exposes FactCheckVideo over HTTP.
type VideoHandler struct{ Svc Driver }

// ServeHTTP ファクトチェック（動画）
// @Summary      動画のファクトチェック
// @Description  動画URLからトランスクリプトを取得し、クレームごとにエビデンスを収集して判定します
// @Tags         factcheck
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body object true "video_url"
// @Success      200 {object} VideoResultDTO
// @Failure      400 {string} string "Bad request - missing video_url"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      422 {string} string "Unprocessable - source text unavailable or claim extraction failed"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Failure      500 {string} string "サーバーエラー"
// @Router       /factcheck/video [post]
func (h VideoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoURL string `json:"video_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.VideoURL == "" {
		respond.SafeError(w, http.StatusBadRequest, errors.New("video_url is required"))
		return
	}

	result, err := h.Svc.FactCheckVideo(r.Context(), req.VideoURL)
	if err != nil {
		respond.SafeError(w, sourceErrorStatus(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, toVideoResultDTO(req.VideoURL, result))
}
