package factcheck

import (
	"encoding/json"
	"errors"
	"net/http"

	"factseeker/internal/handler/http/respond"
)

// ArticleHandler exposes FactCheckArticle over HTTP.
type ArticleHandler struct{ Svc Driver }

// ServeHTTP ファクトチェック（記事）
// @Summary      記事のファクトチェック
// @Description  記事URLから本文を取得し、クレームごとにエビデンスを収集して判定します
// @Tags         factcheck
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body object true "article_url"
// @Success      200 {object} ArticleResultDTO
// @Failure      400 {string} string "Bad request - missing article_url"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      422 {string} string "Unprocessable - source text unavailable or claim extraction failed"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Failure      500 {string} string "サーバーエラー"
// @Router       /factcheck/article [post]
func (h ArticleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ArticleURL string `json:"article_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ArticleURL == "" {
		respond.SafeError(w, http.StatusBadRequest, errors.New("article_url is required"))
		return
	}

	result, err := h.Svc.FactCheckArticle(r.Context(), req.ArticleURL)
	if err != nil {
		respond.SafeError(w, sourceErrorStatus(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, toArticleResultDTO(req.ArticleURL, result))
}
