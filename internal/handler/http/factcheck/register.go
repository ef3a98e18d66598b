package factcheck

import (
	"net/http"

	"factseeker/internal/handler/http/auth"
	"factseeker/internal/handler/http/middleware"
)

// Register registers the fact-check HTTP handlers with the given mux. Both
// endpoints require authentication; each is rate limited separately because
// they attribute very different downstream cost per request. An article
// request runs the claim pipeline once per claim (search provider calls and
// one judge call each); a video request runs the same pipeline against a
// transcript plus an extra channel-classification judge call, so it is
// throttled to a tighter limit than the article route.
func Register(mux *http.ServeMux, svc Driver, articleLimiter, videoLimiter *middleware.RateLimiter) {
	mux.Handle("POST   /factcheck/video", videoLimiter.Middleware(auth.Authz(VideoHandler{Svc: svc})))
	mux.Handle("POST   /factcheck/article", articleLimiter.Middleware(auth.Authz(ArticleHandler{Svc: svc})))
}
