package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pastita/storefront-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Session lifecycle — POST /v1/session, POST /v1/session/bootstrap
// ============================================================

func sessionCreateHandler(sessions *service.SessionManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/session")
		defer span.End()

		sess, token, err := sessions.Create(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("session.id", sess.ID))

		writeJSON(w, http.StatusCreated, map[string]any{
			"session_id": sess.ID,
			"token":      token,
		})
	}
}

// bootstrapHandler serves the whole app-start state in one round trip:
// cached collections immediately, upstream revalidation folded in by the
// session manager.
func bootstrapHandler(sessions *service.SessionManager, cartSvc *service.CartService, wishlistSvc *service.WishlistService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/session/bootstrap")
		defer span.End()

		sess := SessionFromContext(ctx)
		if err := sessions.Bootstrap(ctx, sess); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"session_id":        sess.ID,
			"authenticated":     sess.IsAuthenticated(),
			"user":              sess.User(),
			"cart":              cartSvc.Get(sess),
			"wishlist":          wishlistSvc.Items(sess),
			"push_token":        sessions.PushToken(sess),
			"promo_banner_seen": sessions.PromoBannerSeen(sess),
		})
	}
}

// ============================================================
// Device preferences — /v1/preferences
// ============================================================

func setPushTokenHandler(sessions *service.SessionManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/preferences/push-token")
		defer span.End()

		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := SessionFromContext(ctx)
		if err := sessions.SetPushToken(ctx, sess, req.Token); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func setPromoBannerHandler(sessions *service.SessionManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/preferences/promo-banner")
		defer span.End()

		var req struct {
			Seen bool `json:"seen"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := SessionFromContext(ctx)
		if err := sessions.SetPromoBannerSeen(ctx, sess, req.Seen); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getPreferencesHandler(sessions *service.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"push_token":        sessions.PushToken(sess),
			"promo_banner_seen": sessions.PromoBannerSeen(sess),
		})
	}
}
