// Package service contains the application services: session/identity,
// cart and wishlist synchronization, catalog cache, orders and checkout.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/pastita/storefront-bfa-go/internal/infra/observability"
	"github.com/pastita/storefront-bfa-go/internal/optimistic"
	"github.com/pastita/storefront-bfa-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

// Session is one app installation's server-side state. The upstream
// credential lives here and nowhere else; collaborators receive the session
// explicitly instead of reading a process-global token.
type Session struct {
	ID string

	// The three optimistically synchronized collections.
	Cart       *optimistic.Collection[domain.CartLine]
	CartCombos *optimistic.Collection[domain.CartLine]
	Wishlist   *optimistic.Collection[domain.WishlistEntry]

	mu              sync.RWMutex
	credential      string
	user            *domain.User
	pushToken       string
	promoBannerSeen bool
	createdAt       time.Time
}

func newSession(id string, logger *zap.Logger) *Session {
	return &Session{
		ID:         id,
		Cart:       optimistic.NewCollection[domain.CartLine]("cart", logger),
		CartCombos: optimistic.NewCollection[domain.CartLine]("cart_combos", logger),
		Wishlist:   optimistic.NewCollection[domain.WishlistEntry]("wishlist", logger),
		createdAt:  time.Now(),
	}
}

// Credential returns the upstream token, empty for guests.
func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// User returns the held profile, nil for guests.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// IsAuthenticated is true exactly when a profile is held.
func (s *Session) IsAuthenticated() bool {
	return s.User() != nil
}

func (s *Session) setIdentity(credential string, user *domain.User) {
	s.mu.Lock()
	s.credential = credential
	s.user = user
	s.mu.Unlock()
}

func (s *Session) clearIdentity() {
	s.setIdentity("", nil)
}

// sessionSnapshot is the durable shape of a session, minus the collections
// which have their own KV keys.
type sessionSnapshot struct {
	Credential      string       `json:"credential,omitempty"`
	User            *domain.User `json:"user,omitempty"`
	PushToken       string       `json:"push_token,omitempty"`
	PromoBannerSeen bool         `json:"promo_banner_seen"`
	CreatedAt       time.Time    `json:"created_at"`
}

// sessionClaims are the JWT claims handed to the app.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// SessionManager creates, resolves and authenticates sessions.
type SessionManager struct {
	auth    port.AuthGateway
	kv      port.KeyValue
	logger  *zap.Logger
	metrics *observability.Metrics

	secret []byte
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	// set after construction; bootstrap fans out to them
	cart     *CartService
	wishlist *WishlistService
}

// NewSessionManager creates the manager. Call SetSyncTargets before serving.
func NewSessionManager(auth port.AuthGateway, kv port.KeyValue, secret string, ttl time.Duration, metrics *observability.Metrics, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		auth:     auth,
		kv:       kv,
		logger:   logger,
		metrics:  metrics,
		secret:   []byte(secret),
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// SetSyncTargets wires the collection services bootstrap fans out to. Split
// from the constructor because those services need the manager for 401
// invalidation.
func (m *SessionManager) SetSyncTargets(cart *CartService, wishlist *WishlistService) {
	m.cart = cart
	m.wishlist = wishlist
}

func sessionKey(id string) string { return "session:" + id }

// Create starts a guest session and returns it with its signed token.
func (m *SessionManager) Create(ctx context.Context) (*Session, string, error) {
	ctx, span := tracer.Start(ctx, "SessionManager.Create")
	defer span.End()

	sess := newSession(uuid.NewString(), m.logger)
	span.SetAttributes(attribute.String("session.id", sess.ID))

	token, err := m.mintToken(sess.ID)
	if err != nil {
		return nil, "", fmt.Errorf("mint session token: %w", err)
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.metrics.SetActiveSessions(len(m.sessions))
	m.mu.Unlock()

	if err := m.persist(ctx, sess); err != nil {
		m.logger.Warn("session: persist failed", zap.String("session_id", sess.ID), zap.Error(err))
	}

	m.logger.Info("session created", zap.String("session_id", sess.ID))
	return sess, token, nil
}

// Resolve validates a session token and returns the live session, rebuilding
// it from the KV snapshot after a restart. Unknown or expired tokens return
// ErrSessionExpired.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*Session, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, &domain.ErrSessionExpired{}
	}

	m.mu.RLock()
	sess, ok := m.sessions[claims.Subject]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	// Not in memory; the process may have restarted. Rebuild from the
	// durable snapshot if one exists.
	var snap sessionSnapshot
	found, err := m.kv.Get(ctx, sessionKey(claims.Subject), &snap)
	if err != nil {
		return nil, fmt.Errorf("load session snapshot: %w", err)
	}
	if !found {
		return nil, &domain.ErrSessionExpired{}
	}

	sess = newSession(claims.Subject, m.logger)
	sess.setIdentity(snap.Credential, snap.User)
	sess.mu.Lock()
	sess.pushToken = snap.PushToken
	sess.promoBannerSeen = snap.PromoBannerSeen
	if !snap.CreatedAt.IsZero() {
		sess.createdAt = snap.CreatedAt
	}
	sess.mu.Unlock()

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.metrics.SetActiveSessions(len(m.sessions))
	m.mu.Unlock()

	m.logger.Info("session rebuilt from snapshot", zap.String("session_id", sess.ID))
	return sess, nil
}

func (m *SessionManager) mintToken(sessionID string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *SessionManager) persist(ctx context.Context, sess *Session) error {
	sess.mu.RLock()
	snap := sessionSnapshot{
		Credential:      sess.credential,
		User:            sess.user,
		PushToken:       sess.pushToken,
		PromoBannerSeen: sess.promoBannerSeen,
		CreatedAt:       sess.createdAt,
	}
	sess.mu.RUnlock()
	return m.kv.Set(ctx, sessionKey(sess.ID), snap)
}

// SignIn authenticates against the upstream. Expected auth failures (wrong
// password, unknown email) come back as a structured result, not an error.
func (m *SessionManager) SignIn(ctx context.Context, sess *Session, email, password string) (*domain.AuthResult, error) {
	ctx, span := tracer.Start(ctx, "SessionManager.SignIn")
	defer span.End()

	if email == "" || password == "" {
		return &domain.AuthResult{Success: false, Message: "email and password are required"}, nil
	}

	login, err := m.auth.Login(ctx, email, password)
	if err != nil {
		if msg, expected := authFailureMessage(err); expected {
			m.logger.Info("sign-in rejected", zap.String("session_id", sess.ID))
			return &domain.AuthResult{Success: false, Message: msg}, nil
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	m.adoptIdentity(ctx, sess, login)
	m.logger.Info("sign-in succeeded", zap.String("session_id", sess.ID), zap.String("user_id", login.User.ID))
	return &domain.AuthResult{Success: true, User: &login.User}, nil
}

// SignUp registers a new account; the upstream signs the user in on success.
func (m *SessionManager) SignUp(ctx context.Context, sess *Session, req *domain.RegisterRequest) (*domain.AuthResult, error) {
	ctx, span := tracer.Start(ctx, "SessionManager.SignUp")
	defer span.End()

	if req.Email == "" || req.Password == "" {
		return &domain.AuthResult{Success: false, Message: "email and password are required"}, nil
	}

	login, err := m.auth.Register(ctx, req)
	if err != nil {
		if msg, expected := authFailureMessage(err); expected {
			m.logger.Info("sign-up rejected", zap.String("session_id", sess.ID))
			return &domain.AuthResult{Success: false, Message: msg}, nil
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}

	m.adoptIdentity(ctx, sess, login)
	m.logger.Info("sign-up succeeded", zap.String("session_id", sess.ID), zap.String("user_id", login.User.ID))
	return &domain.AuthResult{Success: true, User: &login.User}, nil
}

func (m *SessionManager) adoptIdentity(ctx context.Context, sess *Session, login *domain.Login) {
	user := login.User
	sess.setIdentity(login.Token, &user)
	if err := m.persist(ctx, sess); err != nil {
		m.logger.Warn("session: persist failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

// authFailureMessage reports whether err is an expected authentication
// rejection and extracts its human-readable message.
func authFailureMessage(err error) (string, bool) {
	var rejected *domain.ErrRejected
	if errors.As(err, &rejected) {
		return rejected.Message, true
	}
	var unauthorized *domain.ErrUnauthorized
	if errors.As(err, &unauthorized) {
		return unauthorized.Error(), true
	}
	return "", false
}

// SignOut revokes the upstream token best-effort and always clears local
// identity and collection state.
func (m *SessionManager) SignOut(ctx context.Context, sess *Session) error {
	ctx, span := tracer.Start(ctx, "SessionManager.SignOut")
	defer span.End()

	if cred := sess.Credential(); cred != "" {
		if err := m.auth.Logout(ctx, cred); err != nil {
			m.logger.Warn("upstream logout failed, clearing local state anyway",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
		}
	}

	sess.clearIdentity()
	sess.Cart.Replace(nil)
	sess.CartCombos.Replace(nil)
	sess.Wishlist.Replace(nil)

	if m.cart != nil {
		m.cart.dropSnapshot(ctx, sess)
	}
	if m.wishlist != nil {
		m.wishlist.dropSnapshot(ctx, sess)
	}
	if err := m.persist(ctx, sess); err != nil {
		m.logger.Warn("session: persist failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
	m.logger.Info("session signed out", zap.String("session_id", sess.ID))
	return nil
}

// Invalidate clears the credential and profile after an upstream 401. Every
// collaborator routes authentication failures here.
func (m *SessionManager) Invalidate(ctx context.Context, sess *Session) {
	if !sess.IsAuthenticated() && sess.Credential() == "" {
		return
	}
	sess.clearIdentity()
	if err := m.persist(ctx, sess); err != nil {
		m.logger.Warn("session: persist failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
	m.logger.Info("session credential invalidated", zap.String("session_id", sess.ID))
}

// Bootstrap serves cached state immediately available on the session and
// revalidates everything upstream in parallel: profile, cart, wishlist. An
// upstream 401 during revalidation degrades the session to guest instead of
// failing the call.
func (m *SessionManager) Bootstrap(ctx context.Context, sess *Session) error {
	ctx, span := tracer.Start(ctx, "SessionManager.Bootstrap")
	defer span.End()

	// Cached snapshots first so the app renders instantly.
	if m.cart != nil {
		m.cart.LoadSnapshot(ctx, sess)
	}
	if m.wishlist != nil {
		m.wishlist.LoadSnapshot(ctx, sess)
	}

	if sess.Credential() == "" {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.revalidateProfile(gctx, sess)
	})
	if m.cart != nil {
		g.Go(func() error {
			if err := m.cart.Sync(gctx, sess); err != nil {
				m.logger.Warn("bootstrap: cart sync failed", zap.String("session_id", sess.ID), zap.Error(err))
			}
			return nil
		})
	}
	if m.wishlist != nil {
		g.Go(func() error {
			if err := m.wishlist.Sync(gctx, sess); err != nil {
				m.logger.Warn("bootstrap: wishlist sync failed", zap.String("session_id", sess.ID), zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *SessionManager) revalidateProfile(ctx context.Context, sess *Session) error {
	user, err := m.auth.GetProfile(ctx, sess.Credential())
	if err != nil {
		var unauthorized *domain.ErrUnauthorized
		if errors.As(err, &unauthorized) {
			m.Invalidate(ctx, sess)
			return nil
		}
		// Keep the cached profile on transient failures.
		m.logger.Warn("bootstrap: profile revalidation failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return nil
	}
	sess.mu.Lock()
	sess.user = user
	sess.mu.Unlock()
	if err := m.persist(ctx, sess); err != nil {
		m.logger.Warn("session: persist failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
	return nil
}

// UpdateProfile patches the upstream profile and persists the result.
func (m *SessionManager) UpdateProfile(ctx context.Context, sess *Session, update *domain.ProfileUpdate) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "SessionManager.UpdateProfile")
	defer span.End()

	cred := sess.Credential()
	if cred == "" {
		return nil, &domain.ErrUnauthorized{Message: "sign in to update the profile"}
	}

	user, err := m.auth.UpdateProfile(ctx, cred, update)
	if err != nil {
		var unauthorized *domain.ErrUnauthorized
		if errors.As(err, &unauthorized) {
			m.Invalidate(ctx, sess)
		}
		return nil, err
	}

	sess.mu.Lock()
	sess.user = user
	sess.mu.Unlock()
	if err := m.persist(ctx, sess); err != nil {
		m.logger.Warn("session: persist failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
	return user, nil
}

// --- Device preferences ---

// SetPushToken stores the device's push-notification token.
func (m *SessionManager) SetPushToken(ctx context.Context, sess *Session, token string) error {
	sess.mu.Lock()
	sess.pushToken = token
	sess.mu.Unlock()
	return m.persist(ctx, sess)
}

// PushToken returns the stored push-notification token.
func (m *SessionManager) PushToken(sess *Session) string {
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return sess.pushToken
}

// SetPromoBannerSeen records that the app showed the promotional banner.
func (m *SessionManager) SetPromoBannerSeen(ctx context.Context, sess *Session, seen bool) error {
	sess.mu.Lock()
	sess.promoBannerSeen = seen
	sess.mu.Unlock()
	return m.persist(ctx, sess)
}

// PromoBannerSeen reports whether the promotional banner was shown.
func (m *SessionManager) PromoBannerSeen(sess *Session) bool {
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return sess.promoBannerSeen
}
