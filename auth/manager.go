package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/layer-3/lumenpay/api"
	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
)

// State is the session lifecycle state.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
	StateRefreshing      State = "refreshing"
)

const (
	// DefaultRefreshMargin is how long before token expiry the scheduled
	// refresh fires.
	DefaultRefreshMargin = 5 * time.Minute

	// DefaultRefreshInterval is the refresh cadence used when the token
	// carries no usable expiry claim.
	DefaultRefreshInterval = 6 * time.Hour

	// minRefreshDelay bounds the timer when the token is already near expiry.
	minRefreshDelay = 10 * time.Second

	revokeTimeout = 10 * time.Second
)

// Manager owns the process-wide session: acquisition, validity checks,
// scheduled refresh, revocation and persistence across restarts. It is the
// only component allowed to mutate the session; everything else reads the
// bearer token through the api.TokenSource it implements.
type Manager struct {
	challenges *ChallengeClient
	api        *api.Client
	signer     ports.WalletSigner
	store      ports.SessionStore
	events     ports.EventPublisher
	log        *slog.Logger

	refreshMargin   time.Duration
	refreshInterval time.Duration

	mu          sync.Mutex
	state       State
	session     *core.Session
	gen         uint64
	refreshing  bool
	cancelTimer context.CancelFunc
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithEvents sets an event publisher for session lifecycle transitions.
func WithEvents(pub ports.EventPublisher) ManagerOption {
	return func(m *Manager) { m.events = pub }
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// WithRefreshMargin overrides how long before expiry the refresh fires.
func WithRefreshMargin(d time.Duration) ManagerOption {
	return func(m *Manager) { m.refreshMargin = d }
}

// WithRefreshInterval overrides the fallback refresh cadence.
func WithRefreshInterval(d time.Duration) ManagerOption {
	return func(m *Manager) { m.refreshInterval = d }
}

// NewManager creates a session manager and registers it as the API client's
// token source, so every authenticated call picks up the current token.
func NewManager(apiClient *api.Client, signer ports.WalletSigner, store ports.SessionStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		challenges:      NewChallengeClient(apiClient),
		api:             apiClient,
		signer:          signer,
		store:           store,
		log:             slog.Default(),
		refreshMargin:   DefaultRefreshMargin,
		refreshInterval: DefaultRefreshInterval,
		state:           StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(m)
	}
	apiClient.SetTokenSource(m)
	return m
}

// Token implements api.TokenSource.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.Token
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a copy of the active session, if any.
func (m *Manager) Session() (core.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return core.Session{}, false
	}
	return *m.session, true
}

// Login runs the full wallet authentication flow: request wallet access,
// fetch a fresh challenge, have the wallet sign it and exchange the signed
// challenge for a session. If a session is already active it is returned
// as-is.
func (m *Manager) Login(ctx context.Context, userType core.UserType) (core.Session, error) {
	m.mu.Lock()
	switch m.state {
	case StateAuthenticated, StateRefreshing:
		sess := *m.session
		m.mu.Unlock()
		return sess, nil
	case StateAuthenticating:
		m.mu.Unlock()
		return core.Session{}, errors.New("authentication already in progress")
	}
	m.state = StateAuthenticating
	m.mu.Unlock()

	address, err := m.signer.RequestAccess(ctx)
	if err != nil {
		return m.failAuth(walletErr(err, core.ErrWalletUnavailable))
	}
	if address == "" {
		return m.failAuth(core.ErrAddressUnavailable)
	}

	// Each request invalidates any prior challenge for this address, so the
	// challenge goes straight to the signer and is never reused.
	challenge, err := m.challenges.RequestChallenge(ctx, address)
	if err != nil {
		return m.failAuth(err)
	}

	signed, err := m.signer.SignTransaction(ctx, challenge.TransactionXDR, challenge.NetworkPassphrase)
	if err != nil {
		return m.failAuth(walletErr(err, core.ErrUserRejected))
	}

	return m.Acquire(ctx, signed, address, userType)
}

// Acquire exchanges a signed challenge for a session, persists it and arms
// the refresh timer. The session is persisted before the timer is armed.
func (m *Manager) Acquire(ctx context.Context, signedChallenge, walletAddress string, userType core.UserType) (core.Session, error) {
	m.mu.Lock()
	switch m.state {
	case StateAuthenticated, StateRefreshing:
		m.mu.Unlock()
		return core.Session{}, errors.New("session already active")
	case StateUnauthenticated:
		m.state = StateAuthenticating
	}
	m.mu.Unlock()

	token, user, err := m.challenges.Verify(ctx, signedChallenge, walletAddress, userType)
	if err != nil {
		return m.failAuth(err)
	}
	if user.UserType != userType {
		return m.failAuth(core.ErrWrongUserType)
	}

	sess := m.newSession(token, user)
	if err := m.store.Save(ctx, sess); err != nil {
		return m.failAuth(fmt.Errorf("failed to persist session: %w", err))
	}

	m.mu.Lock()
	m.installLocked(sess)
	m.mu.Unlock()

	m.publishAuth(ctx, "login", sess.Wallet)
	return sess, nil
}

// Resume adopts a session persisted by a previous process. The stored token
// is stale until re-validated against the server: a valid token is installed,
// anything else is cleared. The boolean reports whether a session was resumed.
func (m *Manager) Resume(ctx context.Context) (core.Session, bool, error) {
	sess, err := m.store.Load(ctx)
	if errors.Is(err, core.ErrNoSession) {
		return core.Session{}, false, nil
	}
	if err != nil {
		return core.Session{}, false, fmt.Errorf("failed to load stored session: %w", err)
	}

	valid, err := m.api.Bearer(sess.Token).GetValid(ctx, "/api/auth/check-token")
	if err != nil || !valid {
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			m.log.Warn("failed to clear stale session", "err", clearErr)
		}
		return core.Session{}, false, err
	}

	if sess.ExpiresAt.IsZero() {
		if exp, ok := sessionExpiry(sess.Token); ok {
			sess.ExpiresAt = exp
		}
	}

	m.mu.Lock()
	m.installLocked(sess)
	m.mu.Unlock()
	return sess, true, nil
}

// Validate performs a cheap liveness check of the current token against the
// remote session store. It never refreshes.
func (m *Manager) Validate(ctx context.Context) (bool, error) {
	m.mu.Lock()
	active := m.session != nil
	m.mu.Unlock()
	if !active {
		return false, core.ErrNotAuthenticated
	}
	return m.api.GetValid(ctx, "/api/auth/check-token")
}

// Refresh rotates the session token before expiry. Called without an
// authenticated session, or while another refresh is in flight, it is a no-op
// and performs no network call. On failure the session is terminated: refresh
// failure is never retried internally.
func (m *Manager) Refresh(ctx context.Context) (core.Session, error) {
	m.mu.Lock()
	if m.state != StateAuthenticated || m.session == nil || m.refreshing {
		m.mu.Unlock()
		return core.Session{}, nil
	}
	m.refreshing = true
	m.state = StateRefreshing
	gen := m.gen
	m.mu.Unlock()

	var data verifyData
	err := m.api.Post(ctx, "/api/auth/refresh-token", nil, &data)

	m.mu.Lock()
	m.refreshing = false
	if m.gen != gen {
		// A logout won while the refresh was in flight; the result is
		// discarded and must not resurrect the session.
		m.mu.Unlock()
		return core.Session{}, core.ErrNotAuthenticated
	}
	if err != nil {
		m.mu.Unlock()
		m.Logout(ctx)
		var apiErr *core.APIError
		if errors.As(err, &apiErr) {
			return core.Session{}, fmt.Errorf("%w: %s", core.ErrRefreshDenied, apiErr.Message)
		}
		return core.Session{}, err
	}

	sess := m.newSession(data.Token, data.User)
	if saveErr := m.store.Save(ctx, sess); saveErr != nil {
		m.log.Warn("failed to persist rotated session", "err", saveErr)
	}
	m.installLocked(sess)
	m.mu.Unlock()

	m.publishAuth(ctx, "refresh", sess.Wallet)
	return sess, nil
}

// Logout tears the session down. Local state is cleared unconditionally and
// immediately; server-side revocation is best effort and can never block the
// local logout. A refresh in flight when Logout is called loses.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	var token, wallet string
	if m.session != nil {
		token = m.session.Token
		wallet = m.session.Wallet
	}
	m.session = nil
	m.state = StateUnauthenticated
	m.gen++
	m.disarmLocked()
	m.mu.Unlock()

	// The teardown must complete even when the caller's context is already
	// cancelled, e.g. when it is triggered from the refresh timer's context.
	ctx = context.WithoutCancel(ctx)
	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn("failed to clear persisted session", "err", err)
	}
	if token == "" {
		return
	}

	revokeCtx, cancel := context.WithTimeout(ctx, revokeTimeout)
	defer cancel()
	if err := m.api.Bearer(token).Post(revokeCtx, "/api/auth/logout", nil, nil); err != nil {
		m.log.Warn("server-side logout failed", "err", err)
	}
	m.publishAuth(ctx, "logout", wallet)
}

// Close disarms the refresh timer without touching local or remote session
// state.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disarmLocked()
}

func (m *Manager) newSession(token string, user core.User) core.Session {
	sess := core.Session{
		Token:    token,
		UserID:   user.ID,
		UserType: user.UserType,
		Wallet:   user.WalletAddress,
		IssuedAt: time.Now(),
	}
	if exp, ok := sessionExpiry(token); ok {
		sess.ExpiresAt = exp
	}
	return sess
}

// installLocked makes the session current and arms the refresh timer. The
// generation counter ties the timer and any in-flight refresh to this exact
// session.
func (m *Manager) installLocked(sess core.Session) {
	m.session = &sess
	m.state = StateAuthenticated
	m.gen++
	m.armLocked(m.gen, sess.ExpiresAt)
}

func (m *Manager) armLocked(gen uint64, expiresAt time.Time) {
	m.disarmLocked()

	delay := m.refreshInterval
	if !expiresAt.IsZero() {
		if d := time.Until(expiresAt) - m.refreshMargin; d > minRefreshDelay {
			delay = d
		} else {
			delay = minRefreshDelay
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelTimer = cancel
	go m.refreshAfter(ctx, gen, delay)
}

func (m *Manager) disarmLocked() {
	if m.cancelTimer != nil {
		m.cancelTimer()
		m.cancelTimer = nil
	}
}

func (m *Manager) refreshAfter(ctx context.Context, gen uint64, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	m.mu.Lock()
	stale := m.gen != gen
	m.mu.Unlock()
	if stale {
		return
	}

	if _, err := m.Refresh(ctx); err != nil && !errors.Is(err, core.ErrNotAuthenticated) {
		m.log.Warn("scheduled refresh failed, session terminated", "err", err)
	}
}

// failAuth resets an in-progress authentication back to unauthenticated.
func (m *Manager) failAuth(err error) (core.Session, error) {
	m.mu.Lock()
	if m.state == StateAuthenticating {
		m.state = StateUnauthenticated
	}
	m.mu.Unlock()
	return core.Session{}, err
}

func (m *Manager) publishAuth(ctx context.Context, kind, wallet string) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishAuthEvent(ctx, kind, wallet); err != nil {
		m.log.Debug("failed to publish auth event", "kind", kind, "err", err)
	}
}

// walletErr passes through errors already mapped to the wallet taxonomy and
// wraps everything else with the given kind.
func walletErr(err error, kind error) error {
	switch {
	case errors.Is(err, core.ErrWalletUnavailable),
		errors.Is(err, core.ErrUserRejected),
		errors.Is(err, core.ErrAddressUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", kind, err)
	}
}
