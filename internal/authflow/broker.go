package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/charterstone/planner-mcp/internal/graph"
)

const (
	// DefaultAuthority is the Microsoft identity platform endpoint root;
	// the tenant id is appended per config.
	DefaultAuthority = "https://login.microsoftonline.com"

	// DefaultDeviceTimeout bounds the interactive device-code wait.
	DefaultDeviceTimeout = 300 * time.Second
)

// DefaultScopes is the fixed scope set every credential must cover.
var DefaultScopes = []string{"Tasks.ReadWrite", "Group.Read.All", "User.Read", "offline_access"}

// DisplayFunc surfaces the device-code verification prompt to the user.
type DisplayFunc func(verificationURL, userCode string)

// Config holds broker settings.
type Config struct {
	TenantID string
	ClientID string

	// Scopes defaults to DefaultScopes when empty.
	Scopes []string

	// Authority overrides the identity endpoint root (tests).
	Authority string

	// DeviceTimeout bounds the interactive wait; defaults to 300s.
	DeviceTimeout time.Duration
}

// Broker acquires, caches, and refreshes bearer credentials. Silent
// refresh through the cached identity is tried first; the interactive
// device-authorization exchange is the bounded fallback.
type Broker struct {
	cfg           oauth2.Config
	scopes        []string
	cache         TokenCache
	display       DisplayFunc
	deviceTimeout time.Duration
	logger        *slog.Logger

	mu       sync.Mutex
	loaded   bool
	identity *CachedIdentity
}

// Credential is a validated bearer credential. Expiry is informational;
// enforcement is the remote service's job.
type Credential struct {
	AccessToken string
	Scopes      []string
	Expiry      time.Time
}

// NewBroker creates a credential broker around a token cache.
func NewBroker(cfg Config, cache TokenCache, display DisplayFunc, logger *slog.Logger) *Broker {
	authority := cfg.Authority
	if authority == "" {
		authority = DefaultAuthority
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	timeout := cfg.DeviceTimeout
	if timeout <= 0 {
		timeout = DefaultDeviceTimeout
	}
	if display == nil {
		display = func(string, string) {}
	}
	if logger == nil {
		logger = slog.Default()
	}

	base := fmt.Sprintf("%s/%s/oauth2/v2.0", authority, cfg.TenantID)
	return &Broker{
		cfg: oauth2.Config{
			ClientID: cfg.ClientID,
			Scopes:   scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:       base + "/authorize",
				TokenURL:      base + "/token",
				DeviceAuthURL: base + "/devicecode",
			},
		},
		scopes:        scopes,
		cache:         cache,
		display:       display,
		deviceTimeout: timeout,
		logger:        logger,
	}
}

// Acquire returns a usable credential, refreshing silently when the
// cached identity allows it and falling back to the device-code
// exchange otherwise.
func (b *Broker) Acquire(ctx context.Context) (Credential, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.loaded {
		identity, err := b.cache.Load()
		if err != nil {
			// A corrupt cache must not lock the user out; fall through
			// to interactive auth.
			b.logger.Warn("token cache unreadable, ignoring", "error", err)
		}
		b.identity = identity
		b.loaded = true
	}

	if b.identity != nil && b.identity.Token != nil {
		cred, err := b.acquireSilent(ctx)
		if err == nil {
			return cred, nil
		}
		b.logger.Info("silent token acquisition failed, starting device flow", "error", err)
	}

	return b.acquireInteractive(ctx)
}

// AccessToken satisfies graph.TokenProvider.
func (b *Broker) AccessToken(ctx context.Context) (string, error) {
	cred, err := b.Acquire(ctx)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

func (b *Broker) acquireSilent(ctx context.Context) (Credential, error) {
	if err := b.checkScopes(b.identity.Scopes); err != nil {
		return Credential{}, err
	}

	token, err := b.cfg.TokenSource(ctx, b.identity.Token).Token()
	if err != nil {
		return Credential{}, fmt.Errorf("refresh token: %w", err)
	}

	// Persist even when the token was still valid: refresh may have
	// rotated the refresh token.
	b.persist(&CachedIdentity{Token: token, Scopes: b.identity.Scopes})
	b.logger.Debug("using cached credential", "expiry", token.Expiry)

	return Credential{
		AccessToken: token.AccessToken,
		Scopes:      b.identity.Scopes,
		Expiry:      token.Expiry,
	}, nil
}

func (b *Broker) acquireInteractive(ctx context.Context) (Credential, error) {
	deadline, cancel := context.WithTimeout(ctx, b.deviceTimeout)
	defer cancel()

	auth, err := b.cfg.DeviceAuth(deadline)
	if err != nil {
		return Credential{}, graph.NewAuthError("start device authorization", err)
	}

	b.display(auth.VerificationURI, auth.UserCode)
	b.logger.Info("waiting for device authorization",
		"verification_uri", auth.VerificationURI,
		"timeout", b.deviceTimeout,
	)

	token, err := b.cfg.DeviceAccessToken(deadline, auth)
	if err != nil {
		return Credential{}, graph.NewAuthError(authFailureMessage(err), err)
	}

	b.persist(&CachedIdentity{Token: token, Scopes: b.scopes})
	b.logger.Info("device authorization complete", "expiry", token.Expiry)

	return Credential{
		AccessToken: token.AccessToken,
		Scopes:      b.scopes,
		Expiry:      token.Expiry,
	}, nil
}

// persist writes the identity snapshot back to the cache. Only successful
// token events reach here; failures never touch the cache.
func (b *Broker) persist(identity *CachedIdentity) {
	b.identity = identity
	if err := b.cache.Save(identity); err != nil {
		b.logger.Warn("failed to persist token cache", "error", err)
	}
}

// checkScopes verifies the granted scope set covers every required scope.
func (b *Broker) checkScopes(granted []string) error {
	have := make(map[string]bool, len(granted))
	for _, scope := range granted {
		have[scope] = true
	}
	for _, required := range b.scopes {
		if !have[required] {
			return fmt.Errorf("cached identity missing scope %s", required)
		}
	}
	return nil
}

// authFailureMessage extracts the authority's description when present.
func authFailureMessage(err error) string {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.ErrorDescription != "" {
		return "device authorization failed: " + retrieveErr.ErrorDescription
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "device authorization timed out"
	}
	return "device authorization failed"
}
