package auth

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/auth/session"
	"github.com/dnadiscipleship/dna-backend/pkg/config"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/pagination"
	"github.com/dnadiscipleship/dna-backend/pkg/security"
)

type fakeIdentityStore struct {
	users        map[string]*models.User
	roles        []models.UserRole
	tokens       map[string]*models.MagicLinkToken
	admins       map[string]*models.AdminUser
	emailLookups int
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{
		users:  map[string]*models.User{},
		tokens: map[string]*models.MagicLinkToken{},
		admins: map[string]*models.AdminUser{},
	}
}

func (f *fakeIdentityStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.emailLookups++
	user, ok := f.users[strings.ToLower(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeIdentityStore) UpsertUser(_ context.Context, email, name string) (*models.User, error) {
	email = strings.ToLower(email)
	if user, ok := f.users[email]; ok {
		return user, nil
	}
	user := &models.User{ID: uuid.New(), Email: email, Name: name}
	f.users[email] = user
	return user, nil
}

func (f *fakeIdentityStore) ListRoles(_ context.Context, userID uuid.UUID) ([]models.UserRole, error) {
	var out []models.UserRole
	for _, role := range f.roles {
		if role.UserID == userID {
			out = append(out, role)
		}
	}
	return out, nil
}

func (f *fakeIdentityStore) EnsureRole(_ context.Context, userID uuid.UUID, role enums.Role, churchID *uuid.UUID) error {
	for _, existing := range f.roles {
		if existing.UserID == userID && existing.Role == role {
			if (existing.ChurchID == nil) == (churchID == nil) &&
				(churchID == nil || *existing.ChurchID == *churchID) {
				return nil
			}
		}
	}
	f.roles = append(f.roles, models.UserRole{ID: uuid.New(), UserID: userID, Role: role, ChurchID: churchID})
	return nil
}

func (f *fakeIdentityStore) FindMagicLinkToken(_ context.Context, token string) (*models.MagicLinkToken, error) {
	row, ok := f.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeIdentityStore) FindUsedMagicLinkToken(_ context.Context, token string) (*models.MagicLinkToken, error) {
	row, ok := f.tokens[token]
	if !ok || !row.Used {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeIdentityStore) MarkTokenUsed(_ context.Context, token *models.MagicLinkToken, usedAt time.Time) error {
	token.Used = true
	token.UsedAt = &usedAt
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeIdentityStore) FindAdminByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	admin, ok := f.admins[strings.ToLower(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return admin, nil
}

func (f *fakeIdentityStore) ListTokenHistory(_ context.Context, filters TokenHistoryFilters, _ pagination.Params) ([]models.MagicLinkToken, error) {
	var out []models.MagicLinkToken
	for _, token := range f.tokens {
		if filters.Email != "" && !strings.EqualFold(token.Email, filters.Email) {
			continue
		}
		out = append(out, *token)
	}
	return out, nil
}

type fakeLeaderDir struct {
	churchLeaders map[string][]models.ChurchLeader
	dnaLeaders    map[string][]models.DNALeader
}

func (f *fakeLeaderDir) FindChurchLeadersByEmail(_ context.Context, email string) ([]models.ChurchLeader, error) {
	return f.churchLeaders[strings.ToLower(email)], nil
}

func (f *fakeLeaderDir) FindDNALeadersByEmail(_ context.Context, email string) ([]models.DNALeader, error) {
	return f.dnaLeaders[strings.ToLower(email)], nil
}

type fakeActivator struct {
	activated []string
}

func (f *fakeActivator) ActivateByEmail(_ context.Context, email string, _ uuid.UUID) error {
	f.activated = append(f.activated, strings.ToLower(email))
	return nil
}

type fakeSessionCache struct {
	entries map[string]*session.UserSession
	puts    int
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{entries: map[string]*session.UserSession{}}
}

func (f *fakeSessionCache) Get(_ context.Context, email string) (*session.UserSession, error) {
	sess, ok := f.entries[strings.ToLower(email)]
	if !ok {
		return nil, session.ErrCacheMiss
	}
	return sess, nil
}

func (f *fakeSessionCache) Put(_ context.Context, sess *session.UserSession) error {
	f.puts++
	f.entries[strings.ToLower(sess.Email)] = sess
	return nil
}

func (f *fakeSessionCache) Invalidate(_ context.Context, email string) error {
	delete(f.entries, strings.ToLower(email))
	return nil
}

type fakeWindowLimiter struct {
	counts map[string]int64
}

func (f *fakeWindowLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

type fakeLoginLinks struct {
	sent []string
}

func (f *fakeLoginLinks) SendLoginLink(_ context.Context, email, _ string) error {
	f.sent = append(f.sent, strings.ToLower(email))
	return nil
}

type authFixture struct {
	svc       Service
	store     *fakeIdentityStore
	leaders   *fakeLeaderDir
	activator *fakeActivator
	cache     *fakeSessionCache
	links     *fakeLoginLinks
	cfg       config.SessionConfig
}

func buildAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	store := newFakeIdentityStore()
	leaders := &fakeLeaderDir{
		churchLeaders: map[string][]models.ChurchLeader{},
		dnaLeaders:    map[string][]models.DNALeader{},
	}
	activator := &fakeActivator{}
	cache := newFakeSessionCache()
	links := &fakeLoginLinks{}
	sessionCfg := config.SessionConfig{
		JWTSecret:    "test-secret",
		JWTIssuer:    "dna-discipleship",
		CookieMaxAge: 720 * time.Hour,
	}
	rateCfg := config.AuthRateLimitConfig{
		MagicLinkWindow:     5 * time.Minute,
		MagicLinkEmailLimit: 3,
		MagicLinkIPLimit:    20,
		LoginWindow:         time.Minute,
		LoginEmailLimit:     5,
		LoginIPLimit:        20,
	}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(store, leaders, activator, cache, &fakeWindowLimiter{}, links, sessionCfg, rateCfg, logg)
	require.NoError(t, err)
	return &authFixture{svc: svc, store: store, leaders: leaders, activator: activator, cache: cache, links: links, cfg: sessionCfg}
}

func seedToken(fx *authFixture, value, email string, expiresAt time.Time, used bool) *models.MagicLinkToken {
	token := &models.MagicLinkToken{
		ID:        uuid.New(),
		Token:     value,
		Email:     email,
		ExpiresAt: expiresAt,
		Used:      used,
	}
	fx.store.tokens[value] = token
	return token
}

func TestVerifyMagicLinkHappyPath(t *testing.T) {
	fx := buildAuthFixture(t)
	churchID := uuid.New()
	fx.leaders.churchLeaders["dana@hope.church"] = []models.ChurchLeader{
		{ID: uuid.New(), ChurchID: churchID, Name: "Dana Wells", Email: "dana@hope.church"},
	}
	seedToken(fx, "tok-1", "dana@hope.church", time.Now().Add(time.Hour), false)

	result, err := fx.svc.VerifyMagicLink(context.Background(), "tok-1")
	require.NoError(t, err)
	require.NotEmpty(t, result.SessionToken)
	require.Equal(t, "tok-1", result.LegacyToken)
	require.True(t, fx.store.tokens["tok-1"].Used)
	require.Equal(t, []string{"dana@hope.church"}, fx.activator.activated)
	require.True(t, result.Session.HasRole(enums.RoleChurchLeader, &churchID))
	require.True(t, result.Session.CanAccessChurch(churchID))
}

func TestVerifyMagicLinkRejectsUsedAndExpired(t *testing.T) {
	fx := buildAuthFixture(t)
	seedToken(fx, "used-tok", "dana@hope.church", time.Now().Add(time.Hour), true)
	seedToken(fx, "old-tok", "dana@hope.church", time.Now().Add(-time.Minute), false)

	_, err := fx.svc.VerifyMagicLink(context.Background(), "used-tok")
	require.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = fx.svc.VerifyMagicLink(context.Background(), "old-tok")
	require.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = fx.svc.VerifyMagicLink(context.Background(), "no-such-tok")
	require.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestVerifyGrantsParticipantRoleWithoutLeaderRecords(t *testing.T) {
	fx := buildAuthFixture(t)
	seedToken(fx, "tok-2", "sam@example.com", time.Now().Add(time.Hour), false)

	result, err := fx.svc.VerifyMagicLink(context.Background(), "tok-2")
	require.NoError(t, err)
	require.True(t, result.Session.HasRole(enums.RoleTrainingParticipant, nil))
	require.False(t, result.Session.IsAdmin())
}

func TestLegacyCookieOnlyNeedsUsedToken(t *testing.T) {
	fx := buildAuthFixture(t)
	fx.store.users["dana@hope.church"] = &models.User{ID: uuid.New(), Email: "dana@hope.church", Name: "Dana"}

	// unused token is not a session yet
	seedToken(fx, "fresh-tok", "dana@hope.church", time.Now().Add(time.Hour), false)
	_, err := fx.svc.ResolveSession(context.Background(), "", "fresh-tok")
	require.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	// a consumed token resolves even past its original expiry
	seedToken(fx, "spent-tok", "dana@hope.church", time.Now().Add(-time.Hour), true)
	sess, err := fx.svc.ResolveSession(context.Background(), "", "spent-tok")
	require.NoError(t, err)
	require.Equal(t, "dana@hope.church", sess.Email)
}

func TestResolveSessionUsesCache(t *testing.T) {
	fx := buildAuthFixture(t)
	fx.store.users["dana@hope.church"] = &models.User{ID: uuid.New(), Email: "dana@hope.church", Name: "Dana"}
	seedToken(fx, "spent-tok", "dana@hope.church", time.Now().Add(time.Hour), true)

	_, err := fx.svc.ResolveSession(context.Background(), "", "spent-tok")
	require.NoError(t, err)
	lookups := fx.store.emailLookups

	_, err = fx.svc.ResolveSession(context.Background(), "", "spent-tok")
	require.NoError(t, err)
	require.Equal(t, lookups, fx.store.emailLookups)

	require.NoError(t, fx.svc.Logout(context.Background(), "dana@hope.church"))
	_, err = fx.svc.ResolveSession(context.Background(), "", "spent-tok")
	require.NoError(t, err)
	require.Greater(t, fx.store.emailLookups, lookups)
}

func TestIssueMagicLinkRateLimitAndEnumeration(t *testing.T) {
	fx := buildAuthFixture(t)
	fx.leaders.churchLeaders["dana@hope.church"] = []models.ChurchLeader{
		{ID: uuid.New(), ChurchID: uuid.New(), Name: "Dana", Email: "dana@hope.church"},
	}
	ctx := context.Background()

	// unknown address succeeds silently and sends nothing
	require.NoError(t, fx.svc.IssueMagicLink(ctx, IssueMagicLinkInput{Email: "nobody@example.com"}))
	require.Empty(t, fx.links.sent)

	for i := 0; i < 3; i++ {
		require.NoError(t, fx.svc.IssueMagicLink(ctx, IssueMagicLinkInput{Email: "dana@hope.church"}))
	}
	err := fx.svc.IssueMagicLink(ctx, IssueMagicLinkInput{Email: "dana@hope.church"})
	require.Equal(t, pkgerrors.CodeRateLimit, pkgerrors.As(err).Code())
	require.Len(t, fx.links.sent, 3)
}

func TestAdminLogin(t *testing.T) {
	fx := buildAuthFixture(t)
	hash, err := security.HashPassword("s3cret-pass", config.PasswordConfig{
		ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
	})
	require.NoError(t, err)
	fx.store.admins["admin@dna.org"] = &models.AdminUser{
		ID: uuid.New(), Email: "admin@dna.org", Name: "Admin", PasswordHash: hash,
	}

	_, err = fx.svc.AdminLogin(context.Background(), AdminLoginInput{Email: "admin@dna.org", Password: "wrong"})
	require.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	result, err := fx.svc.AdminLogin(context.Background(), AdminLoginInput{Email: "admin@dna.org", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.True(t, result.Session.IsAdmin())
	require.Empty(t, result.LegacyToken)

	// resolving the minted JWT lands on the admin directory
	sess, err := fx.svc.ResolveSession(context.Background(), result.SessionToken, "")
	require.NoError(t, err)
	require.True(t, sess.IsAdmin())
}
