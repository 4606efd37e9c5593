package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/dnadiscipleship/dna-backend/pkg/auth"
	"github.com/dnadiscipleship/dna-backend/pkg/auth/session"
	"github.com/dnadiscipleship/dna-backend/pkg/config"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/pagination"
	"github.com/dnadiscipleship/dna-backend/pkg/security"
)

// Service resolves request identities and handles every login flow: magic
// links for leaders, password login for back-office admins.
type Service interface {
	IssueMagicLink(ctx context.Context, input IssueMagicLinkInput) error
	VerifyMagicLink(ctx context.Context, token string) (*LoginResult, error)
	AdminLogin(ctx context.Context, input AdminLoginInput) (*LoginResult, error)
	ResolveSession(ctx context.Context, sessionToken, legacyToken string) (*session.UserSession, error)
	Logout(ctx context.Context, email string) error
	TokenHistory(ctx context.Context, filters TokenHistoryFilters, params pagination.Params) ([]models.MagicLinkToken, *string, error)
}

// IssueMagicLinkInput requests a login link email.
type IssueMagicLinkInput struct {
	Email    string
	ClientIP string
}

// AdminLoginInput carries back-office credentials.
type AdminLoginInput struct {
	Email    string
	Password string
	ClientIP string
}

// LoginResult is handed to the controller, which sets both session cookies.
type LoginResult struct {
	Session      *session.UserSession
	SessionToken string
	LegacyToken  string
	ExpiresIn    time.Duration
}

type identityStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertUser(ctx context.Context, email, name string) (*models.User, error)
	ListRoles(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error)
	EnsureRole(ctx context.Context, userID uuid.UUID, role enums.Role, churchID *uuid.UUID) error
	FindMagicLinkToken(ctx context.Context, token string) (*models.MagicLinkToken, error)
	FindUsedMagicLinkToken(ctx context.Context, token string) (*models.MagicLinkToken, error)
	MarkTokenUsed(ctx context.Context, token *models.MagicLinkToken, usedAt time.Time) error
	FindAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	ListTokenHistory(ctx context.Context, filters TokenHistoryFilters, params pagination.Params) ([]models.MagicLinkToken, error)
}

type leaderDirectory interface {
	FindChurchLeadersByEmail(ctx context.Context, email string) ([]models.ChurchLeader, error)
	FindDNALeadersByEmail(ctx context.Context, email string) ([]models.DNALeader, error)
}

type leaderActivator interface {
	ActivateByEmail(ctx context.Context, email string, userID uuid.UUID) error
}

type sessionCache interface {
	Get(ctx context.Context, email string) (*session.UserSession, error)
	Put(ctx context.Context, sess *session.UserSession) error
	Invalidate(ctx context.Context, email string) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type loginLinkSender interface {
	SendLoginLink(ctx context.Context, email, name string) error
}

type service struct {
	repo       identityStore
	leaders    leaderDirectory
	activator  leaderActivator
	cache      sessionCache
	limiter    rateLimiter
	links      loginLinkSender
	sessionCfg config.SessionConfig
	rateCfg    config.AuthRateLimitConfig
	logg       *logger.Logger
}

// NewService wires the auth service.
func NewService(
	repo identityStore,
	leaders leaderDirectory,
	activator leaderActivator,
	cache sessionCache,
	limiter rateLimiter,
	links loginLinkSender,
	sessionCfg config.SessionConfig,
	rateCfg config.AuthRateLimitConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth: repo is required")
	}
	if leaders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth: leader directory is required")
	}
	if activator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth: leader activator is required")
	}
	if cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth: session cache is required")
	}
	if limiter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth: rate limiter is required")
	}
	if links == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth: link sender is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth: logger is required")
	}
	return &service{
		repo:       repo,
		leaders:    leaders,
		activator:  activator,
		cache:      cache,
		limiter:    limiter,
		links:      links,
		sessionCfg: sessionCfg,
		rateCfg:    rateCfg,
		logg:       logg,
	}, nil
}

func (s *service) IssueMagicLink(ctx context.Context, input IssueMagicLinkInput) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !strings.Contains(email, "@") {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
	}

	if err := s.allow(ctx, "magic_link:email:"+email, s.rateCfg.MagicLinkEmailLimit, s.rateCfg.MagicLinkWindow); err != nil {
		return err
	}
	if input.ClientIP != "" {
		if err := s.allow(ctx, "magic_link:ip:"+input.ClientIP, s.rateCfg.MagicLinkIPLimit, s.rateCfg.MagicLinkWindow); err != nil {
			return err
		}
	}

	name, known, err := s.lookupLoginName(ctx, email)
	if err != nil {
		return err
	}
	if !known {
		// Unknown addresses get a silent success so the endpoint cannot be
		// used to probe which leaders exist.
		s.logg.Info(s.logg.WithField(ctx, "email", email), "auth: magic link requested for unknown email")
		return nil
	}
	return s.links.SendLoginLink(ctx, email, name)
}

func (s *service) lookupLoginName(ctx context.Context, email string) (string, bool, error) {
	churchLeaders, err := s.leaders.FindChurchLeadersByEmail(ctx, email)
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find church leaders")
	}
	if len(churchLeaders) > 0 {
		return churchLeaders[0].Name, true, nil
	}
	dnaLeaders, err := s.leaders.FindDNALeadersByEmail(ctx, email)
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find dna leaders")
	}
	if len(dnaLeaders) > 0 {
		return dnaLeaders[0].Name, true, nil
	}
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err == nil {
		return user.Name, true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find user")
}

func (s *service) VerifyMagicLink(ctx context.Context, tokenValue string) (*LoginResult, error) {
	tokenValue = strings.TrimSpace(tokenValue)
	if tokenValue == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login link is invalid")
	}

	token, err := s.repo.FindMagicLinkToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login link is invalid")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find magic link token")
	}
	now := time.Now().UTC()
	if token.Used {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login link was already used")
	}
	if now.After(token.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login link has expired")
	}
	if err := s.repo.MarkTokenUsed(ctx, token, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark token used")
	}

	name, _, err := s.lookupLoginName(ctx, token.Email)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = token.Email[:strings.Index(token.Email, "@")]
	}

	user, err := s.repo.UpsertUser(ctx, token.Email, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert user")
	}
	if err := s.grantLeaderRoles(ctx, user); err != nil {
		return nil, err
	}

	// Activation stamping is best-effort. A failed stamp never blocks login.
	if err := s.activator.ActivateByEmail(ctx, user.Email, user.ID); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "auth: leader activation failed", err)
	}

	sess, err := s.buildUserSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.finishLogin(ctx, sess, tokenValue)
}

// grantLeaderRoles mirrors the leader directory into user_roles. A login with
// no leader records becomes a training participant.
func (s *service) grantLeaderRoles(ctx context.Context, user *models.User) error {
	churchLeaders, err := s.leaders.FindChurchLeadersByEmail(ctx, user.Email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find church leaders")
	}
	dnaLeaders, err := s.leaders.FindDNALeadersByEmail(ctx, user.Email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find dna leaders")
	}

	for _, leader := range churchLeaders {
		churchID := leader.ChurchID
		if err := s.repo.EnsureRole(ctx, user.ID, enums.RoleChurchLeader, &churchID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: grant church leader role")
		}
	}
	for _, leader := range dnaLeaders {
		churchID := leader.ChurchID
		if err := s.repo.EnsureRole(ctx, user.ID, enums.RoleDNALeader, &churchID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: grant dna leader role")
		}
	}
	if len(churchLeaders) == 0 && len(dnaLeaders) == 0 {
		if err := s.repo.EnsureRole(ctx, user.ID, enums.RoleTrainingParticipant, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: grant participant role")
		}
	}
	return nil
}

func (s *service) AdminLogin(ctx context.Context, input AdminLoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !strings.Contains(email, "@") || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	if err := s.allow(ctx, "login:email:"+email, s.rateCfg.LoginEmailLimit, s.rateCfg.LoginWindow); err != nil {
		return nil, err
	}
	if input.ClientIP != "" {
		if err := s.allow(ctx, "login:ip:"+input.ClientIP, s.rateCfg.LoginIPLimit, s.rateCfg.LoginWindow); err != nil {
			return nil, err
		}
	}

	admin, err := s.repo.FindAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find admin user")
	}
	ok, err := security.VerifyPassword(input.Password, admin.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	sess := &session.UserSession{
		UserID: admin.ID,
		Email:  admin.Email,
		Name:   admin.Name,
		Roles:  []session.RoleBinding{{Role: enums.RoleAdmin}},
	}
	return s.finishLogin(ctx, sess, "")
}

func (s *service) finishLogin(ctx context.Context, sess *session.UserSession, legacyToken string) (*LoginResult, error) {
	signed, err := pkgauth.MintSessionToken(s.sessionCfg, time.Now().UTC(), sess.Email, sess.Name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "auth: mint session token")
	}
	if err := s.cache.Put(ctx, sess); err != nil {
		s.logg.Error(ctx, "auth: session cache put failed", err)
	}
	return &LoginResult{
		Session:      sess,
		SessionToken: signed,
		LegacyToken:  legacyToken,
		ExpiresIn:    s.sessionCfg.CookieMaxAge,
	}, nil
}

func (s *service) ResolveSession(ctx context.Context, sessionToken, legacyToken string) (*session.UserSession, error) {
	switch {
	case sessionToken != "":
		claims, err := pkgauth.ParseSessionToken(s.sessionCfg, sessionToken)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session is invalid or expired")
		}
		return s.resolveByEmail(ctx, claims.Email)
	case legacyToken != "":
		token, err := s.repo.FindUsedMagicLinkToken(ctx, legacyToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session is invalid or expired")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find legacy token")
		}
		return s.resolveByEmail(ctx, token.Email)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
}

func (s *service) resolveByEmail(ctx context.Context, email string) (*session.UserSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if cached, err := s.cache.Get(ctx, email); err == nil {
		return cached, nil
	} else if !errors.Is(err, session.ErrCacheMiss) {
		s.logg.Error(ctx, "auth: session cache read failed", err)
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		sess, err := s.buildUserSession(ctx, user)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Put(ctx, sess); err != nil {
			s.logg.Error(ctx, "auth: session cache put failed", err)
		}
		return sess, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to the admin directory
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find user")
	}

	admin, err := s.repo.FindAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no account for this session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find admin user")
	}
	sess := &session.UserSession{
		UserID: admin.ID,
		Email:  admin.Email,
		Name:   admin.Name,
		Roles:  []session.RoleBinding{{Role: enums.RoleAdmin}},
	}
	if err := s.cache.Put(ctx, sess); err != nil {
		s.logg.Error(ctx, "auth: session cache put failed", err)
	}
	return sess, nil
}

func (s *service) buildUserSession(ctx context.Context, user *models.User) (*session.UserSession, error) {
	roles, err := s.repo.ListRoles(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list roles")
	}
	bindings := make([]session.RoleBinding, 0, len(roles))
	for _, role := range roles {
		bindings = append(bindings, session.RoleBinding{Role: role.Role, ChurchID: role.ChurchID})
	}
	return &session.UserSession{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Roles:  bindings,
	}, nil
}

func (s *service) Logout(ctx context.Context, email string) error {
	if err := s.cache.Invalidate(ctx, email); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: invalidate session")
	}
	return nil
}

func (s *service) TokenHistory(ctx context.Context, filters TokenHistoryFilters, params pagination.Params) ([]models.MagicLinkToken, *string, error) {
	buffered, err := s.repo.ListTokenHistory(ctx, filters, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list token history")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	if len(buffered) <= limit {
		return buffered, nil, nil
	}
	page := buffered[:limit]
	last := page[len(page)-1]
	next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	return page, &next, nil
}

func (s *service) allow(ctx context.Context, scope string, limit int, window time.Duration) error {
	if limit <= 0 || window <= 0 {
		return nil
	}
	ok, count, err := s.limiter.FixedWindowAllow(ctx, scope, int64(limit), window)
	if err != nil {
		// A broken limiter should not lock everyone out.
		s.logg.Error(ctx, "auth: rate limiter unavailable", err)
		return nil
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later").
			WithDetails(map[string]any{"attempts": count})
	}
	return nil
}
