package auth

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/dnadiscipleship/dna-backend/pkg/auth"
	"github.com/dnadiscipleship/dna-backend/pkg/config"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type tokenStore interface {
	CreateMagicLinkToken(ctx context.Context, token *models.MagicLinkToken) (*models.MagicLinkToken, error)
}

type magicLinkMailer interface {
	MagicLink(ctx context.Context, recipient, name, loginURL string, expiresIn time.Duration)
}

// LinkIssuer mints single-use magic-link tokens and emails the login URL.
// It is a standalone piece so invite flows can send links without pulling in
// the full session service.
type LinkIssuer struct {
	tokens  tokenStore
	mailer  magicLinkMailer
	logg    *logger.Logger
	baseURL string
	ttl     time.Duration
}

// NewLinkIssuer wires the magic-link issuer.
func NewLinkIssuer(tokens tokenStore, mailer magicLinkMailer, appCfg config.AppConfig, sessionCfg config.SessionConfig, logg *logger.Logger) (*LinkIssuer, error) {
	if tokens == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth: token store is required")
	}
	if mailer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth: mailer is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth: logger is required")
	}
	ttl := sessionCfg.MagicLinkTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LinkIssuer{
		tokens:  tokens,
		mailer:  mailer,
		logg:    logg,
		baseURL: strings.TrimRight(appCfg.BaseURL, "/"),
		ttl:     ttl,
	}, nil
}

// SendLoginLink creates a token row and emails the login link. The token is
// persisted before the email goes out so a slow SMTP hop can never lose it.
func (l *LinkIssuer) SendLoginLink(ctx context.Context, email, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
	}

	value, err := auth.GenerateMagicLinkToken()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "auth: generate magic link token")
	}
	row := &models.MagicLinkToken{
		Token:     value,
		Email:     email,
		ExpiresAt: time.Now().UTC().Add(l.ttl),
	}
	if _, err := l.tokens.CreateMagicLinkToken(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create magic link token")
	}

	l.mailer.MagicLink(ctx, email, name, l.loginURL(value), l.ttl)
	return nil
}

func (l *LinkIssuer) loginURL(token string) string {
	return l.baseURL + "/auth/verify?token=" + url.QueryEscape(token)
}
