package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	"github.com/dnadiscipleship/dna-backend/pkg/pagination"
)

// Repository exposes login identity, role and magic-link token persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		First(&user, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertUser finds or creates the login identity for the normalized email.
// An existing user keeps its stored name unless it is blank.
func (r *Repository) UpsertUser(ctx context.Context, email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "LOWER(email) = ?", email).Error
	if err == nil {
		if user.Name == "" && name != "" {
			user.Name = name
			if err := r.db.WithContext(ctx).Save(&user).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	user = models.User{Email: email, Name: name}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) ListRoles(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error) {
	var roles []models.UserRole
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// EnsureRole grants a role binding if the user does not already hold it.
func (r *Repository) EnsureRole(ctx context.Context, userID uuid.UUID, role enums.Role, churchID *uuid.UUID) error {
	query := r.db.WithContext(ctx).Where("user_id = ? AND role = ?", userID, role)
	if churchID != nil {
		query = query.Where("church_id = ?", *churchID)
	} else {
		query = query.Where("church_id IS NULL")
	}
	var existing models.UserRole
	err := query.First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	binding := models.UserRole{UserID: userID, Role: role, ChurchID: churchID}
	return r.db.WithContext(ctx).Create(&binding).Error
}

func (r *Repository) CreateMagicLinkToken(ctx context.Context, token *models.MagicLinkToken) (*models.MagicLinkToken, error) {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

func (r *Repository) FindMagicLinkToken(ctx context.Context, token string) (*models.MagicLinkToken, error) {
	var row models.MagicLinkToken
	if err := r.db.WithContext(ctx).First(&row, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindUsedMagicLinkToken serves the legacy cookie path, which only requires
// that the token was consumed by a successful verification.
func (r *Repository) FindUsedMagicLinkToken(ctx context.Context, token string) (*models.MagicLinkToken, error) {
	var row models.MagicLinkToken
	if err := r.db.WithContext(ctx).
		First(&row, "token = ? AND used = ?", token, true).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) MarkTokenUsed(ctx context.Context, token *models.MagicLinkToken, usedAt time.Time) error {
	token.Used = true
	token.UsedAt = &usedAt
	return r.db.WithContext(ctx).Save(token).Error
}

func (r *Repository) FindAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.db.WithContext(ctx).
		First(&admin, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// TokenHistoryFilters narrows the magic-link audit listing.
type TokenHistoryFilters struct {
	Email string
}

// ListTokenHistory returns magic-link tokens newest-first with cursor pagination.
func (r *Repository) ListTokenHistory(ctx context.Context, filters TokenHistoryFilters, params pagination.Params) ([]models.MagicLinkToken, error) {
	query := r.db.WithContext(ctx).Model(&models.MagicLinkToken{})
	if filters.Email != "" {
		query = query.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(filters.Email)))
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var tokens []models.MagicLinkToken
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}
