package leaders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/internal/auditlog"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/types"
)

// Service manages church leaders, DNA leaders and DNA groups. Leader records
// are created by invite and never hard-deleted.
type Service interface {
	InviteChurchLeader(ctx context.Context, input InviteInput) (*models.ChurchLeader, error)
	InviteDNALeader(ctx context.Context, input InviteInput) (*models.DNALeader, error)
	UpdateChurchLeader(ctx context.Context, id uuid.UUID, input ProfileInput) (*models.ChurchLeader, error)
	UpdateDNALeader(ctx context.Context, id uuid.UUID, input ProfileInput) (*models.DNALeader, error)
	ListChurchLeaders(ctx context.Context, churchID uuid.UUID) ([]models.ChurchLeader, error)
	ListDNALeaders(ctx context.Context, churchID uuid.UUID) ([]models.DNALeader, error)

	// ActivateByEmail stamps activated_at and links the user id on every
	// leader record carrying the email. Called on first login.
	ActivateByEmail(ctx context.Context, email string, userID uuid.UUID) error

	SendLoginLinks(ctx context.Context, churchID uuid.UUID, actorEmail string) (types.BatchTally, error)

	CreateGroup(ctx context.Context, input GroupInput) (*models.DNAGroup, error)
	UpdateGroup(ctx context.Context, id uuid.UUID, input GroupInput) (*models.DNAGroup, error)
	DeleteGroup(ctx context.Context, id uuid.UUID) error
	ListGroups(ctx context.Context, churchID uuid.UUID) ([]models.DNAGroup, error)
}

// InviteInput creates a leader record and triggers a login link email.
type InviteInput struct {
	ChurchID   uuid.UUID
	Name       string
	Email      string
	Phone      *string
	RoleTitle  *string
	ActorEmail string
}

// ProfileInput edits a leader's contact details.
type ProfileInput struct {
	Name      string
	Email     string
	Phone     *string
	RoleTitle *string
}

// GroupInput carries DNA group fields for create and update.
type GroupInput struct {
	ChurchID      uuid.UUID
	DNALeaderID   *uuid.UUID
	LeaderName    string
	CoLeaderName  *string
	DiscipleNames []string
	StartDate     *time.Time
}

type leaderStore interface {
	CreateChurchLeader(ctx context.Context, leader *models.ChurchLeader) (*models.ChurchLeader, error)
	FindChurchLeader(ctx context.Context, id uuid.UUID) (*models.ChurchLeader, error)
	ListChurchLeaders(ctx context.Context, churchID uuid.UUID) ([]models.ChurchLeader, error)
	FindChurchLeadersByEmail(ctx context.Context, email string) ([]models.ChurchLeader, error)
	UpdateChurchLeader(ctx context.Context, leader *models.ChurchLeader) (*models.ChurchLeader, error)
	CreateDNALeader(ctx context.Context, leader *models.DNALeader) (*models.DNALeader, error)
	FindDNALeader(ctx context.Context, id uuid.UUID) (*models.DNALeader, error)
	ListDNALeaders(ctx context.Context, churchID uuid.UUID) ([]models.DNALeader, error)
	FindDNALeadersByEmail(ctx context.Context, email string) ([]models.DNALeader, error)
	UpdateDNALeader(ctx context.Context, leader *models.DNALeader) (*models.DNALeader, error)
	CreateGroup(ctx context.Context, group *models.DNAGroup) (*models.DNAGroup, error)
	FindGroup(ctx context.Context, id uuid.UUID) (*models.DNAGroup, error)
	ListGroups(ctx context.Context, churchID uuid.UUID) ([]models.DNAGroup, error)
	UpdateGroup(ctx context.Context, group *models.DNAGroup) (*models.DNAGroup, error)
	DeleteGroup(ctx context.Context, id uuid.UUID) error
}

type churchLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error)
}

// linkSender issues a magic-link login email for the address.
type linkSender interface {
	SendLoginLink(ctx context.Context, email, name string) error
}

type auditTrail interface {
	Record(ctx context.Context, entry auditlog.Entry)
}

type service struct {
	repo     leaderStore
	churches churchLoader
	links    linkSender
	audit    auditTrail
	logg     *logger.Logger
}

// NewService wires the leaders service.
func NewService(repo leaderStore, churches churchLoader, links linkSender, audit auditTrail, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "leaders: repo is required")
	}
	if churches == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "leaders: church loader is required")
	}
	if links == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "leaders: link sender is required")
	}
	if audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "leaders: audit trail is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "leaders: logger is required")
	}
	return &service{repo: repo, churches: churches, links: links, audit: audit, logg: logg}, nil
}

func (s *service) InviteChurchLeader(ctx context.Context, input InviteInput) (*models.ChurchLeader, error) {
	name, email, err := s.validateInvite(ctx, input)
	if err != nil {
		return nil, err
	}
	leader := &models.ChurchLeader{
		ChurchID:  input.ChurchID,
		Name:      name,
		Email:     email,
		Phone:     input.Phone,
		RoleTitle: input.RoleTitle,
	}
	created, err := s.repo.CreateChurchLeader(ctx, leader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create church leader")
	}
	s.sendInviteLink(ctx, email, name)
	s.audit.Record(ctx, auditlog.Entry{
		ActorEmail: input.ActorEmail,
		Action:     "church_leader_invited",
		ChurchID:   &input.ChurchID,
		New:        leaderSnapshot{Name: name, Email: email},
	})
	return created, nil
}

func (s *service) InviteDNALeader(ctx context.Context, input InviteInput) (*models.DNALeader, error) {
	name, email, err := s.validateInvite(ctx, input)
	if err != nil {
		return nil, err
	}
	leader := &models.DNALeader{
		ChurchID: input.ChurchID,
		Name:     name,
		Email:    email,
		Phone:    input.Phone,
	}
	created, err := s.repo.CreateDNALeader(ctx, leader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create dna leader")
	}
	s.sendInviteLink(ctx, email, name)
	s.audit.Record(ctx, auditlog.Entry{
		ActorEmail: input.ActorEmail,
		Action:     "dna_leader_invited",
		ChurchID:   &input.ChurchID,
		New:        leaderSnapshot{Name: name, Email: email},
	})
	return created, nil
}

type leaderSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *service) validateInvite(ctx context.Context, input InviteInput) (name, email string, err error) {
	name = strings.TrimSpace(input.Name)
	email = strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "leader name is required")
	}
	if !strings.Contains(email, "@") {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "leader email is invalid")
	}
	if _, err := s.churches.FindByID(ctx, input.ChurchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load church")
	}
	return name, email, nil
}

// sendInviteLink is best-effort. A failed email never rolls back the invite.
func (s *service) sendInviteLink(ctx context.Context, email, name string) {
	if err := s.links.SendLoginLink(ctx, email, name); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "recipient", email), "leaders: invite login link failed", err)
	}
}

func (s *service) UpdateChurchLeader(ctx context.Context, id uuid.UUID, input ProfileInput) (*models.ChurchLeader, error) {
	name, email, err := validateProfile(input)
	if err != nil {
		return nil, err
	}
	leader, err := s.repo.FindChurchLeader(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church leader not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load church leader")
	}
	leader.Name = name
	leader.Email = email
	leader.Phone = input.Phone
	leader.RoleTitle = input.RoleTitle
	updated, err := s.repo.UpdateChurchLeader(ctx, leader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update church leader")
	}
	return updated, nil
}

func (s *service) UpdateDNALeader(ctx context.Context, id uuid.UUID, input ProfileInput) (*models.DNALeader, error) {
	name, email, err := validateProfile(input)
	if err != nil {
		return nil, err
	}
	leader, err := s.repo.FindDNALeader(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dna leader not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load dna leader")
	}
	leader.Name = name
	leader.Email = email
	leader.Phone = input.Phone
	updated, err := s.repo.UpdateDNALeader(ctx, leader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update dna leader")
	}
	return updated, nil
}

func validateProfile(input ProfileInput) (name, email string, err error) {
	name = strings.TrimSpace(input.Name)
	email = strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "leader name is required")
	}
	if !strings.Contains(email, "@") {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "leader email is invalid")
	}
	return name, email, nil
}

func (s *service) ListChurchLeaders(ctx context.Context, churchID uuid.UUID) ([]models.ChurchLeader, error) {
	leaders, err := s.repo.ListChurchLeaders(ctx, churchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list church leaders")
	}
	return leaders, nil
}

func (s *service) ListDNALeaders(ctx context.Context, churchID uuid.UUID) ([]models.DNALeader, error) {
	leaders, err := s.repo.ListDNALeaders(ctx, churchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list dna leaders")
	}
	return leaders, nil
}

func (s *service) ActivateByEmail(ctx context.Context, email string, userID uuid.UUID) error {
	now := time.Now().UTC()
	var combined error

	churchLeaders, err := s.repo.FindChurchLeadersByEmail(ctx, email)
	if err != nil {
		combined = multierr.Append(combined, err)
	}
	for i := range churchLeaders {
		leader := churchLeaders[i]
		if leader.ActivatedAt != nil && leader.UserID != nil {
			continue
		}
		if leader.ActivatedAt == nil {
			leader.ActivatedAt = &now
		}
		leader.UserID = &userID
		if _, err := s.repo.UpdateChurchLeader(ctx, &leader); err != nil {
			combined = multierr.Append(combined, err)
		}
	}

	dnaLeaders, err := s.repo.FindDNALeadersByEmail(ctx, email)
	if err != nil {
		combined = multierr.Append(combined, err)
	}
	for i := range dnaLeaders {
		leader := dnaLeaders[i]
		if leader.ActivatedAt != nil && leader.UserID != nil {
			continue
		}
		if leader.ActivatedAt == nil {
			leader.ActivatedAt = &now
		}
		leader.UserID = &userID
		if _, err := s.repo.UpdateDNALeader(ctx, &leader); err != nil {
			combined = multierr.Append(combined, err)
		}
	}

	if combined != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "db: activate leader records")
	}
	return nil
}

func (s *service) SendLoginLinks(ctx context.Context, churchID uuid.UUID, actorEmail string) (types.BatchTally, error) {
	var tally types.BatchTally

	if _, err := s.churches.FindByID(ctx, churchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tally, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return tally, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load church")
	}

	churchLeaders, err := s.repo.ListChurchLeaders(ctx, churchID)
	if err != nil {
		return tally, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list church leaders")
	}
	dnaLeaders, err := s.repo.ListDNALeaders(ctx, churchID)
	if err != nil {
		return tally, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list dna leaders")
	}

	type recipient struct{ email, name string }
	recipients := make([]recipient, 0, len(churchLeaders)+len(dnaLeaders))
	seen := map[string]bool{}
	for _, leader := range churchLeaders {
		key := strings.ToLower(leader.Email)
		if seen[key] {
			continue
		}
		seen[key] = true
		recipients = append(recipients, recipient{email: leader.Email, name: leader.Name})
	}
	for _, leader := range dnaLeaders {
		key := strings.ToLower(leader.Email)
		if seen[key] {
			continue
		}
		seen[key] = true
		recipients = append(recipients, recipient{email: leader.Email, name: leader.Name})
	}

	var combined error
	for _, rec := range recipients {
		if err := s.links.SendLoginLink(ctx, rec.email, rec.name); err != nil {
			tally.Failed++
			tally.Errors = append(tally.Errors, fmt.Sprintf("%s: %s", rec.email, err.Error()))
			combined = multierr.Append(combined, err)
			continue
		}
		tally.Succeeded++
	}
	if combined != nil {
		s.logg.Error(s.logg.WithChurchID(ctx, churchID.String()), "leaders: bulk login link send had failures", combined)
	}

	s.audit.Record(ctx, auditlog.Entry{
		ActorEmail: actorEmail,
		Action:     "login_links_sent",
		ChurchID:   &churchID,
		New:        tally,
	})
	return tally, nil
}

func (s *service) CreateGroup(ctx context.Context, input GroupInput) (*models.DNAGroup, error) {
	leaderName := strings.TrimSpace(input.LeaderName)
	if leaderName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group leader name is required")
	}
	if _, err := s.churches.FindByID(ctx, input.ChurchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load church")
	}
	if input.DNALeaderID != nil {
		if _, err := s.repo.FindDNALeader(ctx, *input.DNALeaderID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "dna leader does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load dna leader")
		}
	}

	group := &models.DNAGroup{
		ChurchID:      input.ChurchID,
		DNALeaderID:   input.DNALeaderID,
		LeaderName:    leaderName,
		CoLeaderName:  input.CoLeaderName,
		DiscipleNames: pq.StringArray(input.DiscipleNames),
		StartDate:     input.StartDate,
	}
	created, err := s.repo.CreateGroup(ctx, group)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create dna group")
	}
	return created, nil
}

func (s *service) UpdateGroup(ctx context.Context, id uuid.UUID, input GroupInput) (*models.DNAGroup, error) {
	leaderName := strings.TrimSpace(input.LeaderName)
	if leaderName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group leader name is required")
	}
	group, err := s.repo.FindGroup(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dna group not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load dna group")
	}
	group.DNALeaderID = input.DNALeaderID
	group.LeaderName = leaderName
	group.CoLeaderName = input.CoLeaderName
	group.DiscipleNames = pq.StringArray(input.DiscipleNames)
	group.StartDate = input.StartDate
	updated, err := s.repo.UpdateGroup(ctx, group)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update dna group")
	}
	return updated, nil
}

func (s *service) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindGroup(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "dna group not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load dna group")
	}
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete dna group")
	}
	return nil
}

func (s *service) ListGroups(ctx context.Context, churchID uuid.UUID) ([]models.DNAGroup, error) {
	groups, err := s.repo.ListGroups(ctx, churchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list dna groups")
	}
	return groups, nil
}
