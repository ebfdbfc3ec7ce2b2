package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db"
	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

type signatureVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

type userStore interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteByExternalID(ctx context.Context, externalID string) error
}

// webhookEvent mirrors the identity provider's event envelope.
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		ImageURL       string `json:"image_url"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// Processor keeps local user rows in sync with the identity provider.
type Processor struct {
	provider signatureVerifier
	users    userStore
	logg     *logger.Logger
}

type ProcessorParams struct {
	Provider signatureVerifier
	Users    userStore
	Logger   *logger.Logger
}

func NewProcessor(params ProcessorParams) (*Processor, error) {
	if params.Provider == nil {
		return nil, fmt.Errorf("identity verifier required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Processor{
		provider: params.Provider,
		users:    params.Users,
		logg:     params.Logger,
	}, nil
}

// Process verifies and applies one identity event. Events for unknown users
// are tolerated: an update for a never-seen user creates it, a delete for a
// missing user is a no-op.
func (p *Processor) Process(ctx context.Context, body []byte, signature string) error {
	if !p.provider.VerifyWebhookSignature(body, signature) {
		return pkgerrors.New(pkgerrors.CodeVerification, "webhook signature mismatch")
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook body")
	}
	if event.Data.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing user id")
	}

	logCtx := p.logg.WithField(ctx, "event", event.Type)

	switch event.Type {
	case EventUserCreated, EventUserUpdated:
		if err := p.upsert(ctx, event); err != nil {
			return err
		}
	case EventUserDeleted:
		err := p.users.DeleteByExternalID(ctx, event.Data.ID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
		}
	default:
		p.logg.Info(logCtx, "ignoring unhandled identity event")
		return nil
	}

	p.logg.Info(logCtx, "identity event applied")
	return nil
}

func (p *Processor) upsert(ctx context.Context, event webhookEvent) error {
	name := strings.TrimSpace(event.Data.FirstName + " " + event.Data.LastName)
	email := ""
	if len(event.Data.EmailAddresses) > 0 {
		email = event.Data.EmailAddresses[0].EmailAddress
	}

	existing, err := p.users.FindByExternalID(ctx, event.Data.ID)
	if err == gorm.ErrRecordNotFound {
		user := &models.User{
			ExternalID: event.Data.ID,
			Email:      email,
			Name:       name,
			Role:       enums.RoleBuyer,
		}
		if event.Data.ImageURL != "" {
			avatar := event.Data.ImageURL
			user.AvatarURL = &avatar
		}
		if err := p.users.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "look up user")
	}

	updates := map[string]any{}
	if email != "" {
		updates["email"] = email
	}
	if name != "" {
		updates["name"] = name
	}
	if event.Data.ImageURL != "" {
		updates["avatar_url"] = event.Data.ImageURL
	}
	if len(updates) == 0 {
		return nil
	}
	if err := p.users.Update(ctx, existing.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return nil
}
