package identity

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db"
	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/idp"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
)

type identityProvider interface {
	VerifySessionToken(token string) (string, error)
	FetchProfile(ctx context.Context, externalID string) (*idp.Profile, error)
}

type userStore interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// Resolver turns a session token into a local user row, creating the row on
// first sight of an external identity.
type Resolver struct {
	provider identityProvider
	users    userStore
	logg     *logger.Logger
}

type ResolverParams struct {
	Provider identityProvider
	Users    userStore
	Logger   *logger.Logger
}

func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Provider == nil {
		return nil, fmt.Errorf("identity provider required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{
		provider: params.Provider,
		users:    params.Users,
		logg:     params.Logger,
	}, nil
}

// Resolve verifies a session token and returns the matching local user. An
// unknown external id gets a user created from the provider's profile.
func (r *Resolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session token missing")
	}

	externalID, err := r.provider.VerifySessionToken(token)
	if err != nil {
		return nil, err
	}

	user, err := r.users.FindByExternalID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "look up user")
	}

	return r.createFromProfile(ctx, externalID)
}

func (r *Resolver) createFromProfile(ctx context.Context, externalID string) (*models.User, error) {
	profile, err := r.provider.FetchProfile(ctx, externalID)
	if err != nil {
		if pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity no longer exists")
		}
		return nil, err
	}

	user := &models.User{
		ExternalID: profile.ExternalID,
		Email:      profile.Email,
		Name:       profile.Name,
		Role:       enums.RoleBuyer,
	}
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		user.AvatarURL = &avatar
	}

	if err := r.users.Create(ctx, user); err != nil {
		// Two requests can race on first sight; the loser re-reads.
		if db.IsUniqueViolation(err) {
			return r.users.FindByExternalID(ctx, externalID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	logCtx := r.logg.WithUserID(ctx, user.ID.String())
	r.logg.Info(logCtx, "user created from identity provider")
	return user, nil
}
