package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/idp"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
)

type stubProvider struct {
	tokens   map[string]string
	profiles map[string]*idp.Profile
}

func (p *stubProvider) VerifySessionToken(token string) (string, error) {
	externalID, ok := p.tokens[token]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session token")
	}
	return externalID, nil
}

func (p *stubProvider) FetchProfile(_ context.Context, externalID string) (*idp.Profile, error) {
	profile, ok := p.profiles[externalID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "identity not found")
	}
	return profile, nil
}

type stubUserStore struct {
	byExternalID map[string]*models.User
	createErr    error
	created      []*models.User
}

func (s *stubUserStore) FindByExternalID(_ context.Context, externalID string) (*models.User, error) {
	user, ok := s.byExternalID[externalID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserStore) Create(_ context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, user)
	s.byExternalID[user.ExternalID] = user
	return nil
}

func newResolver(t *testing.T, provider *stubProvider, store *stubUserStore) *Resolver {
	t.Helper()
	resolver, err := NewResolver(ResolverParams{
		Provider: provider,
		Users:    store,
		Logger:   logger.New(logger.Options{ServiceName: "identity-test"}),
	})
	require.NoError(t, err)
	return resolver
}

func TestResolveExistingUser(t *testing.T) {
	existing := &models.User{ExternalID: "ext_1", Email: "asha@example.com", Name: "Asha"}
	provider := &stubProvider{tokens: map[string]string{"tok": "ext_1"}}
	store := &stubUserStore{byExternalID: map[string]*models.User{"ext_1": existing}}
	resolver := newResolver(t, provider, store)

	user, err := resolver.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Same(t, existing, user)
	assert.Empty(t, store.created)
}

func TestResolveCreatesUserOnFirstSight(t *testing.T) {
	provider := &stubProvider{
		tokens: map[string]string{"tok": "ext_new"},
		profiles: map[string]*idp.Profile{
			"ext_new": {
				ExternalID: "ext_new",
				Email:      "ravi@example.com",
				Name:       "Ravi",
				AvatarURL:  "https://img.example.com/ravi.png",
			},
		},
	}
	store := &stubUserStore{byExternalID: map[string]*models.User{}}
	resolver := newResolver(t, provider, store)

	user, err := resolver.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, "ext_new", user.ExternalID)
	assert.Equal(t, "ravi@example.com", user.Email)
	require.NotNil(t, user.AvatarURL)
	assert.Equal(t, "https://img.example.com/ravi.png", *user.AvatarURL)
}

func TestResolveBadToken(t *testing.T) {
	provider := &stubProvider{tokens: map[string]string{}}
	store := &stubUserStore{byExternalID: map[string]*models.User{}}
	resolver := newResolver(t, provider, store)

	_, err := resolver.Resolve(context.Background(), "forged")
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = resolver.Resolve(context.Background(), "")
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestResolveProfileGone(t *testing.T) {
	provider := &stubProvider{
		tokens:   map[string]string{"tok": "ext_gone"},
		profiles: map[string]*idp.Profile{},
	}
	store := &stubUserStore{byExternalID: map[string]*models.User{}}
	resolver := newResolver(t, provider, store)

	_, err := resolver.Resolve(context.Background(), "tok")
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}
