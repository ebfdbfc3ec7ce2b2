package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
)

type stubVerifier struct {
	valid string
}

func (v *stubVerifier) VerifyWebhookSignature(_ []byte, signature string) bool {
	return signature == v.valid
}

type stubUserStore struct {
	byExternalID map[string]*models.User
	updates      map[uuid.UUID]map[string]any
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{
		byExternalID: map[string]*models.User{},
		updates:      map[uuid.UUID]map[string]any{},
	}
}

func (s *stubUserStore) FindByExternalID(_ context.Context, externalID string) (*models.User, error) {
	user, ok := s.byExternalID[externalID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserStore) Create(_ context.Context, user *models.User) error {
	user.ID = uuid.New()
	s.byExternalID[user.ExternalID] = user
	return nil
}

func (s *stubUserStore) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates[id] = updates
	return nil
}

func (s *stubUserStore) DeleteByExternalID(_ context.Context, externalID string) error {
	if _, ok := s.byExternalID[externalID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.byExternalID, externalID)
	return nil
}

func newIdentityProcessor(t *testing.T, store *stubUserStore) *Processor {
	t.Helper()
	processor, err := NewProcessor(ProcessorParams{
		Provider: &stubVerifier{valid: "good-signature"},
		Users:    store,
		Logger:   logger.New(logger.Options{ServiceName: "idp-webhook-test"}),
	})
	require.NoError(t, err)
	return processor
}

const createdBody = `{
  "type": "user.created",
  "data": {
    "id": "ext_1",
    "first_name": "Asha",
    "last_name": "Patel",
    "image_url": "https://img.example.com/asha.png",
    "email_addresses": [{"email_address": "asha@example.com"}]
  }
}`

func TestProcessUserCreated(t *testing.T) {
	store := newStubUserStore()
	processor := newIdentityProcessor(t, store)

	require.NoError(t, processor.Process(context.Background(), []byte(createdBody), "good-signature"))

	user := store.byExternalID["ext_1"]
	require.NotNil(t, user)
	assert.Equal(t, "Asha Patel", user.Name)
	assert.Equal(t, "asha@example.com", user.Email)
	require.NotNil(t, user.AvatarURL)
}

func TestProcessUserUpdated(t *testing.T) {
	store := newStubUserStore()
	existing := &models.User{ID: uuid.New(), ExternalID: "ext_1", Name: "Asha", Email: "old@example.com"}
	store.byExternalID["ext_1"] = existing
	processor := newIdentityProcessor(t, store)

	body := `{
  "type": "user.updated",
  "data": {
    "id": "ext_1",
    "first_name": "Asha",
    "last_name": "P",
    "email_addresses": [{"email_address": "new@example.com"}]
  }
}`
	require.NoError(t, processor.Process(context.Background(), []byte(body), "good-signature"))

	updates := store.updates[existing.ID]
	require.NotNil(t, updates)
	assert.Equal(t, "new@example.com", updates["email"])
	assert.Equal(t, "Asha P", updates["name"])
}

func TestProcessUserUpdatedUnknownCreates(t *testing.T) {
	store := newStubUserStore()
	processor := newIdentityProcessor(t, store)

	body := `{
  "type": "user.updated",
  "data": {
    "id": "ext_2",
    "first_name": "Ravi",
    "email_addresses": [{"email_address": "ravi@example.com"}]
  }
}`
	require.NoError(t, processor.Process(context.Background(), []byte(body), "good-signature"))
	require.NotNil(t, store.byExternalID["ext_2"])
	assert.Equal(t, "Ravi", store.byExternalID["ext_2"].Name)
}

func TestProcessUserDeleted(t *testing.T) {
	store := newStubUserStore()
	store.byExternalID["ext_1"] = &models.User{ID: uuid.New(), ExternalID: "ext_1"}
	processor := newIdentityProcessor(t, store)
	ctx := context.Background()

	body := `{"type": "user.deleted", "data": {"id": "ext_1"}}`
	require.NoError(t, processor.Process(ctx, []byte(body), "good-signature"))
	assert.Nil(t, store.byExternalID["ext_1"])

	// Deleting again is tolerated.
	require.NoError(t, processor.Process(ctx, []byte(body), "good-signature"))
}

func TestProcessRejectsBadSignature(t *testing.T) {
	store := newStubUserStore()
	processor := newIdentityProcessor(t, store)

	err := processor.Process(context.Background(), []byte(createdBody), "forged")
	assert.Equal(t, pkgerrors.CodeVerification, pkgerrors.As(err).Code())
	assert.Empty(t, store.byExternalID)
}

func TestProcessMissingUserID(t *testing.T) {
	store := newStubUserStore()
	processor := newIdentityProcessor(t, store)

	body := `{"type": "user.created", "data": {}}`
	err := processor.Process(context.Background(), []byte(body), "good-signature")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
