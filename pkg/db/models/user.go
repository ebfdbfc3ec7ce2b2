package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
)

// User is the local record for an identity-provider account. It is created
// lazily the first time an external identity is observed.
type User struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ExternalID string         `gorm:"column:external_id;not null;uniqueIndex:users_external_id_key"`
	Email      string         `gorm:"column:email;not null"`
	Name       string         `gorm:"column:name;not null"`
	AvatarURL  *string        `gorm:"column:avatar_url"`
	Role       enums.UserRole `gorm:"column:role;type:text;not null;default:'buyer'"`
	Phone      *string        `gorm:"column:phone"`
	Address    *string        `gorm:"column:address"`
	City       *string        `gorm:"column:city"`
	PostalCode *string        `gorm:"column:postal_code"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
