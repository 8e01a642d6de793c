package directory

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/preschool-chat/domain/chat"
	"gorm.io/gorm"
)

// Repository provides access to staff storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new staff repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Seed inserts members when the directory is empty. It returns the number
// of rows inserted.
func (r *Repository) Seed(ctx context.Context, members []StaffMember) (int, error) {
	inserted := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&StaffMember{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count staff: %w", err)
		}
		if count > 0 || len(members) == 0 {
			return nil
		}
		if err := tx.Create(&members).Error; err != nil {
			return fmt.Errorf("failed to seed staff: %w", err)
		}
		inserted = len(members)
		return nil
	})
	return inserted, err
}

// FindByID retrieves a staff member by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*StaffMember, error) {
	var member StaffMember
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Resource: "staff", ID: id}
		}
		return nil, fmt.Errorf("failed to find staff: %w", err)
	}
	return &member, nil
}

// FindAll retrieves every staff member ordered by id.
func (r *Repository) FindAll(ctx context.Context) ([]StaffMember, error) {
	members := make([]StaffMember, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to find staff: %w", err)
	}
	return members, nil
}
