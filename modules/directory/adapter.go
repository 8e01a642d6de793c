package directory

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/preschool-chat/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// DirectoryPort defines the interface for staff lookups.
type DirectoryPort interface {
	ListAdmins(ctx context.Context) ([]StaffMember, error)
	GetStaff(ctx context.Context, id string) (*StaffMember, error)
}

// DirectoryAdapter implements DirectoryPort using the service container.
type DirectoryAdapter struct {
	container mono.ServiceContainer
}

// NewDirectoryAdapter creates a new DirectoryAdapter.
func NewDirectoryAdapter(container mono.ServiceContainer) DirectoryPort {
	if container == nil {
		panic("directory: ServiceContainer is nil")
	}
	return &DirectoryAdapter{container: container}
}

// ListAdmins returns every staff account.
func (a *DirectoryAdapter) ListAdmins(ctx context.Context) ([]StaffMember, error) {
	req := ListAdminsRequest{}
	var resp ListAdminsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListAdmins,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, &domain.InternalError{Op: "list admins", Err: fmt.Errorf("failed to list admins: %w", err)}
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	if resp.Admins == nil {
		return []StaffMember{}, nil
	}
	return resp.Admins, nil
}

// GetStaff returns one staff profile or a *NotFoundError.
func (a *DirectoryAdapter) GetStaff(ctx context.Context, id string) (*StaffMember, error) {
	req := GetStaffRequest{ID: id}
	var resp GetStaffResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetStaff,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, &domain.InternalError{Op: "get staff", Err: fmt.Errorf("failed to get staff: %w", err)}
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Staff, nil
}
