package directory

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	domain "github.com/example/preschool-chat/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

func startModule(t *testing.T) *DirectoryModule {
	t.Helper()
	m := NewModule(filepath.Join(t.TempDir(), "directory.db"), false, &mockLogger{})
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })
	return m
}

func TestDirectoryModule_HealthBeforeStart(t *testing.T) {
	m := NewModule("unused.db", false, &mockLogger{})

	status := m.Health(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "directory", m.Name())
}

func TestDirectoryModule_StartSeedsAndServes(t *testing.T) {
	m := startModule(t)
	ctx := context.Background()

	assert.True(t, m.Health(ctx).Healthy)

	list, err := m.listAdmins(ctx, ListAdminsRequest{}, nil)
	require.NoError(t, err)
	assert.Nil(t, list.Error)
	assert.Len(t, list.Admins, 6)

	got, err := m.getStaff(ctx, GetStaffRequest{ID: "admin002"}, nil)
	require.NoError(t, err)
	require.NotNil(t, got.Staff)
	assert.Equal(t, RoleHeadTeacher, got.Staff.Role)
}

func TestDirectoryModule_GetStaffErrors(t *testing.T) {
	m := startModule(t)
	ctx := context.Background()

	missing, err := m.getStaff(ctx, GetStaffRequest{ID: "admin404"}, nil)
	require.NoError(t, err)
	require.NotNil(t, missing.Error)
	assert.Equal(t, domain.ErrorKindNotFound, missing.Error.Kind)
	assert.Nil(t, missing.Staff)

	blank, err := m.getStaff(ctx, GetStaffRequest{ID: "  "}, nil)
	require.NoError(t, err)
	require.NotNil(t, blank.Error)
	assert.Equal(t, domain.ErrorKindValidation, blank.Error.Kind)
	assert.Equal(t, "adminId", blank.Error.Field)
}

func TestDirectoryModule_RestartKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.db")
	ctx := context.Background()

	first := NewModule(path, false, &mockLogger{})
	require.NoError(t, first.Start(ctx))
	require.NoError(t, first.Stop(ctx))

	second := NewModule(path, false, &mockLogger{})
	require.NoError(t, second.Start(ctx))
	defer func() { _ = second.Stop(ctx) }()

	list, err := second.listAdmins(ctx, ListAdminsRequest{}, nil)
	require.NoError(t, err)
	assert.Len(t, list.Admins, 6)
}

func TestDirectoryModule_ErrorsSurviveJSON(t *testing.T) {
	m := startModule(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		id       string
		wantKind domain.ErrorKind
	}{
		{name: "unknown id", id: "admin404", wantKind: domain.ErrorKindNotFound},
		{name: "blank id", id: "", wantKind: domain.ErrorKindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := m.getStaff(ctx, GetStaffRequest{ID: tt.id}, nil)
			require.NoError(t, err)

			data, err := json.Marshal(resp)
			require.NoError(t, err)
			var decoded GetStaffResponse
			require.NoError(t, json.Unmarshal(data, &decoded))

			rebuilt := decoded.Error.Err()
			assert.Equal(t, tt.wantKind, domain.KindOf(rebuilt))
			assert.Nil(t, decoded.Staff)
		})
	}

	t.Run("not found keeps the id", func(t *testing.T) {
		resp, _ := m.getStaff(ctx, GetStaffRequest{ID: "admin404"}, nil)
		data, err := json.Marshal(resp)
		require.NoError(t, err)
		var decoded GetStaffResponse
		require.NoError(t, json.Unmarshal(data, &decoded))

		var nf *domain.NotFoundError
		require.True(t, errors.As(decoded.Error.Err(), &nf))
		assert.Equal(t, "staff", nf.Resource)
		assert.Equal(t, "admin404", nf.ID)
	})
}
