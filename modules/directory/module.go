package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/example/preschool-chat/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DirectoryModule serves the staff directory from SQLite via GORM.
type DirectoryModule struct {
	db      *gorm.DB
	repo    *Repository
	dbPath  string
	debugDB bool
	logger  types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*DirectoryModule)(nil)
var _ mono.ServiceProviderModule = (*DirectoryModule)(nil)
var _ mono.HealthCheckableModule = (*DirectoryModule)(nil)

// NewModule creates a new DirectoryModule backed by the SQLite file at
// dbPath.
func NewModule(dbPath string, debugDB bool, logger types.Logger) *DirectoryModule {
	return &DirectoryModule{
		dbPath:  dbPath,
		debugDB: debugDB,
		logger:  logger,
	}
}

// Name returns the module name.
func (m *DirectoryModule) Name() string {
	return "directory"
}

// Health pings the database.
func (m *DirectoryModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *DirectoryModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListAdmins, json.Unmarshal, json.Marshal, m.listAdmins,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListAdmins, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetStaff, json.Unmarshal, json.Marshal, m.getStaff,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetStaff, err)
	}

	m.logger.Info("Registered directory services", "services", []string{ServiceListAdmins, ServiceGetStaff})
	return nil
}

// Start opens the database, runs migrations and seeds the default staff.
func (m *DirectoryModule) Start(ctx context.Context) error {
	m.logger.Info("Connecting to SQLite database", "path", m.dbPath)

	logLevel := logger.Silent
	if m.debugDB {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := m.db.AutoMigrate(&StaffMember{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.repo = NewRepository(m.db)
	seeded, err := m.repo.Seed(ctx, DefaultStaff())
	if err != nil {
		return err
	}
	if seeded > 0 {
		m.logger.Info("Seeded staff directory", "count", seeded)
	}

	m.logger.Info("Directory module started")
	return nil
}

// Stop closes the database connection.
func (m *DirectoryModule) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	m.logger.Info("Directory database closed")
	return nil
}

func (m *DirectoryModule) listAdmins(ctx context.Context, _ ListAdminsRequest, _ *mono.Msg) (ListAdminsResponse, error) {
	admins, err := m.repo.FindAll(ctx)
	if err != nil {
		m.logger.Error("Failed to list staff", "error", err)
		return ListAdminsResponse{Admins: []StaffMember{}, Error: domain.NewReplyError(err)}, nil
	}
	return ListAdminsResponse{Admins: admins}, nil
}

func (m *DirectoryModule) getStaff(ctx context.Context, req GetStaffRequest, _ *mono.Msg) (GetStaffResponse, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		err := &domain.ValidationError{Field: "adminId", Reason: "adminId is required"}
		return GetStaffResponse{Error: domain.NewReplyError(err)}, nil
	}

	member, err := m.repo.FindByID(ctx, id)
	if err != nil {
		if domain.KindOf(err) == domain.ErrorKindInternal {
			m.logger.Error("Failed to load staff", "id", id, "error", err)
		}
		return GetStaffResponse{Error: domain.NewReplyError(err)}, nil
	}
	return GetStaffResponse{Staff: member}, nil
}
