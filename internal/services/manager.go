package services

import (
	"log/slog"

	"github.com/assesshq/session-engine/internal/cache"
	"github.com/assesshq/session-engine/internal/events"
	"github.com/assesshq/session-engine/internal/repositories"
	"github.com/assesshq/session-engine/internal/utils"
)

// ServiceManager wires the engine's services over one shared storage handle.
type ServiceManager interface {
	Session() SessionService
	Answer() AnswerService
	Violation() ViolationService
	Link() LinkService
	Maintenance() MaintenanceService
	Export() ExportService
}

type serviceManager struct {
	session     SessionService
	answer      AnswerService
	violation   ViolationService
	link        LinkService
	maintenance MaintenanceService
	export      ExportService
}

func NewServiceManager(
	repo repositories.TransactionRepository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
) ServiceManager {
	session := NewSessionService(repo, publisher, logger, validator)
	return &serviceManager{
		session:     session,
		answer:      NewAnswerService(repo, cacheService, logger, validator),
		violation:   NewViolationService(repo, session, logger, validator),
		link:        NewLinkService(repo, logger, validator),
		maintenance: NewMaintenanceService(repo, logger),
		export:      NewExportService(repo, logger),
	}
}

func (m *serviceManager) Session() SessionService         { return m.session }
func (m *serviceManager) Answer() AnswerService           { return m.answer }
func (m *serviceManager) Violation() ViolationService     { return m.violation }
func (m *serviceManager) Link() LinkService               { return m.link }
func (m *serviceManager) Maintenance() MaintenanceService { return m.maintenance }
func (m *serviceManager) Export() ExportService           { return m.export }
