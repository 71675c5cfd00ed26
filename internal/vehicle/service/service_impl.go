package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/servicebay/internal/audit/domain"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/vehicle/domain"
	"github.com/smallbiznis/servicebay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("vehicle.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

type vehicleFields struct {
	registrationNo string
	make           string
	model          string
	customerID     snowflake.ID
}

func (s *Service) Create(ctx context.Context, req domain.CreateVehicleRequest) (domain.Vehicle, error) {
	fields, err := validateFields(req.RegistrationNo, req.Make, req.Model, req.CustomerID)
	if err != nil {
		return domain.Vehicle{}, err
	}

	now := s.clock.Now().UTC()
	vehicle := domain.Vehicle{
		ID:             s.genID.Generate(),
		RegistrationNo: fields.registrationNo,
		Make:           fields.make,
		Model:          fields.model,
		CustomerID:     fields.customerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.CustomerExists(ctx, tx, fields.customerID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrCustomerNotFound
		}
		if err := s.repo.Insert(ctx, tx, &vehicle); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateRegistration
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Vehicle{}, err
	}

	s.audit(ctx, "vehicle.created", vehicle.ID, map[string]any{
		"registration_no": vehicle.RegistrationNo,
		"customer_id":     vehicle.CustomerID.String(),
	})
	return vehicle, nil
}

func (s *Service) List(ctx context.Context) ([]domain.VehicleView, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.VehicleView{}
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Vehicle, error) {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return domain.Vehicle{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if item == nil {
		return domain.Vehicle{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateVehicleRequest) (domain.Vehicle, error) {
	id, err := parseID(req.ID, domain.ErrInvalidID)
	if err != nil {
		return domain.Vehicle{}, err
	}
	fields, err := validateFields(req.RegistrationNo, req.Make, req.Model, req.CustomerID)
	if err != nil {
		return domain.Vehicle{}, err
	}

	var updated domain.Vehicle
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		exists, err := s.repo.CustomerExists(ctx, tx, fields.customerID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrCustomerNotFound
		}

		existing.RegistrationNo = fields.registrationNo
		existing.Make = fields.make
		existing.Model = fields.model
		existing.CustomerID = fields.customerID
		existing.UpdatedAt = s.clock.Now().UTC()
		if _, err := s.repo.Update(ctx, tx, existing); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateRegistration
			}
			return err
		}
		updated = *existing
		return nil
	})
	if err != nil {
		return domain.Vehicle{}, err
	}

	s.audit(ctx, "vehicle.updated", updated.ID, nil)
	return updated, nil
}

// Delete refuses vehicles with job history; jobs are never removed.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobs, err := s.repo.CountJobs(ctx, tx, id)
		if err != nil {
			return err
		}
		if jobs > 0 {
			return domain.ErrHasJobs
		}
		affected, err := s.repo.Delete(ctx, tx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit(ctx, "vehicle.deleted", id, nil)
	return nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	entry := auditdomain.Entry{Action: action, TargetType: "vehicle", TargetID: id, Metadata: metadata}
	if err := s.auditSvc.Record(ctx, entry); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func validateFields(registrationNo, vehicleMake, vehicleModel, customerID string) (vehicleFields, error) {
	fields := vehicleFields{
		registrationNo: strings.ToUpper(strings.TrimSpace(registrationNo)),
		make:           strings.TrimSpace(vehicleMake),
		model:          strings.TrimSpace(vehicleModel),
	}
	if fields.registrationNo == "" {
		return vehicleFields{}, domain.ErrInvalidRegistration
	}
	if fields.make == "" {
		return vehicleFields{}, domain.ErrInvalidMake
	}
	if fields.model == "" {
		return vehicleFields{}, domain.ErrInvalidModel
	}
	id, err := parseID(customerID, domain.ErrInvalidCustomer)
	if err != nil {
		return vehicleFields{}, err
	}
	fields.customerID = id
	return fields, nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, invalid
	}
	return id, nil
}
