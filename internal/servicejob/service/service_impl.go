package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/servicebay/internal/audit/domain"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/config"
	invoicedomain "github.com/smallbiznis/servicebay/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/servicebay/internal/observability/metrics"
	"github.com/smallbiznis/servicebay/internal/servicejob/domain"
	"github.com/smallbiznis/servicebay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Shop        *config.ShopConfigHolder
	Repo        domain.Repository
	InvoiceRepo invoicedomain.Repository
	AuditSvc    auditdomain.Service `optional:"true"`
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	shop        *config.ShopConfigHolder
	repo        domain.Repository
	invoiceRepo invoicedomain.Repository
	auditSvc    auditdomain.Service
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("servicejob.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		shop:        p.Shop,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
		auditSvc:    p.AuditSvc,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateJobRequest) (domain.ServiceJob, error) {
	if req.VehicleID <= 0 {
		return domain.ServiceJob{}, domain.ErrInvalidVehicle
	}
	if req.Date.IsZero() {
		return domain.ServiceJob{}, domain.ErrInvalidDate
	}
	if req.MechanicID != nil && *req.MechanicID <= 0 {
		req.MechanicID = nil
	}

	status := domain.StatusScheduled
	if req.MechanicID != nil {
		status = domain.StatusAssigned
	}

	now := s.clock.Now().UTC()
	job := domain.ServiceJob{
		ID:         s.genID.Generate(),
		VehicleID:  req.VehicleID,
		MechanicID: req.MechanicID,
		Date:       req.Date.UTC(),
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		job.Notes = &notes
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.VehicleExists(ctx, tx, job.VehicleID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrVehicleNotFound
		}
		if job.MechanicID != nil {
			ok, err := s.repo.MechanicExists(ctx, tx, *job.MechanicID)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrMechanicNotFound
			}
		}
		return s.repo.Insert(ctx, tx, &job)
	})
	if err != nil {
		return domain.ServiceJob{}, err
	}

	s.metrics.RecordJobCreated(ctx, string(job.Status))
	s.emitAudit(ctx, "service_job.created", job.ID, map[string]any{
		"vehicle_id": job.VehicleID.String(),
		"status":     string(job.Status),
	})
	return job, nil
}

func (s *Service) List(ctx context.Context) ([]domain.JobView, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.JobView{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.ServiceJob, error) {
	if id <= 0 {
		return domain.ServiceJob{}, domain.ErrInvalidID
	}
	job, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ServiceJob{}, err
	}
	if job == nil {
		return domain.ServiceJob{}, domain.ErrNotFound
	}
	return *job, nil
}

// AssignMechanic sets the job's mechanic and promotes a Scheduled job to Assigned.
func (s *Service) AssignMechanic(ctx context.Context, jobID, mechanicID snowflake.ID) (domain.ServiceJob, error) {
	if jobID <= 0 {
		return domain.ServiceJob{}, domain.ErrInvalidID
	}
	if mechanicID <= 0 {
		return domain.ServiceJob{}, domain.ErrInvalidMechanic
	}

	var (
		updated    domain.ServiceJob
		fromStatus domain.JobStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.repo.FindByIDForUpdate(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return domain.ErrNotFound
		}
		if job.Status.Terminal() {
			return domain.ErrAlreadyInvoiced
		}
		ok, err := s.repo.MechanicExists(ctx, tx, mechanicID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrMechanicNotFound
		}

		fromStatus = job.Status
		if job.Status == domain.StatusScheduled {
			job.Status = domain.StatusAssigned
		}
		job.MechanicID = &mechanicID
		job.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.UpdateMechanic(ctx, tx, job.ID, mechanicID, job.Status, job.UpdatedAt); err != nil {
			return err
		}
		updated = *job
		return nil
	})
	if err != nil {
		return domain.ServiceJob{}, err
	}

	if fromStatus != updated.Status {
		s.metrics.RecordJobTransition(ctx, string(fromStatus), string(updated.Status))
	}
	s.emitAudit(ctx, "service_job.mechanic_assigned", updated.ID, map[string]any{
		"mechanic_id": mechanicID.String(),
		"status":      string(updated.Status),
	})
	return updated, nil
}

// SetStatus overwrites the job status without side effects. The allowed moves
// depend on the shop's transition policy.
func (s *Service) SetStatus(ctx context.Context, jobID snowflake.ID, status domain.JobStatus) (domain.ServiceJob, error) {
	if jobID <= 0 {
		return domain.ServiceJob{}, domain.ErrInvalidID
	}
	policy := s.shop.Get().TransitionPolicy

	var (
		updated    domain.ServiceJob
		fromStatus domain.JobStatus
		changed    bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.repo.FindByIDForUpdate(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return domain.ErrNotFound
		}

		noop, err := domain.CheckTransition(policy, *job, status)
		if err != nil {
			return err
		}
		updated = *job
		if noop {
			return nil
		}

		fromStatus = job.Status
		updated.Status = status
		updated.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.UpdateStatus(ctx, tx, job.ID, status, updated.UpdatedAt); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return domain.ServiceJob{}, err
	}

	if changed {
		s.metrics.RecordJobTransition(ctx, string(fromStatus), string(updated.Status))
		s.emitAudit(ctx, "service_job.status_changed", updated.ID, map[string]any{
			"from_status": string(fromStatus),
			"to_status":   string(updated.Status),
		})
	}
	return updated, nil
}

// CompleteAndInvoice records labor, bills the consumed parts plus labor and
// marks the job Invoiced. All writes commit together or not at all.
func (s *Service) CompleteAndInvoice(ctx context.Context, jobID snowflake.ID, laborCharges decimal.Decimal) (invoicedomain.Invoice, error) {
	if jobID <= 0 {
		return invoicedomain.Invoice{}, domain.ErrInvalidID
	}
	if laborCharges.IsNegative() {
		return invoicedomain.Invoice{}, domain.ErrInvalidLaborCharges
	}
	labor := laborCharges.Round(2)

	var (
		invoice    invoicedomain.Invoice
		fromStatus domain.JobStatus
		partsCost  decimal.Decimal
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.repo.FindByIDForUpdate(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return domain.ErrNotFound
		}
		if job.Status.Terminal() {
			return domain.ErrAlreadyInvoiced
		}
		fromStatus = job.Status

		now := s.clock.Now().UTC()
		if err := s.repo.UpdateLaborCharges(ctx, tx, job.ID, labor, now); err != nil {
			return err
		}

		partsCost, err = s.repo.SumPartsCost(ctx, tx, job.ID)
		if err != nil {
			return err
		}

		invoice = invoicedomain.Invoice{
			ID:         s.genID.Generate(),
			JobID:      job.ID,
			Amount:     partsCost.Add(labor).Round(2),
			DateIssued: clock.Today(s.clock),
			Status:     invoicedomain.InvoiceStatusUnpaid,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.invoiceRepo.Insert(ctx, tx, &invoice); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyInvoiced
			}
			return err
		}

		return s.repo.UpdateStatus(ctx, tx, job.ID, domain.StatusInvoiced, now)
	})
	if err != nil {
		if db.IsRetryableErr(err) {
			s.log.Warn("invoice transaction hit contention",
				zap.String("job_id", jobID.String()),
				zap.Error(err),
			)
		}
		return invoicedomain.Invoice{}, err
	}

	amount, _ := invoice.Amount.Float64()
	s.metrics.RecordJobTransition(ctx, string(fromStatus), string(domain.StatusInvoiced))
	s.metrics.RecordInvoiceIssued(ctx, amount)
	s.log.Info("invoice issued",
		zap.String("job_id", jobID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("amount", invoice.Amount.StringFixed(2)),
	)
	s.emitAudit(ctx, "service_job.invoiced", jobID, map[string]any{
		"invoice_id":    invoice.ID.String(),
		"parts_cost":    partsCost.StringFixed(2),
		"labor_charges": labor.StringFixed(2),
		"amount":        invoice.Amount.StringFixed(2),
		"from_status":   string(fromStatus),
	})
	return invoice, nil
}

// UpdateStatus routes Completed to CompleteAndInvoice and every other status
// to SetStatus.
func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (domain.UpdateStatusResult, error) {
	status, ok := domain.ParseStatus(strings.TrimSpace(req.Status))
	if !ok {
		return domain.UpdateStatusResult{}, domain.ErrInvalidStatus
	}

	if status != domain.StatusCompleted {
		job, err := s.SetStatus(ctx, req.JobID, status)
		if err != nil {
			return domain.UpdateStatusResult{}, err
		}
		return domain.UpdateStatusResult{Job: job}, nil
	}

	if req.LaborCharges == nil {
		return domain.UpdateStatusResult{}, domain.ErrLaborChargesRequired
	}
	invoice, err := s.CompleteAndInvoice(ctx, req.JobID, *req.LaborCharges)
	if err != nil {
		return domain.UpdateStatusResult{}, err
	}
	job, err := s.Get(ctx, req.JobID)
	if err != nil {
		return domain.UpdateStatusResult{}, err
	}
	return domain.UpdateStatusResult{Job: job, Invoice: &invoice}, nil
}

func (s *Service) emitAudit(ctx context.Context, action string, jobID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	entry := auditdomain.Entry{Action: action, TargetType: "service_job", TargetID: jobID, JobID: jobID, Metadata: metadata}
	if err := s.auditSvc.Record(ctx, entry); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
