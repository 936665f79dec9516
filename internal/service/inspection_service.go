// internal/service/inspection_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"epl2-service/internal/config"
	"epl2-service/internal/model"
	"epl2-service/internal/protocol"
	"epl2-service/internal/report"
	"epl2-service/internal/repository"
	"epl2-service/internal/utils"
	"epl2-service/pkg/epl2"
)

var (
	ErrJobNotFound        = errors.New("job not found")
	ErrJobTooLarge        = errors.New("job exceeds the configured size limit")
	ErrEmptyJob           = errors.New("job is empty")
	ErrNothingToForward   = errors.New("job has no decoded commands to forward")
	ErrInvalidTarget      = errors.New("invalid printer target")
	ErrPrinterUnreachable = errors.New("printer unreachable")
)

// EventPublisher receives job lifecycle events
type EventPublisher interface {
	Publish(event model.JobEvent)
}

// TransportFactory opens the way to a printer
type TransportFactory func(target model.PrinterTarget) (protocol.PrinterTransport, error)

// InspectRequest is a job submitted for inspection
type InspectRequest struct {
	Name   string
	Source string
	Data   []byte
}

// ForwardResult describes a completed forward
type ForwardResult struct {
	JobID       uuid.UUID `json:"job_id"`
	Target      string    `json:"target"`
	Commands    int       `json:"commands"`
	BytesSent   int       `json:"bytes_sent"`
	ForwardedAt time.Time `json:"forwarded_at"`
}

// InspectionService decodes, stores and forwards EPL2 jobs
type InspectionService struct {
	jobRepo      repository.JobRepository
	config       *config.Config
	events       EventPublisher
	newTransport TransportFactory
	logger       *utils.ServiceLogger
	auditLogger  *utils.AuditLogger
}

// NewInspectionService creates a new inspection service instance
func NewInspectionService(
	jobRepo repository.JobRepository,
	config *config.Config,
	events EventPublisher,
	logger *zap.Logger,
) *InspectionService {
	s := &InspectionService{
		jobRepo:     jobRepo,
		config:      config,
		events:      events,
		logger:      utils.NewServiceLogger(logger, "inspection-service"),
		auditLogger: utils.NewAuditLogger(logger),
	}
	s.newTransport = func(target model.PrinterTarget) (protocol.PrinterTransport, error) {
		return protocol.NewTransport(target, config.Printer.DefaultPort, logger)
	}
	return s
}

// SetTransportFactory replaces how printer transports are created
func (s *InspectionService) SetTransportFactory(f TransportFactory) {
	s.newTransport = f
}

// Policy returns the configured recovery policy
func (s *InspectionService) Policy() epl2.RecoveryPolicy {
	return s.config.Decoder.RecoveryPolicy()
}

// DPI returns the print head resolution used for physical dimensions
func (s *InspectionService) DPI() int {
	return s.config.Decoder.DPI
}

// CheckSize rejects jobs over the configured limit
func (s *InspectionService) CheckSize(n int) error {
	if int64(n) > s.config.Decoder.MaxJobBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrJobTooLarge, n, s.config.Decoder.MaxJobBytes)
	}
	return nil
}

// Decode analyzes a job without storing it
func (s *InspectionService) Decode(data []byte) (*Analysis, error) {
	if err := s.CheckSize(len(data)); err != nil {
		return nil, err
	}
	return Analyze(data, s.Policy(), s.config.Decoder.DPI), nil
}

// Inspect analyzes a job and stores it with its report
func (s *InspectionService) Inspect(ctx context.Context, req *InspectRequest) (*model.PrintJob, error) {
	if len(req.Data) == 0 {
		return nil, ErrEmptyJob
	}
	analysis, err := s.Decode(req.Data)
	if err != nil {
		return nil, err
	}

	job := &model.PrintJob{
		ID:           uuid.New(),
		Name:         req.Name,
		Source:       req.Source,
		SizeBytes:    len(req.Data),
		Status:       analysis.Status(),
		CommandCount: analysis.Report.CommandCount,
		ErrorCount:   analysis.Report.ErrorCount,
		Payload:      req.Data,
		Report:       analysis.Report,
		CreatedAt:    time.Now(),
	}
	if job.Name == "" {
		job.Name = "job-" + job.ID.String()[:8]
	}

	jobLogger := utils.NewJobLogger(s.logger.Logger, "inspect", job.ID.String())
	jobLogger.Start(zap.Int("size_bytes", job.SizeBytes))

	if err := s.jobRepo.Create(ctx, job); err != nil {
		jobLogger.Error(err)
		return nil, fmt.Errorf("failed to store job: %w", err)
	}

	jobLogger.Success(
		zap.String("status", string(job.Status)),
		zap.Int("commands", job.CommandCount),
		zap.Int("errors", job.ErrorCount),
	)

	severity := "INFO"
	if job.ErrorCount > 0 {
		severity = "WARNING"
	}
	s.publish(model.EventJobInspected, job.ID, severity, model.JSONObject{
		"name":          job.Name,
		"status":        job.Status,
		"command_count": job.CommandCount,
		"error_count":   job.ErrorCount,
	})

	return job, nil
}

// GetJob retrieves a job by ID
func (s *InspectionService) GetJob(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobs returns a page of jobs and the total matching count
func (s *InspectionService) ListJobs(ctx context.Context, filter *model.JobFilter) ([]*model.PrintJob, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	jobs, total, err := s.jobRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, total, nil
}

// DeleteJob removes a job
func (s *InspectionService) DeleteJob(ctx context.Context, id uuid.UUID) error {
	if err := s.jobRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrJobNotFound
		}
		return fmt.Errorf("failed to delete job: %w", err)
	}

	s.auditLogger.LogJobDeleted(id.String(), "api")
	s.publish(model.EventJobDeleted, id, "INFO", nil)
	return nil
}

// ReportPDF renders the stored job's report, with previews of its graphics
func (s *InspectionService) ReportPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	var graphics []*epl2.Graphics
	for _, cmd := range Analyze(job.Payload, s.Policy(), s.config.Decoder.DPI).Commands() {
		if g, ok := cmd.(*epl2.Graphics); ok {
			graphics = append(graphics, g)
		}
	}

	data, err := report.GeneratePDF(job, graphics, s.config.Decoder.DPI)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return data, nil
}

// GetStats returns aggregate job counts
func (s *InspectionService) GetStats(ctx context.Context) (*model.JobStats, error) {
	stats, err := s.jobRepo.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	return stats, nil
}

// CleanupExpired deletes jobs older than the retention TTL
func (s *InspectionService) CleanupExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.config.Retention.JobTTL)
	deleted, err := s.jobRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired jobs: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("Expired jobs deleted",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return deleted, nil
}

// Forward re-encodes the job's decoded commands and writes them to a printer.
// Commands that failed to decode are not sent.
func (s *InspectionService) Forward(ctx context.Context, id uuid.UUID, target model.PrinterTarget) (*ForwardResult, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	analysis := Analyze(job.Payload, s.Policy(), s.config.Decoder.DPI)
	cmds := analysis.Commands()
	if len(cmds) == 0 {
		return nil, ErrNothingToForward
	}
	data, err := epl2.Marshal(cmds...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}

	transport, err := s.newTransport(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}

	jobLogger := utils.NewJobLogger(s.logger.Logger, "forward", job.ID.String())
	jobLogger.Start(zap.String("target", target.String()), zap.Int("bytes", len(data)))

	if err := s.send(ctx, transport, data); err != nil {
		jobLogger.Error(err)
		s.auditLogger.LogJobForwarded(job.ID.String(), string(target.ConnectionType), target.String(), 0, false)
		s.publish(model.EventJobForwardFailed, job.ID, "ERROR", model.JSONObject{
			"target": target.String(),
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrPrinterUnreachable, err)
	}

	now := time.Now()
	if err := s.jobRepo.MarkForwarded(ctx, job.ID, target.String(), now); err != nil {
		// The printer already has the job
		s.logger.Error("Failed to record forward", zap.String("job_id", job.ID.String()), zap.Error(err))
	}

	jobLogger.Success(zap.Int("commands", len(cmds)))
	s.auditLogger.LogJobForwarded(job.ID.String(), string(target.ConnectionType), target.String(), len(data), true)
	s.publish(model.EventJobForwarded, job.ID, "INFO", model.JSONObject{
		"target":     target.String(),
		"commands":   len(cmds),
		"bytes_sent": len(data),
	})

	return &ForwardResult{
		JobID:       job.ID,
		Target:      target.String(),
		Commands:    len(cmds),
		BytesSent:   len(data),
		ForwardedAt: now,
	}, nil
}

func (s *InspectionService) send(ctx context.Context, transport protocol.PrinterTransport, data []byte) error {
	if timeout := s.config.Printer.ForwardTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := transport.Open(ctx); err != nil {
		return err
	}
	defer transport.Close()

	return transport.Write(ctx, data)
}

func (s *InspectionService) publish(eventType model.EventType, jobID uuid.UUID, severity string, data model.JSONObject) {
	if s.events == nil {
		return
	}
	s.events.Publish(model.NewJobEvent(eventType, jobID, severity, data))
}
