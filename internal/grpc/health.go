package grpcserver

import (
	"fmt"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServicePrefix namespaces per-equipment health services, e.g. "millguard.equipment.SAG-01".
const ServicePrefix = "millguard.equipment."

// ServiceName is the health service name reported for one piece of equipment.
func ServiceName(equipmentID string) string {
	return ServicePrefix + equipmentID
}

// HealthService reports each mill through the standard gRPC health protocol.
// A mill whose health index drops below the critical level is NOT_SERVING.
type HealthService struct {
	server *health.Server
	logger *zap.SugaredLogger
}

// NewHealthService starts every equipment in SERVICE_UNKNOWN until its first summary.
func NewHealthService(equipmentIDs []string, logger *zap.SugaredLogger) *HealthService {
	hs := &HealthService{
		server: health.NewServer(),
		logger: logger,
	}

	hs.server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, id := range equipmentIDs {
		hs.server.SetServingStatus(ServiceName(id), healthpb.HealthCheckResponse_SERVICE_UNKNOWN)
	}
	return hs
}

// Register attaches the health service and reflection to s.
func (hs *HealthService) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, hs.server)
	reflection.Register(s)
}

// Server exposes the underlying health server.
func (hs *HealthService) Server() healthpb.HealthServer {
	return hs.server
}

// PublishAlert is a no-op; alerts do not change serving status.
func (hs *HealthService) PublishAlert(models.Alert) error {
	return nil
}

// PublishSummary updates the serving status of the summarised equipment.
func (hs *HealthService) PublishSummary(summary models.HealthSummary) error {
	if summary.EquipmentID == "" {
		return fmt.Errorf("%w: summary without equipment id", models.ErrValidation)
	}

	status := healthpb.HealthCheckResponse_SERVING
	if summary.HealthIndex < models.CriticalHealthIndex {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	hs.server.SetServingStatus(ServiceName(summary.EquipmentID), status)
	return nil
}

// Shutdown marks every service NOT_SERVING ahead of a graceful stop.
func (hs *HealthService) Shutdown() {
	hs.logger.Info("Marking gRPC health services NOT_SERVING")
	hs.server.Shutdown()
}
