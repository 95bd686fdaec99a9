// Package health tracks whether the webapp can serve product pages and
// exposes that over grpc.health.v1.
package health

import (
	"context"
	"time"

	"bookstore_webapp/internal/domain"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// CatalogService is the health service name for the catalog dependency.
const CatalogService = "bookstore.Catalog"

const probeTimeout = 5 * time.Second

type CatalogProber interface {
	GetProducts(ctx context.Context, page int) (*domain.PagedResult, error)
}

type Service struct {
	server  *grpchealth.Server
	catalog CatalogProber
	log     *logrus.Logger
}

// NewService reports the webapp as serving and the catalog as unknown until
// the first probe.
func NewService(catalog CatalogProber, logger *logrus.Logger) *Service {
	s := &Service{
		server:  grpchealth.NewServer(),
		catalog: catalog,
		log:     logger,
	}
	s.server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.server.SetServingStatus(CatalogService, healthpb.HealthCheckResponse_UNKNOWN)
	return s
}

func (s *Service) Register(g *grpc.Server) {
	healthpb.RegisterHealthServer(g, s.server)
}

// ProbeCatalog fetches the first product page and records the outcome.
func (s *Service) ProbeCatalog(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := s.catalog.GetProducts(ctx, 1)
	if err != nil {
		s.log.Warnf("Health: Catalog probe failed: %v", err)
		s.server.SetServingStatus(CatalogService, healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}
	s.log.Debug("Health: Catalog probe succeeded")
	s.server.SetServingStatus(CatalogService, healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Watch probes the catalog every interval until ctx is done.
func (s *Service) Watch(ctx context.Context, interval time.Duration) {
	_ = s.ProbeCatalog(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.ProbeCatalog(ctx)
		}
	}
}

// Status returns the serving status of service as its enum name.
func (s *Service) Status(ctx context.Context, service string) string {
	resp, err := s.server.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_SERVICE_UNKNOWN.String()
	}
	return resp.GetStatus().String()
}

// Shutdown marks every service as not serving.
func (s *Service) Shutdown() {
	s.server.Shutdown()
}
