package health

import "context"

// DBPinger checks key-value store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CatalogChecker checks search backend availability.
type CatalogChecker interface {
	HealthCheck(ctx context.Context) error
}
