package health

import (
	"context"

	"github.com/kailas-cloud/studyplan/internal/domain/backend"
)

// DBPinger checks session store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// BackendState reports whether the language-model backend was configured.
type BackendState interface {
	State() backend.State
}
