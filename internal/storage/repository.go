package storage

import (
	"context"
	"errors"

	"fula-deployer/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a run id has no journal record
var ErrNotFound = errors.New("not found")

// Repository defines the interface for the deployment journal
type Repository interface {
	// Deployments
	SaveDeployment(ctx context.Context, d *models.Deployment) error
	UpdateDeploymentState(ctx context.Context, d *models.Deployment) error
	GetDeployment(ctx context.Context, runID uuid.UUID) (*models.Deployment, error)
	ListDeployments(ctx context.Context, network string, limit, offset int) ([]*models.Deployment, error)
	CountDeployments(ctx context.Context, network string) (int, error)

	// Steps
	SaveStep(ctx context.Context, step *models.DeploymentStep) error
	ListSteps(ctx context.Context, runID uuid.UUID) ([]*models.DeploymentStep, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
