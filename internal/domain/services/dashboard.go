package services

import (
	"context"

	"teamhub/internal/domain/models"
)

// DashboardService assembles derived statistics for dashboards and reports
type DashboardService interface {
	GetDashboard(ctx context.Context, userID string) (*models.Dashboard, error)

	GetProjectReport(ctx context.Context, projectID, userID string) (*models.ProjectReport, error)

	// GetAdminReport returns a report for every project; global admins only
	GetAdminReport(ctx context.Context, userID string) ([]models.ProjectReport, error)
}
