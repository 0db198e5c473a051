package service

import (
	"context"
	"log/slog"
	"time"

	"teamhub/internal/config"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
	"teamhub/internal/domain/services"
	"teamhub/internal/stats"
)

// dashboardService implements the DashboardService interface.
// Everything is recomputed per request from current rows; nothing is cached.
type dashboardService struct {
	projectRepo      repositories.ProjectRepository
	memberRepo       repositories.MemberRepository
	taskRepo         repositories.TaskRepository
	todoRepo         repositories.TodoRepository
	meetingRepo      repositories.MeetingRepository
	notificationRepo repositories.NotificationRepository
	authorizer       services.ResourceAuthorizer
	logger           *slog.Logger
	now              func() time.Time
}

// NewDashboardService creates a new dashboard and reporting service
func NewDashboardService(
	projectRepo repositories.ProjectRepository,
	memberRepo repositories.MemberRepository,
	taskRepo repositories.TaskRepository,
	todoRepo repositories.TodoRepository,
	meetingRepo repositories.MeetingRepository,
	notificationRepo repositories.NotificationRepository,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) services.DashboardService {
	return &dashboardService{
		projectRepo:      projectRepo,
		memberRepo:       memberRepo,
		taskRepo:         taskRepo,
		todoRepo:         todoRepo,
		meetingRepo:      meetingRepo,
		notificationRepo: notificationRepo,
		authorizer:       authorizer,
		logger:           logger,
		now:              time.Now,
	}
}

// GetDashboard assembles the caller's personal overview
func (s *dashboardService) GetDashboard(ctx context.Context, userID string) (*models.Dashboard, error) {
	now := s.now()

	myTasks, err := s.taskRepo.List(ctx, models.TaskFilter{AssigneeID: userID, ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	projects, err := s.projectRepo.ListForUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	projectTasks, err := s.taskRepo.ListForProjects(ctx, summaryIDs(projects))
	if err != nil {
		return nil, err
	}

	unread, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	meetings, err := s.meetingRepo.ListForUser(ctx, userID, now, now.Add(config.UpcomingMeetingsWindow))
	if err != nil {
		return nil, err
	}
	upcoming := make([]models.Meeting, 0, len(meetings))
	for _, m := range meetings {
		if m.Status == models.MeetingStatusScheduled {
			upcoming = append(upcoming, m)
		}
	}

	todos, err := s.todoRepo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.Dashboard{
		GeneratedAt:      now,
		MyTasks:          stats.ComputeTaskStats(myTasks, now),
		Projects:         stats.ComputeProjectProgress(projects, projectTasks, now),
		UnreadCount:      unread,
		UpcomingMeetings: upcoming,
		Todos:            stats.ComputeTodoStats(todos, now),
	}, nil
}

// GetProjectReport returns task statistics and workload for one project
func (s *dashboardService) GetProjectReport(ctx context.Context, projectID, userID string) (*models.ProjectReport, error) {
	if err := s.authorizer.Require(ctx, userID, projectID, services.ActionReportView); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.List(ctx, models.TaskFilter{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	members, err := s.memberRepo.List(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &models.ProjectReport{
		Project:     *project,
		GeneratedAt: now,
		Tasks:       stats.ComputeTaskStats(tasks, now),
		Workload:    stats.ComputeWorkload(tasks, now),
		MemberCount: len(members),
	}, nil
}

// GetAdminReport reports on every active project
func (s *dashboardService) GetAdminReport(ctx context.Context, userID string) ([]models.ProjectReport, error) {
	admin, err := s.authorizer.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, domain.Forbidden("admin reports require the admin role")
	}

	all, err := s.projectRepo.ListForUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	active := make([]models.ProjectSummary, 0, len(all))
	for _, p := range all {
		if p.Status == models.ProjectStatusActive {
			active = append(active, p)
		}
	}

	tasks, err := s.taskRepo.ListForProjects(ctx, summaryIDs(active))
	if err != nil {
		return nil, err
	}
	byProject := make(map[string][]models.Task, len(active))
	for _, t := range tasks {
		byProject[t.ProjectID] = append(byProject[t.ProjectID], t)
	}

	now := s.now()
	reports := make([]models.ProjectReport, 0, len(active))
	for _, p := range active {
		reports = append(reports, models.ProjectReport{
			Project:     p.Project,
			GeneratedAt: now,
			Tasks:       stats.ComputeTaskStats(byProject[p.ID], now),
			Workload:    stats.ComputeWorkload(byProject[p.ID], now),
			MemberCount: p.MemberCount,
		})
	}

	s.logger.Debug("admin report generated", "user_id", userID, "projects", len(reports))
	return reports, nil
}

func summaryIDs(projects []models.ProjectSummary) []string {
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return ids
}
