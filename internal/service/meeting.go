package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"teamhub/internal/config"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/repositories"
	"teamhub/internal/domain/services"
)

// meetingService implements the MeetingService interface
type meetingService struct {
	meetingRepo repositories.MeetingRepository
	memberRepo  repositories.MemberRepository
	txManager   repositories.TransactionManager
	authorizer  services.ResourceAuthorizer
	notifier    services.Notifier
	publisher   services.ChangePublisher
	logger      *slog.Logger
}

// NewMeetingService creates a new meeting scheduling service
func NewMeetingService(
	meetingRepo repositories.MeetingRepository,
	memberRepo repositories.MemberRepository,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	notifier services.Notifier,
	publisher services.ChangePublisher,
	logger *slog.Logger,
) services.MeetingService {
	return &meetingService{
		meetingRepo: meetingRepo,
		memberRepo:  memberRepo,
		txManager:   txManager,
		authorizer:  authorizer,
		notifier:    notifier,
		publisher:   publisher,
		logger:      logger,
	}
}

// validateWindow enforces ends_at > starts_at and the maximum meeting length
func validateWindow(startsAt, endsAt time.Time) error {
	if !endsAt.After(startsAt) {
		return domain.Validation("ends_at: must be after starts_at")
	}
	if endsAt.Sub(startsAt) > config.MaxMeetingDuration {
		return domain.Validation("meeting cannot last longer than %s", config.MaxMeetingDuration)
	}
	return nil
}

// ScheduleMeeting creates a meeting; the organizer is auto-accepted and invitees are notified
func (s *meetingService) ScheduleMeeting(ctx context.Context, req *services.ScheduleMeetingRequest) (*models.Meeting, error) {
	req.Title = strings.TrimSpace(req.Title)
	err := validation.ValidateStruct(req,
		validation.Field(&req.OrganizerID, validation.Required),
		validation.Field(&req.ProjectID, isUUID),
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxMeetingTitleLength)),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&req.Location, validation.Length(0, 255)),
		validation.Field(&req.StartsAt, validation.Required),
		validation.Field(&req.EndsAt, validation.Required),
		validation.Field(&req.ParticipantIDs, validation.Each(isUUID)),
	)
	if err != nil {
		return nil, invalid(err)
	}
	if err := validateWindow(req.StartsAt, req.EndsAt); err != nil {
		return nil, err
	}

	invitees := s.invitees(req.OrganizerID, req.ParticipantIDs)
	if req.ProjectID != nil {
		if err := s.authorizer.Require(ctx, req.OrganizerID, *req.ProjectID, services.ActionMeetingSchedule); err != nil {
			return nil, err
		}
		if err := s.requireMembers(ctx, *req.ProjectID, invitees); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	meeting := &models.Meeting{
		ProjectID:    req.ProjectID,
		OrganizerID:  req.OrganizerID,
		Title:        req.Title,
		Description:  strings.TrimSpace(req.Description),
		Location:     strings.TrimSpace(req.Location),
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		Status:       models.MeetingStatusScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
		Participants: participantList(req.OrganizerID, invitees, nil),
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.meetingRepo.Create(txCtx, meeting)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.ChangeInsert, meeting)
	s.notifyParticipants(ctx, meeting, invitees, models.NotificationMeetingInvite,
		fmt.Sprintf("Meeting invite: %s", meeting.Title))

	s.logger.Info("meeting scheduled",
		"id", meeting.ID,
		"organizer_id", meeting.OrganizerID,
		"starts_at", meeting.StartsAt,
		"participants", len(meeting.Participants),
	)
	return meeting, nil
}

// invitees dedupes participant ids and drops the organizer
func (s *meetingService) invitees(organizerID string, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range dedupe(ids) {
		if id != organizerID {
			out = append(out, id)
		}
	}
	return out
}

// participantList builds rows for the organizer and invitees, keeping prior responses
func participantList(organizerID string, invitees []string, previous []models.MeetingParticipant) []models.MeetingParticipant {
	responses := make(map[string]string, len(previous))
	for _, p := range previous {
		responses[p.UserID] = p.Response
	}

	out := make([]models.MeetingParticipant, 0, len(invitees)+1)
	out = append(out, models.MeetingParticipant{UserID: organizerID, Response: models.MeetingResponseAccepted})
	for _, id := range invitees {
		response := responses[id]
		if response == "" {
			response = models.MeetingResponsePending
		}
		out = append(out, models.MeetingParticipant{UserID: id, Response: response})
	}
	return out
}

// requireMembers checks every invitee belongs to the project
func (s *meetingService) requireMembers(ctx context.Context, projectID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	members, err := s.memberRepo.MemberIDs(ctx, projectID, userIDs)
	if err != nil {
		return err
	}
	found := make(map[string]bool, len(members))
	for _, id := range members {
		found[id] = true
	}
	var missing []string
	for _, id := range userIDs {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return domain.Validation("participant_ids: not project members: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ListMeetings lists meetings the user organizes or attends overlapping [from, to)
func (s *meetingService) ListMeetings(ctx context.Context, userID string, from, to time.Time) ([]models.Meeting, error) {
	if !to.After(from) {
		return nil, domain.Validation("to: must be after from")
	}
	return s.meetingRepo.ListForUser(ctx, userID, from, to)
}

// GetMeeting returns a meeting to its organizer, participants, or a global admin
func (s *meetingService) GetMeeting(ctx context.Context, id, userID string) (*models.Meeting, error) {
	meeting, err := s.meetingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if meeting.HasParticipant(userID) {
		return meeting, nil
	}
	admin, err := s.authorizer.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, domain.NotFound("meeting", id)
	}
	return meeting, nil
}

// loadOrganized returns a meeting only when userID organizes it
func (s *meetingService) loadOrganized(ctx context.Context, id, userID string) (*models.Meeting, error) {
	meeting, err := s.meetingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !meeting.HasParticipant(userID) {
		return nil, domain.NotFound("meeting", id)
	}
	if meeting.OrganizerID != userID {
		return nil, domain.Forbidden("only the organizer can change a meeting")
	}
	return meeting, nil
}

// UpdateMeeting edits a scheduled meeting; organizer only
func (s *meetingService) UpdateMeeting(ctx context.Context, id, userID string, req *services.UpdateMeetingRequest) (*models.Meeting, error) {
	req.Title = trimPtr(req.Title)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(1, config.MaxMeetingTitleLength)),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&req.Location, validation.Length(0, 255)),
		validation.Field(&req.ParticipantIDs, validation.Each(isUUID)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	meeting, err := s.loadOrganized(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if meeting.Status == models.MeetingStatusCancelled {
		return nil, domain.Validation("a cancelled meeting cannot be edited")
	}

	if req.Title != nil {
		meeting.Title = *req.Title
	}
	if req.Description != nil {
		meeting.Description = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		meeting.Location = strings.TrimSpace(*req.Location)
	}
	if req.StartsAt != nil {
		meeting.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		meeting.EndsAt = *req.EndsAt
	}
	if err := validateWindow(meeting.StartsAt, meeting.EndsAt); err != nil {
		return nil, err
	}

	var added []string
	if req.ParticipantIDs != nil {
		invitees := s.invitees(meeting.OrganizerID, req.ParticipantIDs)
		if meeting.ProjectID != nil {
			if err := s.requireMembers(ctx, *meeting.ProjectID, invitees); err != nil {
				return nil, err
			}
		}
		for _, id := range invitees {
			if !meeting.HasParticipant(id) {
				added = append(added, id)
			}
		}
		meeting.Participants = participantList(meeting.OrganizerID, invitees, meeting.Participants)
	}
	meeting.UpdatedAt = time.Now()

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.meetingRepo.Update(txCtx, meeting); err != nil {
			return err
		}
		if req.ParticipantIDs == nil {
			return nil
		}
		return s.meetingRepo.ReplaceParticipants(txCtx, meeting.ID, meeting.Participants)
	})
	if err != nil {
		return nil, err
	}

	if req.ParticipantIDs != nil {
		if reloaded, err := s.meetingRepo.GetByID(ctx, id); err == nil {
			meeting = reloaded
		}
	}

	s.publish(ctx, models.ChangeUpdate, meeting)
	s.notifyParticipants(ctx, meeting, added, models.NotificationMeetingInvite,
		fmt.Sprintf("Meeting invite: %s", meeting.Title))

	s.logger.Info("meeting updated", "id", id, "user_id", userID)
	return meeting, nil
}

// CancelMeeting marks a meeting cancelled and tells the participants
func (s *meetingService) CancelMeeting(ctx context.Context, id, userID string) (*models.Meeting, error) {
	meeting, err := s.loadOrganized(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if meeting.Status == models.MeetingStatusCancelled {
		return meeting, nil
	}

	meeting.Status = models.MeetingStatusCancelled
	meeting.UpdatedAt = time.Now()
	if err := s.meetingRepo.Update(ctx, meeting); err != nil {
		return nil, err
	}

	s.publish(ctx, models.ChangeUpdate, meeting)
	s.notifyParticipants(ctx, meeting, participantIDs(meeting), models.NotificationMeetingCancelled,
		fmt.Sprintf("Meeting cancelled: %s", meeting.Title))

	s.logger.Info("meeting cancelled", "id", id, "user_id", userID)
	return meeting, nil
}

// DeleteMeeting removes a meeting; organizer only
func (s *meetingService) DeleteMeeting(ctx context.Context, id, userID string) error {
	meeting, err := s.loadOrganized(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.meetingRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, models.ChangeDelete, meeting)
	s.logger.Info("meeting deleted", "id", id, "user_id", userID)
	return nil
}

// RespondToMeeting records an invitee's answer
func (s *meetingService) RespondToMeeting(ctx context.Context, id, userID, response string) (*models.Meeting, error) {
	err := validation.Validate(response, validation.Required,
		oneOf([]string{models.MeetingResponseAccepted, models.MeetingResponseDeclined, models.MeetingResponsePending}))
	if err != nil {
		return nil, domain.Validation("response: %v", err)
	}

	meeting, err := s.meetingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !meeting.HasParticipant(userID) {
		return nil, domain.NotFound("meeting", id)
	}
	if meeting.OrganizerID == userID {
		return nil, domain.Validation("the organizer is always attending")
	}
	if meeting.Status == models.MeetingStatusCancelled {
		return nil, domain.Validation("meeting is cancelled")
	}

	if err := s.meetingRepo.SetResponse(ctx, id, userID, response); err != nil {
		return nil, err
	}
	for i := range meeting.Participants {
		if meeting.Participants[i].UserID == userID {
			meeting.Participants[i].Response = response
		}
	}

	s.publish(ctx, models.ChangeUpdate, meeting)
	s.logger.Info("meeting response", "id", id, "user_id", userID, "response", response)
	return meeting, nil
}

func participantIDs(m *models.Meeting) []string {
	ids := make([]string, 0, len(m.Participants))
	for _, p := range m.Participants {
		if p.UserID != m.OrganizerID {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

func (s *meetingService) notifyParticipants(ctx context.Context, m *models.Meeting, userIDs []string, kind, title string) {
	body := m.StartsAt.UTC().Format("Mon Jan 2 15:04 MST")
	if m.Location != "" {
		body += " · " + m.Location
	}
	for _, userID := range userIDs {
		s.notifier.Notify(ctx, &models.Notification{
			UserID:       userID,
			Type:         kind,
			Title:        title,
			Body:         body,
			ResourceType: "meeting",
			ResourceID:   m.ID,
			ProjectID:    m.ProjectID,
		})
	}
}

func (s *meetingService) publish(ctx context.Context, action string, m *models.Meeting) {
	s.publisher.Publish(ctx, models.NewChangeEvent(models.TableMeetings, action, deref(m.ProjectID), "", m.ID, m))
}
