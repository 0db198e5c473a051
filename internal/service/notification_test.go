package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
)

func TestNotify_RespectsPreferences(t *testing.T) {
	db := newMemDB()
	pub := &recordingPublisher{}
	prefs := NewUserPreferencesService(&memPrefsRepo{db}, testLogger())
	svc := NewNotificationService(&memNotificationRepo{db}, &memPrefsRepo{db}, pub, testLogger())
	ctx := context.Background()

	off := false
	_, err := prefs.UpdatePreferences(ctx, bob, &models.UpdatePreferencesRequest{
		Notifications: &models.NotificationPreferences{Mentions: &off},
	})
	require.NoError(t, err)

	projectID := "00000000-0000-0000-0000-0000000000ff"
	svc.Notify(ctx, &models.Notification{UserID: bob, Type: models.NotificationMention, Title: "muted"})
	svc.Notify(ctx, &models.Notification{UserID: bob, Type: models.NotificationTaskAssigned, Title: "kept", ProjectID: &projectID})
	svc.Notify(ctx, &models.Notification{UserID: alice, Type: models.NotificationMention, Title: "no prefs"})

	bobs, err := svc.ListNotifications(ctx, bob, models.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, "kept", bobs[0].Title)

	ev := pub.last(t, models.TableNotifications)
	assert.Equal(t, alice, ev.UserID)
	require.Len(t, pub.events, 2)
	assert.Equal(t, bob, pub.events[0].UserID)
	assert.Equal(t, projectID, pub.events[0].ProjectID)
}

func TestNotificationInbox(t *testing.T) {
	db := newMemDB()
	pub := &recordingPublisher{}
	svc := NewNotificationService(&memNotificationRepo{db}, &memPrefsRepo{db}, pub, testLogger())
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		svc.Notify(ctx, &models.Notification{UserID: bob, Type: models.NotificationTaskStatus, Title: title})
	}
	svc.Notify(ctx, &models.Notification{UserID: alice, Type: models.NotificationTaskStatus, Title: "alice's"})

	list, err := svc.ListNotifications(ctx, bob, models.NotificationFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "three", list[0].Title, "newest first")

	read, err := svc.MarkRead(ctx, list[0].ID, bob)
	require.NoError(t, err)
	assert.NotNil(t, read.ReadAt)

	count, err := svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	unread, err := svc.ListNotifications(ctx, bob, models.NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	_, err = svc.MarkRead(ctx, list[0].ID, alice)
	assert.ErrorIs(t, err, domain.ErrNotFound, "other users' notifications are invisible")
	assert.ErrorIs(t, svc.DeleteNotification(ctx, list[1].ID, alice), domain.ErrNotFound)

	changed, err := svc.MarkAllRead(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)
	ev := pub.last(t, models.TableNotifications)
	assert.Equal(t, "*", ev.RecordID)

	changed, err = svc.MarkAllRead(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, changed)

	require.NoError(t, svc.DeleteNotification(ctx, list[1].ID, bob))
	aliceCount, err := svc.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, aliceCount)
}
