package github

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/go-github/v79/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanticsoul4772/github-mcp-sub000/internal/toolsnaps"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/translations"
)

func Test_ListNotifications(t *testing.T) {
	toolDef := ListNotifications(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "list_notifications", toolDef.Tool.Name)
	assert.True(t, toolDef.IsReadOnly())

	mockNotifications := []*github.Notification{
		{
			ID:     github.Ptr("123"),
			Reason: github.Ptr("mention"),
			Subject: &github.NotificationSubject{
				Title: github.Ptr("You were mentioned"),
				Type:  github.Ptr("Issue"),
			},
		},
	}

	t.Run("lists notifications for the user", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetNotifications: mockResponse(t, http.StatusOK, mockNotifications),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)

		var notifications []*github.Notification
		require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &notifications))
		require.Len(t, notifications, 1)
		assert.Equal(t, "mention", notifications[0].GetReason())
		assert.Equal(t, "You were mentioned", notifications[0].GetSubject().GetTitle())
	})

	t.Run("include_read_notifications sets the all flag", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetNotifications: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "true", r.URL.Query().Get("all"))
				mockResponse(t, http.StatusOK, mockNotifications)(w, r)
			},
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"filter": "include_read_notifications",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)
	})

	t.Run("owner and repo scope the listing to one repository", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetReposNotificationsByOwnerByRepo: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/owner/repo/notifications", r.URL.Path)
				mockResponse(t, http.StatusOK, mockNotifications)(w, r)
			},
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"owner": "owner",
			"repo":  "repo",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)
	})

	t.Run("invalid since timestamp is rejected", func(t *testing.T) {
		deps := BaseDeps{Client: github.NewClient(nil)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"since": "yesterday",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		errorContent := getErrorResult(t, result)
		assert.Contains(t, errorContent.Text, "invalid since timestamp")
	})
}

func Test_DismissNotification(t *testing.T) {
	toolDef := DismissNotification(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "dismiss_notification", toolDef.Tool.Name)
	assert.False(t, toolDef.IsReadOnly())

	t.Run("mark as read", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			PatchNotificationsThreadsByThreadID: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/notifications/threads/123", r.URL.Path)
				w.WriteHeader(http.StatusResetContent)
			},
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"threadID": "123",
			"state":    "read",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.Equal(t, "Notification marked as read", getTextResult(t, result).Text)
	})

	t.Run("mark as done", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			DeleteNotificationsThreadsByThreadID: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/notifications/threads/123", r.URL.Path)
				w.WriteHeader(http.StatusNoContent)
			},
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"threadID": "123",
			"state":    "done",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.Equal(t, "Notification marked as done", getTextResult(t, result).Text)
	})

	t.Run("done with non-numeric threadID is rejected", func(t *testing.T) {
		deps := BaseDeps{Client: github.NewClient(nil)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"threadID": "abc",
			"state":    "done",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		errorContent := getErrorResult(t, result)
		assert.Equal(t, "invalid threadID format: must be a numeric value", errorContent.Text)
	})

	t.Run("missing state is a validation error", func(t *testing.T) {
		deps := BaseDeps{Client: github.NewClient(nil)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"threadID": "123",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		errorContent := getErrorResult(t, result)
		assert.Contains(t, errorContent.Text, "missing required parameter: state")
	})
}
