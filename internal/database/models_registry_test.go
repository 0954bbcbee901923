package database

import (
	"testing"

	modelspkg "mangafas/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesInboxAndHistory(t *testing.T) {
	var hasNotification, hasHistory bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *modelspkg.Notification:
			hasNotification = true
		case *modelspkg.ReadingHistoryEntry:
			hasHistory = true
		}
	}
	require.True(t, hasNotification, "PersistentModels should include Notification")
	require.True(t, hasHistory, "PersistentModels should include ReadingHistoryEntry")
}
