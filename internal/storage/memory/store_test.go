package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privateinbox/backend/internal/storage"
)

func TestMemoryStore_Insert(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	rec, err := store.Insert(ctx, "temp_emails", storage.Record{
		"email_address": "mike.brown1@privacybox.io",
		"is_active":     true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec["id"])
	assert.NotNil(t, rec["created_at"])
	assert.Equal(t, "mike.brown1@privacybox.io", rec["email_address"])
	assert.Equal(t, 1, store.Len("temp_emails"))

	// 返回值是副本，修改不影响存储
	rec["email_address"] = "changed"
	rows, err := store.Select(ctx, "temp_emails", nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mike.brown1@privacybox.io", rows[0]["email_address"])

	_, err = store.Insert(ctx, "bad table", storage.Record{})
	assert.ErrorIs(t, err, storage.ErrInvalidIdentifier)
}

func TestMemoryStore_SelectOrdering(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, subject := range []string{"t2", "t1", "t3"} {
		offset := map[string]time.Duration{"t1": 1, "t2": 2, "t3": 3}[subject]
		_, err := store.Insert(ctx, "received_emails", storage.Record{
			"recipient_email": "a@b.io",
			"subject":         subject,
			"seq":             i,
			"created_at":      base.Add(offset * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err := store.Insert(ctx, "received_emails", storage.Record{
		"recipient_email": "other@b.io",
		"subject":         "other",
	})
	require.NoError(t, err)

	rows, err := store.Select(ctx, "received_emails",
		[]storage.Filter{storage.Eq("recipient_email", "a@b.io")},
		&storage.Order{Column: "created_at", Descending: true},
	)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "t3", rows[0]["subject"])
	assert.Equal(t, "t2", rows[1]["subject"])
	assert.Equal(t, "t1", rows[2]["subject"])

	rows, err = store.Select(ctx, "received_emails",
		[]storage.Filter{storage.Eq("recipient_email", "nobody@b.io")}, nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestMemoryStore_Update(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_, _ = store.Insert(ctx, "temp_emails", storage.Record{"id": "past", "expires_at": now.Add(-time.Hour), "is_active": true})
	_, _ = store.Insert(ctx, "temp_emails", storage.Record{"id": "future", "expires_at": now.Add(time.Hour), "is_active": true})
	_, _ = store.Insert(ctx, "temp_emails", storage.Record{"id": "edge", "expires_at": now, "is_active": true})

	count, err := store.Update(ctx, "temp_emails",
		storage.Record{"is_active": false},
		[]storage.Filter{storage.Lt("expires_at", now)},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	rows, err := store.Select(ctx, "temp_emails", []storage.Filter{storage.Eq("is_active", true)}, nil)
	require.NoError(t, err)
	ids := []string{rows[0]["id"].(string), rows[1]["id"].(string)}
	assert.ElementsMatch(t, []string{"future", "edge"}, ids)

	_, err = store.Update(ctx, "temp_emails", storage.Record{}, nil)
	assert.ErrorIs(t, err, storage.ErrEmptyPatch)
}

func TestMemoryStore_ContextCanceled(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Insert(ctx, "temp_emails", storage.Record{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Ping(ctx), context.Canceled)
}
