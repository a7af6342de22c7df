package conversation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen-chat/backend/internal/conversation"
	app_errors "lumen-chat/backend/internal/errors"
	"lumen-chat/backend/internal/model"
)

func TestStore_CreateAndEnsureActiveChat(t *testing.T) {
	ctx := context.Background()
	store := conversation.NewStore(newFakeKV())

	t.Run("ensure creates a chat when none is active", func(t *testing.T) {
		id, err := store.EnsureActiveChat(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		assert.Equal(t, id, store.ActiveChatID())
		assert.Len(t, store.Chats(), 1)
	})

	t.Run("ensure reuses the active chat", func(t *testing.T) {
		first := store.ActiveChatID()
		id, err := store.EnsureActiveChat(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, id)
		assert.Len(t, store.Chats(), 1)
	})

	t.Run("create always allocates and activates", func(t *testing.T) {
		chat, err := store.CreateChat(ctx)
		require.NoError(t, err)
		assert.Equal(t, conversation.DefaultTitle, chat.Title)
		assert.Empty(t, chat.Messages)
		assert.Equal(t, chat.ID, store.ActiveChatID())
		assert.Len(t, store.Chats(), 2)
		// Newest chat is listed first.
		assert.Equal(t, chat.ID, store.Chats()[0].ID)
	})
}

func TestStore_SelectRenameDelete(t *testing.T) {
	ctx := context.Background()
	store := conversation.NewStore(newFakeKV())

	a, err := store.CreateChat(ctx)
	require.NoError(t, err)
	b, err := store.CreateChat(ctx)
	require.NoError(t, err)

	t.Run("select switches the active chat", func(t *testing.T) {
		require.NoError(t, store.SelectChat(ctx, a.ID))
		assert.Equal(t, a.ID, store.ActiveChatID())
	})

	t.Run("select unknown chat fails", func(t *testing.T) {
		err := store.SelectChat(ctx, "nope")
		assert.ErrorIs(t, err, app_errors.ErrNotFound)
	})

	t.Run("rename updates the title", func(t *testing.T) {
		require.NoError(t, store.RenameChat(ctx, b.ID, "Networking notes"))
		got, err := store.Chat(b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Networking notes", got.Title)
	})

	t.Run("deleting the active chat clears the active id", func(t *testing.T) {
		require.NoError(t, store.SelectChat(ctx, b.ID))
		require.NoError(t, store.DeleteChat(ctx, b.ID))
		assert.Empty(t, store.ActiveChatID())
		_, err := store.Chat(b.ID)
		assert.ErrorIs(t, err, app_errors.ErrNotFound)
	})

	t.Run("archive is a delete", func(t *testing.T) {
		require.NoError(t, store.ArchiveChat(ctx, a.ID))
		assert.Empty(t, store.Chats())
	})
}

func TestStore_AppendMessage(t *testing.T) {
	ctx := context.Background()
	store := conversation.NewStore(newFakeKV())
	chat, err := store.CreateChat(ctx)
	require.NoError(t, err)

	t.Run("first user message sets the title", func(t *testing.T) {
		err := store.AppendMessage(ctx, chat.ID, model.Message{
			ID: "m1", Role: model.RoleUser, Content: "Explain TCP", Timestamp: time.Now(),
		})
		require.NoError(t, err)

		got, err := store.Chat(chat.ID)
		require.NoError(t, err)
		assert.Equal(t, "Explain TCP", got.Title)
		require.Len(t, got.Messages, 1)
	})

	t.Run("later messages leave the title alone", func(t *testing.T) {
		err := store.AppendMessage(ctx, chat.ID, model.Message{
			ID: "m2", Role: model.RoleAssistant, Content: "TCP is...", Timestamp: time.Now(),
		})
		require.NoError(t, err)

		got, err := store.Chat(chat.ID)
		require.NoError(t, err)
		assert.Equal(t, "Explain TCP", got.Title)
		assert.Len(t, got.Messages, 2)
	})

	t.Run("first assistant message keeps the default title", func(t *testing.T) {
		other, err := store.CreateChat(ctx)
		require.NoError(t, err)
		err = store.AppendMessage(ctx, other.ID, model.Message{
			ID: "m3", Role: model.RoleAssistant, Content: "hello", Timestamp: time.Now(),
		})
		require.NoError(t, err)

		got, err := store.Chat(other.ID)
		require.NoError(t, err)
		assert.Equal(t, conversation.DefaultTitle, got.Title)
	})

	t.Run("append to unknown chat fails", func(t *testing.T) {
		err := store.AppendMessage(ctx, "nope", model.Message{ID: "m4"})
		assert.ErrorIs(t, err, app_errors.ErrNotFound)
	})
}

func TestStore_ReplaceMessagesFrom(t *testing.T) {
	ctx := context.Background()
	store := conversation.NewStore(newFakeKV())
	chat, err := store.CreateChat(ctx)
	require.NoError(t, err)

	for _, m := range []model.Message{
		{ID: "u1", Role: model.RoleUser, Content: "one"},
		{ID: "a1", Role: model.RoleAssistant, Content: "two"},
		{ID: "u2", Role: model.RoleUser, Content: "three"},
		{ID: "a2", Role: model.RoleAssistant, Content: "four"},
	} {
		require.NoError(t, store.AppendMessage(ctx, chat.ID, m))
	}

	replacement := model.Message{ID: "u1", Role: model.RoleUser, Content: "edited"}
	require.NoError(t, store.ReplaceMessagesFrom(ctx, chat.ID, 0, []model.Message{replacement}))

	got, err := store.Messages(chat.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "edited", got[0].Content)

	t.Run("out of range index is rejected", func(t *testing.T) {
		err := store.ReplaceMessagesFrom(ctx, chat.ID, 5, nil)
		assert.ErrorIs(t, err, app_errors.ErrValidation)
	})
}

func TestStore_UpdateMessageContent(t *testing.T) {
	ctx := context.Background()
	store := conversation.NewStore(newFakeKV())
	chat, err := store.CreateChat(ctx)
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(ctx, chat.ID, model.Message{
		ID: "a1", Role: model.RoleAssistant, Content: "",
	}))

	require.NoError(t, store.UpdateMessageContent(ctx, chat.ID, "a1", "partial"))
	got, err := store.Messages(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "partial", got[0].Content)

	err = store.UpdateMessageContent(ctx, chat.ID, "missing", "x")
	assert.ErrorIs(t, err, app_errors.ErrNotFound)
}

// A reload from the same storage must reproduce ids, roles, contents, files
// and equivalent timestamps for every message.
func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store := conversation.NewStore(kv)

	chat, err := store.CreateChat(ctx)
	require.NoError(t, err)
	file := model.UploadedFile{
		URL: "https://cdn.example/x.png", PublicID: "x", OriginalName: "x.png",
		FileType: "image/png", ResourceType: "image", Bytes: 123, Format: "png",
	}
	require.NoError(t, store.AppendMessage(ctx, chat.ID, model.Message{
		ID: "u1", Role: model.RoleUser, Content: "look at this", Timestamp: time.Now(),
		Files: []model.UploadedFile{file},
	}))
	require.NoError(t, store.AppendMessage(ctx, chat.ID, model.Message{
		ID: "a1", Role: model.RoleAssistant, Content: "nice picture", Timestamp: time.Now(),
	}))

	reloaded := conversation.NewStore(kv)
	require.NoError(t, reloaded.Load(ctx))

	assert.Equal(t, chat.ID, reloaded.ActiveChatID())
	want, err := store.Chat(chat.ID)
	require.NoError(t, err)
	got, err := reloaded.Chat(chat.ID)
	require.NoError(t, err)

	assert.Equal(t, want.Title, got.Title)
	require.Len(t, got.Messages, len(want.Messages))
	for i := range want.Messages {
		assert.Equal(t, want.Messages[i].ID, got.Messages[i].ID)
		assert.Equal(t, want.Messages[i].Role, got.Messages[i].Role)
		assert.Equal(t, want.Messages[i].Content, got.Messages[i].Content)
		assert.Equal(t, want.Messages[i].Files, got.Messages[i].Files)
		assert.WithinDuration(t, want.Messages[i].Timestamp, got.Messages[i].Timestamp, time.Second)
	}
}

func TestStore_LoadDropsDanglingActiveID(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	require.NoError(t, kv.Set(ctx, "conversations", `[]`))
	require.NoError(t, kv.Set(ctx, "active_chat_id", "gone"))

	store := conversation.NewStore(kv)
	require.NoError(t, store.Load(ctx))
	assert.Empty(t, store.ActiveChatID())
}
