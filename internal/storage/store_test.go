package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/lineflow-backend/database"
	"github.com/Ananth-NQI/lineflow-backend/internal/models"
)

func ptr(s string) *string { return &s }

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewDatabaseStore(db)
}

func stores() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": newSQLiteStore,
	}
}

func seedAccount(t *testing.T, s Store, owner, bot string) *models.Account {
	t.Helper()
	account, err := s.CreateAccount(context.Background(), &models.Account{
		OwnerUserID:        owner,
		Name:               "Shop " + owner,
		ChannelID:          "1650000000",
		ChannelSecret:      "secret",
		ChannelAccessToken: "token",
		BotUserID:          bot,
	})
	require.NoError(t, err)
	require.NotEmpty(t, account.ID)
	return account
}

// createAt inserts messages with increasing timestamps so both stores agree
// on creation order.
func createAt(t *testing.T, s Store, base time.Time, msgs ...*models.Message) {
	t.Helper()
	for i, msg := range msgs {
		msg.CreatedAt = base.Add(time.Duration(i) * time.Second)
		_, err := s.CreateMessage(context.Background(), msg)
		require.NoError(t, err)
	}
}

func TestStore_Accounts(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			a := seedAccount(t, s, "owner-1", "Ubot1")
			seedAccount(t, s, "owner-2", "Ubot2")

			got, err := s.GetAccount(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, "Shop owner-1", got.Name)

			byBot, err := s.GetAccountByBotUserID(ctx, "Ubot1")
			require.NoError(t, err)
			assert.Equal(t, a.ID, byBot.ID)

			_, err = s.GetAccountByBotUserID(ctx, "")
			assert.ErrorIs(t, err, ErrNotFound)

			owned, err := s.ListAccountsByOwner(ctx, "owner-1")
			require.NoError(t, err)
			require.Len(t, owned, 1)
			assert.Equal(t, a.ID, owned[0].ID)

			all, err := s.ListAccounts(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)

			got.Name = "Renamed"
			got.Email = "info@example.com"
			require.NoError(t, s.UpdateAccount(ctx, got))
			got, err = s.GetAccount(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, "Renamed", got.Name)
			assert.Equal(t, "info@example.com", got.Email)

			err = s.UpdateAccount(ctx, &models.Account{ID: "missing", Name: "x"})
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.GetAccount(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_MessageRoundTripKeepsOptionOrder(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			a := seedAccount(t, s, "owner", "Ubot")

			msg, err := s.CreateMessage(ctx, &models.Message{
				AccountID: a.ID,
				Title:     "menu",
				Type:      models.MessageTypeCarousel,
				Content:   "Pick one",
				Options: []models.Option{
					{Text: "First", NextMessageID: ptr("m-1")},
					{Text: "Second", ImageID: ptr("img-1")},
					{Text: "Third"},
				},
			})
			require.NoError(t, err)

			got, err := s.GetMessage(ctx, a.ID, msg.ID)
			require.NoError(t, err)
			assert.Equal(t, "Pick one", got.Content)
			assert.Equal(t, models.MessageTypeCarousel, got.Type)

			options, err := s.GetOptions(ctx, a.ID, msg.ID)
			require.NoError(t, err)
			require.Len(t, options, 3)
			assert.Equal(t, "First", options[0].Text)
			assert.Equal(t, "Second", options[1].Text)
			assert.Equal(t, "Third", options[2].Text)
			assert.Equal(t, "m-1", *options[0].NextMessageID)
			assert.Equal(t, "img-1", *options[1].ImageID)
			assert.Nil(t, options[2].NextMessageID)
			assert.Equal(t, a.ID, options[0].AccountID)
		})
	}
}

func TestStore_UpdateReplacesOptionsWholesale(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			a := seedAccount(t, s, "owner", "Ubot")

			msg, err := s.CreateMessage(ctx, &models.Message{
				AccountID: a.ID,
				Title:     "menu",
				Type:      models.MessageTypeCarousel,
				Content:   "Pick",
				Options:   []models.Option{{Text: "A"}, {Text: "B"}, {Text: "C"}},
			})
			require.NoError(t, err)

			err = s.UpdateMessage(ctx, &models.Message{
				ID:        msg.ID,
				AccountID: a.ID,
				Title:     "menu v2",
				Type:      models.MessageTypeCarousel,
				Content:   "Pick again",
				Options:   []models.Option{{Text: "X"}},
			})
			require.NoError(t, err)

			got, err := s.GetMessage(ctx, a.ID, msg.ID)
			require.NoError(t, err)
			assert.Equal(t, "menu v2", got.Title)

			options, err := s.GetOptions(ctx, a.ID, msg.ID)
			require.NoError(t, err)
			require.Len(t, options, 1)
			assert.Equal(t, "X", options[0].Text)
			assert.Equal(t, 0, options[0].Position)
		})
	}
}

func TestStore_AccountScoping(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			a := seedAccount(t, s, "owner-a", "Ua")
			b := seedAccount(t, s, "owner-b", "Ub")

			msg, err := s.CreateMessage(ctx, &models.Message{
				AccountID: a.ID, Title: "t", Type: models.MessageTypeText, Content: "hello",
			})
			require.NoError(t, err)
			img, err := s.CreateImage(ctx, &models.Image{AccountID: a.ID, Name: "logo", URL: "https://cdn.example.com/a.png"})
			require.NoError(t, err)

			_, err = s.GetMessage(ctx, b.ID, msg.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.GetOptions(ctx, b.ID, msg.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.GetImage(ctx, b.ID, img.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.DeleteMessage(ctx, b.ID, msg.ID), ErrNotFound)
			assert.ErrorIs(t, s.DeleteImage(ctx, b.ID, img.ID), ErrNotFound)
			assert.ErrorIs(t, s.SetInitial(ctx, b.ID, msg.ID, true), ErrNotFound)

			err = s.UpdateMessage(ctx, &models.Message{
				ID: msg.ID, AccountID: b.ID, Title: "t", Type: models.MessageTypeText, Content: "hijack",
			})
			assert.ErrorIs(t, err, ErrNotFound)

			listed, err := s.ListMessages(ctx, b.ID, MessageFilter{})
			require.NoError(t, err)
			assert.Empty(t, listed)
		})
	}
}

func TestStore_ListMessagesFilterAndOrder(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			a := seedAccount(t, s, "owner", "Ubot")
			base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

			first := &models.Message{AccountID: a.ID, Title: "1", Type: models.MessageTypeText, Content: "hours"}
			carousel := &models.Message{AccountID: a.ID, Title: "2", Type: models.MessageTypeCarousel, Content: "menu", IsInitial: true,
				Options: []models.Option{{Text: "a"}}}
			second := &models.Message{AccountID: a.ID, Title: "3", Type: models.MessageTypeText, Content: "access"}
			createAt(t, s, base, first, carousel, second)

			texts, err := s.ListMessages(ctx, a.ID, MessageFilter{Type: models.MessageTypeText})
			require.NoError(t, err)
			require.Len(t, texts, 2)
			assert.Equal(t, first.ID, texts[0].ID)
			assert.Equal(t, second.ID, texts[1].ID)

			initial, err := s.ListMessages(ctx, a.ID, InitialOnly())
			require.NoError(t, err)
			require.Len(t, initial, 1)
			assert.Equal(t, carousel.ID, initial[0].ID)

			require.NoError(t, s.SetInitial(ctx, a.ID, carousel.ID, false))
			initial, err = s.ListMessages(ctx, a.ID, InitialOnly())
			require.NoError(t, err)
			assert.Empty(t, initial)

			all, err := s.ListMessages(ctx, a.ID, MessageFilter{})
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestStore_DeleteMessageCascadesOptions(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			a := seedAccount(t, s, "owner", "Ubot")

			msg, err := s.CreateMessage(ctx, &models.Message{
				AccountID: a.ID, Title: "menu", Type: models.MessageTypeCarousel, Content: "Pick",
				Options: []models.Option{{Text: "A", ImageID: ptr("img")}},
			})
			require.NoError(t, err)

			count, err := s.CountImageUsage(ctx, a.ID, "img")
			require.NoError(t, err)
			assert.EqualValues(t, 1, count)

			require.NoError(t, s.DeleteMessage(ctx, a.ID, msg.ID))

			_, err = s.GetMessage(ctx, a.ID, msg.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			count, err = s.CountImageUsage(ctx, a.ID, "img")
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestStore_Images(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			a := seedAccount(t, s, "owner", "Ubot")

			older, err := s.CreateImage(ctx, &models.Image{
				AccountID: a.ID, Name: "old", URL: "https://cdn.example.com/old.png",
				CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			})
			require.NoError(t, err)
			newer, err := s.CreateImage(ctx, &models.Image{
				AccountID: a.ID, Name: "new", URL: "https://cdn.example.com/new.png",
				CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			})
			require.NoError(t, err)

			images, err := s.ListImages(ctx, a.ID)
			require.NoError(t, err)
			require.Len(t, images, 2)
			assert.Equal(t, newer.ID, images[0].ID)
			assert.Equal(t, older.ID, images[1].ID)

			got, err := s.GetImage(ctx, a.ID, older.ID)
			require.NoError(t, err)
			assert.Equal(t, "https://cdn.example.com/old.png", got.URL)

			require.NoError(t, s.DeleteImage(ctx, a.ID, older.ID))
			_, err = s.GetImage(ctx, a.ID, older.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_DeleteAccountRemovesEverything(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			a := seedAccount(t, s, "owner", "Ubot")
			keep := seedAccount(t, s, "owner", "Ukeep")

			_, err := s.CreateMessage(ctx, &models.Message{
				AccountID: a.ID, Title: "menu", Type: models.MessageTypeCarousel, Content: "Pick",
				Options: []models.Option{{Text: "A", ImageID: ptr("img")}},
			})
			require.NoError(t, err)
			_, err = s.CreateMessage(ctx, &models.Message{
				AccountID: keep.ID, Title: "t", Type: models.MessageTypeText, Content: "stay",
			})
			require.NoError(t, err)
			_, err = s.CreateImage(ctx, &models.Image{AccountID: a.ID, Name: "i", URL: "https://cdn.example.com/i.png"})
			require.NoError(t, err)

			require.NoError(t, s.DeleteAccount(ctx, a.ID))
			assert.ErrorIs(t, s.DeleteAccount(ctx, a.ID), ErrNotFound)

			msgs, err := s.ListMessages(ctx, a.ID, MessageFilter{})
			require.NoError(t, err)
			assert.Empty(t, msgs)
			images, err := s.ListImages(ctx, a.ID)
			require.NoError(t, err)
			assert.Empty(t, images)
			count, err := s.CountImageUsage(ctx, a.ID, "img")
			require.NoError(t, err)
			assert.Zero(t, count)

			kept, err := s.ListMessages(ctx, keep.ID, MessageFilter{})
			require.NoError(t, err)
			assert.Len(t, kept, 1)
		})
	}
}
