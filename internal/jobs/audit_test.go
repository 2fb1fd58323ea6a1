package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/services"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
)

type failingLister struct{}

func (failingLister) ListAll(ctx context.Context) ([]*models.Account, error) {
	return nil, errors.New("db down")
}

func seed(t *testing.T, store *storage.MemoryStore, name string, initial bool) *models.Account {
	t.Helper()
	ctx := context.Background()
	account, err := store.CreateAccount(ctx, &models.Account{Name: name, OwnerUserID: "owner"})
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, &models.Message{
		AccountID: account.ID,
		Title:     "welcome",
		Type:      models.MessageTypeText,
		Content:   "hello",
		IsInitial: initial,
	})
	require.NoError(t, err)
	return account
}

func TestRunOnceReportsUnhealthyAccounts(t *testing.T) {
	store := storage.NewMemoryStore()
	seed(t, store, "healthy", true)
	broken := seed(t, store, "no initial", false)

	job := NewAuditJob(services.NewAccountService(store), services.NewGraphAuditor(store), time.Hour)
	reports := job.RunOnce(context.Background())

	require.Len(t, reports, 1)
	assert.Equal(t, broken.ID, reports[0].AccountID)
	assert.Empty(t, reports[0].InitialMessageIDs)
}

func TestRunOnceSurvivesListFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	job := NewAuditJob(failingLister{}, services.NewGraphAuditor(store), time.Hour)
	assert.Nil(t, job.RunOnce(context.Background()))
}

func TestStartStop(t *testing.T) {
	store := storage.NewMemoryStore()
	job := NewAuditJob(services.NewAccountService(store), services.NewGraphAuditor(store), 5*time.Millisecond)

	job.Start()
	job.Start()
	time.Sleep(20 * time.Millisecond)
	job.Stop()
	job.Stop()

	disabled := NewAuditJob(services.NewAccountService(store), services.NewGraphAuditor(store), 0)
	disabled.Start()
	disabled.Stop()
}
