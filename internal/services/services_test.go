package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/catalog"
	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/wallet"
)

// recordingDispatcher counts dispatches per owner without recomputing.
type recordingDispatcher struct {
	owners []string
}

func (d *recordingDispatcher) WalletChanged(_ context.Context, ownerID string) {
	d.owners = append(d.owners, ownerID)
}

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func draftTransaction(owner string) core.Transaction {
	return core.Transaction{
		OwnerID:         owner,
		Amount:          core.Money{Cents: 4500},
		Source:          core.SourceCash,
		Description:     "groceries",
		CategoryID:      "cat-food",
		CategoryType:    core.Expense,
		CategoryName:    "Food",
		TransactionDate: core.NewDate(2024, 1, 15),
	}
}

func draftGoal(owner string) core.SavingGoal {
	return core.SavingGoal{
		OwnerID:         owner,
		Source:          core.SourceCash,
		Purpose:         "vacation",
		TargetAmount:    core.Money{Cents: 100000},
		ExpectedAt:      core.NewDate(2025, 6, 30),
		TransactionDate: core.NewDate(2024, 3, 1),
	}
}

func TestCreateTransactionDispatchesOnce(t *testing.T) {
	repo := newTestStorage(t)
	disp := &recordingDispatcher{}
	svc := NewLedgerService(repo, disp)

	created, err := svc.CreateTransaction(context.Background(), draftTransaction("alice"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, core.StatusSuccess, created.Status) // defaulted
	require.Equal(t, []string{"alice"}, disp.owners)
}

func TestCreateTransactionInvalidNoDispatch(t *testing.T) {
	repo := newTestStorage(t)
	disp := &recordingDispatcher{}
	svc := NewLedgerService(repo, disp)

	draft := draftTransaction("alice")
	draft.Description = ""
	_, err := svc.CreateTransaction(context.Background(), draft)
	require.ErrorIs(t, err, core.ErrEmptyDescription)
	require.Empty(t, disp.owners)
}

func TestUpdateTransactionMutableFieldsOnly(t *testing.T) {
	repo := newTestStorage(t)
	disp := &recordingDispatcher{}
	svc := NewLedgerService(repo, disp)
	ctx := context.Background()

	created, err := svc.CreateTransaction(ctx, draftTransaction("alice"))
	require.NoError(t, err)

	desc := "weekly groceries"
	status := core.StatusPending
	updated, err := svc.UpdateTransaction(ctx, "alice", created.ID, TransactionUpdate{
		Description: &desc,
		Status:      &status,
	})
	require.NoError(t, err)
	require.Equal(t, "weekly groceries", updated.Description)
	require.Equal(t, core.StatusPending, updated.Status)
	require.Equal(t, created.Amount, updated.Amount)
	require.Equal(t, []string{"alice", "alice"}, disp.owners)
}

func TestUpdateTransactionWrongOwner(t *testing.T) {
	repo := newTestStorage(t)
	disp := &recordingDispatcher{}
	svc := NewLedgerService(repo, disp)
	ctx := context.Background()

	created, err := svc.CreateTransaction(ctx, draftTransaction("alice"))
	require.NoError(t, err)
	disp.owners = nil

	desc := "hijacked"
	_, err = svc.UpdateTransaction(ctx, "mallory", created.ID, TransactionUpdate{Description: &desc})
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.Empty(t, disp.owners)
}

func TestDeleteTransactionDispatchesForOwner(t *testing.T) {
	repo := newTestStorage(t)
	disp := &recordingDispatcher{}
	svc := NewLedgerService(repo, disp)
	ctx := context.Background()

	created, err := svc.CreateTransaction(ctx, draftTransaction("alice"))
	require.NoError(t, err)
	disp.owners = nil

	require.NoError(t, svc.DeleteTransaction(ctx, "alice", created.ID))
	require.Equal(t, []string{"alice"}, disp.owners)

	_, err = repo.GetTransaction(ctx, created.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListTransactionsPageMetadata(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewLedgerService(repo, &recordingDispatcher{})
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := svc.CreateTransaction(ctx, draftTransaction("alice"))
		require.NoError(t, err)
	}

	page, err := svc.ListTransactions(ctx, "alice", storage.TransactionFilter{Limit: 3, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	require.Equal(t, 2, page.CurrentPage)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, 7, page.TotalCount)
	require.True(t, page.HasNextPage)
	require.True(t, page.HasPrevPage)
}

func TestCreateSavingStartsAtZeroAndLeavesTrail(t *testing.T) {
	repo := newTestStorage(t)
	disp := &recordingDispatcher{}
	svc := NewSavingService(repo, catalog.New(repo), disp)
	ctx := context.Background()

	draft := draftGoal("alice")
	draft.CurrentAmount = core.Money{Cents: 99999} // must be ignored
	created, err := svc.CreateSaving(ctx, draft)
	require.NoError(t, err)
	require.Zero(t, created.CurrentAmount.Cents)
	require.False(t, created.IsCompleted)

	// one dispatch for the goal, one for the trail record
	require.Equal(t, []string{"alice", "alice"}, disp.owners)

	trail, err := repo.ListTransactionsByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, trail, 1)
	require.Equal(t, core.Saving, trail[0].CategoryType)
	require.Equal(t, "Initial saving: vacation", trail[0].Description)
	require.Zero(t, trail[0].Amount.Cents)
}

func TestUpdateSavingRecordsDelta(t *testing.T) {
	repo := newTestStorage(t)
	disp := &recordingDispatcher{}
	svc := NewSavingService(repo, catalog.New(repo), disp)
	ctx := context.Background()

	created, err := svc.CreateSaving(ctx, draftGoal("alice"))
	require.NoError(t, err)
	disp.owners = nil

	amount := core.Money{Cents: 40000}
	updated, err := svc.UpdateSaving(ctx, "alice", created.ID, SavingUpdate{CurrentAmount: &amount})
	require.NoError(t, err)
	require.Equal(t, int64(40000), updated.CurrentAmount.Cents)
	require.False(t, updated.IsCompleted)
	require.Equal(t, []string{"alice", "alice"}, disp.owners)

	trail, err := repo.ListTransactionsByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	var delta *core.Transaction
	for i := range trail {
		if trail[i].Description == "Added to saving: vacation" {
			delta = &trail[i]
		}
	}
	require.NotNil(t, delta)
	require.Equal(t, int64(40000), delta.Amount.Cents)
}

func TestUpdateSavingCompletesAtTarget(t *testing.T) {
	repo := newTestStorage(t)
	disp := &recordingDispatcher{}
	svc := NewSavingService(repo, catalog.New(repo), disp)
	ctx := context.Background()

	created, err := svc.CreateSaving(ctx, draftGoal("alice"))
	require.NoError(t, err)

	amount := core.Money{Cents: 100000}
	updated, err := svc.UpdateSaving(ctx, "alice", created.ID, SavingUpdate{CurrentAmount: &amount})
	require.NoError(t, err)
	require.True(t, updated.IsCompleted)
}

func TestUpdateSavingRejectsExceedingTarget(t *testing.T) {
	repo := newTestStorage(t)
	disp := &recordingDispatcher{}
	svc := NewSavingService(repo, catalog.New(repo), disp)
	ctx := context.Background()

	created, err := svc.CreateSaving(ctx, draftGoal("alice"))
	require.NoError(t, err)
	disp.owners = nil

	amount := core.Money{Cents: 100001}
	_, err = svc.UpdateSaving(ctx, "alice", created.ID, SavingUpdate{CurrentAmount: &amount})
	require.ErrorIs(t, err, core.ErrCurrentExceedsTarget)
	require.Empty(t, disp.owners)
}

func TestUpdateSavingSamePurposeNoDeltaRecord(t *testing.T) {
	repo := newTestStorage(t)
	disp := &recordingDispatcher{}
	svc := NewSavingService(repo, catalog.New(repo), disp)
	ctx := context.Background()

	created, err := svc.CreateSaving(ctx, draftGoal("alice"))
	require.NoError(t, err)

	purpose := "summer vacation"
	_, err = svc.UpdateSaving(ctx, "alice", created.ID, SavingUpdate{Purpose: &purpose})
	require.NoError(t, err)

	trail, err := repo.ListTransactionsByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, trail, 1) // only the initial record
}

func TestDeleteSavingDispatchesForOwner(t *testing.T) {
	repo := newTestStorage(t)
	disp := &recordingDispatcher{}
	svc := NewSavingService(repo, catalog.New(repo), disp)
	ctx := context.Background()

	created, err := svc.CreateSaving(ctx, draftGoal("alice"))
	require.NoError(t, err)
	disp.owners = nil

	require.NoError(t, svc.DeleteSaving(ctx, "alice", created.ID))
	require.Equal(t, []string{"alice"}, disp.owners)
}

// End to end: mutations through the services with a live sync dispatcher
// must leave the wallet equal to a fresh full scan.
func TestWalletFollowsLedgerMutations(t *testing.T) {
	repo := newTestStorage(t)
	engine := wallet.NewEngine(repo, repo)
	disp := wallet.NewSyncDispatcher(engine, nil)
	ledgerSvc := NewLedgerService(repo, disp)
	savingSvc := NewSavingService(repo, catalog.New(repo), disp)
	ctx := context.Background()

	income := draftTransaction("alice")
	income.CategoryType = core.Income
	income.CategoryName = "Salary"
	income.Amount = core.Money{Cents: 100000}
	_, err := ledgerSvc.CreateTransaction(ctx, income)
	require.NoError(t, err)

	expense, err := ledgerSvc.CreateTransaction(ctx, draftTransaction("alice"))
	require.NoError(t, err)

	goal, err := savingSvc.CreateSaving(ctx, draftGoal("alice"))
	require.NoError(t, err)
	amount := core.Money{Cents: 20000}
	_, err = savingSvc.UpdateSaving(ctx, "alice", goal.ID, SavingUpdate{CurrentAmount: &amount})
	require.NoError(t, err)

	w, err := repo.GetWallet(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(100000), w.Income.Cents)
	require.Equal(t, int64(4500), w.Expense.Cents)
	require.Equal(t, int64(20000), w.Savings.Cents)
	require.Equal(t, int64(75500), w.Balance.Cents)

	// failing the expense removes it from the totals
	status := core.StatusFailed
	_, err = ledgerSvc.UpdateTransaction(ctx, "alice", expense.ID, TransactionUpdate{Status: &status})
	require.NoError(t, err)

	w, err = repo.GetWallet(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(0), w.Expense.Cents)
	require.Equal(t, int64(80000), w.Balance.Cents)

	// deleting the goal drops its savings
	require.NoError(t, savingSvc.DeleteSaving(ctx, "alice", goal.ID))
	w, err = repo.GetWallet(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(0), w.Savings.Cents)
	require.Equal(t, int64(100000), w.Balance.Cents)
}

// Concurrent same-owner mutations: every write must commit (writers queue on
// the busy timeout instead of failing) and the wallet must converge to the
// ledger-derived totals once the sweep runs.
func TestConcurrentMutationsConverge(t *testing.T) {
	repo := newTestStorage(t)
	engine := wallet.NewEngine(repo, repo)
	disp := wallet.NewSyncDispatcher(engine, nil)
	ledgerSvc := NewLedgerService(repo, disp)
	savingSvc := NewSavingService(repo, catalog.New(repo), disp)
	ctx := context.Background()

	var goals []*core.SavingGoal
	for i := 0; i < 3; i++ {
		g, err := savingSvc.CreateSaving(ctx, draftGoal("alice"))
		require.NoError(t, err)
		goals = append(goals, g)
	}

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		i := i
		g.Go(func() error {
			draft := draftTransaction("alice")
			draft.Amount = core.Money{Cents: int64(1000 * (i + 1))}
			_, err := ledgerSvc.CreateTransaction(ctx, draft)
			return err
		})
	}
	deposits := []int64{10000, 20000, 30000}
	for i, goal := range goals {
		amount := core.Money{Cents: deposits[i]}
		id := goal.ID
		g.Go(func() error {
			_, err := savingSvc.UpdateSaving(ctx, "alice", id, SavingUpdate{CurrentAmount: &amount})
			return err
		})
	}
	require.NoError(t, g.Wait())

	// the sweep's full scan settles any interleaved recomputations
	fresh, err := engine.Recompute(ctx, "alice")
	require.NoError(t, err)

	// 1000+2000+...+8000 spent, 10000+20000+30000 saved
	require.Equal(t, int64(0), fresh.Income.Cents)
	require.Equal(t, int64(36000), fresh.Expense.Cents)
	require.Equal(t, int64(60000), fresh.Savings.Cents)
	require.Equal(t, int64(-96000), fresh.Balance.Cents)

	stored, err := repo.GetWallet(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, fresh.Income, stored.Income)
	require.Equal(t, fresh.Expense, stored.Expense)
	require.Equal(t, fresh.Savings, stored.Savings)
	require.Equal(t, fresh.Balance, stored.Balance)
}
