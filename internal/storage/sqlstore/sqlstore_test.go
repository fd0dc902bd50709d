package sqlstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/circles/internal/models"
	"github.com/mmynk/circles/internal/storage"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := OpenSQLite(context.Background(), dbPath)
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, newSQLiteStore(t))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CIRCLES_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("CIRCLES_TEST_POSTGRES_URL not set")
	}
	store, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	runStoreSuite(t, store)
}

type fixture struct {
	circle     *models.Circle
	membership *models.Membership
	future     *models.Meeting
	past       *models.Meeting
}

func seed(t *testing.T, store *Store, now time.Time) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{
		circle: &models.Circle{ModeratorID: "mod-" + uuid.NewString(), MaxMembers: 8, Price: 6000, Currency: "PLN"},
	}
	err := store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateCircle(ctx, f.circle); err != nil {
			return err
		}
		f.membership = &models.Membership{
			UserID:       "user-" + uuid.NewString(),
			CircleID:     f.circle.ID,
			Status:       models.MembershipActive,
			VacationDays: 2,
		}
		if err := tx.CreateMembership(ctx, f.membership); err != nil {
			return err
		}
		f.future = &models.Meeting{CircleID: f.circle.ID, StartTime: now.Add(24 * time.Hour), EndTime: now.Add(26 * time.Hour), Price: 6000, Currency: "PLN"}
		f.past = &models.Meeting{CircleID: f.circle.ID, StartTime: now.Add(-24 * time.Hour), EndTime: now.Add(-22 * time.Hour), Price: 6000, Currency: "PLN"}
		for _, mt := range []*models.Meeting{f.future, f.past} {
			if err := tx.CreateMeeting(ctx, mt); err != nil {
				return err
			}
			p := &models.Participation{UserID: f.membership.UserID, MeetingID: mt.ID}
			if err := tx.ActivateParticipation(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return f
}

func runStoreSuite(t *testing.T, store *Store) {
	ctx := context.Background()
	now := time.Unix(time.Now().Unix(), 0).UTC()

	t.Run("create and get membership", func(t *testing.T) {
		f := seed(t, store, now)
		got, err := store.GetMembership(ctx, f.membership.ID)
		require.NoError(t, err)
		assert.Equal(t, f.membership.UserID, got.UserID)
		assert.Equal(t, models.MembershipActive, got.Status)
		assert.Equal(t, 2, got.VacationDays)

		found, err := store.FindMembership(ctx, f.membership.UserID, f.circle.ID)
		require.NoError(t, err)
		assert.Equal(t, f.membership.ID, found.ID)

		circle, err := store.GetCircle(ctx, f.circle.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(6000), circle.Price)
		assert.Equal(t, f.circle.ModeratorID, circle.ModeratorID)
	})

	t.Run("missing records map to ErrNotFound", func(t *testing.T) {
		_, err := store.GetMembership(ctx, "nonexistent-id")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetParticipation(ctx, "nonexistent-id")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetCircle(ctx, "nonexistent-id")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("duplicate membership conflicts", func(t *testing.T) {
		f := seed(t, store, now)
		err := store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.CreateMembership(ctx, &models.Membership{
				UserID: f.membership.UserID, CircleID: f.circle.ID, Status: models.MembershipPending,
			})
		})
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("guarded membership update", func(t *testing.T) {
		f := seed(t, store, now)
		err := store.WithTx(ctx, func(tx storage.Tx) error {
			m, err := tx.GetMembership(ctx, f.membership.ID)
			if err != nil {
				return err
			}
			prev := *m
			m.Status = models.MembershipRemoved
			return tx.UpdateMembership(ctx, m, prev)
		})
		require.NoError(t, err)

		// A second writer that read the old status loses.
		stale := *f.membership
		next := stale
		next.Status = models.MembershipRemoved
		err = store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.UpdateMembership(ctx, &next, stale)
		})
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("future participations exclude past and cancelled", func(t *testing.T) {
		f := seed(t, store, now)
		var list []models.ParticipationDetail
		err := store.WithTx(ctx, func(tx storage.Tx) error {
			var err error
			list, err = tx.ListFutureParticipations(ctx, f.membership.UserID, f.circle.ID, now)
			return err
		})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, f.future.ID, list[0].MeetingID)
		assert.Equal(t, f.circle.ID, list[0].Meeting.CircleID)
		assert.True(t, list[0].Meeting.StartTime.Equal(f.future.StartTime))

		err = store.WithTx(ctx, func(tx storage.Tx) error {
			p := list[0].Participation
			prev := p
			p.Status = models.ParticipationCancelled
			if err := tx.UpdateParticipation(ctx, &p, prev); err != nil {
				return err
			}
			list, err = tx.ListFutureParticipations(ctx, f.membership.UserID, f.circle.ID, now)
			return err
		})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("activate reactivates cancelled rows only", func(t *testing.T) {
		f := seed(t, store, now)
		var original models.Participation
		err := store.WithTx(ctx, func(tx storage.Tx) error {
			list, err := tx.ListFutureParticipations(ctx, f.membership.UserID, f.circle.ID, now)
			if err != nil {
				return err
			}
			original = list[0].Participation
			paid := original
			paid.AmountPaid = 6000
			if err := tx.UpdateParticipation(ctx, &paid, original); err != nil {
				return err
			}

			// Active rows are untouched.
			again := &models.Participation{UserID: f.membership.UserID, MeetingID: f.future.ID}
			if err := tx.ActivateParticipation(ctx, again); err != nil {
				return err
			}
			assert.Equal(t, original.ID, again.ID)
			assert.Equal(t, int64(6000), again.AmountPaid)

			cancelled := paid
			cancelled.Status = models.ParticipationCancelled
			cancelled.AmountPaid = 0
			if err := tx.UpdateParticipation(ctx, &cancelled, paid); err != nil {
				return err
			}

			back := &models.Participation{UserID: f.membership.UserID, MeetingID: f.future.ID}
			if err := tx.ActivateParticipation(ctx, back); err != nil {
				return err
			}
			assert.Equal(t, original.ID, back.ID)
			assert.Equal(t, models.ParticipationActive, back.Status)
			assert.Zero(t, back.AmountPaid)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("rollback discards writes", func(t *testing.T) {
		holder := models.MembershipHolder(uuid.NewString())
		boom := errors.New("boom")
		err := store.WithTx(ctx, func(tx storage.Tx) error {
			if err := tx.CreditBalance(ctx, holder, "PLN", 500); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		balances, err := store.ListBalances(ctx, holder)
		require.NoError(t, err)
		assert.Empty(t, balances)
	})

	t.Run("balances reject negative amounts", func(t *testing.T) {
		holder := models.MembershipHolder(uuid.NewString())
		err := store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.CreditBalance(ctx, holder, "PLN", -1)
		})
		assert.Error(t, err)
	})

	t.Run("concurrent credits are not lost", func(t *testing.T) {
		holder := models.MembershipHolder(uuid.NewString())
		const workers = 20

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				currency := "PLN"
				if i%4 == 0 {
					currency = "EUR"
				}
				errs <- store.WithTx(ctx, func(tx storage.Tx) error {
					return tx.CreditBalance(ctx, holder, currency, 100)
				})
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		balances, err := store.ListBalances(ctx, holder)
		require.NoError(t, err)
		require.Len(t, balances, 2)
		assert.Equal(t, "EUR", balances[0].Currency)
		assert.Equal(t, int64(500), balances[0].Amount)
		assert.Equal(t, "PLN", balances[1].Currency)
		assert.Equal(t, int64(1500), balances[1].Amount)
	})

	t.Run("upcoming meetings", func(t *testing.T) {
		f := seed(t, store, now)
		var meetings []models.Meeting
		var active []models.Membership
		err := store.WithTx(ctx, func(tx storage.Tx) error {
			var err error
			if meetings, err = tx.ListUpcomingMeetings(ctx, f.circle.ID, now); err != nil {
				return err
			}
			active, err = tx.ListMemberships(ctx, f.circle.ID, models.MembershipActive)
			return err
		})
		require.NoError(t, err)
		require.Len(t, meetings, 1)
		assert.Equal(t, f.future.ID, meetings[0].ID)
		require.Len(t, active, 1)
		assert.Equal(t, f.membership.ID, active[0].ID)
	})
}
