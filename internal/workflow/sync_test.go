package workflow

import (
	"context"
	"testing"

	"club_system/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSynchronizerIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.listed(t, alexID, 7.5)

	_, err := f.engine.PurchaseTransfer(ctx, f.managerB, req.ID, clubB)
	require.NoError(t, err)

	sync := f.engine.Synchronizer()
	for i := 0; i < 2; i++ {
		var change ClubChange
		require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
			var err error
			change, err = sync.Apply(tx, alexID, clubB, f.engine.now())
			return err
		}))
		assert.False(t, change.Moved)
		sync.Commit(ctx, change, f.alex)
	}

	alex := f.player(t, alexID)
	assert.Equal(t, clubB, *alex.ClubID)
	assert.Equal(t, 7, alex.Jersey)
	assert.Equal(t, int64(1), f.count(t, &domain.User{}, "player_id = ? AND club_id = ?", alexID, clubB))
	assert.Equal(t, int64(1), f.count(t, &domain.TransferHistory{}, "player_id = ?", alexID))
	require.NotNil(t, f.alex.ClubID)
	assert.Equal(t, clubB, *f.alex.ClubID)
}

func TestSynchronizerCommitUpdatesPlayerSessionOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var change ClubChange
	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		change, err = f.engine.Synchronizer().Apply(tx, alexID, clubC, f.engine.now())
		return err
	}))
	assert.True(t, change.Moved)
	assert.Equal(t, clubA, *change.FromClubID)
	assert.Equal(t, "Club C", change.ClubName)

	f.engine.Synchronizer().Commit(ctx, change, f.alex, f.managerA)
	assert.Equal(t, clubC, *f.alex.ClubID)
	assert.Equal(t, clubA, *f.managerA.ClubID)

	var h domain.TransferHistory
	require.NoError(t, f.db.Where("player_id = ?", alexID).First(&h).Error)
	assert.Equal(t, clubA, *h.FromClubID)
	assert.Equal(t, clubC, *h.ToClubID)
	assert.True(t, h.TransferDate.Equal(epoch))
}

func TestSynchronizerCommitInvalidatesReadModels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	roster, err := f.engine.ClubRoster(ctx, clubB)
	require.NoError(t, err)
	assert.Empty(t, roster)
	players, err := f.engine.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Club A", players[0].ClubName)

	req := f.listed(t, alexID, 1)
	_, err = f.engine.PurchaseTransfer(ctx, f.managerB, req.ID, clubB)
	require.NoError(t, err)

	roster, err = f.engine.ClubRoster(ctx, clubB)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "Alex", roster[0].Name)
	players, err = f.engine.ListPlayers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Club B", players[0].ClubName)
}

func TestSynchronizerRelease(t *testing.T) {
	f := newFixture(t)
	f.seedPlayer(t, 20, "Bruno", clubA, 4, domain.PositionDefender)

	var changes []ClubChange
	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		changes, err = f.engine.Synchronizer().Release(tx, clubA, f.engine.now())
		return err
	}))
	require.Len(t, changes, 2)
	for _, c := range changes {
		assert.Nil(t, c.ToClubID)
		assert.True(t, c.Moved)
	}
	assert.Equal(t, int64(0), f.count(t, &domain.Player{}, "club_id = ?", clubA))
	assert.Equal(t, int64(0), f.count(t, &domain.User{}, "player_id = ? AND club_id IS NOT NULL", alexID))
	assert.Equal(t, int64(2), f.count(t, &domain.TransferHistory{}, "to_club_id IS NULL"))
}
