package workflow

import (
	"context"
	"testing"

	"club_system/internal/domain"
	"club_system/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roster, err := f.engine.ClubRoster(ctx, clubA)
	require.NoError(t, err)
	require.Len(t, roster, 1)

	p, err := f.engine.CreatePlayer(ctx, f.managerA, NewPlayer{Name: " Bruno ", Position: "defender", ClubID: uintPtr(clubA)})
	require.NoError(t, err)
	assert.Equal(t, "Bruno", p.Name)
	assert.Equal(t, DefaultAge, p.Age)
	assert.Equal(t, domain.PositionDefender, p.Position)
	assert.Equal(t, 1, p.Jersey, "lowest free number")
	assert.Equal(t, "Club A", p.ClubView)
	assert.Equal(t, []string{events.PlayerCreated}, f.events.Subjects())

	roster, err = f.engine.ClubRoster(ctx, clubA)
	require.NoError(t, err)
	assert.Len(t, roster, 2)

	_, err = f.engine.CreatePlayer(ctx, f.managerA, NewPlayer{Name: "Cal", Position: "forward", Jersey: intPtr(7), ClubID: uintPtr(clubA)})
	assert.ErrorIs(t, err, domain.ErrJerseyTaken)
	_, err = f.engine.CreatePlayer(ctx, f.managerB, NewPlayer{Name: "Cal", Position: "forward", ClubID: uintPtr(clubA)})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.engine.CreatePlayer(ctx, f.managerA, NewPlayer{Name: "Cal", Position: "forward", Jersey: intPtr(9)})
	assert.ErrorIs(t, err, domain.ErrForbidden, "free agents are admin only")
	_, err = f.engine.CreatePlayer(ctx, f.admin, NewPlayer{Name: "Cal", Position: "striker", ClubID: uintPtr(clubA)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.engine.CreatePlayer(ctx, f.admin, NewPlayer{Name: "Cal", Age: 150, Position: "forward", ClubID: uintPtr(clubA)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.engine.CreatePlayer(ctx, f.admin, NewPlayer{Name: "Cal", Position: "forward"})
	assert.ErrorIs(t, err, domain.ErrValidation, "free agent without jersey")
	_, err = f.engine.CreatePlayer(ctx, f.admin, NewPlayer{Name: "Cal", Position: "forward", ClubID: uintPtr(42)})
	assert.ErrorIs(t, err, domain.ErrClubNotFound)

	free, err := f.engine.CreatePlayer(ctx, f.admin, NewPlayer{Name: "Cal", Position: "forward", Jersey: intPtr(7)})
	require.NoError(t, err)
	assert.Nil(t, free.ClubID)
	assert.Equal(t, int64(3), f.count(t, &domain.Player{}, ""))
}

func TestDeletePlayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.listed(t, alexID, 3)

	require.ErrorIs(t, f.engine.DeletePlayer(ctx, f.managerA, alexID), domain.ErrPlayerInTransfer)
	_, err := f.engine.PurchaseTransfer(ctx, f.managerB, req.ID, clubB)
	require.NoError(t, err)

	require.ErrorIs(t, f.engine.DeletePlayer(ctx, f.managerA, alexID), domain.ErrForbidden, "no longer at club A")
	require.ErrorIs(t, f.engine.DeletePlayer(ctx, f.alex, alexID), domain.ErrForbidden)
	require.NoError(t, f.engine.DeletePlayer(ctx, f.managerB, alexID))

	assert.Equal(t, int64(0), f.count(t, &domain.Player{}, "id = ?", alexID))
	assert.Equal(t, int64(1), f.count(t, &domain.TransferHistory{}, "player_id = ?", alexID))
	assert.Equal(t, domain.TransferCompleted, f.transfer(t, req.ID).Status)
	assert.Equal(t, int64(1), f.count(t, &domain.User{}, "username = ? AND player_id IS NULL AND club_id IS NULL", "alex"))
	assert.Contains(t, f.events.Subjects(), events.PlayerDeleted)

	roster, err := f.engine.ClubRoster(ctx, clubB)
	require.NoError(t, err)
	assert.Empty(t, roster)
	require.ErrorIs(t, f.engine.DeletePlayer(ctx, f.admin, alexID), domain.ErrPlayerNotFound)
}

func TestCreateManager(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club, err := f.engine.CreateClub(ctx, f.admin, "Club D")
	require.NoError(t, err)

	_, err = f.engine.CreateManager(ctx, f.managerA, NewManager{Name: "Dee", ClubID: club.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.engine.CreateManager(ctx, f.admin, NewManager{Name: "Dee", ClubID: clubA})
	assert.ErrorIs(t, err, domain.ErrClubHasManager)
	_, err = f.engine.CreateManager(ctx, f.admin, NewManager{Name: " ", ClubID: club.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.engine.CreateManager(ctx, f.admin, NewManager{Name: "Dee", Age: intPtr(0), ClubID: club.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.engine.CreateManager(ctx, f.admin, NewManager{Name: "Dee", ClubID: 42})
	assert.ErrorIs(t, err, domain.ErrClubNotFound)

	m, err := f.engine.CreateManager(ctx, f.admin, NewManager{Name: "Dee", Age: intPtr(48), ClubID: club.ID})
	require.NoError(t, err)
	assert.Equal(t, club.ID, m.ClubID)

	clubs, err := f.engine.ListClubs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dee", clubs[3].ManagerName)

	managers, err := f.engine.ListManagers(ctx)
	require.NoError(t, err)
	require.Len(t, managers, 4)
	assert.Equal(t, ManagerView{ID: m.ID, Name: "Dee", Age: intPtr(48), ClubID: club.ID, ClubName: "Club D"}, managers[3])
}

func TestDeleteManager(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NotNil(t, f.managerA.ManagerID)
	id := *f.managerA.ManagerID

	require.ErrorIs(t, f.engine.DeleteManager(ctx, f.managerA, id), domain.ErrForbidden)
	require.NoError(t, f.engine.DeleteManager(ctx, f.admin, id))
	require.ErrorIs(t, f.engine.DeleteManager(ctx, f.admin, id), domain.ErrManagerNotFound)

	assert.Equal(t, int64(0), f.count(t, &domain.Manager{}, "club_id = ?", clubA))
	sess, err := f.engine.LoadSession(ctx, f.managerA.UserID)
	require.NoError(t, err)
	assert.False(t, sess.ManagesClub(clubA))

	_, err = f.engine.CreateManager(ctx, f.admin, NewManager{Name: "New boss", ClubID: clubA})
	require.NoError(t, err, "club is free for a new manager")
}
