package workflow

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"club_system/internal/db"
	"club_system/internal/domain"
	"club_system/internal/events"
	"club_system/internal/utils"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Seeded ids
const (
	clubA  uint = 1
	clubB  uint = 2
	clubC  uint = 3
	alexID uint = 10
)

type fixture struct {
	engine *Engine
	db     *gorm.DB
	clock  *clockwork.FakeClock
	events *events.Recorder
	cache  *utils.MemoryCache

	admin    *domain.Session
	managerA *domain.Session
	managerB *domain.Session
	managerC *domain.Session
	alex     *domain.Session
}

// newFixture seeds clubs A, B and C with one manager each and player Alex (jersey 7) at A
func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.OpenSQLite(db.SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		db:     gdb,
		clock:  clockwork.NewFakeClockAt(epoch),
		events: &events.Recorder{},
		cache:  utils.NewMemoryCache(),
	}
	f.engine = New(Options{DB: gdb, Cache: f.cache, Events: f.events, Clock: f.clock, Log: log})

	for _, c := range []domain.Club{{ID: clubA, Name: "Club A"}, {ID: clubB, Name: "Club B"}, {ID: clubC, Name: "Club C"}} {
		require.NoError(t, gdb.Create(&c).Error)
	}
	a, b, c := clubA, clubB, clubC
	admin := domain.User{ID: 1, Username: "admin", Password: "x", Role: domain.RoleSystemAdmin}
	require.NoError(t, gdb.Create(&admin).Error)
	f.admin = domain.NewSession(&admin)
	f.managerA = f.seedManager(t, 2, "mgr_a", &a)
	f.managerB = f.seedManager(t, 3, "mgr_b", &b)
	f.managerC = f.seedManager(t, 4, "mgr_c", &c)

	alex := domain.Player{ID: alexID, Name: "Alex", Age: 24, Jersey: 7, Position: domain.PositionForward, ClubID: &a, ClubView: "Club A"}
	require.NoError(t, gdb.Create(&alex).Error)
	pid := alexID
	user := domain.User{ID: 5, Username: "alex", Password: "x", Role: domain.RolePlayer, ClubID: &a, PlayerID: &pid}
	require.NoError(t, gdb.Create(&user).Error)
	f.alex = domain.NewSession(&user)
	return f
}

func (f *fixture) seedManager(t *testing.T, userID uint, username string, clubID *uint) *domain.Session {
	t.Helper()
	m := domain.Manager{Name: username, ClubID: *clubID}
	require.NoError(t, f.db.Create(&m).Error)
	u := domain.User{ID: userID, Username: username, Password: "x", Role: domain.RoleClubManager, ClubID: clubID, ManagerID: &m.ID}
	require.NoError(t, f.db.Create(&u).Error)
	return domain.NewSession(&u)
}

func (f *fixture) seedPlayer(t *testing.T, id uint, name string, clubID uint, jersey int, pos domain.Position) *domain.Player {
	t.Helper()
	c := clubID
	p := domain.Player{ID: id, Name: name, Age: 22, Jersey: jersey, Position: pos, ClubID: &c}
	require.NoError(t, f.db.Create(&p).Error)
	return &p
}

func (f *fixture) player(t *testing.T, id uint) domain.Player {
	t.Helper()
	var p domain.Player
	require.NoError(t, f.db.First(&p, id).Error)
	return p
}

func (f *fixture) transfer(t *testing.T, id uint) domain.TransferRequest {
	t.Helper()
	var r domain.TransferRequest
	require.NoError(t, f.db.First(&r, id).Error)
	return r
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// listed submits a general market request for playerID as admin and approves it at fee
func (f *fixture) listed(t *testing.T, playerID uint, fee float64) *domain.TransferRequest {
	t.Helper()
	ctx := context.Background()
	req, err := f.engine.SubmitTransfer(ctx, f.admin, TransferInput{PlayerID: playerID})
	require.NoError(t, err)
	req, err = f.engine.ApproveTransfer(ctx, f.admin, req.ID, fee)
	require.NoError(t, err)
	return req
}

func uintPtr(v uint) *uint    { return &v }
func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }
