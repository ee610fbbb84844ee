package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"club_system/internal/db"
	"club_system/internal/domain"
	"club_system/internal/events"
	"club_system/internal/utils"
	"club_system/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testServer struct {
	router *gin.Engine
	events *events.Recorder
	tokens map[string]string
}

// newTestServer seeds two clubs, a manager for each, an admin and player Alex at club 1
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	name := strings.ReplaceAll(t.Name(), "/", "_")
	gdb, err := db.OpenSQLite(db.SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	hash, err := utils.HashPassword("s3cret#1")
	require.NoError(t, err)
	a, b := uint(1), uint(2)
	pid := uint(10)
	require.NoError(t, gdb.Create(&domain.Club{ID: a, Name: "Club A"}).Error)
	require.NoError(t, gdb.Create(&domain.Club{ID: b, Name: "Club B"}).Error)
	require.NoError(t, gdb.Create(&domain.Manager{ID: 1, Name: "Manager A", ClubID: a}).Error)
	require.NoError(t, gdb.Create(&domain.Manager{ID: 2, Name: "Manager B", ClubID: b}).Error)
	require.NoError(t, gdb.Create(&domain.Player{ID: pid, Name: "Alex", Age: 24, Jersey: 7, Position: domain.PositionForward, ClubID: &a, ClubView: "Club A"}).Error)
	m1, m2 := uint(1), uint(2)
	users := []domain.User{
		{ID: 1, Username: "admin", Password: hash, Role: domain.RoleSystemAdmin},
		{ID: 2, Username: "mgr_a", Password: hash, Role: domain.RoleClubManager, ClubID: &a, ManagerID: &m1},
		{ID: 3, Username: "mgr_b", Password: hash, Role: domain.RoleClubManager, ClubID: &b, ManagerID: &m2},
		{ID: 4, Username: "alex", Password: hash, Role: domain.RolePlayer, ClubID: &a, PlayerID: &pid},
	}
	require.NoError(t, gdb.Create(&users).Error)

	log := logrus.New()
	log.SetOutput(io.Discard)
	rec := &events.Recorder{}
	engine := workflow.New(workflow.Options{DB: gdb, Events: rec, Log: log})

	s := &testServer{router: NewRouter(engine, testSecret, log), events: rec, tokens: map[string]string{}}
	for _, u := range users {
		token, err := utils.GenerateJWT(u.ID, string(u.Role), testSecret, time.Now())
		require.NoError(t, err)
		s.tokens[u.Username] = token
	}
	return s
}

func (s *testServer) do(t *testing.T, method, path, user string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[user])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func TestTransferFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/transfers", "alex", gin.H{})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "PENDING_APPROVAL", body["status"])
	assert.Equal(t, "General Market", body["destination_club_name"])
	id := int(body["id"].(float64))

	code, _ = s.do(t, http.MethodPost, "/transfers", "alex", gin.H{})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/transfers/%d/approve", id), "mgr_a", gin.H{"fee": -2})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/transfers/%d/approve", id), "mgr_b", gin.H{"fee": 7.5})
	assert.Equal(t, http.StatusForbidden, code)
	code, body = s.do(t, http.MethodPost, fmt.Sprintf("/transfers/%d/approve", id), "mgr_a", gin.H{"fee": 7.5})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "IN_MARKET", body["status"])

	code, body = s.do(t, http.MethodGet, "/market?position=forward", "mgr_b", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total"])
	code, _ = s.do(t, http.MethodGet, "/market?position=keeper", "mgr_b", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/transfers/%d/purchase", id), "mgr_a", nil)
	assert.Equal(t, http.StatusBadRequest, code, "same club")
	code, body = s.do(t, http.MethodPost, fmt.Sprintf("/transfers/%d/purchase", id), "mgr_b", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "COMPLETED", body["status"])
	assert.Equal(t, float64(2), body["destination_club_id"])
	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/transfers/%d/purchase", id), "mgr_b", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, body = s.do(t, http.MethodGet, "/clubs/2/players", "alex", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total"])

	code, body = s.do(t, http.MethodGet, "/players/10/history", "alex", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total"])

	// The session is rebuilt per request so Alex now belongs to club 2
	code, body = s.do(t, http.MethodPost, "/transfers", "alex", gin.H{})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, float64(2), body["source_club_id"])

	assert.Equal(t, []string{events.TransferSubmitted, events.TransferListed, events.TransferCompleted, events.TransferSubmitted}, s.events.Subjects())
}

func TestRegistrationFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	form := gin.H{
		"username":       "dani",
		"password":       "pa55#word",
		"requested_role": "PLAYER",
		"club_id":        1,
		"position":       "DEFENDER",
		"age":            150,
	}
	code, _ := s.do(t, http.MethodPost, "/auth/register", "", form)
	assert.Equal(t, http.StatusBadRequest, code)

	form["age"] = 19
	code, body := s.do(t, http.MethodPost, "/auth/register", "", form)
	require.Equal(t, http.StatusCreated, code, body)
	reg := body["registration"].(map[string]any)
	id := int(reg["id"].(float64))

	code, _ = s.do(t, http.MethodPost, "/auth/register", "", form)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": "dani", "password": "pa55#word"})
	assert.Equal(t, http.StatusUnauthorized, code, "no account before approval")

	code, _ = s.do(t, http.MethodGet, "/admin/registrations", "mgr_a", nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, body = s.do(t, http.MethodGet, "/admin/registrations?status=pending", "admin", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["pending"])

	code, body = s.do(t, http.MethodPost, fmt.Sprintf("/admin/registrations/%d/approve", id), "admin", nil)
	require.Equal(t, http.StatusOK, code, body)
	player := body["player"].(map[string]any)
	assert.Equal(t, float64(1), player["jersey"])

	code, body = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": "Dani", "password": "pa55#word"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "PLAYER", body["role"])
	assert.NotEmpty(t, body["token"])

	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/admin/registrations/%d/reject", id), "admin", gin.H{"reason": "late"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestAuthGuards(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodGet, "/transfers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	s.tokens["forged"] = "not-a-token"
	code, _ = s.do(t, http.MethodGet, "/transfers", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/admin/clubs", "mgr_a", gin.H{"name": "Club C"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodPatch, "/players/10", "alex", gin.H{"age": 30})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodPost, "/transfers/abc/approve", "mgr_a", gin.H{"fee": 1})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodPost, "/transfers/99/approve", "mgr_a", gin.H{"fee": 1})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestClubAdminOverHTTP(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/admin/clubs", "admin", gin.H{"name": "Club C"})
	require.Equal(t, http.StatusCreated, code, body)
	code, _ = s.do(t, http.MethodPost, "/admin/clubs", "admin", gin.H{"name": "Club C"})
	assert.Equal(t, http.StatusConflict, code)

	code, body = s.do(t, http.MethodGet, "/clubs", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["total"])

	code, body = s.do(t, http.MethodPatch, "/players/10", "mgr_a", gin.H{"injured": true, "jersey": 9})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["injured"])
	assert.Equal(t, float64(9), body["jersey"])

	code, body = s.do(t, http.MethodDelete, "/admin/clubs/1", "admin", nil)
	require.Equal(t, http.StatusOK, code, body)
	code, body = s.do(t, http.MethodGet, "/players", "admin", nil)
	require.Equal(t, http.StatusOK, code)
	players := body["players"].([]any)
	require.Len(t, players, 1)
	assert.Equal(t, workflow.FreeAgent, players[0].(map[string]any)["club_name"])
}

func TestSquadAdminOverHTTP(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/players", "mgr_a", gin.H{"name": "Bruno", "position": "DEFENDER", "club_id": 1})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, float64(1), body["jersey"])
	bruno := int(body["id"].(float64))
	code, _ = s.do(t, http.MethodPost, "/players", "mgr_b", gin.H{"name": "Cal", "position": "FORWARD", "club_id": 1})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodPost, "/players", "alex", gin.H{"name": "Cal", "position": "FORWARD", "club_id": 1})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodPost, "/players", "mgr_a", gin.H{"name": "Cal", "position": "FORWARD", "club_id": 1, "jersey": 7})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/players/%d", bruno), "mgr_b", nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, body = s.do(t, http.MethodDelete, fmt.Sprintf("/players/%d", bruno), "mgr_a", nil)
	require.Equal(t, http.StatusOK, code, body)
	code, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/players/%d", bruno), "admin", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPost, "/admin/managers", "admin", gin.H{"name": "Dee", "club_id": 1})
	assert.Equal(t, http.StatusConflict, code)
	code, _ = s.do(t, http.MethodDelete, "/admin/managers/1", "mgr_a", nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, body = s.do(t, http.MethodDelete, "/admin/managers/1", "admin", nil)
	require.Equal(t, http.StatusOK, code, body)
	code, body = s.do(t, http.MethodPost, "/admin/managers", "admin", gin.H{"name": "Dee", "club_id": 1})
	require.Equal(t, http.StatusCreated, code, body)

	code, body = s.do(t, http.MethodGet, "/admin/managers", "admin", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["total"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrInvalidFee))
	assert.Equal(t, http.StatusConflict, statusFor(domain.ErrDuplicateRequest))
	assert.Equal(t, http.StatusConflict, statusFor(domain.ErrNotInMarket))
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrClubNotFound))
	assert.Equal(t, http.StatusForbidden, statusFor(domain.Forbiddenf("no")))
	assert.Equal(t, http.StatusUnauthorized, statusFor(domain.ErrInvalidCredentials))
	assert.Equal(t, http.StatusInternalServerError, statusFor(domain.ErrPersistence))
}
