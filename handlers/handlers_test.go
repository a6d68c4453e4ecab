package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finlit-api/auth"
	"finlit-api/chatbot"
	"finlit-api/database"
	"finlit-api/models"
	"finlit-api/trading"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubRelay answers every query with a canned string; the real relay
// is covered in its own package.
type stubRelay struct{ answer string }

func (s *stubRelay) Ask(ctx context.Context, query string, history []chatbot.Message) string {
	return s.answer
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	issuer *auth.TokenIssuer
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	issuer := auth.NewTokenIssuer("test-secret", 30*time.Minute)
	settler := trading.NewSettler(db, zap.NewNop())
	h := New(db, nil, issuer, settler, &stubRelay{answer: "Compound interest grows on itself."}, zap.NewNop())

	return &testEnv{
		router: Router(h, []string{"http://localhost:3000"}),
		db:     db,
		issuer: issuer,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// signup registers a user and returns its id plus a fresh bearer token.
func (e *testEnv) signup(t *testing.T, email string, role models.Role) (uuid.UUID, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/signup", "", gin.H{
		"email":    email,
		"password": "str0ngpassword",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	userID, err := uuid.Parse(decode(t, w)["id"].(string))
	require.NoError(t, err)

	w = e.do(t, http.MethodPost, "/token", "", gin.H{
		"email":    email,
		"password": "str0ngpassword",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	require.Equal(t, "bearer", body["token_type"])
	return userID, body["access_token"].(string)
}

func TestSignupConflictAndLogin(t *testing.T) {
	env := setupEnv(t)

	_, token := env.signup(t, "a@x.com", models.RoleStudent)

	w := env.do(t, http.MethodPost, "/signup", "", gin.H{
		"email": "a@x.com", "password": "str0ngpassword",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/token", "", gin.H{
		"email": "a@x.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, "a@x.com", me["email"])
	assert.Equal(t, "student", me["role"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestStudentSignupCreatesPortfolioAndTradeFlow(t *testing.T) {
	env := setupEnv(t)
	userID, token := env.signup(t, "a@x.com", models.RoleStudent)

	// Fresh student portfolio with the default balance.
	w := env.do(t, http.MethodGet, "/portfolios/"+userID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	portfolio := decode(t, w)
	assert.InDelta(t, 10000.00, portfolio["balance"].(float64), 1e-9)
	portfolioID := portfolio["id"].(string)

	// Affordable BUY settles and deducts.
	w = env.do(t, http.MethodPost, "/trades", token, gin.H{
		"portfolio_id": portfolioID,
		"symbol":       "AAPL",
		"quantity":     10,
		"price":        100,
		"side":         "BUY",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/portfolios/"+userID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 9000.00, decode(t, w)["balance"].(float64), 1e-9)

	// Unaffordable BUY fails and leaves the balance alone.
	w = env.do(t, http.MethodPost, "/trades", token, gin.H{
		"portfolio_id": portfolioID,
		"symbol":       "AAPL",
		"quantity":     100,
		"price":        100,
		"side":         "BUY",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient balance")

	w = env.do(t, http.MethodGet, "/portfolios/"+userID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 9000.00, decode(t, w)["balance"].(float64), 1e-9)

	// Exactly one settled trade in the history.
	w = env.do(t, http.MethodGet, "/portfolios/"+portfolioID+"/trades", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var trades []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "BUY", trades[0]["side"])

	// A stranger cannot read the portfolio, but an admin can.
	_, otherToken := env.signup(t, "b@x.com", models.RoleStudent)
	w = env.do(t, http.MethodGet, "/portfolios/"+userID.String(), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, adminToken := env.signup(t, "admin@x.com", models.RoleAdmin)
	w = env.do(t, http.MethodGet, "/portfolios/"+userID.String(), adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTradeIdempotencyKey(t *testing.T) {
	env := setupEnv(t)
	userID, token := env.signup(t, "a@x.com", models.RoleStudent)

	w := env.do(t, http.MethodGet, "/portfolios/"+userID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	portfolioID := decode(t, w)["id"].(string)

	body := gin.H{
		"portfolio_id": portfolioID,
		"symbol":       "MSFT",
		"quantity":     5,
		"price":        200,
		"side":         "BUY",
	}

	send := func() *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req := httptest.NewRequest(http.MethodPost, "/trades", &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "retry-me-once")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := send()
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, decode(t, first)["id"], decode(t, second)["id"])

	w = env.do(t, http.MethodGet, "/portfolios/"+userID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 9000.00, decode(t, w)["balance"].(float64), 1e-9)
}

func TestWebinarRoleGateAndOwnership(t *testing.T) {
	env := setupEnv(t)
	_, studentToken := env.signup(t, "student@x.com", models.RoleStudent)
	instructorID, instructorToken := env.signup(t, "teach@x.com", models.RoleInstructor)

	webinar := gin.H{
		"instructor_id": instructorID.String(),
		"topic":         "Budgeting 101",
		"scheduled_at":  time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}

	// Students are not instructor-level.
	w := env.do(t, http.MethodPost, "/webinars", studentToken, webinar)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Instructors can only schedule for themselves.
	other := gin.H{
		"instructor_id": uuid.NewString(),
		"topic":         "Budgeting 101",
		"scheduled_at":  time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}
	w = env.do(t, http.MethodPost, "/webinars", instructorToken, other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/webinars", instructorToken, webinar)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.EqualValues(t, 60, created["duration_minutes"])

	// Everyone logged in can list.
	w = env.do(t, http.MethodGet, "/webinars", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestChatbotAskHistoryAndFeedback(t *testing.T) {
	env := setupEnv(t)
	_, token := env.signup(t, "a@x.com", models.RoleStudent)

	w := env.do(t, http.MethodPost, "/chatbot/ask", token, gin.H{"query": "What is compound interest?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	interaction := decode(t, w)
	assert.Equal(t, "Compound interest grows on itself.", interaction["response"])
	interactionID := interaction["id"].(string)

	w = env.do(t, http.MethodGet, "/chatbot/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)

	// Feedback can be set once, only by the owner.
	w = env.do(t, http.MethodPost, "/chatbot/feedback/"+interactionID, token, gin.H{"feedback": 5})
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/chatbot/feedback/"+interactionID, token, gin.H{"feedback": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	_, otherToken := env.signup(t, "b@x.com", models.RoleStudent)
	w = env.do(t, http.MethodPost, "/chatbot/feedback/"+interactionID, otherToken, gin.H{"feedback": 3})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/chatbot/feedback/"+interactionID, token, gin.H{"feedback": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarketEventsListCapped(t *testing.T) {
	env := setupEnv(t)
	_, token := env.signup(t, "a@x.com", models.RoleStudent)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		event := models.MarketEvent{
			EventType:   "Major Company Earnings",
			Description: fmt.Sprintf("event %d", i),
			EventDate:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, env.db.Create(&event).Error)
	}

	w := env.do(t, http.MethodGet, "/market-events", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 20)
	// Newest first.
	assert.Equal(t, "event 24", events[0]["description"])
	assert.Equal(t, "event 5", events[19]["description"])
}

func TestInstructorSignupHasNoPortfolio(t *testing.T) {
	env := setupEnv(t)
	instructorID, token := env.signup(t, "teach@x.com", models.RoleInstructor)

	w := env.do(t, http.MethodGet, "/portfolios/"+instructorID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
