package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OFFIS-RIT/newsgraph/internal/queue"
	mid "github.com/OFFIS-RIT/newsgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/newsgraph/pkg/query"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

const masterKey = "master-secret"

var jwtSecret = []byte("jwt-secret")

type fakeChain struct {
	answer query.Answer
	err    error
	asked  []string
}

func (f *fakeChain) Ask(_ context.Context, question string) (query.Answer, error) {
	f.asked = append(f.asked, question)
	a := f.answer
	a.Question = question
	return a, f.err
}

type fakePublisher struct {
	keys   []string
	bodies [][]byte
}

func (f *fakePublisher) Publish(_ string, key string, _ bool, _ bool, msg amqp091.Publishing) error {
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, msg.Body)
	return nil
}

func newTestApp() (*mid.App, *fakeChain, *fakePublisher) {
	chain := &fakeChain{answer: query.Answer{Answer: "GPT-5.", Context: "ctx"}}
	pub := &fakePublisher{}
	app := &mid.App{
		Chain:        chain,
		Queue:        pub,
		MasterAPIKey: masterKey,
		Keyfunc: func(*jwt.Token) (any, error) {
			return jwtSecret, nil
		},
	}
	return app, chain, pub
}

func do(t *testing.T, app *mid.App, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	New(app).ServeHTTP(rec, req)
	return rec
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	require.NoError(t, err)
	return token
}

func TestHealth(t *testing.T) {
	app, _, _ := newTestApp()
	rec := do(t, app, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestAuth(t *testing.T) {
	app, _, _ := newTestApp()
	userToken := signToken(t, jwt.MapClaims{"id": "42", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signToken(t, jwt.MapClaims{"id": "42", "exp": time.Now().Add(-time.Hour).Unix()})

	tests := []struct {
		name  string
		token string
		path  string
		want  int
	}{
		{name: "missing token", token: "", path: "/api/ask", want: http.StatusUnauthorized},
		{name: "wrong master key", token: "nope", path: "/api/ask", want: http.StatusUnauthorized},
		{name: "expired jwt", token: expired, path: "/api/ask", want: http.StatusUnauthorized},
		{name: "user may ask", token: userToken, path: "/api/ask", want: http.StatusOK},
		{name: "user may not run pipeline", token: userToken, path: "/api/pipeline/fetch", want: http.StatusForbidden},
		{name: "master may run pipeline", token: masterKey, path: "/api/pipeline/fetch", want: http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, app, http.MethodPost, tt.path, tt.token, `{"question":"What did OpenAI release?"}`)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAsk(t *testing.T) {
	app, chain, _ := newTestApp()

	rec := do(t, app, http.MethodPost, "/api/ask", masterKey, `{"question":"  What did OpenAI release?  "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "GPT-5.", res["answer"])
	require.Equal(t, "ctx", res["context"])
	require.Equal(t, []string{"What did OpenAI release?"}, chain.asked)
	_, hasID := res["id"]
	require.False(t, hasID, "no id without question history")
}

func TestAsk_Validation(t *testing.T) {
	app, chain, _ := newTestApp()

	rec := do(t, app, http.MethodPost, "/api/ask", masterKey, `{"question":"   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, chain.asked)
}

func TestAsk_ChainError(t *testing.T) {
	app, chain, _ := newTestApp()
	chain.err = errors.New("neo4j down")

	rec := do(t, app, http.MethodPost, "/api/ask", masterKey, `{"question":"q"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), query.ErrorAnswer)
	require.NotContains(t, rec.Body.String(), "neo4j")
}

func TestQuestions_HistoryDisabled(t *testing.T) {
	app, _, _ := newTestApp()
	rec := do(t, app, http.MethodGet, "/api/questions", masterKey, "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunPipeline(t *testing.T) {
	app, _, pub := newTestApp()

	rec := do(t, app, http.MethodPost, "/api/pipeline/build", masterKey, `{"chain":true}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{"build_queue"}, pub.keys)

	var msg queue.StageMsg
	require.NoError(t, json.Unmarshal(pub.bodies[0], &msg))
	require.Equal(t, queue.StageBuild, msg.Stage)
	require.True(t, msg.Chain)
	require.NotEmpty(t, msg.CorrelationID)

	rec = do(t, app, http.MethodPost, "/api/pipeline/all", masterKey, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "fetch_queue", pub.keys[1])

	rec = do(t, app, http.MethodPost, "/api/pipeline/ask", masterKey, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, pub.keys, 2)
}
