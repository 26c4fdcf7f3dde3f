package http

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/heartthread-backend/internal/domain"
	httpH "github.com/yungbote/heartthread-backend/internal/http/handlers"
	httpMW "github.com/yungbote/heartthread-backend/internal/http/middleware"
	"github.com/yungbote/heartthread-backend/internal/modules/chat"
	"github.com/yungbote/heartthread-backend/internal/platform/apierr"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

type fakeChat struct {
	sendErr error
	last    chat.SendInput
	forgot  []string
}

func (f *fakeChat) Send(ctx context.Context, in chat.SendInput) (chat.SendOutput, error) {
	f.last = in
	if f.sendErr != nil {
		return chat.SendOutput{}, f.sendErr
	}
	n := 4
	return chat.SendOutput{Reply: "Je suis là pour toi.", CreditsRemaining: &n}, nil
}

func (f *fakeChat) GetMemory(ctx context.Context, userID string) (*domain.EmotionalMemory, error) {
	if userID != "u1" {
		return nil, apierr.New(nethttp.StatusNotFound, chat.CodeMemoryNotFound, nil)
	}
	return &domain.EmotionalMemory{UserID: "u1", LovedOneName: "Léa"}, nil
}

func (f *fakeChat) GetConversation(ctx context.Context, userID string) (*domain.ConversationHandle, error) {
	return &domain.ConversationHandle{UserID: userID, ThreadID: "thread_1", MessageCount: 3}, nil
}

func (f *fakeChat) ForgetConversation(ctx context.Context, userID string) error {
	f.forgot = append(f.forgot, userID)
	return nil
}

func (f *fakeChat) GetCredits(ctx context.Context, userID string) (chat.CreditsOutput, error) {
	n := 2
	return chat.CreditsOutput{UserID: userID, CreditsEnabled: true, Credits: &n}, nil
}

func newTestRouter(fc *fakeChat, auth *httpMW.AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		Log:            logger.Nop(),
		AuthMiddleware: auth,
		ChatHandler:    httpH.NewChatHandler(fc),
		UserHandler:    httpH.NewUserHandler(fc),
		HealthHandler:  httpH.NewHealthHandler(),
	})
}

func serve(r *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *nethttp.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestChatRoutes(t *testing.T) {
	fc := &fakeChat{}
	r := newTestRouter(fc, nil)

	for _, path := range []string{"/chat", "/api/chat"} {
		rec := serve(r, nethttp.MethodPost, path, `{"message":"bonjour","user_id":"u1","tonalite":"directe"}`, nil)
		require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Je suis là pour toi.", got["response"])
		assert.Equal(t, false, got["premium"])
		assert.EqualValues(t, 4, got["credits_remaining"])
		assert.Equal(t, "directe", fc.last.Preferences.Tonalite)
		assert.Equal(t, "u1", fc.last.UserID)
	}
	assert.NotEmpty(t, serve(r, nethttp.MethodPost, "/chat", `{"message":"x","user_id":"u1"}`, nil).Header().Get("X-Request-Id"))
}

func TestChatErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"bad json", `{"message":`, nil, nethttp.StatusBadRequest, chat.CodeInvalidRequest},
		{"credits", `{"message":"x","user_id":"u1"}`, apierr.New(nethttp.StatusPaymentRequired, chat.CodeCreditsExhausted, chat.ErrCreditsExhausted), nethttp.StatusPaymentRequired, chat.CodeCreditsExhausted},
		{"busy", `{"message":"x","user_id":"u1"}`, apierr.New(nethttp.StatusConflict, chat.CodeConversationBusy, chat.ErrConversationBusy), nethttp.StatusConflict, chat.CodeConversationBusy},
		{"timeout", `{"message":"x","user_id":"u1"}`, apierr.New(nethttp.StatusGatewayTimeout, chat.CodeAssistantTimeout, errors.New("assistant run timed out")), nethttp.StatusGatewayTimeout, chat.CodeAssistantTimeout},
		{"unexpected", `{"message":"x","user_id":"u1"}`, errors.New("boom"), nethttp.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&fakeChat{sendErr: tc.err}, nil)
			rec := serve(r, nethttp.MethodPost, "/chat", tc.body, nil)
			assert.Equal(t, tc.status, rec.Code)

			var env struct {
				Error struct {
					Message string `json:"message"`
					Code    string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tc.code, env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestUserRoutes(t *testing.T) {
	fc := &fakeChat{}
	r := newTestRouter(fc, nil)

	rec := serve(r, nethttp.MethodGet, "/api/users/u1/memory", "", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"loved_one_name":"Léa"`)

	rec = serve(r, nethttp.MethodGet, "/api/users/u2/memory", "", nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), chat.CodeMemoryNotFound)

	rec = serve(r, nethttp.MethodGet, "/api/users/u1/conversation", "", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"thread_id":"thread_1"`)

	rec = serve(r, nethttp.MethodDelete, "/api/users/u1/conversation", "", nil)
	assert.Equal(t, nethttp.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"u1"}, fc.forgot)

	rec = serve(r, nethttp.MethodGet, "/api/users/u1/credits", "", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"credits":2`)

	assert.Equal(t, nethttp.StatusOK, serve(r, nethttp.MethodGet, "/healthcheck", "", nil).Code)
	assert.Equal(t, nethttp.StatusNotFound, serve(r, nethttp.MethodGet, "/nope", "", nil).Code)
}

func TestRoutesWithAuth(t *testing.T) {
	fc := &fakeChat{}
	r := newTestRouter(fc, httpMW.NewAuthMiddleware(logger.Nop(), "s3cret"))

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	bearer := map[string]string{"Authorization": "Bearer " + signed}

	assert.Equal(t, nethttp.StatusUnauthorized, serve(r, nethttp.MethodPost, "/chat", `{"message":"x","user_id":"u1"}`, nil).Code)
	assert.Equal(t, nethttp.StatusOK, serve(r, nethttp.MethodPost, "/chat", `{"message":"x","user_id":"u1"}`, bearer).Code)
	assert.Equal(t, nethttp.StatusForbidden, serve(r, nethttp.MethodPost, "/chat", `{"message":"x","user_id":"u2"}`, bearer).Code)
	assert.Equal(t, nethttp.StatusOK, serve(r, nethttp.MethodPost, "/chat", `{"message":"x","user_id":"  u1 "}`, bearer).Code, "padded id matches subject")
	assert.Equal(t, "u1", fc.last.UserID)
	assert.Equal(t, nethttp.StatusForbidden, serve(r, nethttp.MethodGet, "/api/users/u2/memory", "", bearer).Code)
	assert.Equal(t, nethttp.StatusOK, serve(r, nethttp.MethodGet, "/api/users/u1/memory", "", bearer).Code)
	assert.Equal(t, nethttp.StatusOK, serve(r, nethttp.MethodGet, "/healthcheck", "", nil).Code, "health stays public")
}
