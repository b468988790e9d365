package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/isometry/clerk-user-sync/internal/handler"
	"github.com/isometry/clerk-user-sync/internal/handler/processor"
	"github.com/isometry/clerk-user-sync/internal/helpers"
	"github.com/isometry/clerk-user-sync/internal/mocks"
	"github.com/isometry/clerk-user-sync/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
)

var testSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("handler-test-secret"))

const (
	userCreatedBody = `{"type":"user.created","object":"event","data":{"id":"u1","first_name":"A","last_name":"B","image_url":"http://x","username":"a","email_addresses":[{"id":"idn_1","email_address":"a@example.com"},{"id":"idn_2","email_address":"a@work.example"}]}}`
	userUpdatedBody = `{"type":"user.updated","object":"event","data":{"id":"u1","first_name":"A","last_name":null,"email_addresses":[]}}`
	userDeletedBody = `{"type":"user.deleted","object":"event","data":{"id":"u1","deleted":true,"object":"user"}}`
	sessionBody     = `{"type":"session.created","object":"event","data":{"id":"sess_1"}}`
)

func signedHeaders(t *testing.T, body string) map[string]string {
	t.Helper()
	wh, err := svix.NewWebhook(testSecret)
	require.NoError(t, err)
	now := time.Now()
	signature, err := wh.Sign("msg_1", now, []byte(body))
	require.NoError(t, err)
	return map[string]string{
		validation.HeaderID:        "msg_1",
		validation.HeaderTimestamp: strconv.FormatInt(now.Unix(), 10),
		validation.HeaderSignature: signature,
		"content-type":             "application/json",
	}
}

func newHandler(t *testing.T, store *mocks.MockStore, opts ...handler.Option) (*handler.Handler, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h, err := handler.New(append([]handler.Option{
		handler.WithWebhookSecret(testSecret),
		handler.WithStore(store),
		handler.WithLogger(logger),
	}, opts...)...)
	require.NoError(t, err)
	return h, &logs
}

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	_, err := handler.New(handler.WithStore(store))
	assert.ErrorIs(t, err, handler.ErrMissingWebhookSecret)

	_, err = handler.New(handler.WithStore(store), handler.WithWebhookSecret("  "))
	assert.ErrorIs(t, err, handler.ErrMissingWebhookSecret)

	_, err = handler.New(handler.WithWebhookSecret(testSecret))
	assert.ErrorIs(t, err, handler.ErrMissingStore)

	h, err := handler.New(handler.WithStore(store), handler.WithWebhookSecret(testSecret), handler.WithLambdaPayloadType("lambda-url"))
	require.NoError(t, err)
	assert.Equal(t, "lambda-url", h.GetLambdaPayloadType())
}

func TestHandler_MissingHeaders(t *testing.T) {
	testCases := []struct {
		Name    string
		Missing string
	}{
		{Name: "missing_id", Missing: validation.HeaderID},
		{Name: "missing_timestamp", Missing: validation.HeaderTimestamp},
		{Name: "missing_signature", Missing: validation.HeaderSignature},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			// no EXPECT: any verifier or store call fails the test
			verifier := mocks.NewMockVerifier(ctrl)
			store := mocks.NewMockStore(ctrl)
			h, _ := newHandler(t, store, handler.WithVerifier(verifier))

			headers := signedHeaders(t, userCreatedBody)
			delete(headers, tc.Missing)

			bus, err := h.Process(context.Background(), []byte(userCreatedBody), headers)
			assert.Error(t, err)
			var rejected *processor.RejectedError
			assert.ErrorAs(t, err, &rejected)
			assert.Equal(t, http.StatusBadRequest, bus.Response.StatusCode)
			assert.Equal(t, processor.MsgMissingHeaders, bus.Response.Body)
		})
	}
}

func TestHandler_VerificationFailure(t *testing.T) {
	testCases := []struct {
		Name    string
		Body    string
		Headers func(t *testing.T) map[string]string
	}{
		{
			Name: "tampered_body",
			Body: userDeletedBody,
			Headers: func(t *testing.T) map[string]string {
				return signedHeaders(t, userCreatedBody)
			},
		},
		{
			Name: "forged_signature",
			Body: userCreatedBody,
			Headers: func(t *testing.T) map[string]string {
				headers := signedHeaders(t, userCreatedBody)
				headers[validation.HeaderSignature] = "v1,Zm9yZ2VkLXNpZ25hdHVyZQ=="
				return headers
			},
		},
		{
			Name: "expired_timestamp",
			Body: userCreatedBody,
			Headers: func(t *testing.T) map[string]string {
				headers := signedHeaders(t, userCreatedBody)
				headers[validation.HeaderTimestamp] = strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
				return headers
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStore(ctrl)
			h, logs := newHandler(t, store)

			bus, err := h.Process(context.Background(), []byte(tc.Body), tc.Headers(t))
			assert.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, bus.Response.StatusCode)
			assert.Equal(t, processor.MsgVerificationFailed, bus.Response.Body)
			assert.Contains(t, logs.String(), "error verifying webhook")
		})
	}
}

func TestHandler_UserCreated(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().
		UpsertUser(gomock.Any(), "u1", helpers.Ptr("A"), helpers.Ptr("B"), helpers.Ptr("http://x"),
			[]string{"a@example.com", "a@work.example"}, helpers.Ptr("a")).
		Return(nil).
		Times(1)
	h, logs := newHandler(t, store, handler.WithLogBody(true))

	bus, err := h.Process(context.Background(), []byte(userCreatedBody), signedHeaders(t, userCreatedBody))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, bus.Response.StatusCode)
	assert.Equal(t, processor.MsgUserUpserted, bus.Response.Body)
	assert.Equal(t, "text/plain", bus.Response.Headers["Content-Type"])
	assert.Equal(t, "msg_1", bus.DeliveryID)
	assert.Contains(t, logs.String(), `"type":"user.created"`)
	assert.Contains(t, logs.String(), "webhook body")
}

func TestHandler_ReceivedLogVerbosity(t *testing.T) {
	testCases := []struct {
		Name         string
		Verbosity    int
		ExpectIDType bool
		ExpectBody   bool
	}{
		{Name: "default_warn", Verbosity: 0},
		{Name: "info", Verbosity: 1, ExpectIDType: true},
		{Name: "debug", Verbosity: 2, ExpectIDType: true, ExpectBody: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStore(ctrl)
			store.EXPECT().DeleteUser(gomock.Any(), "u1").Return(nil).Times(1)
			var logs bytes.Buffer
			h, err := handler.New(
				handler.WithWebhookSecret(testSecret),
				handler.WithStore(store),
				handler.WithLogBody(true),
				handler.WithLogger(helpers.NewLogger(&logs, tc.Verbosity, false)))
			require.NoError(t, err)

			_, err = h.Process(context.Background(), []byte(userDeletedBody), signedHeaders(t, userDeletedBody))
			require.NoError(t, err)
			if tc.ExpectIDType {
				assert.Contains(t, logs.String(), "webhook received")
				assert.Contains(t, logs.String(), `"id":"u1"`)
				assert.Contains(t, logs.String(), `"type":"user.deleted"`)
			} else {
				assert.NotContains(t, logs.String(), "webhook received")
			}
			if tc.ExpectBody {
				assert.Contains(t, logs.String(), "webhook body")
			} else {
				assert.NotContains(t, logs.String(), "webhook body")
			}
		})
	}
}

func TestHandler_UserUpdatedWithMissingFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().
		UpsertUser(gomock.Any(), "u1", helpers.Ptr("A"), nil, nil, nil, nil).
		Return(nil).
		Times(1)
	h, logs := newHandler(t, store)

	bus, err := h.Process(context.Background(), []byte(userUpdatedBody), signedHeaders(t, userUpdatedBody))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, bus.Response.StatusCode)
	assert.Equal(t, processor.MsgUserUpserted, bus.Response.Body)
	assert.NotContains(t, logs.String(), "webhook body")
}

func TestHandler_UserDeleted(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().DeleteUser(gomock.Any(), "u1").Return(nil).Times(1)
	h, _ := newHandler(t, store)

	bus, err := h.Process(context.Background(), []byte(userDeletedBody), signedHeaders(t, userDeletedBody))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, bus.Response.StatusCode)
	assert.Equal(t, processor.MsgUserDeleted, bus.Response.Body)
}

func TestHandler_UnhandledEventType(t *testing.T) {
	testCases := []struct {
		Name string
		Body string
	}{
		{Name: "session_created", Body: sessionBody},
		{Name: "data_without_id", Body: `{"type":"email.created","object":"event","data":{"object":"email","to_email_address":"a@example.com"}}`},
		{Name: "data_with_foreign_shape", Body: `{"type":"session.created","object":"event","data":{"id":"sess_1","username":{"x":1}}}`},
		{Name: "missing_type", Body: `{"object":"event","data":{"id":"u1"}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			// no EXPECT: any store call fails the test
			store := mocks.NewMockStore(ctrl)
			h, _ := newHandler(t, store)

			bus, err := h.Process(context.Background(), []byte(tc.Body), signedHeaders(t, tc.Body))
			var rejected *processor.RejectedError
			assert.ErrorAs(t, err, &rejected)
			assert.Equal(t, http.StatusBadRequest, bus.Response.StatusCode)
			assert.Equal(t, processor.MsgEventNotHandled, bus.Response.Body)
		})
	}
}

func TestHandler_UserDataNotDecodable(t *testing.T) {
	body := `{"type":"user.updated","object":"event","data":{"id":"u1","email_addresses":"a@example.com"}}`
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	h, logs := newHandler(t, store)

	bus, err := h.Process(context.Background(), []byte(body), signedHeaders(t, body))
	var internal *processor.InternalError
	assert.ErrorAs(t, err, &internal)
	assert.Equal(t, http.StatusInternalServerError, bus.Response.StatusCode)
	assert.Equal(t, processor.MsgHandlingFailed, bus.Response.Body)
	assert.Contains(t, logs.String(), "error handling event")
}

func TestHandler_StoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	testCases := []struct {
		Name   string
		Body   string
		Expect func(store *mocks.MockStore)
	}{
		{
			Name: "upsert_failure",
			Body: userCreatedBody,
			Expect: func(store *mocks.MockStore) {
				store.EXPECT().UpsertUser(gomock.Any(), "u1", gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(storeErr).Times(1)
			},
		},
		{
			Name: "delete_failure",
			Body: userDeletedBody,
			Expect: func(store *mocks.MockStore) {
				store.EXPECT().DeleteUser(gomock.Any(), "u1").Return(storeErr).Times(1)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStore(ctrl)
			tc.Expect(store)
			h, logs := newHandler(t, store)

			bus, err := h.Process(context.Background(), []byte(tc.Body), signedHeaders(t, tc.Body))
			var internal *processor.InternalError
			require.ErrorAs(t, err, &internal)
			assert.ErrorIs(t, err, storeErr)
			assert.Equal(t, http.StatusInternalServerError, bus.Response.StatusCode)
			assert.Equal(t, processor.MsgHandlingFailed, bus.Response.Body)
			assert.Contains(t, logs.String(), "error handling event")
			assert.Contains(t, logs.String(), "connection refused")
		})
	}
}

func TestHandler_Redelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().DeleteUser(gomock.Any(), "u1").Return(nil).Times(2)
	h, _ := newHandler(t, store)

	headers := signedHeaders(t, userDeletedBody)
	first, err := h.Process(context.Background(), []byte(userDeletedBody), headers)
	require.NoError(t, err)
	second, err := h.Process(context.Background(), []byte(userDeletedBody), headers)
	require.NoError(t, err)
	assert.Equal(t, first.Response, second.Response)
}

type recordingPutter struct {
	keys   []string
	bodies []string
	err    error
}

func (r *recordingPutter) PutS3Object(_ context.Context, _ string, key string, body []byte) error {
	r.keys = append(r.keys, key)
	r.bodies = append(r.bodies, string(body))
	return r.err
}

func TestHandler_S3Archive(t *testing.T) {
	testCases := []struct {
		Name string
		Err  error
	}{
		{Name: "archived"},
		{Name: "archive_failure_is_ignored", Err: errors.New("AccessDenied")},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStore(ctrl)
			store.EXPECT().DeleteUser(gomock.Any(), "u1").Return(nil).Times(1)
			putter := &recordingPutter{err: tc.Err}
			h, _ := newHandler(t, store, handler.WithS3Archive(putter, "archive", "clerk"))

			bus, err := h.Process(context.Background(), []byte(userDeletedBody), signedHeaders(t, userDeletedBody))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, bus.Response.StatusCode)
			require.Len(t, putter.keys, 1)
			assert.Regexp(t, `^clerk/.+\.user\.deleted\.msg_1\.json$`, putter.keys[0])
			assert.Equal(t, userDeletedBody, putter.bodies[0])
		})
	}
}

func TestHandler_NotArchivedWhenUnverified(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	putter := &recordingPutter{}
	h, _ := newHandler(t, store, handler.WithS3Archive(putter, "archive", ""))

	_, err := h.Process(context.Background(), []byte(userDeletedBody), map[string]string{})
	assert.Error(t, err)
	assert.Empty(t, putter.keys)
}
