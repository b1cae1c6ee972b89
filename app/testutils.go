package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/techsphere/techsphere/internal/blogservice"
	"github.com/techsphere/techsphere/internal/commentservice"
	"github.com/techsphere/techsphere/internal/common"
	"github.com/techsphere/techsphere/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

type testBroker struct{}

func (testBroker) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	return nil
}

type testAssets struct{}

func (testAssets) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	return "https://assets.test/" + folder + "/object.png", nil
}

func (testAssets) Delete(ctx context.Context, key string) error { return nil }

func (testAssets) KeyFromURL(url string) string {
	return strings.TrimPrefix(url, "https://assets.test/")
}

func newTestApplication(t *testing.T) (*application, *sql.DB) {
	db := common.TestDB("file://../migrations", t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &Config{
		Port:        "4000",
		Environment: "development",
		Version:     "test",
		JWTSecret:   "test-secret",
	}

	app := &application{
		config:         cfg,
		logger:         logger,
		userService:    userservice.NewUserService(db, testBroker{}, testAssets{}, cfg.JWTSecret, logger),
		blogService:    blogservice.NewBlogService(db, testBroker{}, testAssets{}, logger),
		commentService: commentservice.NewCommentService(db),
	}

	return app, db
}

func registerTestUser(t *testing.T, app *application) (*userservice.User, string) {
	user, token, err := app.userService.Register(context.Background(), "testuser", "testuser@example.com", "Str0ng#Password")
	assert.NoError(t, err)

	return user, token
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

func (ts *testServer) put(t *testing.T, path string, token *string, payload any) (int, http.Header, envelope) {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}

	body := bytes.NewReader(jsonPayload)
	req, err := http.NewRequest(http.MethodPut, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}
	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

// sendForm submits a multipart form, optionally attaching file as an image
// part under filePart.
func (ts *testServer) sendForm(t *testing.T, method, path string, fields map[string]string, filePart string, file []byte, token *string) (int, http.Header, envelope) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			t.Fatal(err)
		}
	}

	if filePart != "" {
		part, err := w.CreateFormFile(filePart, "image.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatal(err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}
