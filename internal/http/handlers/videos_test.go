package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ezedinff/AAIDC/internal/adapter/repo"
	"github.com/ezedinff/AAIDC/internal/domain"
	"github.com/ezedinff/AAIDC/internal/events"
	"github.com/ezedinff/AAIDC/internal/http/handlers"
	"github.com/ezedinff/AAIDC/internal/http/httpapi"
	"github.com/ezedinff/AAIDC/internal/infra"
	"github.com/ezedinff/AAIDC/internal/moderation"
	"github.com/ezedinff/AAIDC/internal/providers/audio"
	"github.com/ezedinff/AAIDC/internal/providers/scenes"
	videoprovider "github.com/ezedinff/AAIDC/internal/providers/video"
	"github.com/ezedinff/AAIDC/internal/storage"
	"github.com/ezedinff/AAIDC/internal/workflow"
)

type testAPI struct {
	handler http.Handler
	app     *handlers.App
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	outputDir := t.TempDir()
	tempDir := t.TempDir()

	store := repo.NewMemoryStore()
	hub := events.NewHub(zerolog.Nop())
	t.Cleanup(hub.Shutdown)

	files, err := storage.NewFileStore(outputDir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	caps := workflow.Capabilities{
		Scenes: &scenes.MockGenerator{SceneCount: 2, VideoDuration: 20},
		Critic: &scenes.MockCritic{},
		Audio:  &audio.MockSynthesizer{TempDir: tempDir},
		Video:  &videoprovider.MockAssembler{OutputDir: outputDir},
	}
	engine := workflow.NewEngine(store, store, hub, caps, workflow.Config{}, zerolog.Nop(), nil)

	app := &handlers.App{
		Videos:    store,
		Progress:  store,
		Hub:       hub,
		Engine:    engine,
		Moderator: moderation.AllowAll{},
		Files:     files,
		Config: infra.Config{
			OutputDir:       outputDir,
			TempDir:         tempDir,
			MockMode:        true,
			RateLimitPerMin: 100,
			CORSOrigins:     []string{"*"},
		},
		Logger: zerolog.Nop(),
	}
	return &testAPI{handler: httpapi.NewRouter(app), app: app}
}

func (api *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func createVideo(t *testing.T, api *testAPI) string {
	t.Helper()
	rec := api.do(t, http.MethodPost, "/api/videos", map[string]string{
		"title":      "Lighthouse",
		"user_input": "a story about a lighthouse keeper",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("create success = %v", body["success"])
	}
	video, ok := body["video"].(map[string]any)
	if !ok {
		t.Fatalf("missing video in response: %s", rec.Body.String())
	}
	id, _ := video["id"].(string)
	if id == "" {
		t.Fatal("created video has no id")
	}
	return id
}

func waitCompleted(t *testing.T, api *testAPI, id string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := api.do(t, http.MethodGet, "/api/videos/"+id, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("get status = %d", rec.Code)
		}
		video := decodeBody(t, rec)["video"].(map[string]any)
		switch video["status"] {
		case "completed":
			return video
		case "failed":
			t.Fatalf("generation failed: %v", video["error_message"])
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("video never completed")
	return nil
}

func TestCreateAndCompleteVideo(t *testing.T) {
	api := newTestAPI(t)
	id := createVideo(t, api)

	video := waitCompleted(t, api, id)
	if video["current_step"] != "completed" {
		t.Fatalf("current_step = %v", video["current_step"])
	}
	if video["progress_percent"] != float64(100) {
		t.Fatalf("progress_percent = %v", video["progress_percent"])
	}
	if video["file_path"] == "" {
		t.Fatal("completed video must have a file path")
	}

	rec := api.do(t, http.MethodGet, "/api/videos/"+id+"/progress", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d", rec.Code)
	}
	entries := decodeBody(t, rec)["progress"].([]any)
	if len(entries) == 0 {
		t.Fatal("expected progress entries")
	}
	last := entries[len(entries)-1].(map[string]any)
	if last["step"] != "completed" || last["status"] != "completed" {
		t.Fatalf("last entry = %v", last)
	}
}

func TestCreateValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/videos", map[string]string{"user_input": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty input status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/videos", strings.NewReader("user_input=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("non-json status = %d", rr.Code)
	}
}

func TestListVideos(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/videos", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("success = %v", body["success"])
	}
	if _, ok := body["videos"].([]any); !ok {
		t.Fatalf("videos must be a list even when empty: %s", rec.Body.String())
	}

	createVideo(t, api)
	rec = api.do(t, http.MethodGet, "/api/videos", nil)
	if got := len(decodeBody(t, rec)["videos"].([]any)); got != 1 {
		t.Fatalf("got %d videos, want 1", got)
	}
}

func TestGetUnknownVideo(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/videos/does-not-exist", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if decodeBody(t, rec)["success"] != false {
		t.Fatal("error responses carry success=false")
	}
}

func TestDeleteVideoCascades(t *testing.T) {
	api := newTestAPI(t)
	id := createVideo(t, api)
	waitCompleted(t, api, id)

	rec := api.do(t, http.MethodDelete, "/api/videos/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if rec := api.do(t, http.MethodGet, "/api/videos/"+id, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", rec.Code)
	}
	rec = api.do(t, http.MethodGet, "/api/videos/"+id+"/progress", nil)
	if got := len(decodeBody(t, rec)["progress"].([]any)); got != 0 {
		t.Fatalf("progress after delete has %d entries, want 0", got)
	}

	if rec := api.do(t, http.MethodDelete, "/api/videos/"+id, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", rec.Code)
	}
}

func TestEventsForTerminalVideo(t *testing.T) {
	api := newTestAPI(t)
	id := createVideo(t, api)
	waitCompleted(t, api, id)

	rec := api.do(t, http.MethodGet, "/api/videos/"+id+"/events", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("events status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	var types []string
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame map[string]any
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		types = append(types, fmt.Sprint(frame["type"]))
	}
	if len(types) != 2 || types[0] != "status" || types[1] != "complete" {
		t.Fatalf("frame types = %v, want [status complete]", types)
	}
}

func TestEventsForUnknownVideo(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/videos/nope/events", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDownloadCompletedVideo(t *testing.T) {
	api := newTestAPI(t)
	id := createVideo(t, api)
	waitCompleted(t, api, id)

	rec := api.do(t, http.MethodGet, "/api/videos/"+id+"/download", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Fatalf("disposition = %q", cd)
	}

	rec = api.do(t, http.MethodGet, "/api/videos/"+id+"/download?inline=1", nil)
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline") {
		t.Fatalf("inline disposition = %q", cd)
	}
}

func TestDownloadPendingVideoUnavailable(t *testing.T) {
	api := newTestAPI(t)

	// Seed a pending record directly so no generation run races the check.
	err := api.app.Videos.Create(context.Background(), &domain.Video{
		ID:          "pending-1",
		Title:       "Pending",
		UserInput:   "not yet generated",
		Status:      domain.StatusPending,
		CurrentStep: domain.StepPending,
	})
	if err != nil {
		t.Fatalf("seed video: %v", err)
	}

	rec := api.do(t, http.MethodGet, "/api/videos/pending-1/download", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("download status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" {
		t.Fatalf("status = %v", body["status"])
	}
	checks := body["checks"].(map[string]any)
	if checks["output_dir"] != "writable" || checks["temp_dir"] != "writable" {
		t.Fatalf("checks = %v", checks)
	}
}

func TestStats(t *testing.T) {
	api := newTestAPI(t)
	id := createVideo(t, api)
	waitCompleted(t, api, id)

	rec := api.do(t, http.MethodGet, "/api/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["total"] != float64(1) {
		t.Fatalf("total = %v", body["total"])
	}
	counts := body["counts"].(map[string]any)
	if counts["completed"] != float64(1) {
		t.Fatalf("counts = %v", counts)
	}
}
