package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/config"
	"github.com/edbrsk/uoc-planner/internal/api/handler"
	"github.com/edbrsk/uoc-planner/internal/localstore"
	"github.com/edbrsk/uoc-planner/internal/service"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := localstore.Open(filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("打开本地存储失败: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		Server:  config.ServerConfig{Port: 8080},
		Storage: config.StorageConfig{Mode: config.StorageLocal, LocalPath: "planner.db", LocalUser: "local"},
		Roadmap: config.RoadmapConfig{DayPx: 18, CardW: 260, CardH: 70, CardGap: 8, LabelW: 280, LanePad: 12, MinGap: 10},
		Import:  config.ImportConfig{MaxBodyBytes: 1 << 20, RateLimit: 10, RateWindow: 60},
	}
	opts := service.OptionsFromConfig(cfg, nil)
	opts.Now = func() time.Time { return time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC) }

	svc := service.NewService(store.Repository(), opts, zap.NewNop())
	return Setup(cfg, handler.NewHandler(svc), nil, zap.NewNop())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details string          `json:"details"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w.Code, env
}

func TestRouter_Health(t *testing.T) {
	h := setupRouter(t)
	code, _ := do(t, h, "GET", "/health", "")
	if code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
}

func TestRouter_ImportThenBrowse(t *testing.T) {
	h := setupRouter(t)

	doc := `{
	  "semester": {"name": "2025-2", "startDate": "2026-02-16", "endDate": "2026-03-08"},
	  "weeks": {
	    "1": {"startDate": "2026-02-16", "endDate": "2026-02-22", "title": "Intro"},
	    "2": {"startDate": "2026-02-23", "endDate": "2026-03-01", "title": "Tema 1"},
	    "3": {"startDate": "2026-03-02", "endDate": "2026-03-08", "title": "Tema 2"}
	  },
	  "tasks": [
	    {"weekNum": 1, "course": "AL", "text": "Leer", "done": true},
	    {"weekNum": 3, "course": "Prob", "text": "PEC", "done": false}
	  ],
	  "deadlines": [{"date": "2026-03-06", "label": "PEC1", "course": "AL", "urgent": true}]
	}`

	code, env := do(t, h, "POST", "/api/v1/import/preview", doc)
	if code != http.StatusOK {
		t.Fatalf("preview: expected 200, got %d (%s)", code, env.Message)
	}

	code, env = do(t, h, "POST", "/api/v1/import", doc)
	if code != http.StatusCreated {
		t.Fatalf("import: expected 201, got %d (%s)", code, env.Message)
	}
	var imported struct {
		Semester struct {
			ID string `json:"id"`
		} `json:"semester"`
	}
	json.Unmarshal(env.Data, &imported)
	semID := imported.Semester.ID
	if semID == "" {
		t.Fatal("expected imported semester id")
	}

	code, env = do(t, h, "GET", "/api/v1/semesters/last", "")
	if code != http.StatusOK || !strings.Contains(string(env.Data), semID) {
		t.Errorf("last semester should be the imported one: %d %s", code, env.Data)
	}

	code, env = do(t, h, "GET", "/api/v1/semesters/"+semID, "")
	if code != http.StatusOK {
		t.Fatalf("detail: expected 200, got %d", code)
	}
	var detail struct {
		Overview struct {
			CurrentWeek int `json:"current_week"`
			Progress    int `json:"progress"`
		} `json:"overview"`
	}
	json.Unmarshal(env.Data, &detail)
	if detail.Overview.CurrentWeek != 3 || detail.Overview.Progress != 50 {
		t.Errorf("unexpected overview: %+v", detail.Overview)
	}

	code, _ = do(t, h, "GET", "/api/v1/semesters/"+semID+"/roadmap", "")
	if code != http.StatusOK {
		t.Errorf("roadmap: expected 200, got %d", code)
	}

	code, _ = do(t, h, "PUT", "/api/v1/semesters/"+semID+"/weeks/2", `{"start_date": "2026-02-24", "end_date": "2026-03-02"}`)
	if code != http.StatusOK {
		t.Errorf("save week: expected 200, got %d", code)
	}

	code, _ = do(t, h, "POST", "/api/v1/semesters/"+semID+"/tasks/reset", "")
	if code != http.StatusOK {
		t.Errorf("reset: expected 200, got %d", code)
	}

	code, _ = do(t, h, "DELETE", "/api/v1/semesters/"+semID, "")
	if code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", code)
	}
	code, env = do(t, h, "GET", "/api/v1/semesters/"+semID, "")
	if code != http.StatusNotFound || env.Code != 20001 {
		t.Errorf("expected 404/20001 after delete, got %d/%d", code, env.Code)
	}
}

func TestRouter_ImportInvalid(t *testing.T) {
	h := setupRouter(t)

	code, env := do(t, h, "POST", "/api/v1/import", `{"semester": {"name": "x"}, "weeks": [], "tasks": [], "deadlines": []}`)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if env.Code != 60001 || env.Details != "weeks" {
		t.Errorf("unexpected error envelope: %+v", env)
	}
}

func TestRouter_SameRulesInEveryStorageMode(t *testing.T) {
	h := setupRouter(t)

	code, env := do(t, h, "GET", "/api/v1/semesters/not-a-uuid", "")
	if code != http.StatusNotFound || env.Code != 20001 {
		t.Errorf("malformed id: expected 404/20001, got %d/%d", code, env.Code)
	}

	course := strings.Repeat("c", 51)
	doc := `{"semester": {"name": "x"}, "weeks": {}, "tasks": [{"weekNum": 1, "course": "` + course + `", "text": "t"}], "deadlines": []}`
	code, env = do(t, h, "POST", "/api/v1/import", doc)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("long course: expected 422, got %d", code)
	}
	if env.Code != 60001 || env.Details != "tasks[0]" {
		t.Errorf("unexpected error envelope: %+v", env)
	}
}
