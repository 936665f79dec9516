package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"epl2-service/internal/config"
	"epl2-service/internal/model"
	"epl2-service/internal/protocol"
	"epl2-service/internal/repository"
	"epl2-service/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*model.PrintJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[uuid.UUID]*model.PrintJob)}
}

func (r *memJobRepo) Create(_ context.Context, job *model.PrintJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *memJobRepo) GetByID(_ context.Context, id uuid.UUID) (*model.PrintJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *memJobRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.jobs, id)
	return nil
}

func (r *memJobRepo) MarkForwarded(_ context.Context, id uuid.UUID, target string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	job.Status = model.JobStatusForwarded
	job.ForwardedAt = &at
	job.ForwardTarget = &target
	return nil
}

func (r *memJobRepo) List(_ context.Context, filter *model.JobFilter) ([]*model.PrintJob, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PrintJob
	for _, job := range r.jobs {
		if filter.Status != nil && job.Status != *filter.Status {
			continue
		}
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if filter.Offset < len(out) {
		out = out[filter.Offset:]
	} else {
		out = nil
	}
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (r *memJobRepo) GetStats(context.Context) (*model.JobStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &model.JobStats{ByStatus: make(map[model.JobStatus]int64)}
	for _, job := range r.jobs {
		stats.Total++
		stats.ByStatus[job.Status]++
	}
	return stats, nil
}

func (r *memJobRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type stubTransport struct {
	mu      sync.Mutex
	openErr error
	written []byte
}

func (s *stubTransport) Open(context.Context) error { return s.openErr }
func (s *stubTransport) Close() error               { return nil }
func (s *stubTransport) IsOpen() bool               { return s.openErr == nil }
func (s *stubTransport) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, data...)
	return nil
}
func (s *stubTransport) Read(context.Context, int) ([]byte, error) { return nil, nil }
func (s *stubTransport) Type() model.ConnectionType                { return model.ConnectionTypeTCP }
func (s *stubTransport) Stats() protocol.TransportStats            { return protocol.TransportStats{} }
func (s *stubTransport) Ping(ctx context.Context) error            { return s.Write(ctx, protocol.StatusRequest) }

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "epl2-service", Version: "test"},
		Decoder:  config.DecoderConfig{Recovery: "skip_line", MaxJobBytes: 1024, DPI: 203},
		Printer:  config.PrinterConfig{ForwardTimeout: time.Second},
		Security: config.SecurityConfig{AllowedOrigins: []string{"*"}},
	}
}

type testEnv struct {
	router    *gin.Engine
	service   *service.InspectionService
	transport *stubTransport
	bus       *EventBus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig()
	bus := NewEventBus(zap.NewNop())
	svc := service.NewInspectionService(newMemJobRepo(), cfg, bus, zap.NewNop())
	transport := &stubTransport{}
	svc.SetTransportFactory(func(model.PrinterTarget) (protocol.PrinterTransport, error) {
		return transport, nil
	})

	router := gin.New()
	api := router.Group("/api/v1")
	NewJobHandler(svc, cfg.Decoder.MaxJobBytes, zap.NewNop()).RegisterRoutes(api)
	NewDiscoveryHandler(service.NewDiscoveryService(cfg, zap.NewNop()), zap.NewNop()).RegisterRoutes(api)

	return &testEnv{router: router, service: svc, transport: transport, bus: bus}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return w, resp
}

func TestDecodeJob(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodPost, "/api/v1/decode?items=true", []byte("N\nK1\nP1\n"))
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var got struct {
		Status model.JobStatus  `json:"status"`
		Report *model.JobReport `json:"report"`
		Items  []struct {
			Kind      string     `json:"kind"`
			Canonical string     `json:"canonical"`
			Error     *ErrorView `json:"error"`
		} `json:"items"`
	}
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != model.JobStatusPartial {
		t.Errorf("status = %s, want PARTIAL", got.Status)
	}
	if got.Report.CommandCount != 2 || got.Report.ErrorCount != 1 {
		t.Errorf("report = %+v", got.Report)
	}
	if len(got.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(got.Items))
	}
	if got.Items[0].Canonical != "N\n" || got.Items[1].Error == nil {
		t.Errorf("items = %+v", got.Items)
	}
}

func TestDecodeJobRejectsBadBodies(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/v1/decode", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d, want 400", w.Code)
	}

	w, resp := env.do(t, http.MethodPost, "/api/v1/decode", bytes.Repeat([]byte("N\n"), 1000))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversize status = %d, want 413", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != "JOB_TOO_LARGE" {
		t.Errorf("oversize error = %+v", resp.Error)
	}
}

func submitJob(t *testing.T, env *testEnv, body string) model.PrintJob {
	t.Helper()
	w, resp := env.do(t, http.MethodPost, "/api/v1/jobs?name=shipping", []byte(body))
	if w.Code != http.StatusCreated {
		t.Fatalf("submit status = %d body = %s", w.Code, w.Body.String())
	}
	var job model.PrintJob
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		t.Fatal(err)
	}
	return job
}

func TestJobLifecycle(t *testing.T) {
	env := newTestEnv(t)
	job := submitJob(t, env, "N\nq812\nA50,0,0,1,1,1,N,\"HELLO\"\nP1\n")

	if job.Name != "shipping" || job.Status != model.JobStatusDecoded || job.CommandCount != 4 {
		t.Errorf("job = %+v", job)
	}

	w, resp := env.do(t, http.MethodGet, "/api/v1/jobs/"+job.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var fetched model.PrintJob
	if err := json.Unmarshal(resp.Data, &fetched); err != nil {
		t.Fatal(err)
	}
	if fetched.Report == nil || fetched.Report.TextFields != 1 {
		t.Errorf("report = %+v", fetched.Report)
	}

	w, resp = env.do(t, http.MethodGet, "/api/v1/jobs?status=DECODED", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var page struct {
		Jobs       []model.PrintJob `json:"jobs"`
		Pagination PaginationResult `json:"pagination"`
	}
	if err := json.Unmarshal(resp.Data, &page); err != nil {
		t.Fatal(err)
	}
	if len(page.Jobs) != 1 || page.Pagination.Total != 1 || page.Pagination.TotalPages != 1 {
		t.Errorf("page = %+v", page)
	}

	w, _ = env.do(t, http.MethodGet, "/api/v1/jobs/stats", nil)
	if w.Code != http.StatusOK {
		t.Errorf("stats status = %d", w.Code)
	}

	w, _ = env.do(t, http.MethodDelete, "/api/v1/jobs/"+job.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete status = %d", w.Code)
	}
	w, resp = env.do(t, http.MethodGet, "/api/v1/jobs/"+job.ID.String(), nil)
	if w.Code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != "NOT_FOUND" {
		t.Errorf("get after delete = %d %+v", w.Code, resp.Error)
	}
}

func TestListJobsValidation(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/v1/jobs?status=PRINTED",
		"/api/v1/jobs?since=yesterday",
	} {
		if w, _ := env.do(t, http.MethodGet, path, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, w.Code)
		}
	}

	if w, _ := env.do(t, http.MethodGet, "/api/v1/jobs/not-a-uuid", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
}

func TestForwardJob(t *testing.T) {
	env := newTestEnv(t)
	job := submitJob(t, env, "N\nK1\nP1\n")

	target := []byte(`{"connection_type":"TCP","address":"printer.local","port":9100}`)
	w, resp := env.do(t, http.MethodPost, "/api/v1/jobs/"+job.ID.String()+"/forward", target)
	if w.Code != http.StatusOK {
		t.Fatalf("forward status = %d body = %s", w.Code, w.Body.String())
	}

	var result service.ForwardResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Commands != 2 || result.Target != "printer.local:9100" {
		t.Errorf("result = %+v", result)
	}
	if got := string(env.transport.written); got != "N\nP1,1\n" {
		t.Errorf("written = %q, want %q", got, "N\nP1,1\n")
	}
}

func TestForwardJobErrors(t *testing.T) {
	env := newTestEnv(t)
	job := submitJob(t, env, "N\nP1\n")
	path := "/api/v1/jobs/" + job.ID.String() + "/forward"

	if w, _ := env.do(t, http.MethodPost, path, []byte(`{"connection_type":"PARALLEL","address":"lpt1"}`)); w.Code != http.StatusBadRequest {
		t.Errorf("invalid target status = %d, want 400", w.Code)
	}

	env.transport.openErr = errors.New("connection refused")
	w, resp := env.do(t, http.MethodPost, path, []byte(`{"connection_type":"TCP","address":"printer.local"}`))
	if w.Code != http.StatusBadGateway || resp.Error == nil || resp.Error.Code != "PRINTER_UNREACHABLE" {
		t.Errorf("unreachable = %d %+v", w.Code, resp.Error)
	}

	failed := submitJob(t, env, "K1\n")
	w, _ = env.do(t, http.MethodPost, "/api/v1/jobs/"+failed.ID.String()+"/forward", []byte(`{"connection_type":"TCP","address":"printer.local"}`))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("nothing to forward status = %d, want 422", w.Code)
	}
}

func TestGetJobReport(t *testing.T) {
	env := newTestEnv(t)
	job := submitJob(t, env, "N\nP1\n")

	w, _ := env.do(t, http.MethodGet, "/api/v1/jobs/"+job.ID.String()+"/report.pdf", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("report status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF")
	}
}

func TestDiscoveryRoutes(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodGet, "/api/v1/discovery/scanners", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("scanners status = %d", w.Code)
	}
	var scanners struct {
		Scanners []string `json:"scanners"`
	}
	if err := json.Unmarshal(resp.Data, &scanners); err != nil {
		t.Fatal(err)
	}
	if len(scanners.Scanners) != 0 {
		t.Errorf("scanners = %v, want none with discovery disabled", scanners.Scanners)
	}

	if w, _ := env.do(t, http.MethodGet, "/api/v1/discovery/scan?type=bluetooth", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown scan type status = %d, want 400", w.Code)
	}
	if w, _ := env.do(t, http.MethodGet, "/api/v1/discovery/scan", nil); w.Code != http.StatusOK {
		t.Errorf("scan all status = %d, want 200", w.Code)
	}
	if w, _ := env.do(t, http.MethodPost, "/api/v1/discovery/probe", []byte(`{"connection_type":"USB"}`)); w.Code != http.StatusBadRequest {
		t.Errorf("probe without ids status = %d, want 400", w.Code)
	}
}
