package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crmlens/crmlens/internal/archive"
	"github.com/crmlens/crmlens/internal/auth"
	"github.com/crmlens/crmlens/internal/config"
	"github.com/crmlens/crmlens/internal/crm"
	"github.com/crmlens/crmlens/internal/filings"
	"github.com/crmlens/crmlens/internal/intent"
	"github.com/crmlens/crmlens/internal/news"
	"github.com/crmlens/crmlens/internal/sessions"
	"github.com/crmlens/crmlens/internal/sqlgen"
)

func TestHealthEndpoint(t *testing.T) {
	cfg := testConfig(t, nil)

	h := NewHandler(cfg, Dependencies{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestReadyEndpointReturns503WhenDependencyFails(t *testing.T) {
	cfg := testConfig(t, nil)

	h := NewHandler(cfg, Dependencies{
		Readiness: func(rctx context.Context) error {
			return errors.New("dependency down")
		},
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"CRMLENS_AUTH_REQUIRED": "true",
	})
	validator, err := auth.NewStaticAPIKeyValidator("k1:alice:reader")
	if err != nil {
		t.Fatalf("validator setup failed: %v", err)
	}

	h := NewHandler(cfg, Dependencies{
		AuthMiddleware: auth.Middleware(nil, validator),
		Catalog:        &fakeCatalog{tables: []string{"account"}, columns: map[string][]string{"account": {"account_id"}}},
	})

	unauthResp := httptest.NewRecorder()
	h.ServeHTTP(unauthResp, httptest.NewRequest(http.MethodGet, "/v1/crm/tables", nil))
	if unauthResp.Code != http.StatusUnauthorized {
		t.Fatalf("unauth status = %d", unauthResp.Code)
	}

	authReq := httptest.NewRequest(http.MethodGet, "/v1/crm/tables", nil)
	authReq.Header.Set("X-API-Key", "k1")
	authResp := httptest.NewRecorder()
	h.ServeHTTP(authResp, authReq)
	if authResp.Code != http.StatusOK {
		t.Fatalf("auth status = %d", authResp.Code)
	}
}

func TestAuthRequiredWithoutMiddlewareFailsClosed(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"CRMLENS_AUTH_REQUIRED": "true",
	})

	h := NewHandler(cfg, Dependencies{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/crm/tables", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeErrorBody(t, rr)
	if body["error_code"] != "AUTH_MIDDLEWARE_MISSING" {
		t.Fatalf("error_code = %v", body["error_code"])
	}
}

func TestCombineReadinessChecksStopsOnFirstFailure(t *testing.T) {
	calls := 0
	failing := func(_ context.Context) error {
		calls++
		return errors.New("down")
	}
	never := func(_ context.Context) error {
		t.Fatal("later check should not run")
		return nil
	}

	combined := CombineReadinessChecks(nil, failing, never)
	if err := combined(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func testConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	cfg, err := config.Load("crmlens-api", mapLookup(env))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}
	return cfg
}

func mapLookup(values map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func postJSON(t *testing.T, h http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func decodeErrorBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	decodeBody(t, rr, &body)
	return body
}

type fakeClassifier struct {
	result intent.Intent
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) intent.Intent {
	return f.result
}

type fakeGenerator struct {
	query       sqlgen.Query
	genErr      error
	repairQuery sqlgen.Query
	repairErr   error

	generateCalls int
	repairCalls   int
	lastErrText   string
}

func (f *fakeGenerator) Generate(_ context.Context, _, _ string) (sqlgen.Query, error) {
	f.generateCalls++
	if f.genErr != nil {
		return sqlgen.Query{}, f.genErr
	}
	return f.query, nil
}

func (f *fakeGenerator) Repair(_ context.Context, _, _, _, errText string) (sqlgen.Query, error) {
	f.repairCalls++
	f.lastErrText = errText
	if f.repairErr != nil {
		return sqlgen.Query{}, f.repairErr
	}
	return f.repairQuery, nil
}

type fakeSchema struct {
	snapshot string
	err      error
}

func (f *fakeSchema) Snapshot(_ context.Context) (string, error) {
	return f.snapshot, f.err
}

type fakeExecutor struct {
	execute func(sqlText string) (crm.Result, error)
	calls   []string
}

func (f *fakeExecutor) Execute(_ context.Context, sqlText string) (crm.Result, error) {
	f.calls = append(f.calls, sqlText)
	if f.execute == nil {
		return crm.Result{}, nil
	}
	return f.execute(sqlText)
}

type fakeCatalog struct {
	tables     []string
	columns    map[string][]string
	fks        []crm.ForeignKey
	flattenSQL string
	plan       []crm.JoinStep
	flattenErr error
}

func (f *fakeCatalog) Tables(_ context.Context) ([]string, error) {
	return f.tables, nil
}

func (f *fakeCatalog) Columns(_ context.Context, table string) ([]string, error) {
	return f.columns[table], nil
}

func (f *fakeCatalog) ForeignKeys(_ context.Context) ([]crm.ForeignKey, error) {
	return f.fks, nil
}

func (f *fakeCatalog) Flatten(_ context.Context, _ []string, _ int) (string, []crm.JoinStep, error) {
	if f.flattenErr != nil {
		return "", nil, f.flattenErr
	}
	return f.flattenSQL, f.plan, nil
}

type fakeFilings struct {
	filings []filings.Filing
	err     error
	docText string
	docErr  error
	lastURL string
}

func (f *fakeFilings) Recent10K(_ context.Context, _ string) ([]filings.Filing, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.filings, nil
}

func (f *fakeFilings) DocumentText(_ context.Context, url string, _ int) (string, error) {
	f.lastURL = url
	if f.docErr != nil {
		return "", f.docErr
	}
	return f.docText, nil
}

type fakeNews struct {
	items []news.Item
	err   error
}

func (f *fakeNews) Search(_ context.Context, _ string) ([]news.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeSessionStore struct {
	nextSessionID int64
	nextTurnID    int64
	sessions      map[string]sessions.Session
	turns         []sessions.Turn
	feedback      []sessions.Feedback
	err           error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		nextSessionID: 1,
		nextTurnID:    1,
		sessions:      map[string]sessions.Session{},
	}
}

func (f *fakeSessionStore) GetOrCreateSession(_ context.Context, name string) (sessions.Session, error) {
	if f.err != nil {
		return sessions.Session{}, f.err
	}
	if session, ok := f.sessions[name]; ok {
		return session, nil
	}
	session := sessions.Session{SessionID: f.nextSessionID, Name: name}
	f.nextSessionID++
	f.sessions[name] = session
	return session, nil
}

func (f *fakeSessionStore) ListSessions(_ context.Context) ([]sessions.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	list := make([]sessions.Session, 0, len(f.sessions))
	for _, session := range f.sessions {
		list = append(list, session)
	}
	return list, nil
}

func (f *fakeSessionStore) ListTurns(_ context.Context, sessionID int64) ([]sessions.Turn, error) {
	if f.err != nil {
		return nil, f.err
	}
	matched := make([]sessions.Turn, 0)
	for _, turn := range f.turns {
		if turn.SessionID == sessionID {
			matched = append(matched, turn)
		}
	}
	return matched, nil
}

func (f *fakeSessionStore) SaveTurn(_ context.Context, in sessions.SaveTurnInput) (sessions.Turn, error) {
	if f.err != nil {
		return sessions.Turn{}, f.err
	}
	turn := sessions.Turn{
		TurnID:            f.nextTurnID,
		SessionID:         in.SessionID,
		Intent:            in.Intent,
		Question:          in.Question,
		ClarifiedQuestion: in.ClarifiedQuestion,
		SQLText:           in.SQLText,
		RowCount:          in.RowCount,
		ChartType:         in.ChartType,
	}
	f.nextTurnID++
	f.turns = append(f.turns, turn)
	return turn, nil
}

func (f *fakeSessionStore) SaveFeedback(_ context.Context, turnID int64, vote, comment string) (sessions.Feedback, error) {
	if f.err != nil {
		return sessions.Feedback{}, f.err
	}
	feedback := sessions.Feedback{FeedbackID: int64(len(f.feedback) + 1), TurnID: turnID, Vote: vote, Comment: comment}
	f.feedback = append(f.feedback, feedback)
	return feedback, nil
}

type fakeArchive struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeArchive) Put(_ context.Context, key string, body io.Reader, size int64, opts archive.PutOptions) (archive.ObjectInfo, error) {
	if f.err != nil {
		return archive.ObjectInfo{}, f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return archive.ObjectInfo{}, err
	}
	f.objects[key] = data
	f.types[key] = opts.ContentType
	return archive.ObjectInfo{Key: key, Size: size}, nil
}
