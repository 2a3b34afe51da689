package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/renovation-mindmap/internal/ai"
	"github.com/01moynul/renovation-mindmap/internal/auth"
	"github.com/01moynul/renovation-mindmap/internal/config"
	"github.com/01moynul/renovation-mindmap/internal/docs"
	"github.com/01moynul/renovation-mindmap/internal/handlers"
	"github.com/01moynul/renovation-mindmap/internal/logger"
	"github.com/01moynul/renovation-mindmap/internal/mindmap"
	"github.com/01moynul/renovation-mindmap/internal/models"
	"github.com/01moynul/renovation-mindmap/internal/routes"
	"github.com/01moynul/renovation-mindmap/internal/store"
)

type fakeNodes struct {
	records []models.FlatRecord
	err     error
}

func (f *fakeNodes) ListRecords(ctx context.Context) ([]models.FlatRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.FlatRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int64]*models.User{}}
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return store.ErrDuplicate
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeAI struct {
	gotNode *models.TreeNode
	lookup  ai.NodeLookup
}

func (f *fakeAI) ExplainNode(ctx context.Context, node *models.TreeNode, lookup ai.NodeLookup) (string, int, error) {
	f.gotNode, f.lookup = node, lookup
	return "explained " + node.Name, 12, nil
}

type testEnv struct {
	router *gin.Engine
	h      *handlers.Handlers
	users  *fakeUsers
	nodes  *fakeNodes
	tokens *auth.TokenIssuer
}

func i64(v int64) *int64   { return &v }
func str(v string) *string { return &v }
func yes() *bool           { b := true; return &b }

func sampleRecords() []models.FlatRecord {
	long := strings.Repeat("长", 300)
	return []models.FlatRecord{
		{NodeID: i64(1), Name: "装修总流程"},
		{NodeID: i64(2), Name: "设计阶段", ParentID: i64(1), Details: str("确定装修风格")},
		{NodeID: i64(3), Name: "隐蔽工程", ParentID: i64(1), Details: str(long), IsPremium: yes(),
			ImgURL: []string{"secret.png"}},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		AppEnv:      "dev",
		DataSource:  config.SourceDB,
		UploadDir:   t.TempDir(),
		DocsDir:     t.TempDir(),
		BaseURL:     "http://localhost:8080",
		CORSOrigins: []string{"http://localhost:5173"},
	}
	env := &testEnv{
		users:  newFakeUsers(),
		nodes:  &fakeNodes{records: sampleRecords()},
		tokens: auth.NewTokenIssuer("test-secret", time.Hour),
	}
	env.h = &handlers.Handlers{
		Config:  cfg,
		Log:     logger.Nop(),
		Builder: mindmap.NewBuilder(logger.Nop()),
		Nodes:   env.nodes,
		Users:   env.users,
		Tokens:  env.tokens,
		Docs:    docs.NewLibrary(cfg.DocsDir),
	}
	env.router = routes.SetupRouter(env.h)
	return env
}

func (e *testEnv) do(method, path string, body []byte, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) userToken(t *testing.T, premium bool) string {
	t.Helper()
	e.users.mu.Lock()
	name := "user" + strconv.Itoa(len(e.users.byID)+1)
	e.users.mu.Unlock()
	u := &models.User{Username: name, PasswordHash: "x", IsPremium: premium}
	require.NoError(t, e.users.Create(context.Background(), u))
	tok, err := e.tokens.GenerateToken(u.ID)
	require.NoError(t, err)
	return tok
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/api/ping", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong!"}`, rec.Body.String())
}

func TestGetMindMapRendersTree(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/mindmap", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "flat", rec.Header().Get("X-Mindmap-Kind"))

	root := decode[models.RenderNode](t, rec)
	assert.Equal(t, "装修总流程", root.Data.Text)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "设计阶段", root.Children[0].Data.Text)
	assert.Equal(t, "确定装修风格", root.Children[0].Data.Note)
}

func TestGetMindMapPremiumGate(t *testing.T) {
	env := newTestEnv(t)

	anon := decode[models.RenderNode](t, env.do(http.MethodGet, "/api/mindmap", nil, ""))
	premiumNode := anon.Children[1]
	require.True(t, premiumNode.Data.IsPremium)
	assert.Equal(t, mindmap.PremiumPreviewRunes+3, len([]rune(premiumNode.Data.Details[0].Text)))
	assert.Empty(t, premiumNode.Data.ImgURL)

	regular := decode[models.RenderNode](t, env.do(http.MethodGet, "/api/mindmap", nil, env.userToken(t, false)))
	assert.Equal(t, mindmap.PremiumPreviewRunes+3, len([]rune(regular.Children[1].Data.Details[0].Text)))

	full := decode[models.RenderNode](t, env.do(http.MethodGet, "/api/mindmap", nil, env.userToken(t, true)))
	assert.Equal(t, 300, len([]rune(full.Children[1].Data.Details[0].Text)))
	assert.Equal(t, []string{"secret.png"}, full.Children[1].Data.ImgURL)
}

func TestGetMindMapFallsBackToSample(t *testing.T) {
	env := newTestEnv(t)

	env.nodes.err = errors.New("db down")
	rec := env.do(http.MethodGet, "/api/mindmap", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sample", rec.Header().Get("X-Mindmap-Kind"))
	assert.Equal(t, mindmap.SampleRootName, decode[models.RenderNode](t, rec).Data.Text)

	env.nodes.err = nil
	env.nodes.records = []models.FlatRecord{{NodeID: i64(2), Name: "orphan", ParentID: i64(1)}}
	rec = env.do(http.MethodGet, "/api/mindmap", nil, "")
	assert.Equal(t, "sample", rec.Header().Get("X-Mindmap-Kind"))
}

func TestGetMindMapTree(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/mindmap/tree", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	root := decode[models.TreeNode](t, rec)
	assert.Equal(t, int64(1), root.NodeID)
	require.Len(t, root.Children, 2)
	assert.Equal(t, mindmap.PremiumPreviewRunes+3, len([]rune(root.Children[1].Details[0].Text)))
}

func TestGetNodes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/nodes", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]models.FlatRecord](t, rec)
	require.Len(t, rows, 3)
	assert.Equal(t, mindmap.PremiumPreviewRunes+3, len([]rune(*rows[2].Details)))
	assert.Nil(t, rows[2].ImgURL)

	env.nodes.err = errors.New("db down")
	rec = env.do(http.MethodGet, "/api/nodes", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to load nodes"}`, rec.Body.String())
}

func TestGetNodesPremiumRowsShareFirstRowFlag(t *testing.T) {
	env := newTestEnv(t)
	long := strings.Repeat("密", 300)
	env.nodes.records = []models.FlatRecord{
		{NodeID: i64(1), Name: "root"},
		{NodeID: i64(5), Name: "premium", ParentID: i64(1), Details: str(long), IsPremium: yes(),
			Image: str("secret-first.png")},
		{NodeID: i64(5), Name: "premium", ParentID: i64(1), Details: str(long),
			Image: str("secret-second.png")},
	}

	rec := env.do(http.MethodGet, "/api/nodes", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-first.png")
	assert.NotContains(t, rec.Body.String(), "secret-second.png")

	rows := decode[[]models.FlatRecord](t, rec)
	require.Len(t, rows, 3)
	for _, row := range rows[1:] {
		assert.Nil(t, row.Image)
		assert.Equal(t, mindmap.PremiumPreviewRunes+3, len([]rune(*row.Details)))
	}

	rec = env.do(http.MethodGet, "/api/nodes", nil, env.userToken(t, true))
	assert.Contains(t, rec.Body.String(), "secret-second.png")
}

func TestCSVSource(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "nodes.csv")
	require.NoError(t, os.WriteFile(path, []byte("node_id,name,parent_id\n1,根,\n2,子,1\n"), 0o644))
	env.h.Config.DataSource = config.SourceCSV
	env.h.Config.CSVPath = path

	root := decode[models.RenderNode](t, env.do(http.MethodGet, "/api/mindmap", nil, ""))
	assert.Equal(t, "根", root.Data.Text)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "子", root.Children[0].Data.Text)
}

func TestParseMarkdown(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/mindmap/markdown", []byte("# 装修流程\n## 设计\n- 风格\n"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "markdown", rec.Header().Get("X-Mindmap-Kind"))
	root := decode[models.RenderNode](t, rec)
	assert.Equal(t, "装修流程", root.Data.Text)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "风格", root.Children[0].Data.Note)

	rec = env.do(http.MethodPost, "/api/mindmap/markdown", []byte("   "), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	body := []byte(`{"username":"alice","password":"password123"}`)
	rec := env.do(http.MethodPost, "/api/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/register", []byte(`{"username":"bob","password":"short"}`), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", []byte(`{"username":"alice","password":"wrong-password"}`), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", body, "")
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}](t, rec)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "alice", login.User.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(http.MethodGet, "/api/auth/me", nil, login.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[models.User](t, rec).Username)

	rec = env.do(http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDocs(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.h.Config.DocsDir, "ceiling.md"),
		[]byte("# Ceiling\n## Frame\n- Use steel\n"), 0o644))

	rec := env.do(http.MethodGet, "/api/docs", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"slug":"ceiling","title":"ceiling"}]`, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/docs/ceiling", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[struct {
		HTML    string            `json:"html"`
		Outline models.RenderNode `json:"outline"`
	}](t, rec)
	assert.Contains(t, doc.HTML, "<li>Use steel</li>")
	assert.Equal(t, "Ceiling", doc.Outline.Data.Text)

	rec = env.do(http.MethodGet, "/api/docs/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "plan.PDF")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.userToken(t, false))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[map[string]string](t, rec)
	assert.Equal(t, "plan.PDF", out["name"])
	assert.True(t, strings.HasPrefix(out["url"], "http://localhost:8080/uploads/"))
	assert.True(t, strings.HasSuffix(out["url"], ".pdf"))

	saved := filepath.Join(env.h.Config.UploadDir, filepath.Base(out["url"]))
	_, err = os.Stat(saved)
	assert.NoError(t, err)

	rec = env.do(http.MethodPost, "/api/uploads", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func uploadRequest(t *testing.T, name, content, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, _ = fw.Write([]byte(content))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadRejectsDisallowedTypes(t *testing.T) {
	env := newTestEnv(t)
	token := env.userToken(t, false)

	for _, name := range []string{"evil.html", "evil.HTM", "evil.svg", "evil.js", "noext"} {
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, uploadRequest(t, name, "<script>alert(1)</script>", token))
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Contains(t, rec.Body.String(), "File type not allowed", name)
	}

	entries, err := os.ReadDir(env.h.Config.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadsServedAsDownloads(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, uploadRequest(t, "notes.txt", "hello", env.userToken(t, false)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[map[string]string](t, rec)

	rec = env.do(http.MethodGet, "/uploads/"+filepath.Base(out["url"]), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, "attachment", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestExplainNode(t *testing.T) {
	env := newTestEnv(t)
	token := env.userToken(t, false)

	rec := env.do(http.MethodPost, "/api/nodes/2/explain", nil, token)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	fake := &fakeAI{}
	env.h.AI = fake

	rec = env.do(http.MethodPost, "/api/nodes/2/explain", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"nodeId":2,"explanation":"explained 设计阶段","tokensUsed":12}`, rec.Body.String())
	root, ok := fake.lookup(1)
	require.True(t, ok)
	assert.Equal(t, "装修总流程", root.Name)

	// Asking about a free node must not let the lookup tool read premium details.
	rec = env.do(http.MethodPost, "/api/nodes/1/explain", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	child, ok := fake.lookup(3)
	require.True(t, ok)
	assert.True(t, child.IsPremium)
	assert.Equal(t, mindmap.PremiumPreviewRunes+3, len([]rune(child.Details[0].Text)))
	assert.Empty(t, child.ImgURL)

	rec = env.do(http.MethodPost, "/api/nodes/1/explain", nil, env.userToken(t, true))
	require.Equal(t, http.StatusOK, rec.Code)
	child, ok = fake.lookup(3)
	require.True(t, ok)
	assert.Equal(t, 300, len([]rune(child.Details[0].Text)))

	rec = env.do(http.MethodPost, "/api/nodes/3/explain", nil, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPost, "/api/nodes/99/explain", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/api/nodes/abc/explain", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
