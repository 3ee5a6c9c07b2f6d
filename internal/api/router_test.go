package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/askcite/internal/citation"
	"github.com/liliang-cn/askcite/internal/domain"
	"github.com/liliang-cn/askcite/internal/repository"
	"github.com/liliang-cn/askcite/internal/resolver"
	"github.com/liliang-cn/askcite/internal/service"
	"github.com/liliang-cn/askcite/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "admin-key"

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "askcite.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions := repository.NewSessionRepository(db)
	documents := service.NewDocumentService(repository.NewDocumentRepository(db), sessions)
	composer := citation.NewComposer(resolver.New(documents, nil, resolver.DefaultOptions(), nil), citation.Options{}, nil)
	answers := service.NewAnswerService(composer, stream.NewEmitter(0, nil), sessions, nil)

	return SetupRouter(answers, documents, RouterConfig{
		APIKey:       testAPIKey,
		AllowOrigins: []string{"*"},
	})
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerManual(t *testing.T, r http.Handler) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/admin/documents", domain.CreateDocumentRequest{
		ID: "abc", Filename: "manual.pdf", SourceType: "pdf", PageCount: 8,
		OriginalURL: "https://files.example.com/manual.pdf",
	}, map[string]string{"X-API-Key": testAPIKey})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func sampleRequest() domain.ComposeRequest {
	return domain.ComposeRequest{
		Query: "are pulse motors efficient?",
		Answer: domain.WireAnswer{
			Text:  "Pulse motors are efficient",
			State: "SUCCEEDED",
			Citations: []domain.WireCitation{
				{EndIndex: "12", Sources: []domain.WireCitationSource{{ReferenceIndex: "0"}}},
				{EndIndex: "26", Sources: []domain.WireCitationSource{{ReferenceIndex: "2"}}},
			},
			References: []domain.WireReference{
				{Title: "Bedini SSG", VideoID: "vid1", TimestampStart: 30},
				{Title: "unused", VideoID: "x"},
				{Title: "Manual", DocumentID: "abc", SourceType: "pdf", PageNumber: 4},
			},
		},
	}
}

func TestHealthAndMetrics(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestComposeAnswer(t *testing.T) {
	r := setupRouter(t)
	registerManual(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/answers", sampleRequest(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp domain.ComposeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Pulse motors[1] are efficient[2]", resp.Answer)
	require.Len(t, resp.Citations, 2)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid1&t=30s", resp.Citations[0].ResolvedLink)
	assert.Equal(t, "https://files.example.com/manual.pdf#page=4", resp.Citations[1].ResolvedLink)

	w = doJSON(t, r, http.MethodGet, "/api/sessions/"+resp.SessionID+"/messages", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Messages []domain.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history.Messages, 2)
}

func TestComposeAnswer_UpstreamFailure(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/answers", domain.ComposeRequest{
		Query:  "q",
		Answer: domain.WireAnswer{State: "FAILED", SkipReasons: []string{"NO_RELEVANT_CONTENT"}},
	}, nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body struct {
		Error   string   `json:"error"`
		Reasons []string `json:"reasons"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "NO_RELEVANT_CONTENT")
	assert.Equal(t, []string{"NO_RELEVANT_CONTENT"}, body.Reasons)
}

func TestComposeAnswer_EmptyQuery(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/answers", domain.ComposeRequest{}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp domain.ComposeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.EmptyInputPrompt, resp.Answer)
	assert.Equal(t, service.NoticeEmptyInput, resp.Notice)
}

func TestComposeAnswer_UnknownSession(t *testing.T) {
	r := setupRouter(t)

	req := sampleRequest()
	req.SessionID = "missing"
	w := doJSON(t, r, http.MethodPost, "/api/answers", req, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

type sseEvent struct {
	Event string
	Data  domain.StreamChunk
}

func readEvents(t *testing.T, resp *http.Response) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &current.Data))
		case line == "":
			if current.Event != "" {
				events = append(events, current)
			}
			current = sseEvent{}
		}
	}
	return events
}

func TestComposeStream(t *testing.T) {
	srv := httptest.NewServer(setupRouter(t))
	defer srv.Close()

	body, err := json.Marshal(sampleRequest())
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/answers/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readEvents(t, resp)
	require.NotEmpty(t, events)

	var text strings.Builder
	for _, e := range events[:len(events)-1] {
		assert.Equal(t, domain.ChunkTypeContent, e.Event)
		text.WriteString(e.Data.Content)
	}
	assert.Equal(t, "Pulse motors[1] are efficient[2]", text.String())

	done := events[len(events)-1]
	assert.Equal(t, domain.ChunkTypeDone, done.Event)
	assert.Equal(t, domain.FinishReasonStop, done.Data.FinishReason)
	assert.Len(t, done.Data.Citations, 2)
}

func TestComposeStream_QuotesAndNewlines(t *testing.T) {
	srv := httptest.NewServer(setupRouter(t))
	defer srv.Close()

	text := "He said \"hi\"\nthen\n\nleft"
	body, err := json.Marshal(domain.ComposeRequest{
		Query:  "q",
		Answer: domain.WireAnswer{Text: text, State: "SUCCEEDED"},
	})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/answers/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	events := readEvents(t, resp)
	require.NotEmpty(t, events)

	var got strings.Builder
	for _, e := range events {
		if e.Event == domain.ChunkTypeContent {
			got.WriteString(e.Data.Content)
		}
	}
	assert.Equal(t, text, got.String())
	assert.Equal(t, domain.ChunkTypeDone, events[len(events)-1].Event)
}

func TestComposeStream_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(setupRouter(t))
	defer srv.Close()

	body, err := json.Marshal(domain.ComposeRequest{
		Query:  "q",
		Answer: domain.WireAnswer{State: "FAILED", SkipReasons: []string{"NO_RELEVANT_CONTENT"}},
	})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/answers/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	events := readEvents(t, resp)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ChunkTypeError, events[0].Event)
	assert.Equal(t, []string{"NO_RELEVANT_CONTENT"}, events[0].Data.Reasons)
}

func TestDocumentLink(t *testing.T) {
	r := setupRouter(t)
	registerManual(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/documents/abc/link?page=3", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var link domain.DeepLink
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Equal(t, "https://files.example.com/manual.pdf#page=3", link.URL)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/api/documents/abc/link?page=x", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/api/documents/abc/link?page=99", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/api/documents/zzz/link?page=1", nil, nil).Code)
}

func TestHTTPLookupAgainstServer(t *testing.T) {
	r := setupRouter(t)
	registerManual(t, r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	link, err := resolver.NewHTTPLookup(srv.URL, srv.Client()).LookupPageLink(t.Context(), "abc", 2)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/manual.pdf#page=2", link)
}

func TestAdminDocuments(t *testing.T) {
	r := setupRouter(t)
	auth := map[string]string{"X-API-Key": testAPIKey}

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodGet, "/api/admin/documents", nil, nil).Code)

	w := doJSON(t, r, http.MethodPost, "/api/admin/documents", map[string]any{"filename": "x.pdf"}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	registerManual(t, r)

	w = doJSON(t, r, http.MethodGet, "/api/admin/documents", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	var list domain.DocumentListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	w = doJSON(t, r, http.MethodPut, "/api/admin/documents/abc", map[string]any{"title": "SSG Manual"}, auth)
	require.Equal(t, http.StatusOK, w.Code)
	var doc domain.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "SSG Manual", doc.Title)

	w = doJSON(t, r, http.MethodGet, "/api/admin/stats", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	var stats domain.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalDocuments)

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/api/admin/documents/abc", nil, auth).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/api/admin/documents/abc", nil, auth).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodDelete, "/api/admin/documents/abc", nil, auth).Code)
}
