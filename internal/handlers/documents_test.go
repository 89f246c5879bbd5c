package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/notify"
	"github.com/rdevries/kantoor/internal/storage"
	"github.com/rdevries/kantoor/internal/store/sqlstore"
)

func newDocumentHandler(t *testing.T, store *sqlstore.SQLStore) *DocumentHandler {
	t.Helper()
	bucket, err := storage.NewBucket(t.TempDir(), []byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return &DocumentHandler{Store: store, Bucket: bucket, Notify: notify.NewService(store)}
}

func multipartUpload(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadDocumentNotifiesOrg(t *testing.T) {
	store := newTestStore(t)
	handler := newDocumentHandler(t, store)
	anna := createTestUser(t, store, "anna", "org1")
	ben := createTestUser(t, store, "ben", "org1")

	body, contentType := multipartUpload(t, map[string]string{
		"category": "tax",
		"year":     "2026",
	}, "return.pdf", "pdf bytes")

	req, _ := http.NewRequest("POST", "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	loginAs(t, req, anna.ID)

	rr := httptest.NewRecorder()
	authed(handler.Upload).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusCreated {
		t.Fatalf("handler returned wrong status code: got %v want %v",
			status, http.StatusCreated)
	}

	var doc models.Document
	json.NewDecoder(rr.Body).Decode(&doc)
	if doc.Name != "return.pdf" || doc.Year != 2026 {
		t.Errorf("Unexpected document %+v", doc)
	}
	if !strings.HasSuffix(doc.FilePath, ".pdf") {
		t.Errorf("Expected the stored path to keep the extension, got %q", doc.FilePath)
	}

	// Other org members get a heads-up, the uploader does not
	ns, _ := store.ListNotifications(ben.ID, 10)
	if len(ns) != 1 || ns[0].Type != models.NotifyDocument {
		t.Errorf("Expected a document notification for ben, got %v", ns)
	}
	ns, _ = store.ListNotifications(anna.ID, 10)
	if len(ns) != 0 {
		t.Errorf("Expected no notification for the uploader, got %d", len(ns))
	}
}

func TestDownloadDocumentRedirectsSigned(t *testing.T) {
	store := newTestStore(t)
	handler := newDocumentHandler(t, store)
	anna := createTestUser(t, store, "anna", "org1")

	doc := &models.Document{
		OrganizationID: "org1",
		Name:           "return.pdf",
		FilePath:       "documents/org1/abc.pdf",
		UploadedBy:     anna.ID,
	}
	if err := store.InsertDocument(doc); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest("GET", "/api/documents/"+doc.ID+"/download", nil)
	req = mux.SetURLVars(req, map[string]string{"id": doc.ID})
	loginAs(t, req, anna.ID)

	rr := httptest.NewRecorder()
	authed(handler.Download).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusTemporaryRedirect {
		t.Fatalf("handler returned wrong status code: got %v want %v",
			status, http.StatusTemporaryRedirect)
	}
	location := rr.Header().Get("Location")
	if !strings.HasPrefix(location, "/files/documents/org1/abc.pdf?") {
		t.Errorf("Expected a signed file URL, got %q", location)
	}
}

func TestDownloadDocumentCrossOrgForbidden(t *testing.T) {
	store := newTestStore(t)
	handler := newDocumentHandler(t, store)
	anna := createTestUser(t, store, "anna", "org1")
	outsider := createTestUser(t, store, "outsider", "org2")

	doc := &models.Document{
		OrganizationID: "org1",
		Name:           "secret.pdf",
		FilePath:       "documents/org1/secret.pdf",
		UploadedBy:     anna.ID,
	}
	if err := store.InsertDocument(doc); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest("GET", "/api/documents/"+doc.ID+"/download", nil)
	req = mux.SetURLVars(req, map[string]string{"id": doc.ID})
	loginAs(t, req, outsider.ID)

	rr := httptest.NewRecorder()
	authed(handler.Download).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusForbidden {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusForbidden)
	}
}

func TestCreateAndListClients(t *testing.T) {
	store := newTestStore(t)
	handler := newDocumentHandler(t, store)
	anna := createTestUser(t, store, "anna", "org1")

	body, _ := json.Marshal(map[string]string{"name": "Bakkerij de Vries", "email": "info@bakkerij.example"})
	req, _ := http.NewRequest("POST", "/api/clients", bytes.NewBuffer(body))
	loginAs(t, req, anna.ID)

	rr := httptest.NewRecorder()
	authed(handler.CreateClient).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusCreated {
		t.Fatalf("handler returned wrong status code: got %v want %v",
			status, http.StatusCreated)
	}

	req, _ = http.NewRequest("GET", "/api/clients", nil)
	loginAs(t, req, anna.ID)
	rr = httptest.NewRecorder()
	authed(handler.ListClients).ServeHTTP(rr, req)

	var clients []models.Client
	json.NewDecoder(rr.Body).Decode(&clients)
	if len(clients) != 1 || clients[0].Name != "Bakkerij de Vries" {
		t.Errorf("Expected the created client, got %v", clients)
	}
}
