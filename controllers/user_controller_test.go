package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func uploadRouter(userID string) *gin.Engine {
	r := gin.New()
	r.POST("/upload",
		func(c *gin.Context) {
			c.Set("user_id", userID)
			// Các path dưới đây kết thúc trước khi DB được dùng thật
			c.Set("db", (*gorm.DB)(nil))
		},
		UploadDocuments,
	)
	return r
}

func TestUploadDocuments_InvalidUserID(t *testing.T) {
	r := uploadRouter("not-a-uuid")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

// Request không phải multipart: từ chối trước mọi side effect
func TestUploadDocuments_NoMultipartBody(t *testing.T) {
	r := uploadRouter(uuid.NewString())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Không có file") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

// Multipart hợp lệ nhưng không có field "profile" lẫn "document"
func TestUploadDocuments_EmptyBatch(t *testing.T) {
	r := uploadRouter(uuid.NewString())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("note", "hello"); err != nil {
		t.Fatalf("WriteField error: %v", err)
	}
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Không có file") {
		t.Fatalf("body = %s", w.Body.String())
	}
}
