package services

import (
	"bytes"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/e-shop-backend/models"
)

// makeFileHeader tạo *multipart.FileHeader thật bằng cách ghi và parse lại
// một multipart form trong bộ nhớ.
func makeFileHeader(t *testing.T, field, filename, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile error: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close error: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm error: %v", err)
	}
	return form.File[field][0]
}

// fakeUserStore giữ đúng một user trong bộ nhớ, trả về bản copy như một
// lần fetch mới từ DB.
type fakeUserStore struct {
	mu   sync.Mutex
	user *models.User
}

func (s *fakeUserStore) FindUserByID(id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.user.ID != id {
		return nil, ErrUserNotFound
	}
	u := *s.user
	u.Documents = append([]models.Document(nil), s.user.Documents...)
	return &u, nil
}

func (s *fakeUserStore) SaveUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	u.Documents = append([]models.Document(nil), user.Documents...)
	s.user = &u
	return nil
}

func newTestIngestor(t *testing.T) (*Ingestor, *fakeUserStore, uuid.UUID, string) {
	t.Helper()
	root := t.TempDir()
	userID := uuid.New()
	store := &fakeUserStore{user: &models.User{ID: userID, Email: "test@example.com"}}
	return NewIngestor(root, store), store, userID, root
}

func listProfileFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "profile") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestIngest_ProfileUpload(t *testing.T) {
	t.Parallel()

	ing, store, userID, root := newTestIngestor(t)

	profile := makeFileHeader(t, "profile", "avatar.png", "png-bytes")
	result, err := ing.Ingest(nil, userID, profile, nil)
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if result.StoredCount != 1 {
		t.Fatalf("StoredCount = %d, want 1", result.StoredCount)
	}

	dir := filepath.Join(root, userID.String())
	files := listProfileFiles(t, dir)
	if len(files) != 1 || files[0] != "profile.png" {
		t.Fatalf("profile files = %v, want [profile.png]", files)
	}

	var profileDocs []models.Document
	for _, d := range store.user.Documents {
		if d.Name == models.ProfileDocumentName {
			profileDocs = append(profileDocs, d)
		}
	}
	if len(profileDocs) != 1 {
		t.Fatalf("profile documents = %d, want 1", len(profileDocs))
	}
	if profileDocs[0].Reference != filepath.Join(dir, "profile.png") {
		t.Fatalf("reference = %q", profileDocs[0].Reference)
	}
}

func TestIngest_ProfileReplacement(t *testing.T) {
	t.Parallel()

	ing, store, userID, root := newTestIngestor(t)
	dir := filepath.Join(root, userID.String())

	if _, err := ing.Ingest(nil, userID, makeFileHeader(t, "profile", "a.png", "old"), nil); err != nil {
		t.Fatalf("first Ingest error: %v", err)
	}
	if _, err := ing.Ingest(nil, userID, makeFileHeader(t, "profile", "b.jpg", "new"), nil); err != nil {
		t.Fatalf("second Ingest error: %v", err)
	}

	files := listProfileFiles(t, dir)
	if len(files) != 1 || files[0] != "profile.jpg" {
		t.Fatalf("profile files = %v, want [profile.jpg]", files)
	}

	count := 0
	for _, d := range store.user.Documents {
		if d.Name == models.ProfileDocumentName {
			count++
			if !strings.HasSuffix(d.Reference, "profile.jpg") {
				t.Fatalf("reference = %q, want .../profile.jpg", d.Reference)
			}
		}
	}
	if count != 1 {
		t.Fatalf("profile documents = %d, want 1", count)
	}
}

func TestIngest_RejectsUnsupportedProfileFormat(t *testing.T) {
	t.Parallel()

	for _, filename := range []string{"anim.gif", "photo.PNG"} {
		ing, store, userID, root := newTestIngestor(t)

		result, err := ing.Ingest(nil, userID, makeFileHeader(t, "profile", filename, "data"), nil)
		if err != nil {
			t.Fatalf("%s: Ingest error: %v", filename, err)
		}
		if !result.ProfileRejected {
			t.Fatalf("%s: ProfileRejected = false, want true", filename)
		}
		if result.StoredCount != 0 {
			t.Fatalf("%s: StoredCount = %d, want 0", filename, result.StoredCount)
		}

		dir := filepath.Join(root, userID.String())
		if files := listProfileFiles(t, dir); len(files) != 0 {
			t.Fatalf("%s: file bị ghi dù định dạng bị từ chối: %v", filename, files)
		}
		if len(store.user.Documents) != 0 {
			t.Fatalf("%s: documents = %v, want rỗng", filename, store.user.Documents)
		}
	}
}

func TestIngest_RejectedProfileDoesNotBlockDocuments(t *testing.T) {
	t.Parallel()

	ing, store, userID, _ := newTestIngestor(t)

	profile := makeFileHeader(t, "profile", "anim.gif", "gif")
	doc := makeFileHeader(t, "document", "cv.pdf", "pdf")

	result, err := ing.Ingest(nil, userID, profile, []*multipart.FileHeader{doc})
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if !result.ProfileRejected {
		t.Fatal("ProfileRejected = false, want true")
	}
	if result.StoredCount != 1 {
		t.Fatalf("StoredCount = %d, want 1", result.StoredCount)
	}
	if len(store.user.Documents) != 1 || store.user.Documents[0].Name != "cv.pdf" {
		t.Fatalf("documents = %v, want một entry cv.pdf", store.user.Documents)
	}
}

func TestIngest_DuplicateDocumentNames(t *testing.T) {
	t.Parallel()

	ing, store, userID, _ := newTestIngestor(t)

	docs := []*multipart.FileHeader{
		makeFileHeader(t, "document", "report.pdf", "v1"),
		makeFileHeader(t, "document", "report.pdf", "v2"),
	}
	result, err := ing.Ingest(nil, userID, nil, docs)
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if result.StoredCount != 2 {
		t.Fatalf("StoredCount = %d, want 2", result.StoredCount)
	}

	if len(store.user.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(store.user.Documents))
	}
	for _, d := range store.user.Documents {
		if d.Name != "report.pdf" {
			t.Fatalf("name = %q, want report.pdf", d.Name)
		}
	}
	if store.user.Documents[0].Reference == store.user.Documents[1].Reference {
		t.Fatalf("hai document trùng reference: %q", store.user.Documents[0].Reference)
	}
}

func TestIngest_EmptyBatch(t *testing.T) {
	t.Parallel()

	ing, _, userID, root := newTestIngestor(t)

	_, err := ing.Ingest(nil, userID, nil, nil)
	if !errors.Is(err, ErrNoFiles) {
		t.Fatalf("err = %v, want ErrNoFiles", err)
	}

	// Batch rỗng không được đụng tới thư mục lưu trữ
	if _, err := os.Stat(filepath.Join(root, userID.String())); !os.IsNotExist(err) {
		t.Fatal("thư mục user đã bị tạo dù batch rỗng")
	}
}

func TestIngest_UserNotFound(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ing := NewIngestor(root, &fakeUserStore{})

	_, err := ing.Ingest(nil, uuid.New(), makeFileHeader(t, "profile", "a.png", "x"), nil)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestIngest_StorageUnavailable(t *testing.T) {
	t.Parallel()

	// Root là một file thường: MkdirAll bên dưới chắc chắn thất bại
	tmp := t.TempDir()
	root := filepath.Join(tmp, "not-a-dir")
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	userID := uuid.New()
	ing := NewIngestor(root, &fakeUserStore{user: &models.User{ID: userID}})

	_, err := ing.Ingest(nil, userID, makeFileHeader(t, "profile", "a.png", "x"), nil)
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("err = %v, want ErrStorageUnavailable", err)
	}
}

// Lỗi Stat không phải "file chưa tồn tại" (ở đây: một path component là file
// thường nên Stat trả ENOTDIR) phải được trả về ngay thay vì thử lại mãi.
func TestSaveDocumentFile_BadDestination(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	ing := NewIngestor(tmp, &fakeUserStore{})
	fh := makeFileHeader(t, "document", "cv.pdf", "pdf")

	done := make(chan error, 1)
	go func() {
		_, err := ing.saveDocumentFile(filepath.Join(blocker, "sub"), fh)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("saveDocumentFile không trả lỗi với thư mục đích hỏng")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("saveDocumentFile không kết thúc với thư mục đích hỏng")
	}
}

// Hai upload ảnh đại diện đồng thời cho cùng một user: nhờ lock theo user id,
// trạng thái cuối phải là đúng một file "profile*" trên đĩa và document
// "profile" duy nhất trỏ tới file còn tồn tại.
func TestIngest_ConcurrentProfileUploads(t *testing.T) {
	t.Parallel()

	for i := 0; i < 20; i++ {
		ing, store, userID, root := newTestIngestor(t)
		dir := filepath.Join(root, userID.String())

		headers := map[string]*multipart.FileHeader{
			"a.png": makeFileHeader(t, "profile", "a.png", "a"),
			"b.jpg": makeFileHeader(t, "profile", "b.jpg", "b"),
		}

		var wg sync.WaitGroup
		for name, fh := range headers {
			wg.Add(1)
			go func(name string, fh *multipart.FileHeader) {
				defer wg.Done()
				if _, err := ing.Ingest(nil, userID, fh, nil); err != nil {
					t.Errorf("Ingest(%s) error: %v", name, err)
				}
			}(name, fh)
		}
		wg.Wait()

		files := listProfileFiles(t, dir)
		if len(files) != 1 {
			t.Fatalf("profile files = %v, want đúng 1 file", files)
		}

		var refs []string
		for _, d := range store.user.Documents {
			if d.Name == models.ProfileDocumentName {
				refs = append(refs, d.Reference)
			}
		}
		if len(refs) != 1 {
			t.Fatalf("profile documents = %d, want 1", len(refs))
		}
		// Reference phải trỏ tới file còn tồn tại (không dangling)
		if _, err := os.Stat(refs[0]); err != nil {
			t.Fatalf("reference %q không trỏ tới file tồn tại: %v", refs[0], err)
		}
	}
}
