package services

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/e-shop-backend/models"
)

// Các định dạng ảnh đại diện được chấp nhận. So khớp phân biệt hoa/thường:
// ".PNG" bị từ chối.
var allowedProfileExtensions = []string{".jpg", ".jpeg", ".png"}

var (
	ErrNoFiles                  = errors.New("không có file nào được gửi lên")
	ErrStorageUnavailable       = errors.New("không thể tạo thư mục lưu trữ")
	ErrUnsupportedProfileFormat = errors.New("định dạng ảnh đại diện phải là: jpg, jpeg hoặc png")
	ErrUserNotFound             = errors.New("không tìm thấy người dùng")
)

// UserStore là cổng vào identity store: ingest chỉ cần tìm user theo id
// và lưu lại user kèm danh sách documents trong một lần save.
type UserStore interface {
	FindUserByID(id uuid.UUID) (*models.User, error)
	SaveUser(user *models.User) error
}

type IngestResult struct {
	StoredCount     int               `json:"stored_count"`
	ProfileRejected bool              `json:"profile_rejected,omitempty"`
	Documents       []models.Document `json:"documents"`
}

// Ingestor nhận batch file upload của một user: resolve thư mục lưu trữ,
// đặt tên + validate file, ghi ra đĩa rồi cập nhật danh sách documents.
type Ingestor struct {
	root  string
	store UserStore
	locks *userLocker
}

func NewIngestor(root string, store UserStore) *Ingestor {
	return &Ingestor{
		root:  root,
		store: store,
		locks: newUserLocker(),
	}
}

// Ingest xử lý một batch upload: tối đa một file ảnh đại diện (profile) và
// không giới hạn file tài liệu (document). Ảnh đại diện sai định dạng không
// làm hỏng các file còn lại trong batch, chỉ được báo lại qua
// IngestResult.ProfileRejected; lỗi storage hoặc user biến mất thì hủy cả batch.
func (ing *Ingestor) Ingest(logger *slog.Logger, userID uuid.UUID, profile *multipart.FileHeader, documents []*multipart.FileHeader) (*IngestResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Batch rỗng: từ chối trước khi đụng tới thư mục lưu trữ
	if profile == nil && len(documents) == 0 {
		return nil, ErrNoFiles
	}

	// Tuần tự hóa theo user id để hai upload đồng thời của cùng một user
	// không đan xen bước xóa/ghi file profile và lần save documents
	ing.locks.Lock(userID.String())
	defer ing.locks.Unlock(userID.String())

	dir, err := ing.resolveDestination(userID)
	if err != nil {
		logger.Error("không thể tạo thư mục upload", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	result := &IngestResult{}

	var savedProfile string
	if profile != nil {
		savedProfile, err = ing.saveProfileFile(dir, profile)
		switch {
		case errors.Is(err, ErrUnsupportedProfileFormat):
			// Không ghi file, các file document vẫn được xử lý
			logger.Warn("ảnh đại diện bị từ chối", "user_id", userID, "filename", profile.Filename)
			result.ProfileRejected = true
		case err != nil:
			logger.Error("không thể lưu ảnh đại diện", "user_id", userID, "error", err)
			return nil, err
		default:
			result.StoredCount++
		}
	}

	type savedDocument struct {
		originalName string
		reference    string
	}
	var savedDocs []savedDocument
	for _, doc := range documents {
		ref, err := ing.saveDocumentFile(dir, doc)
		if err != nil {
			logger.Error("không thể lưu tài liệu", "user_id", userID, "filename", doc.Filename, "error", err)
			return nil, err
		}
		savedDocs = append(savedDocs, savedDocument{originalName: doc.Filename, reference: ref})
		result.StoredCount++
	}

	// Không có file nào được ghi (ảnh đại diện bị từ chối, không có
	// document): không cần động tới identity store
	if savedProfile == "" && len(savedDocs) == 0 {
		return result, nil
	}

	// Nạp lại user sau khi file đã nằm trên đĩa: không tin bản đã cache
	// từ lúc xác thực
	user, err := ing.store.FindUserByID(userID)
	if err != nil {
		return nil, err
	}

	if savedProfile != "" {
		// Bỏ document "profile" cũ (nếu có) rồi thêm bản mới: giữ bất biến
		// mỗi user chỉ có một document tên "profile"
		kept := user.Documents[:0]
		for _, d := range user.Documents {
			if d.Name != models.ProfileDocumentName {
				kept = append(kept, d)
			}
		}
		user.Documents = kept
		user.Documents = append(user.Documents, models.Document{
			UserID:    user.ID,
			Name:      models.ProfileDocumentName,
			Reference: savedProfile,
		})
	}

	// Nhiều document có thể trùng tên gốc, chỉ phân biệt bằng reference
	for _, d := range savedDocs {
		user.Documents = append(user.Documents, models.Document{
			UserID:    user.ID,
			Name:      d.originalName,
			Reference: d.reference,
		})
	}

	if err := ing.store.SaveUser(user); err != nil {
		return nil, err
	}

	result.Documents = user.Documents
	logger.Info("đã lưu batch upload", "user_id", userID, "stored", result.StoredCount, "profile_rejected", result.ProfileRejected)
	return result, nil
}

// resolveDestination trả về thư mục upload của user, tạo lazy nếu chưa có.
// Gọi lại trên thư mục đã tồn tại là no-op.
func (ing *Ingestor) resolveDestination(userID uuid.UUID) (string, error) {
	dir := filepath.Join(ing.root, userID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// saveProfileFile validate định dạng, xóa ảnh đại diện cũ rồi ghi file mới
// tên "profile<ext>". Thứ tự xóa-trước-ghi-sau là bắt buộc: file mới dùng lại
// prefix "profile" nên ghi trước sẽ bị chính bước dọn dẹp xóa nhầm.
func (ing *Ingestor) saveProfileFile(dir string, fh *multipart.FileHeader) (string, error) {
	ext := filepath.Ext(fh.Filename)

	allowed := false
	for _, e := range allowedProfileExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", ErrUnsupportedProfileFormat
	}

	if err := ing.removeStaleProfiles(dir); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, models.ProfileDocumentName+ext)
	if err := saveMultipartFile(fh, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// removeStaleProfiles xóa mọi file "profile*" trong thư mục user. Bình thường
// chỉ có tối đa một, nhưng quét cả thư mục và xóa hết các file khớp để tự
// phục hồi nếu thư mục đã ở trạng thái lệch. Lỗi xóa là lỗi fatal của batch.
func (ing *Ingestor) removeStaleProfiles(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), models.ProfileDocumentName) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// saveDocumentFile ghi một file tài liệu với tên sinh từ timestamp nano +
// extension gốc; không giới hạn định dạng.
func (ing *Ingestor) saveDocumentFile(dir string, fh *multipart.FileHeader) (string, error) {
	ext := filepath.Ext(fh.Filename)

	// UnixNano gần như không trùng, nhưng hai file trong cùng batch vẫn có
	// thể rơi vào cùng một tick nên kiểm tra tồn tại trước khi chốt tên.
	// Chỉ thử lại khi file đã tồn tại; lỗi Stat khác phải trả về ngay,
	// nếu không vòng lặp sẽ quay vô hạn trên cùng một lỗi.
	var dst string
	for {
		name := strconv.FormatInt(time.Now().UnixNano(), 10) + ext
		dst = filepath.Join(dir, name)
		_, err := os.Stat(dst)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return "", err
		}
	}

	if err := saveMultipartFile(fh, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func saveMultipartFile(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
