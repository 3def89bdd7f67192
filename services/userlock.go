package services

import "sync"

// userLocker tuần tự hóa các lần upload của cùng một user. Hai request
// upload ảnh đại diện đồng thời cho cùng một user sẽ đan xen bước
// xóa-file-cũ / ghi-file-mới và để lại hai file "profile*" trên đĩa,
// nên toàn bộ pipeline (resolve → ghi file → cập nhật documents) phải
// chạy trong lock theo user id. User khác nhau không chặn nhau.
type userLocker struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocker() *userLocker {
	return &userLocker{locks: make(map[string]*userLock)}
}

func (l *userLocker) Lock(userID string) {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *userLocker) Unlock(userID string) {
	l.mu.Lock()
	entry := l.locks[userID]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, userID)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
