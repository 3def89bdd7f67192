package controllers

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Mã lỗi unique_violation của PostgreSQL
const pgUniqueViolationCode = "23505"

// isUniqueViolation nhận diện lỗi vi phạm unique index. Các pre-check kiểu
// "tìm trước rồi Create" vẫn có thể thua race với request trùng lặp chạy song
// song, khi đó unique index của DB là chốt chặn cuối và lỗi của nó phải được
// trả về như lỗi nhập liệu (400), không phải lỗi hệ thống.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode
}
