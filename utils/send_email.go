package utils

import (
	"fmt"
	"net/smtp"
	"os"
)

func SendEmail(to, subject, body string) error {
	from := os.Getenv("SMTP_EMAIL")
	pass := os.Getenv("SMTP_PASSWORD")

	// Headers: hỗ trợ UTF-8 & HTML
	msg := ""
	msg += "MIME-Version: 1.0\r\n"
	msg += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	msg += fmt.Sprintf("From: %s\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", to)
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "\r\n" + body

	// Gửi mail
	err := smtp.SendMail(
		"smtp.gmail.com:587",
		smtp.PlainAuth("", from, pass, "smtp.gmail.com"),
		from,
		[]string{to},
		[]byte(msg),
	)

	if err != nil {
		return fmt.Errorf("gửi email thất bại: %v", err)
	}
	return nil
}

// SendResetMail gửi link khôi phục mật khẩu cho user.
func SendResetMail(to, token string) error {
	baseURL := os.Getenv("FRONTEND_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5173"
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", baseURL, token)

	subject := "Khôi phục mật khẩu E-Shop"
	body := `
	<h3>Xin chào,</h3>
	<p>Bạn (hoặc ai đó) đã yêu cầu đặt lại mật khẩu tài khoản <b>E-Shop</b> của bạn.</p>
	<p>Nhấn vào link dưới đây để tạo mật khẩu mới (hết hạn sau 1 giờ):</p>
	<p><a href="` + link + `">` + link + `</a></p>
	<p>Nếu không phải bạn yêu cầu, hãy bỏ qua email này.</p>
	<hr>
	<p><i>Đây là email tự động, vui lòng không trả lời.</i></p>
	`
	return SendEmail(to, subject, body)
}
