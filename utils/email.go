package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// TicketEmailItem một vé trong email, QRBytes được nhúng inline theo CID
type TicketEmailItem struct {
	TicketCode string
	SeatLabel  string
	QRBytes    []byte
}

// BookingConfirmationData dữ liệu cho template email
type BookingConfirmationData struct {
	BookingCode string
	MovieName   string
	Showtime    string
	Seats       string
	FinalAmount float64
	Tickets     []TicketEmailItem
}

// SendBookingConfirmationEmail gửi email xác nhận kèm QR từng vé (async)
func SendBookingConfirmationEmail(to string, data BookingConfirmationData) {
	go func() { // Async để không delay response
		tmplPath := "templates/booking_confirmation.html" // Đường dẫn template
		tmpl, err := template.ParseFiles(tmplPath)
		if err != nil {
			log.Printf("Lỗi load template email: %v", err)
			return
		}

		var body bytes.Buffer
		if err := tmpl.Execute(&body, data); err != nil {
			log.Printf("Lỗi render template email: %v", err)
			return
		}

		host := os.Getenv("SMTP_HOST")
		portStr := os.Getenv("SMTP_PORT")
		username := os.Getenv("SMTP_USERNAME")
		password := os.Getenv("SMTP_PASSWORD")
		from := os.Getenv("SMTP_FROM")

		port, _ := strconv.Atoi(portStr)

		m := gomail.NewMessage()
		m.SetHeader("From", from)
		m.SetHeader("To", to)
		m.SetHeader("Subject", "Xác nhận đặt vé #"+data.BookingCode)
		m.SetBody("text/html", body.String())

		for _, t := range data.Tickets {
			qr := t.QRBytes
			name := fmt.Sprintf("qr_%s.png", t.TicketCode)
			m.Embed(name, gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(qr)
				return err
			}))
		}

		d := gomail.NewDialer(host, port, username, password)
		if err := d.DialAndSend(m); err != nil {
			log.Printf("Lỗi gửi email: %v", err)
		}
	}()
}
