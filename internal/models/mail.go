package models

type MailMessage struct {
	To         string
	Bcc        string
	Subject    string
	Body       string
	IsHTMLBody bool
}
