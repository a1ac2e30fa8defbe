package config

import (
	"sync"
	"time"
)

// MailConfig selects the outbound transport. Driver "smtp" uses the SMTP
// settings, "http" posts to a JSON mail provider at APIURL.
type MailConfig struct {
	Driver   string
	From     string
	Host     string
	Port     int
	Secure   bool
	User     string
	Password string
	APIURL   string
	APIKey   string
	Timeout  time.Duration
}

var (
	mailConfig *MailConfig
	mailOnce   sync.Once
)

func LoadMailConfig() *MailConfig {
	mailOnce.Do(func() {
		v := Env()
		v.SetDefault("MAIL_DRIVER", "smtp")
		v.SetDefault("EMAIL_FROM", "noreply@fasthire.com")
		v.SetDefault("EMAIL_PORT", 587)
		v.SetDefault("MAIL_TIMEOUT", 60*time.Second)

		mailConfig = &MailConfig{
			Driver:   v.GetString("MAIL_DRIVER"),
			From:     v.GetString("EMAIL_FROM"),
			Host:     v.GetString("EMAIL_HOST"),
			Port:     v.GetInt("EMAIL_PORT"),
			Secure:   v.GetBool("EMAIL_SECURE"),
			User:     v.GetString("EMAIL_USER"),
			Password: v.GetString("EMAIL_PASSWORD"),
			APIURL:   v.GetString("MAIL_API_URL"),
			APIKey:   v.GetString("MAIL_API_KEY"),
			Timeout:  v.GetDuration("MAIL_TIMEOUT"),
		}
	})
	return mailConfig
}
