package config

import (
	"fmt"
	"time"

	"github.com/sparkcoach/sparkcoach/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode    bool // enable dev mode for development
	DB         DB
	Log        logger.Log
	Title      string
	Webserver  Webserver
	Mail       Mail
	Automation Automation
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath           bool    // use clean path middleware to allow multi slash requests
	DisableRecover      bool    // disable recover middleware
	Domain              string  // domain name for the webserver
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	PortalURL           string  // public url of the client portal, used in reminder emails
	CookieEncryptionKey string  // encryption key for cookies
	Session             Session // session settings
}

// Mail holds outbound email settings.
type Mail struct {
	SendGridKey string // SendGrid API key; empty disables real sends
	FromName    string // display name of the sender
	FromAddress string // sender address
	SubjectTag  string // prefix for all outgoing subjects
}

// Automation holds scheduler settings. Cooldowns live per automation kind
// in the database; only process-level timing is configured here.
type Automation struct {
	Enabled             bool
	IntervalMinutes     int // time between ticks, default 60
	InitialDelaySeconds int // delay before the first tick after start, default 5
	TickTimeoutMinutes  int // ceiling for one tick, default 5
}

const (
	defaultIntervalMinutes     = 60
	defaultInitialDelaySeconds = 5
	defaultTickTimeoutMinutes  = 5
	defaultShutDownTime        = 5
)

// Interval returns the configured tick interval with its default applied.
func (a Automation) Interval() time.Duration {
	if a.IntervalMinutes <= 0 {
		return defaultIntervalMinutes * time.Minute
	}

	return time.Duration(a.IntervalMinutes) * time.Minute
}

// InitialDelay returns the configured startup delay with its default applied.
func (a Automation) InitialDelay() time.Duration {
	if a.InitialDelaySeconds <= 0 {
		return defaultInitialDelaySeconds * time.Second
	}

	return time.Duration(a.InitialDelaySeconds) * time.Second
}

// TickTimeout returns the configured tick ceiling with its default applied.
func (a Automation) TickTimeout() time.Duration {
	if a.TickTimeoutMinutes <= 0 {
		return defaultTickTimeoutMinutes * time.Minute
	}

	return time.Duration(a.TickTimeoutMinutes) * time.Minute
}

// ListenAddr returns the address the webserver binds to.
func (w Webserver) ListenAddr() string {
	return fmt.Sprintf(":%d", w.Port)
}

// ShutDown returns the webserver shutdown wait with its default applied.
func (w Webserver) ShutDown() time.Duration {
	if w.ShutDownTime <= 0 {
		return defaultShutDownTime * time.Second
	}

	return time.Duration(w.ShutDownTime) * time.Second
}
