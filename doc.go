// Package main provides the entry point for the sparkcoach backend.
// It runs a Fiber web server exposing the coaching platform's REST API
// (client accounts, homework, notifications, automation settings) and a
// background automation scheduler that emails inactive clients. The
// application uses gorm for data persistence and SendGrid for outbound
// mail.
package main
