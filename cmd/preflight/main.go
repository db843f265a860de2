// cmd/preflight/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/oss-sentinel/sentinel/internal/config"
)

// preflight verifies a deployment before the monitor is started:
// config file parses, SMTP environment is usable.
func main() {
	configPath := flag.String("config", "config.yml", "Path to the YAML config file")
	flag.Parse()

	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err.Error())
	}
	ok(fmt.Sprintf("%s parsed: %d service(s), interval %s", *configPath, len(cfg.Services), cfg.CheckInterval()))

	if cfg.Notifications.SMTP.Complete() {
		ok("SMTP configuration present")
	} else {
		var missing []string
		for name, v := range map[string]string{
			"SMTP_SERVER":   cfg.Notifications.SMTP.Server,
			"SMTP_USER":     cfg.Notifications.SMTP.User,
			"SMTP_PASSWORD": cfg.Notifications.SMTP.Password,
			"FROM_EMAIL":    cfg.Notifications.SMTP.From,
			"TO_EMAIL":      cfg.Notifications.SMTP.To,
		} {
			if v == "" {
				missing = append(missing, name)
			}
		}
		warn("email notifications disabled; missing " + strings.Join(missing, ", "))
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			warn("SMTP_PORT is not a number; the default 587 will be used")
		}
	}

	if cfg.Notifications.SlackWebhookURL != "" {
		ok("Slack webhook configured")
	}

	if cfg.API.Addr == "" {
		warn("api.addr empty — the read-only HTTP API stays disabled")
	} else {
		ok("API will listen on " + cfg.API.Addr)
	}

	ok("preflight passed")
}
