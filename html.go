/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/Seednode/watchparty/party"
	"github.com/julienschmidt/httprouter"
)

type statsResponse struct {
	Sessions     int `json:"sessions"`
	Participants int `json:"participants"`
	Connections  int `json:"connections"`
}

func serveHomePage(cfg *Config, manager *party.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		sessions, _ := manager.Registry().Stats()

		body := fmt.Sprintf("<h1>watchparty v%s</h1><p>%d live %s</p>",
			releaseVersion, sessions, plural(sessions, "party", "parties"))
		if cfg.clientURL != "" {
			body += fmt.Sprintf(`<p><a href="%s">Open the watch party client</a></p>`, html.EscapeString(cfg.clientURL))
		}

		writeBody(cfg, w, r, errs, "home", "text/html; charset=utf-8", http.StatusOK, []byte(newPage("watchparty", body)), startTime)
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		writeBody(cfg, w, r, errs, "healthz", "text/plain; charset=utf-8", http.StatusOK, []byte("Ok\n"), startTime)
	}
}

func serveStats(cfg *Config, manager *party.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		sessions, participants := manager.Registry().Stats()

		data, err := json.Marshal(statsResponse{
			Sessions:     sessions,
			Participants: participants,
			Connections:  manager.Relay().Connections(),
		})
		if err != nil {
			http.Error(w, "stats unavailable", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Cache-Control", "no-store")

		writeBody(cfg, w, r, errs, "stats", "application/json", http.StatusOK, append(data, '\n'), startTime)
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		data := `User-agent: *
Disallow: /party/
Disallow: /ws

User-agent: Amazonbot
Disallow: /

User-agent: Applebot-Extended
Disallow: /

User-agent: Bytespider
Disallow: /

User-agent: CCBot
Disallow: /

User-agent: ClaudeBot
Disallow: /

User-agent: Google-Extended
Disallow: /

User-agent: GPTBot
Disallow: /

User-agent: meta-externalagent
Disallow: /`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))

		writeBody(cfg, w, r, errs, "robots", "text/plain; charset=utf-8", http.StatusOK, []byte(data), startTime)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
