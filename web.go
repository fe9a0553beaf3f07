/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/watchparty/party"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second

	shutdownTimeout = 5 * time.Second
)

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func serveVersion(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		writeBody(cfg, w, r, errs, "version", "text/plain; charset=utf-8", http.StatusOK, []byte("watchparty v"+releaseVersion+"\n"), startTime)
	}
}

// server bundles the party core with the router that exposes it.
type server struct {
	manager *party.Manager
	reaper  *party.Reaper
	mux     *httprouter.Router
}

func newServer(ctx context.Context, cfg *Config, errs chan<- error) *server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics := party.NewMetrics(reg)
	registry := party.NewRegistry(log.Logger)
	relay := party.NewRelay(log.Logger, metrics)
	manager := party.NewManager(registry, relay, metrics, log.Logger)

	s := &server{
		manager: manager,
		reaper:  party.NewReaper(manager, cfg.sessionTimeout, log.Logger),
		mux:     httprouter.New(),
	}

	s.mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		log.Error().Interface("panic", i).Str("path", r.URL.Path).Str("remote", realIP(r)).Msg("handler panicked")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		_, _ = io.WriteString(w, newPage("Server Error", "An error has occurred. Please try again."))
	}

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	s.mux.GET(cfg.prefix+"/", serveHomePage(cfg, manager, errs))

	s.mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, errs))

	s.mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))

	s.mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))

	if cfg.metrics {
		s.mux.Handler("GET", cfg.prefix+"/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	if cfg.profile {
		registerProfileHandlers(cfg, s.mux)
	}

	registerWatchParty(ctx, cfg, s.mux, manager, metrics, errs)

	return s
}

func ServePage(ctx context.Context, cfg *Config, args []string) error {
	var err error

	log.Logger = newLogger(cfg, os.Stderr)

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	log.Info().Str("version", releaseVersion).Msg("START")

	errs := make(chan error, 64)
	go drainErrors(errs)

	s := newServer(ctx, cfg, errs)

	go s.reaper.Run(ctx)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           s.mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info().Msgf("SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)

		var err error
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return err
	}

	log.Info().Msg("STOP: draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
