/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}

// writeBody sends data with the given status and content type, then logs
// what was served, to whom, and how long it took.
func writeBody(cfg *Config, w http.ResponseWriter, r *http.Request, errs chan<- error, page, contentType string, status int, data []byte, startTime time.Time) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	written, err := w.Write(data)
	if err != nil {
		select {
		case errs <- err:
		default:
		}

		return
	}

	log.Info().
		Str("page", page).
		Str("size", humanReadableSize(int64(written))).
		Str("remote", realIP(r)).
		Dur("elapsed", time.Since(startTime).Round(time.Microsecond)).
		Msg("SERVE")
}
