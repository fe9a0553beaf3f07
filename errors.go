/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func newLogger(cfg *Config, w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	if cfg.verbose {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: logDate}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// drainErrors logs write failures reported by handlers until errs is closed.
func drainErrors(errs <-chan error) {
	for err := range errs {
		log.Error().Err(err).Msg("write failed")
	}
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body{height:100%;margin:0;font-family:sans-serif;background:#111;color:#eee;}`)
	htmlBody.WriteString(`main{display:flex;flex-direction:column;align-items:center;justify-content:center;height:100%;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf("<body><main>%s</main></body></html>", body))

	return htmlBody.String()
}
