/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "WATCHPARTY"
	minMaxMessageSize = 512
)

type Config struct {
	bind           string
	clientURL      string
	maxMessageSize int64
	metrics        bool
	port           int
	prefix         string
	profile        bool
	rateBurst      int
	rateLimit      float64
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.sessionTimeout < 0 {
		return fmt.Errorf("invalid session timeout (must be 0 or positive): %s", c.sessionTimeout)
	}
	if c.rateLimit <= 0 || c.rateBurst <= 0 {
		return fmt.Errorf("invalid rate limit (must be positive): %v/s, burst %d", c.rateLimit, c.rateBurst)
	}
	if c.maxMessageSize < minMaxMessageSize {
		return fmt.Errorf("invalid max message size (must be at least %d): %d", minMaxMessageSize, c.maxMessageSize)
	}
	if c.clientURL != "" {
		u, err := url.Parse(c.clientURL)
		if err != nil {
			return fmt.Errorf("invalid client url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid client url (must be absolute): %s", c.clientURL)
		}
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "watchparty",
		Short:         "Keeps small groups of video players in sync over websockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WATCHPARTY_BIND)")
	fs.StringVar(&cfg.clientURL, "client-url", "", "base url of the web client, used in invite qr codes (env: WATCHPARTY_CLIENT_URL)")
	fs.Int64Var(&cfg.maxMessageSize, "max-message-size", 4096, "maximum size in bytes of a single client frame (env: WATCHPARTY_MAX_MESSAGE_SIZE)")
	fs.BoolVar(&cfg.metrics, "metrics", false, "expose prometheus metrics at /metrics (env: WATCHPARTY_METRICS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: WATCHPARTY_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: WATCHPARTY_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: WATCHPARTY_PROFILE)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 40, "events a single connection may send in a burst (env: WATCHPARTY_RATE_BURST)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 20, "sustained events per second allowed per connection (env: WATCHPARTY_RATE_LIMIT)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 0, "close parties idle for this long, 0 keeps them until empty (env: WATCHPARTY_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: WATCHPARTY_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: WATCHPARTY_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: WATCHPARTY_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: WATCHPARTY_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("watchparty v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
