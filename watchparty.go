/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Watchparty transport
//
// Each browser tab opens one websocket to <prefix>/ws and speaks the JSON
// frames of the party package over it. This file owns everything that is
// specific to websockets; session rules live in the party package.
//
// Features:
// - One UUID per websocket connection, announced in a "connected" frame
// - Bounded outbound queue per connection, full queues drop frames
// - Server pings every 54s, silent connections are closed after 60s
// - Per-connection token bucket on inbound frames
// - Malformed frames are dropped, oversized frames close the socket
// - Invite QR codes for live parties, backed by go-qrcode

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Seednode/watchparty/party"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendQueueSize = 32
	qrSize        = 320
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. It satisfies party.Conn.
type Client struct {
	id      party.ConnID
	conn    *websocket.Conn
	send    chan any
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	log     zerolog.Logger
}

func newClient(cfg *Config, conn *websocket.Conn, remote string) *Client {
	id := party.ConnID(uuid.NewString())

	return &Client{
		id:      id,
		conn:    conn,
		send:    make(chan any, sendQueueSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(cfg.rateLimit), cfg.rateBurst),
		log:     log.With().Str("conn", string(id)).Str("remote", remote).Logger(),
	}
}

func (c *Client) ID() party.ConnID { return c.id }

// Send queues msg for the write pump without blocking.
func (c *Client) Send(msg any) error {
	select {
	case <-c.done:
		return party.ErrConnClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return party.ErrSendBufferFull
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) readPump(cfg *Config, manager *party.Manager, metrics *party.Metrics) {
	defer c.close()

	c.conn.SetReadLimit(cfg.maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.log.Debug().Err(err).Msg("read failed")
			}
			return
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !c.limiter.Allow() {
			metrics.Rejected("rate_limited")
			c.log.Debug().Msg("frame dropped, rate limited")
			continue
		}

		var msg party.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			metrics.Rejected("malformed")
			c.log.Debug().Err(err).Msg("frame dropped, malformed")
			continue
		}

		manager.Dispatch(c.id, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				c.close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// serveWS upgrades the request and runs the connection until either side
// goes away or ctx is cancelled, then removes it from its party.
func serveWS(ctx context.Context, cfg *Config, manager *party.Manager, metrics *party.Metrics) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug().Err(err).Str("remote", realIP(r)).Msg("upgrade failed")
			return
		}

		c := newClient(cfg, conn, realIP(r))

		manager.Connect(c)
		c.log.Info().Msg("CONNECT")

		go c.writePump()

		go func() {
			select {
			case <-ctx.Done():
				c.close()
			case <-c.done:
			}
		}()

		c.readPump(cfg, manager, metrics)

		manager.Disconnect(c.id)
		c.log.Info().Msg("DISCONNECT")
	}
}

// inviteURL is the link encoded in a party's QR code.
func inviteURL(cfg *Config, r *http.Request, roomID string) string {
	if cfg.clientURL != "" {
		u, err := url.Parse(cfg.clientURL)
		if err == nil {
			q := u.Query()
			q.Set("room", roomID)
			u.RawQuery = q.Encode()
			return u.String()
		}
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + cfg.prefix + "/?room=" + url.QueryEscape(roomID)
}

// serveQR renders a PNG QR code inviting people to a live party.
func serveQR(cfg *Config, manager *party.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		roomID := ps.ByName("roomid")
		if _, ok := manager.Registry().Get(roomID); !ok {
			http.NotFound(w, r)
			return
		}

		png, err := qrcode.Encode(inviteURL(cfg, r, roomID), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Cache-Control", "no-store")

		writeBody(cfg, w, r, errs, "qr", "image/png", http.StatusOK, png, startTime)
	}
}

// registerWatchParty sets up routes so that:
//   - <prefix>/ws                → websocket for all parties
//   - <prefix>/party/:roomid/qr  → PNG invite QR for a live party
//   - <prefix>/stats             → live counts as JSON
func registerWatchParty(ctx context.Context, cfg *Config, mux *httprouter.Router, manager *party.Manager, metrics *party.Metrics, errs chan<- error) {
	mux.GET(cfg.prefix+"/ws", serveWS(ctx, cfg, manager, metrics))

	mux.GET(cfg.prefix+"/party/:roomid/qr", serveQR(cfg, manager, errs))

	mux.GET(cfg.prefix+"/stats", serveStats(cfg, manager, errs))
}
