// Package listener receives raw receiver output over UDP.
package listener

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	readBufferSize = 65536
	readTimeout    = 1 * time.Second
	idleLogEvery   = 30 * time.Second

	// maxConsecutiveErrors bounds how many read failures in a row we
	// tolerate before giving up on the socket.
	maxConsecutiveErrors = 10
)

// Handler receives one datagram payload and its source address.
type Handler func(data []byte, addr net.Addr)

// UDP listens for datagrams on a host:port and hands each payload to a
// handler on the read goroutine.
type UDP struct {
	host    string
	port    int
	handler Handler
	logger  *logrus.Logger

	conn *net.UDPConn
	wg   sync.WaitGroup

	mu                sync.Mutex
	datagramsReceived uint64
	bytesReceived     uint64
	readErrors        uint64
}

// NewUDP creates a listener bound to host:port once started.
func NewUDP(host string, port int, handler Handler, logger *logrus.Logger) *UDP {
	return &UDP{
		host:    host,
		port:    port,
		handler: handler,
		logger:  logger,
	}
}

// Start binds the socket and launches the read loop. The loop exits
// when ctx is cancelled or too many consecutive reads fail.
func (u *UDP) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", u.host, u.port))
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind UDP socket: %w", err)
	}
	u.conn = conn

	u.logger.WithFields(logrus.Fields{
		"host": u.host,
		"port": u.port,
	}).Info("UDP listener started")

	u.wg.Add(1)
	go u.readLoop(ctx)
	return nil
}

func (u *UDP) readLoop(ctx context.Context) {
	defer u.wg.Done()

	buf := make([]byte, readBufferSize)
	consecutiveErrors := 0
	lastActivity := time.Now()
	lastIdleLog := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := u.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			u.logger.WithError(err).Error("Failed to set read deadline")
			return
		}

		n, addr, err := u.conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				if time.Since(lastActivity) > idleLogEvery && time.Since(lastIdleLog) > idleLogEvery {
					u.logger.WithField("idle", time.Since(lastActivity).Round(time.Second)).Debug("No datagrams received")
					lastIdleLog = time.Now()
				}
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
			}

			u.mu.Lock()
			u.readErrors++
			u.mu.Unlock()

			consecutiveErrors++
			u.logger.WithError(err).Warn("UDP read error")
			if consecutiveErrors >= maxConsecutiveErrors {
				u.logger.Error("Too many consecutive read errors, stopping listener")
				return
			}
			continue
		}

		consecutiveErrors = 0
		lastActivity = time.Now()

		u.mu.Lock()
		u.datagramsReceived++
		u.bytesReceived += uint64(n)
		u.mu.Unlock()

		payload := make([]byte, n)
		copy(payload, buf[:n])
		u.handler(payload, addr)
	}
}

// Addr returns the bound socket address, nil before Start.
func (u *UDP) Addr() net.Addr {
	if u.conn == nil {
		return nil
	}
	return u.conn.LocalAddr()
}

// Stop closes the socket and waits for the read loop to exit.
func (u *UDP) Stop() {
	if u.conn != nil {
		u.conn.Close()
	}
	u.wg.Wait()
	u.logger.Info("UDP listener stopped")
}

// Stats returns a snapshot of listener counters.
func (u *UDP) Stats() map[string]float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return map[string]float64{
		"datagrams_received": float64(u.datagramsReceived),
		"bytes_received":     float64(u.bytesReceived),
		"read_errors":        float64(u.readErrors),
	}
}
