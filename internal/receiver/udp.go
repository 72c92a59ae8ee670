/*
NAME
  udp.go

DESCRIPTION
  udp.go implements the UDP receiver that reads one MPEG-TS packet per
  datagram from a configured listening address.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package receiver implements the UDP datagram receiver feeding the
// ingestion pipeline.
package receiver

import (
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/ausocean/tscut/internal/mts"
)

// idleDeadline bounds each read so that an idle socket does not block
// forever; a read that times out is reported as a transient error.
const idleDeadline = 5 * time.Second

// Receiver reads MPEG-TS packets from a UDP socket, one packet per
// datagram as the upstream ffmpeg process is configured to emit.
type Receiver struct {
	conn *net.UDPConn
	buf  [mts.PacketSize + 1]byte // one spare byte so oversized datagrams are detected
}

// New binds a UDP socket to addr (host:port) and returns a Receiver ready
// to read from it.
func New(addr string) (*Receiver, error) {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "could not resolve udp address")
	}
	conn, err := net.ListenUDP("udp", a)
	if err != nil {
		return nil, errors.Wrap(err, "could not listen on udp socket")
	}
	return &Receiver{conn: conn}, nil
}

// Close releases the underlying socket.
func (r *Receiver) Close() error { return r.conn.Close() }

// errShortRead and errLongRead classify a malformed datagram for the
// caller without treating it as a fatal receiver error.
var (
	errShortRead = errors.New("datagram shorter than one ts packet")
	errLongRead  = errors.New("datagram longer than one ts packet")
)

// Read blocks until one datagram is available and returns its bytes. It
// returns errShortRead or errLongRead (non-fatal, the caller should drop
// the packet and continue) if the datagram isn't exactly one TS packet,
// and errShortRead as well if no datagram arrives within idleDeadline;
// any other error is a fatal socket failure, per §4.1's "socket errors are
// fatal" contract.
func (r *Receiver) Read() ([]byte, error) {
	if err := r.conn.SetReadDeadline(time.Now().Add(idleDeadline)); err != nil {
		return nil, errors.Wrap(err, "could not set read deadline")
	}
	n, _, err := r.conn.ReadFromUDP(r.buf[:])
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, errShortRead
		}
		return nil, errors.Wrap(err, "socket read failed")
	}
	switch {
	case n < mts.PacketSize:
		return nil, errShortRead
	case n > mts.PacketSize:
		return nil, errLongRead
	}
	return r.buf[:n], nil
}

// IsTransient reports whether err is a non-fatal per-datagram condition
// that should be logged and skipped rather than terminating the receiver.
func IsTransient(err error) bool {
	return errors.Is(err, errShortRead) || errors.Is(err, errLongRead)
}
