package myfabtotum

import (
	"context"
	"net"
	"time"
)

// Probe checks internet connectivity by opening a TCP connection to addr.
type Probe struct {
	addr    string
	timeout time.Duration
}

func NewProbe(addr string) *Probe {
	return &Probe{addr: addr, timeout: 3 * time.Second}
}

// Available reports whether addr accepted a connection within the timeout.
func (p *Probe) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
