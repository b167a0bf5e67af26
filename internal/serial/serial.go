// Package serial opens a Linux serial device as an acquire.Source. The port
// is configured for raw 8N1 operation with a bounded read timeout, so the
// acquisition loop never blocks longer than the timeout on a quiet link.
package serial

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/roman-kulish/adc-capture/internal/acquire"
)

// Config holds the parameters for opening a serial port.
type Config struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration // rounded up to deciseconds, min 100ms
}

// Port is an open serial device. Read returns acquire.ErrTimeout when the
// read timeout expires with no data. Safe for one reader plus Close from
// another goroutine; Close is idempotent.
type Port struct {
	fd        int
	device    string
	closeOnce sync.Once
	closeErr  error
}

// Open opens and configures the serial device described by cfg.
func Open(cfg Config) (*Port, error) {
	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NOCTTY, 0o666)
	if err != nil {
		return nil, fmt.Errorf("serial: opening %s: %w", cfg.Device, err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("serial: getting termios: %w", err)
	}

	// Raw mode, 8N1
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL

	baud := baudToUnix(cfg.BaudRate)
	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baud

	// VMIN=0 with VTIME>0 makes read() return 0 after the timeout with no
	// data, which Read maps to acquire.ErrTimeout.
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = timeoutDeciseconds(cfg.ReadTimeout)

	if err = unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("serial: setting termios: %w", err)
	}

	return &Port{fd: fd, device: cfg.Device}, nil
}

// Read reads up to len(p) bytes from the port. A timeout with no data yields
// acquire.ErrTimeout; interrupted reads are retried.
func (p *Port) Read(buf []byte) (int, error) {
	for {
		n, err := unix.Read(p.fd, buf)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return 0, fmt.Errorf("serial: reading %s: %w", p.device, err)
		case n == 0:
			return 0, acquire.ErrTimeout
		default:
			return n, nil
		}
	}
}

// Write writes p to the port.
func (p *Port) Write(buf []byte) (int, error) {
	n, err := unix.Write(p.fd, buf)
	if err != nil {
		return n, fmt.Errorf("serial: writing %s: %w", p.device, err)
	}
	return n, nil
}

// Close closes the port. Safe to call multiple times.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		if err := unix.Close(p.fd); err != nil {
			p.closeErr = fmt.Errorf("serial: closing %s: %w", p.device, err)
		}
	})
	return p.closeErr
}

func timeoutDeciseconds(d time.Duration) uint8 {
	ds := (d + 100*time.Millisecond - 1) / (100 * time.Millisecond)
	if ds < 1 {
		return 1
	}
	if ds > 255 {
		return 255
	}
	return uint8(ds)
}

func baudToUnix(baud int) uint32 {
	switch baud {
	case 9600:
		return unix.B9600
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 115200:
		return unix.B115200
	case 230400:
		return unix.B230400
	case 460800:
		return unix.B460800
	case 921600:
		return unix.B921600
	case 1000000:
		return unix.B1000000
	default:
		return unix.B1000000 // instrument default
	}
}
