package serial

import (
	"time"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

var baudFlags = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

// Port is io.Reader over the tty. Read returns ErrTimeout
// when nothing arrived within ReadTimeout.
type Port struct {
	fd      int
	timeout time.Duration
}

func Open(c Config) (*Port, error) {
	speed, ok := baudFlags[c.baud()]
	if !ok {
		return nil, errors.NotSupportedf("serial baud=%d", c.baud())
	}
	fd, err := unix.Open(c.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC|unix.O_NONBLOCK, 0600)
	if err != nil {
		return nil, errors.Annotatef(err, "serial open device=%s", c.Device)
	}
	t := &unix.Termios{
		Iflag:  unix.IGNBRK,
		Cflag:  unix.CS8 | unix.CREAD | unix.CLOCAL | speed,
		Ispeed: speed,
		Ospeed: speed,
	}
	switch c.Parity {
	case ParityEven:
		t.Cflag |= unix.PARENB
		t.Iflag |= unix.INPCK
	case ParityOdd:
		t.Cflag |= unix.PARENB | unix.PARODD
		t.Iflag |= unix.INPCK
	}
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0
	if err = unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		unix.Close(fd)
		return nil, errors.Annotatef(err, "serial termios device=%s", c.Device)
	}
	return &Port{fd: fd, timeout: c.readTimeout()}, nil
}

func (self *Port) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	fds := []unix.PollFd{{Fd: int32(self.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, int(self.timeout/time.Millisecond))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, errors.Annotate(err, "serial poll")
		}
		if n == 0 {
			return 0, ErrTimeout
		}
		break
	}
	n, err := unix.Read(self.fd, p)
	switch {
	case err == unix.EAGAIN:
		return 0, ErrTimeout
	case err != nil:
		return 0, errors.Annotate(err, "serial read")
	case n == 0 && fds[0].Revents&unix.POLLHUP != 0:
		return 0, errors.Errorf("serial hangup")
	}
	return n, nil
}

func (self *Port) Close() error {
	if self.fd < 0 {
		return nil
	}
	err := unix.Close(self.fd)
	self.fd = -1
	return err
}
