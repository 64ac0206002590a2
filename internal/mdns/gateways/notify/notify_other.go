//go:build !linux

package notify

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

// pollNotifier is the Notifier for non-Linux unix platforms, backed by
// unix.Poll over the registered descriptor set.
type pollNotifier struct {
	fds  []int32
	tags map[int]interface{}
}

// New builds a poll-based Notifier.
func New() (Notifier, error) {
	return &pollNotifier{tags: make(map[int]interface{})}, nil
}

func (n *pollNotifier) Add(fd int, tag interface{}) error {
	n.fds = append(n.fds, int32(fd))
	n.tags[fd] = tag
	return nil
}

func (n *pollNotifier) Remove(fd int) error {
	for i, f := range n.fds {
		if int(f) == fd {
			n.fds = append(n.fds[:i], n.fds[i+1:]...)
			break
		}
	}
	delete(n.tags, fd)
	return nil
}

func (n *pollNotifier) Wait(ctx context.Context) (Ready, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Ready{}, err
		}
		fds := make([]unix.PollFd, len(n.fds))
		for i, fd := range n.fds {
			fds[i] = unix.PollFd{Fd: fd, Events: unix.POLLIN}
		}
		count, err := unix.Poll(fds, 250)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return Ready{}, fmt.Errorf("notify: poll: %w", err)
		}
		if count == 0 {
			continue
		}
		for _, pfd := range fds {
			if pfd.Revents&unix.POLLIN != 0 {
				return Ready{Tag: n.tags[int(pfd.Fd)]}, nil
			}
		}
	}
}

func (n *pollNotifier) Close() error {
	return nil
}
