//go:build linux

package notify

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// epollNotifier is the Linux Notifier, backed by one epoll instance
// shared by every descriptor registered with it.
type epollNotifier struct {
	epfd int

	mu   sync.Mutex
	tags map[int]interface{}
}

// New opens a fresh epoll instance.
func New() (Notifier, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("notify: epoll_create1: %w", err)
	}
	return &epollNotifier{epfd: epfd, tags: make(map[int]interface{})}, nil
}

func (n *epollNotifier) Add(fd int, tag interface{}) error {
	n.mu.Lock()
	n.tags[fd] = tag
	n.mu.Unlock()
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(n.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("notify: epoll_ctl add fd %d: %w", fd, err)
	}
	return nil
}

func (n *epollNotifier) Remove(fd int) error {
	n.mu.Lock()
	delete(n.tags, fd)
	n.mu.Unlock()
	if err := unix.EpollCtl(n.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("notify: epoll_ctl del fd %d: %w", fd, err)
	}
	return nil
}

// Wait polls epoll in short slices so ctx cancellation is honored
// without a separate wakeup pipe.
func (n *epollNotifier) Wait(ctx context.Context) (Ready, error) {
	events := make([]unix.EpollEvent, 8)
	for {
		if err := ctx.Err(); err != nil {
			return Ready{}, err
		}
		count, err := unix.EpollWait(n.epfd, events, 250)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return Ready{}, fmt.Errorf("notify: epoll_wait: %w", err)
		}
		if count == 0 {
			continue
		}
		n.mu.Lock()
		tag, ok := n.tags[int(events[0].Fd)]
		n.mu.Unlock()
		if !ok {
			continue
		}
		return Ready{Tag: tag}, nil
	}
}

func (n *epollNotifier) Close() error {
	return unix.Close(n.epfd)
}
