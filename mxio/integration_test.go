package mxio_test

import (
	"context"
	"testing"
	"time"

	"github.com/donball360/magenta/mxio"
	"github.com/donball360/magenta/transport"
)

func TestPipeEcho(t *testing.T) {
	c := mxio.NewContext(16)
	ctx := context.Background()

	fds, status := c.Pipe(ctx, transport.NewPipePair)
	if status != mxio.StatusOK {
		t.Fatalf("Pipe: %s", status)
	}
	defer c.Close(ctx, fds[0])
	defer c.Close(ctx, fds[1])

	msg := []byte("hello")
	if n, status := c.Write(ctx, fds[1], msg); status != mxio.StatusOK || n != len(msg) {
		t.Fatalf("Write = %d, %s; want %d, StatusOK", n, status, len(msg))
	}

	buf := make([]byte, 16)
	n, status := c.Read(ctx, fds[0], buf)
	if status != mxio.StatusOK {
		t.Fatalf("Read: %s", status)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("Read = %q; want hello", buf[:n])
	}
}

func TestPipeBlockingReadUnblocksOnWrite(t *testing.T) {
	c := mxio.NewContext(16)
	ctx := context.Background()

	fds, status := c.Pipe(ctx, transport.NewPipePair)
	if status != mxio.StatusOK {
		t.Fatalf("Pipe: %s", status)
	}
	defer c.Close(ctx, fds[0])
	defer c.Close(ctx, fds[1])

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(20 * time.Millisecond)
		c.Write(ctx, fds[1], []byte("x"))
	}()

	buf := make([]byte, 1)
	n, status := c.Read(ctx, fds[0], buf)
	<-done
	if status != mxio.StatusOK || n != 1 {
		t.Fatalf("blocking Read = %d, %s; want 1, StatusOK", n, status)
	}
}

func TestPipeNonBlockingReadReturnsShouldWait(t *testing.T) {
	c := mxio.NewContext(16)
	ctx := context.Background()

	fds, status := c.Pipe2(ctx, mxio.Pipe2NonBlock, transport.NewPipePair)
	if status != mxio.StatusOK {
		t.Fatalf("Pipe2: %s", status)
	}
	defer c.Close(ctx, fds[0])
	defer c.Close(ctx, fds[1])

	buf := make([]byte, 1)
	_, status = c.Read(ctx, fds[0], buf)
	if status != mxio.ErrShouldWait {
		t.Fatalf("nonblocking Read on empty pipe = %s; want ErrShouldWait", status)
	}
}

func TestDup2NoopWhenSameFD(t *testing.T) {
	c := mxio.NewContext(16)
	ctx := context.Background()

	fds, _ := c.Pipe(ctx, transport.NewPipePair)
	defer c.Close(ctx, fds[0])
	defer c.Close(ctx, fds[1])

	got, status := c.Dup2(fds[0], fds[0])
	if status != mxio.StatusOK || got != fds[0] {
		t.Fatalf("Dup2(fd, fd) = %d, %s; want %d, StatusOK", got, status, fds[0])
	}
}

func TestDup3RejectsSameFD(t *testing.T) {
	c := mxio.NewContext(16)
	ctx := context.Background()

	fds, _ := c.Pipe(ctx, transport.NewPipePair)
	defer c.Close(ctx, fds[0])
	defer c.Close(ctx, fds[1])

	if _, status := c.Dup3(fds[0], fds[0], 0); status != mxio.ErrInvalidArgs {
		t.Fatalf("Dup3(fd, fd) = %s; want ErrInvalidArgs", status)
	}
}
