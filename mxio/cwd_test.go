package mxio_test

import (
	"testing"

	"github.com/donball360/magenta/mxio"
)

func TestCwdUpdateAbsolute(t *testing.T) {
	c := mxio.NewCwdTracker()
	c.Update("/foo/bar")
	if got := c.Path(); got != "/foo/bar" {
		t.Fatalf("Path() = %q; want /foo/bar", got)
	}
}

func TestCwdUpdateRelativeAppends(t *testing.T) {
	c := mxio.NewCwdTracker()
	c.Update("/a/b")
	c.Update("c/d")
	if got := c.Path(); got != "/a/b/c/d" {
		t.Fatalf("Path() = %q; want /a/b/c/d", got)
	}
}

func TestCwdUpdateDotDotPopsSegment(t *testing.T) {
	c := mxio.NewCwdTracker()
	c.Update("/a/b/c")
	c.Update("../..")
	if got := c.Path(); got != "/a" {
		t.Fatalf("Path() = %q; want /a", got)
	}
}

func TestCwdUpdateDotDotAtRootIsNoop(t *testing.T) {
	c := mxio.NewCwdTracker()
	c.Update("..")
	if got := c.Path(); got != "/" {
		t.Fatalf("Path() = %q; want /", got)
	}
}

func TestCwdUpdateSkipsEmptyAndDotSegments(t *testing.T) {
	c := mxio.NewCwdTracker()
	c.Update("/a//./b/")
	if got := c.Path(); got != "/a/b" {
		t.Fatalf("Path() = %q; want /a/b", got)
	}
}

func TestGetcwdBufferTooSmall(t *testing.T) {
	c := mxio.NewCwdTracker()
	c.Update("/a/b/c")
	buf := make([]byte, 2)
	if _, status := c.Getcwd(buf); status != mxio.ErrOutOfRange {
		t.Fatalf("Getcwd with a too-small buffer = %s; want ErrOutOfRange", status)
	}
}

func TestGetcwdCopiesIntoBuffer(t *testing.T) {
	c := mxio.NewCwdTracker()
	c.Update("/a/b")
	buf := make([]byte, 16)
	got, status := c.Getcwd(buf)
	if status != mxio.StatusOK || got != "/a/b" {
		t.Fatalf("Getcwd = %q, %s; want /a/b, StatusOK", got, status)
	}
}
