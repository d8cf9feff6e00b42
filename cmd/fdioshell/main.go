// Command fdioshell is a small one-shot CLI driver over the POSIX surface,
// wiring Bootstrap and PosixOps end-to-end against a real directory. It
// exists to exercise the library from the outside, the way a teacher's
// demo CLI exercises its own core package.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/donball360/magenta/mxio"
	"github.com/donball360/magenta/transport"
)

// newContext wires a local directory in as the process root and binds a
// zap-backed LOGGER transport at logFD, the way Bootstrap would install one
// handed down from a parent process.
func newContext(root string, log *zap.Logger) (c *mxio.Context, logFD mxio.FD, err error) {
	rootTransport, status := transport.NewLocalRoot(root)
	if status != mxio.StatusOK {
		return nil, -1, fmt.Errorf("open root %q: %s", root, status)
	}

	c = mxio.NewContext(0)
	rootIO := mxio.NewIoObject(rootTransport, mxio.TransportRemote, 0)
	c.Root.Install(rootIO)

	c.Bootstrap(context.Background(), nil, func(string) (string, bool) { return "", false })

	loggerIO := mxio.NewIoObject(transport.NewLogger(log, "fdioshell"), mxio.TransportLogger, 0)
	logFD, status = c.FdTab.Bind(loggerIO, -1, 0)
	if status != mxio.StatusOK {
		return nil, -1, fmt.Errorf("bind logger: %s", status)
	}
	return c, logFD, nil
}

func newLogger() *zap.Logger {
	log, err := zap.NewDevelopment()
	if err != nil {
		log = zap.NewNop()
	}
	return log
}

func logLine(ctx context.Context, c *mxio.Context, logFD mxio.FD, format string, args ...any) {
	c.Write(ctx, logFD, []byte(fmt.Sprintf(format, args...)))
}

func main() {
	var rootDir string

	root := &cobra.Command{
		Use:   "fdioshell",
		Short: "drive the POSIX compatibility layer against a real directory",
	}
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "directory to mount as the process root")

	root.AddCommand(lsCmd(&rootDir), catCmd(&rootDir), writeCmd(&rootDir), mkdirCmd(&rootDir), statCmd(&rootDir))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func lsCmd(rootDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "list a directory's entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			log := newLogger()
			defer log.Sync()

			c, logFD, err := newContext(*rootDir, log)
			if err != nil {
				return err
			}
			ctx := context.Background()
			logLine(ctx, c, logFD, "opendir %s", path)

			dir, status := c.OpenDir(ctx, path)
			if status != mxio.StatusOK {
				return fmt.Errorf("opendir %q: %s", path, status)
			}
			defer dir.Close(ctx)

			count := 0
			for {
				entry, status := dir.Read(ctx)
				if status != mxio.StatusOK {
					return fmt.Errorf("readdir: %s", status)
				}
				if entry == nil {
					break
				}
				fmt.Println(entry.Name)
				count++
			}
			logLine(ctx, c, logFD, "opendir %s: %d entries", path, count)
			return nil
		},
	}
}

func catCmd(rootDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "print a file's contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logFD, err := newContext(*rootDir, newLogger())
			if err != nil {
				return err
			}
			ctx := context.Background()
			logLine(ctx, c, logFD, "open %s", args[0])

			fd, status := c.Open(ctx, args[0], mxio.OpenReadOnly, 0)
			if status != mxio.StatusOK {
				return fmt.Errorf("open %q: %s", args[0], status)
			}
			defer c.Close(ctx, fd)

			buf := make([]byte, 4096)
			for {
				n, status := c.Read(ctx, fd, buf)
				if status != mxio.StatusOK {
					return fmt.Errorf("read: %s", status)
				}
				if n == 0 {
					break
				}
				os.Stdout.Write(buf[:n])
			}
			return nil
		},
	}
}

func writeCmd(rootDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "write <path> <text>",
		Short: "overwrite a file with text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logFD, err := newContext(*rootDir, newLogger())
			if err != nil {
				return err
			}
			ctx := context.Background()

			flags := mxio.OpenWriteOnly | mxio.OpenCreate | mxio.OpenTruncate
			fd, status := c.Open(ctx, args[0], flags, 0644)
			if status != mxio.StatusOK {
				return fmt.Errorf("open %q: %s", args[0], status)
			}
			defer c.Close(ctx, fd)

			if _, status := c.Write(ctx, fd, []byte(args[1])); status != mxio.StatusOK {
				return fmt.Errorf("write: %s", status)
			}
			logLine(ctx, c, logFD, "wrote %d bytes to %s", len(args[1]), args[0])
			return nil
		},
	}
}

func mkdirCmd(rootDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logFD, err := newContext(*rootDir, newLogger())
			if err != nil {
				return err
			}
			ctx := context.Background()
			if status := c.Mkdir(ctx, args[0], 0755); status != mxio.StatusOK {
				return fmt.Errorf("mkdir %q: %s", args[0], status)
			}
			logLine(ctx, c, logFD, "mkdir %s", args[0])
			return nil
		},
	}
}

func statCmd(rootDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "print a path's attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logFD, err := newContext(*rootDir, newLogger())
			if err != nil {
				return err
			}
			ctx := context.Background()
			st, status := c.Stat(ctx, args[0])
			if status != mxio.StatusOK {
				return fmt.Errorf("stat %q: %s", args[0], status)
			}
			fmt.Printf("mode=%#o size=%d nlink=%d mtime=%d.%09d\n",
				st.Mode, st.Size, st.NLink, st.ModifySec, st.ModifyNsec)
			logLine(ctx, c, logFD, "stat %s: size=%d", args[0], st.Size)
			return nil
		},
	}
}
