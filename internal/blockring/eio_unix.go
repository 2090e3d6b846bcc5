//go:build unix

package blockring

import "syscall"

var errEIO error = syscall.EIO
