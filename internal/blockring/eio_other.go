//go:build !unix

package blockring

import "errors"

var errEIO error = errors.New("blockring: eio (unsupported platform)")
