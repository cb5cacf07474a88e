//go:build linux || darwin

package cputime

import "syscall"

func init() {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return
	}
	Supported = true
	Now = func() int64 {
		var r syscall.Rusage
		if err := syscall.Getrusage(syscall.RUSAGE_SELF, &r); err != nil {
			return 0
		}
		user := r.Utime.Sec*1e9 + int64(r.Utime.Usec)*1e3
		sys := r.Stime.Sec*1e9 + int64(r.Stime.Usec)*1e3
		return user + sys
	}
}
