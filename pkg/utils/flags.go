//go:build windows

package utils

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// PatchWindowsArgs rebuilds os.Args from the raw command line so catalog and
// config paths with spaces (C:\Program Files\...) reach pflag intact.
// appbundle calls it first thing in main, before pflag.Parse.
func PatchWindowsArgs() {
	cmdLinePtr := windows.GetCommandLine()
	if cmdLinePtr == nil {
		return
	}
	var argc int32
	argvPtr, err := windows.CommandLineToArgv(cmdLinePtr, &argc)
	if err != nil || argvPtr == nil || argc < 1 {
		return
	}
	defer windows.LocalFree(windows.Handle(uintptr(unsafe.Pointer(argvPtr))))

	args := make([]string, 0, argc)
	for _, p := range unsafe.Slice((**uint16)(unsafe.Pointer(argvPtr)), argc) {
		if p != nil {
			args = append(args, windows.UTF16PtrToString(p))
		}
	}
	os.Args = args
}
