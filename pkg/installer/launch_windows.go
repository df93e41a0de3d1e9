//go:build windows

package installer

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	seeMaskNoCloseProcess = 0x00000040
	seeMaskNoAsync        = 0x00000100
	swHide                = 0

	waitObject0 = 0x00000000
	waitTimeout = 0x00000102
	pollMillis  = 250
)

var (
	shell32             = windows.NewLazySystemDLL("shell32.dll")
	procShellExecuteExW = shell32.NewProc("ShellExecuteExW")
)

// shellExecuteInfo mirrors SHELLEXECUTEINFOW.
type shellExecuteInfo struct {
	cbSize       uint32
	fMask        uint32
	hwnd         windows.Handle
	lpVerb       *uint16
	lpFile       *uint16
	lpParameters *uint16
	lpDirectory  *uint16
	nShow        int32
	hInstApp     windows.Handle
	lpIDList     uintptr
	lpClass      *uint16
	hkeyClass    windows.Handle
	dwHotKey     uint32
	hIcon        windows.Handle
	hProcess     windows.Handle
}

// Launch starts the installer with the "runas" verb so Windows prompts for
// elevation, then waits for it to exit. Cancelling ctx terminates it.
func Launch(ctx context.Context, path, args string) (int, error) {
	verb, err := windows.UTF16PtrFromString("runas")
	if err != nil {
		return 0, err
	}
	file, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	params, err := windows.UTF16PtrFromString(args)
	if err != nil {
		return 0, err
	}

	info := shellExecuteInfo{
		fMask:        seeMaskNoCloseProcess | seeMaskNoAsync,
		lpVerb:       verb,
		lpFile:       file,
		lpParameters: params,
		nShow:        swHide,
	}
	info.cbSize = uint32(unsafe.Sizeof(info))

	ret, _, callErr := procShellExecuteExW.Call(uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return 0, fmt.Errorf("ShellExecuteExW: %w", callErr)
	}
	if info.hProcess == 0 {
		return 0, fmt.Errorf("ShellExecuteExW returned no process handle")
	}
	defer windows.CloseHandle(info.hProcess)

	for {
		event, err := windows.WaitForSingleObject(info.hProcess, pollMillis)
		if err != nil {
			return 0, fmt.Errorf("waiting for installer: %w", err)
		}
		if event == waitObject0 {
			break
		}
		if event != waitTimeout {
			return 0, fmt.Errorf("unexpected wait result 0x%x", event)
		}
		select {
		case <-ctx.Done():
			_ = windows.TerminateProcess(info.hProcess, 1)
			return 0, ctx.Err()
		default:
		}
	}

	var code uint32
	if err := windows.GetExitCodeProcess(info.hProcess, &code); err != nil {
		return 0, fmt.Errorf("reading installer exit code: %w", err)
	}
	return int(code), nil
}
