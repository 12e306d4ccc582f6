package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// LogFilePath is where a machine-wide install appends its server log.
func LogFilePath() (string, error) {
	switch runtime.GOOS {
	case "windows":
		programData := os.Getenv("PROGRAMDATA")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		return filepath.Join(programData, AppName, "logs", "server.log"), nil
	case "linux", "darwin":
		return filepath.Join("/var/log", AppName, "server.log"), nil
	default:
		return "", errors.New("unsupported OS for machine-wide log")
	}
}
