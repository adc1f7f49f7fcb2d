package config

import (
	"runtime"
)

// PlatformDefaults returns platform-specific default values
type PlatformDefaults struct {
	LogFile    string
	ConfigPath string
	ReportDir  string
}

// GetPlatformDefaults returns platform-specific defaults based on runtime.GOOS
func GetPlatformDefaults() PlatformDefaults {
	switch runtime.GOOS {
	case "windows":
		return PlatformDefaults{
			LogFile:    `C:\ProgramData\svcctl\svcctl.log`,
			ConfigPath: `C:\ProgramData\svcctl\config.yaml`,
			ReportDir:  `C:\ProgramData\svcctl\reports`,
		}
	case "linux":
		return PlatformDefaults{
			LogFile:    "/var/log/svcctl/svcctl.log",
			ConfigPath: "/etc/svcctl/config.yaml",
			ReportDir:  "/var/lib/svcctl/reports",
		}
	case "freebsd":
		return PlatformDefaults{
			LogFile:    "/var/log/svcctl/svcctl.log",
			ConfigPath: "/usr/local/etc/svcctl/config.yaml",
			ReportDir:  "/var/db/svcctl/reports",
		}
	default:
		// Fallback to Linux-like defaults for unknown platforms
		return PlatformDefaults{
			LogFile:    "/var/log/svcctl/svcctl.log",
			ConfigPath: "/etc/svcctl/config.yaml",
			ReportDir:  "/var/lib/svcctl/reports",
		}
	}
}

// GetDefaultConfigPath returns the platform-specific default config path
func GetDefaultConfigPath() string {
	return GetPlatformDefaults().ConfigPath
}
