package editor

import (
	"fmt"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

// PlatformFlag names one boolean leaf of an install method's platform.
type PlatformFlag string

const (
	DesktopLinux        PlatformFlag = "desktop.linux"
	DesktopWindows      PlatformFlag = "desktop.windows"
	DesktopMacOS        PlatformFlag = "desktop.macos"
	MobileAndroid       PlatformFlag = "mobile.android"
	MobileIOS           PlatformFlag = "mobile.ios"
	WebApp              PlatformFlag = "web_app"
	BrowserExtension    PlatformFlag = "browser_extension"
	CLIOnly             PlatformFlag = "cli_only"
	HostingSelfHosted   PlatformFlag = "hosting.self_hosted"
	HostingManagedCloud PlatformFlag = "hosting.managed_cloud"
	UICLI               PlatformFlag = "ui.cli"
	UIGUI               PlatformFlag = "ui.gui"
	UIWebUI             PlatformFlag = "ui.web_ui"
	UIAPI               PlatformFlag = "ui.api"
	UITUI               PlatformFlag = "ui.tui"
)

// Group is a set of platform flags toggled together.
type Group string

const (
	GroupDesktop Group = "desktop"
	GroupMobile  Group = "mobile"
	GroupAccess  Group = "access"
	GroupHosting Group = "hosting"
	GroupUI      Group = "ui"
)

var groupFlags = map[Group][]PlatformFlag{
	GroupDesktop: {DesktopLinux, DesktopWindows, DesktopMacOS},
	GroupMobile:  {MobileAndroid, MobileIOS},
	GroupAccess:  {WebApp, BrowserExtension, CLIOnly},
	GroupHosting: {HostingSelfHosted, HostingManagedCloud},
	GroupUI:      {UICLI, UIGUI, UIWebUI, UIAPI, UITUI},
}

// ParsePlatformFlag validates a flag name such as "desktop.linux".
func ParsePlatformFlag(s string) (PlatformFlag, error) {
	f := PlatformFlag(s)
	if f.slot(&catalog.Platform{}) == nil {
		return "", fmt.Errorf("unknown platform flag %q", s)
	}
	return f, nil
}

// GroupFlags returns the flags that make up g.
func GroupFlags(g Group) []PlatformFlag {
	return append([]PlatformFlag(nil), groupFlags[g]...)
}

func (f PlatformFlag) slot(p *catalog.Platform) *bool {
	switch f {
	case DesktopLinux:
		return &p.Desktop.Linux
	case DesktopWindows:
		return &p.Desktop.Windows
	case DesktopMacOS:
		return &p.Desktop.MacOS
	case MobileAndroid:
		return &p.Mobile.Android
	case MobileIOS:
		return &p.Mobile.IOS
	case WebApp:
		return &p.WebApp
	case BrowserExtension:
		return &p.BrowserExtension
	case CLIOnly:
		return &p.CLIOnly
	case HostingSelfHosted:
		return &p.Hosting.SelfHosted
	case HostingManagedCloud:
		return &p.Hosting.ManagedCloud
	case UICLI:
		return &p.UI.CLI
	case UIGUI:
		return &p.UI.GUI
	case UIWebUI:
		return &p.UI.WebUI
	case UIAPI:
		return &p.UI.API
	case UITUI:
		return &p.UI.TUI
	}
	return nil
}

// toggleGroup clears every flag in g when all are set, otherwise sets all.
func toggleGroup(p *catalog.Platform, g Group) error {
	flags, ok := groupFlags[g]
	if !ok {
		return fmt.Errorf("unknown platform group %q", g)
	}
	all := true
	for _, f := range flags {
		if !*f.slot(p) {
			all = false
			break
		}
	}
	for _, f := range flags {
		*f.slot(p) = !all
	}
	return nil
}
