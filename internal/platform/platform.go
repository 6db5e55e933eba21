// Package platform checks OS prerequisites for raw USB printer access
// and builds remediation hints when opening a device fails.
package platform

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// CupsPrinter is a CUPS destination that may be claiming a USB interface.
type CupsPrinter struct {
	Name    string
	URI     string
	IsUSB   bool
	IsEpson bool
}

// CheckPrerequisites returns startup warnings about conditions that will
// prevent raw USB access later.
func CheckPrerequisites() []string {
	switch runtime.GOOS {
	case "darwin":
		return checkCupsConflicts()
	case "linux":
		return checkLinuxAccess()
	default:
		return nil
	}
}

func checkCupsConflicts() []string {
	var warnings []string
	for _, p := range DetectCupsPrinters() {
		if p.IsUSB && p.IsEpson {
			warnings = append(warnings, fmt.Sprintf(
				"CUPS conflict: %q is claiming USB. Remove it from System Settings > Printers & Scanners, or run: lpadmin -x %s",
				p.Name, p.Name))
		}
	}
	return warnings
}

func checkLinuxAccess() []string {
	var warnings []string
	out, err := exec.Command("groups").Output()
	if err != nil {
		return warnings
	}
	groups := string(out)
	if !strings.Contains(groups, "plugdev") && !strings.Contains(groups, "lp") {
		warnings = append(warnings,
			"Linux: current user is not in the 'plugdev' or 'lp' group, USB printer access may be denied")
	}
	return warnings
}

// DetectCupsPrinters lists CUPS destinations, tagging USB and Epson ones.
// A missing lpstat binary means no CUPS, which is fine.
func DetectCupsPrinters() []CupsPrinter {
	out, err := exec.Command("lpstat", "-v").Output()
	if err != nil {
		return nil
	}
	return parseLpstatOutput(string(out))
}

// OpenFailureHint wraps a USB open error with whatever remediation the
// local system suggests.
func OpenFailureHint(productID uint16, openErr error) string {
	base := fmt.Sprintf("failed to open USB device (PID %04x): %v", productID, openErr)
	if runtime.GOOS != "darwin" {
		return base
	}

	var conflicting []string
	for _, p := range DetectCupsPrinters() {
		if p.IsUSB && p.IsEpson {
			conflicting = append(conflicting, p.Name)
		}
	}
	if len(conflicting) == 0 {
		return base + "\nTip: on macOS, check System Settings > Privacy & Security > USB access."
	}

	fixes := make([]string, len(conflicting))
	for i, name := range conflicting {
		fixes[i] = "  lpadmin -x " + name
	}
	return fmt.Sprintf(
		"cannot open USB device (PID %04x): the CUPS driver is claiming the interface.\nConflicting CUPS printer(s): %s\nFix: remove from System Settings > Printers & Scanners, or run:\n%s",
		productID, strings.Join(conflicting, ", "), strings.Join(fixes, "\n"))
}

// parseLpstatOutput reads `lpstat -v` lines of the form
// "device for <name>: <uri>".
func parseLpstatOutput(output string) []CupsPrinter {
	var printers []CupsPrinter
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "device for ")
		if !ok {
			continue
		}
		name, uri, ok := strings.Cut(rest, ": ")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		uri = strings.TrimSpace(uri)

		printers = append(printers, CupsPrinter{
			Name:    name,
			URI:     uri,
			IsUSB:   strings.HasPrefix(uri, "usb://"),
			IsEpson: strings.Contains(strings.ToLower(uri), "epson") || strings.Contains(strings.ToLower(name), "epson"),
		})
	}
	return printers
}
