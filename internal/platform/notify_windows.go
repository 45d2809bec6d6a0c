//go:build windows

package platform

import (
	"fmt"
	"os"
	"os/exec"
)

// toastScript shows the XML passed in ANNOTATOR_TOAST. Using the environment
// keeps user text out of the PowerShell command line.
const toastScript = `$null = [Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime]
$null = [Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime]
$doc = New-Object Windows.Data.Xml.Dom.XmlDocument
$doc.LoadXml($env:ANNOTATOR_TOAST)
$toast = New-Object Windows.UI.Notifications.ToastNotification $doc
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier($env:ANNOTATOR_TOAST_APP).Show($toast)`

// Notify shows a toast through PowerShell.
func Notify(title, body string, opts Options) error {
	cmd := exec.Command("powershell.exe", "-NoProfile", "-NonInteractive", "-Command", toastScript)
	cmd.Env = append(os.Environ(),
		"ANNOTATOR_TOAST="+toastXML(title, body, opts),
		"ANNOTATOR_TOAST_APP="+AppName,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("powershell toast: %w: %s", err, out)
	}
	return nil
}
