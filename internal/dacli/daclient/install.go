package daclient

import (
	"fmt"
	"time"

	dacerrors "github.com/jpagh/docassemblecli3/internal/dacli/errors"
	"github.com/jpagh/docassemblecli3/internal/dacli/packaging"
	"github.com/jpagh/docassemblecli3/internal/log"
)

// taskResponse is returned by the install endpoints
type taskResponse struct {
	TaskID string `json:"task_id"`
}

// TaskStatus is the server's view of a running install or restart
type TaskStatus struct {
	Status       string `json:"status"`
	OK           bool   `json:"ok"`
	ErrorMessage string `json:"error_message"`
}

// ListPackages fetches the server's installed packages. Also used as the
// cheapest credential check.
func (c *Client) ListPackages() ([]packaging.InstalledPackage, error) {
	var packages []packaging.InstalledPackage
	if err := c.get("/api/package", nil, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

// CheckCredentials verifies the URL and API key against the package
// endpoint
func (c *Client) CheckCredentials() error {
	_, err := c.ListPackages()
	return err
}

// ServerVersion returns the installed docassemble core version, or "0"
// when it cannot be determined
func (c *Client) ServerVersion() (string, error) {
	packages, err := c.ListPackages()
	if err != nil {
		return "0", err
	}
	for _, pkg := range packages {
		if pkg.Name == "docassemble" {
			return pkg.Version, nil
		}
	}
	return "0", nil
}

// InstallPackage uploads a package ZIP to the server and returns the
// task ID to poll. When restart is false the server is told to skip the
// post-install restart.
func (c *Client) InstallPackage(zipPath string, restart bool) (string, error) {
	form := map[string]string{}
	if !restart {
		form["restart"] = "0"
	}

	var task taskResponse
	if _, err := c.postFile("/api/package", "zip", zipPath, form, &task, 200); err != nil {
		return "", err
	}
	if task.TaskID == "" {
		return "", fmt.Errorf("server did not return a task_id")
	}
	return task.TaskID, nil
}

// ClearCache invalidates the server's interview cache; called after a
// no-restart install so changes become visible
func (c *Client) ClearCache() error {
	_, err := c.post("/api/clear_cache", nil, 204)
	return err
}

// WaitUntilReady polls the install status endpoint until the task
// completes or the poll budget is exhausted. The playground flag selects
// the endpoint and the success criterion, mirroring the server API.
func (c *Client) WaitUntilReady(playground bool, taskID string) error {
	path := "/api/package_update_status"
	if playground {
		path = "/api/restart_status"
	}

	var status TaskStatus
	settled := false
	for tries := 0; tries < c.MaxPolls; tries++ {
		status = TaskStatus{}
		if err := c.get(path, map[string]string{"task_id": taskID}, &status); err != nil {
			if dacerrors.Is(err, dacerrors.ErrAPIConnection) {
				// The server may be mid-restart; keep polling
				log.DebugH2("Status poll failed, retrying: %v", err)
				time.Sleep(c.PollInterval)
				continue
			}
			return err
		}
		if status.Status == "completed" || status.Status == "unknown" {
			settled = true
			break
		}
		time.Sleep(c.PollInterval)
	}

	if !settled {
		return dacerrors.ErrStatusTimedOut
	}

	success := status.OK
	if playground {
		success = status.Status == "completed"
	}
	if !success {
		if status.ErrorMessage != "" {
			return dacerrors.Wrapf(dacerrors.ErrInstallFailed, "%s", status.ErrorMessage)
		}
		return dacerrors.ErrInstallFailed
	}
	return nil
}
