package daclient

import (
	"strings"

	"github.com/jpagh/docassemblecli3/internal/log"
)

// DefaultProject is the Playground project used when none is named
const DefaultProject = "default"

// ListPlaygroundProjects returns the user's Playground project names
func (c *Client) ListPlaygroundProjects() ([]string, error) {
	var projects []string
	if err := c.get("/api/playground/project", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreatePlaygroundProject creates a named Playground project
func (c *Client) CreatePlaygroundProject(project string) error {
	_, err := c.postForm("/api/playground/project", map[string]string{"project": project}, nil, 200, 204)
	return err
}

// InstallToPlayground uploads a package ZIP into the Playground and
// returns the task ID to poll, or "" when the server finished
// synchronously (204). A missing project is created on demand and the
// upload retried once, matching the server's "Invalid project" behavior.
func (c *Client) InstallToPlayground(zipPath, project string, restart bool) (string, error) {
	form := map[string]string{}
	if project != "" && project != DefaultProject {
		form["project"] = project
	}
	if !restart {
		form["restart"] = "0"
	}

	var task taskResponse
	status, err := c.postFile("/api/playground_install", "file", zipPath, form, &task, 200, 204)
	if err != nil && status == 400 && form["project"] != "" && strings.Contains(err.Error(), "Invalid project") {
		log.InfoH2("Playground project %q not found, creating it", project)
		if createErr := c.CreatePlaygroundProject(project); createErr != nil {
			return "", createErr
		}
		status, err = c.postFile("/api/playground_install", "file", zipPath, form, &task, 200, 204)
	}
	if err != nil {
		return "", err
	}

	if status == 204 {
		return "", nil
	}
	return task.TaskID, nil
}
