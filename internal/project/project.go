package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/piwi3910/tubenest/internal/model"
)

// FormatVersion is written to every project file. Files with another major
// version are rejected.
const FormatVersion = "1.0.0"

// File is the on-disk envelope of a project.
type File struct {
	Version string        `json:"version"`
	SavedAt string        `json:"saved_at"`
	Project model.Project `json:"project"`
}

// SaveProject writes p to path as indented JSON, creating parent directories.
func SaveProject(path string, p model.Project) error {
	file := File{
		Version: FormatVersion,
		SavedAt: time.Now().UTC().Format(time.RFC3339),
		Project: p,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}

// LoadProject reads a project file written by SaveProject.
func LoadProject(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to read project file: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return model.Project{}, fmt.Errorf("failed to parse project file: %w", err)
	}
	if file.Version == "" {
		return model.Project{}, fmt.Errorf("invalid project file: missing version field")
	}
	if major(file.Version) != major(FormatVersion) {
		return model.Project{}, fmt.Errorf("unsupported project file version %s (want %s.x)", file.Version, major(FormatVersion))
	}

	p := file.Project
	if p.Parts == nil {
		p.Parts = []model.Part{}
	}
	if p.Result != nil && p.Result.Tubes == nil {
		p.Result.Tubes = []model.Tube{}
	}
	return p, nil
}

func major(version string) string {
	v, _, _ := strings.Cut(version, ".")
	return v
}
