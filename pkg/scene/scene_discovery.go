package scene

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

const (
	builtInGroup = "Built-in Scenes"
	fileGroup    = "Scene Files"

	fileIDPrefix = "file:"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to the scene file (file type only)
	Variant     string `json:"variant"`     // Variant name (optional)
	Objects     int    `json:"objects"`     // Number of spheres
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// FindScenesDir returns the first existing scenes directory, or "" if there is none
func FindScenesDir() string {
	for _, path := range []string{"scenes", "../scenes"} {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}
	return ""
}

// ListSceneFiles scans dir for .json, .yaml and .yml scene files. Files that fail to
// parse are reported through logger and skipped.
func ListSceneFiles(ctx context.Context, dir string, logger core.Logger) ([]SceneInfo, error) {
	scenes := []SceneInfo{}
	if dir == "" {
		return scenes, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("while scanning scenes directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filePath := filepath.Join(dir, entry.Name())
		if _, err := FormatForPath(filePath); err != nil {
			continue
		}

		sceneInfo, err := ReadSceneInfo(ctx, filePath)
		if err != nil {
			// Log warning but continue processing other files
			logger.Printf("Warning: skipping scene file %s: %v\n", filePath, err)
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	// Sort scenes by display name
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ReadSceneInfo loads a scene file and describes it, falling back to the file name
// for anything its metadata leaves out
func ReadSceneInfo(ctx context.Context, filePath string) (SceneInfo, error) {
	nameWithoutExt := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	s, err := Load(ctx, filePath)
	if err != nil {
		return SceneInfo{}, err
	}

	sceneInfo := SceneInfo{
		ID:          fileIDPrefix + nameWithoutExt,
		Name:        titleCase(nameWithoutExt),
		Description: s.Metadata.Description,
		Group:       fileGroup,
		Type:        "file",
		FilePath:    filePath,
		Variant:     s.Metadata.Variant,
		Objects:     s.GetPrimitiveCount(),
	}
	if s.Metadata.Name != "" {
		sceneInfo.Name = s.Metadata.Name
	}
	if s.Metadata.Group != "" {
		sceneInfo.Group = s.Metadata.Group
	}

	sceneInfo.DisplayName = sceneInfo.Name
	if sceneInfo.Variant != "" {
		sceneInfo.DisplayName = fmt.Sprintf("%s - %s", sceneInfo.Name, sceneInfo.Variant)
	}

	return sceneInfo, nil
}

// ListAllScenes returns built-in scenes and the scene files in dir, grouped by category
func ListAllScenes(ctx context.Context, dir string, logger core.Logger) (ScenesResponse, error) {
	var response ScenesResponse

	var allScenes []SceneInfo
	for _, name := range BuiltInNames() {
		b := builtIns[name]
		info := b.info
		info.ID = name
		info.DisplayName = info.Name
		info.Group = builtInGroup
		info.Type = "builtin"
		info.Objects = b.new(1).GetPrimitiveCount()
		allScenes = append(allScenes, info)
	}

	fileScenes, err := ListSceneFiles(ctx, dir, logger)
	if err != nil {
		return response, fmt.Errorf("while listing scene files: %w", err)
	}
	allScenes = append(allScenes, fileScenes...)

	// Group scenes by their Group field
	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	response.Groups = append(response.Groups, SceneGroup{
		Name:   builtInGroup,
		Scenes: groupMap[builtInGroup],
	})
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// Resolve finds a scene by built-in name, "file:<name>" ID from the scenes directory,
// or path to a scene file
func Resolve(ctx context.Context, ref string, dir string, seed int64) (*Scene, error) {
	if s, ok := NewBuiltIn(ref, seed); ok {
		return s, nil
	}

	if strings.HasPrefix(ref, fileIDPrefix) {
		name := strings.TrimPrefix(ref, fileIDPrefix)
		if dir == "" || name == "" || strings.ContainsAny(name, `/\`) {
			return nil, fmt.Errorf("unknown scene %q", ref)
		}
		for _, ext := range []string{".json", ".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return Load(ctx, path)
			}
		}
		return nil, fmt.Errorf("unknown scene %q", ref)
	}

	if _, err := FormatForPath(ref); err == nil {
		return Load(ctx, ref)
	}

	return nil, fmt.Errorf("unknown scene %q (built-in scenes: %s)", ref, strings.Join(BuiltInNames(), ", "))
}

// titleCase converts a filename-style string to title case
// e.g., "three-spheres" -> "Three Spheres"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Title case each word
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
