package actions

import (
	"os"
	"strings"

	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/value"
)

// validatePath rejects ".." traversal sequences (spec §4.9), mirroring the
// "file" system object's own check for every path-bearing filesystem verb.
func validatePath(path string) error {
	for _, part := range strings.Split(strings.ReplaceAll(path, "\\", "/"), "/") {
		if part == ".." {
			return aroerr.Withf(aroerr.KindFileSystemError, map[string]any{"path": path, "subkind": "traversal"},
				"path %q contains a traversal sequence", path)
		}
	}
	return nil
}

// pathSpecifier resolves a filesystem action's target path: either the
// object's first specifier (a literal path segment) or, failing that, the
// resolved variable named by the object base.
func pathSpecifier(actx *registry.ActionContext) string {
	if p := actx.Statement.Object.Specifier(0); p != "" {
		return p
	}
	if actx.Object.Kind == value.KindString {
		return actx.Object.Str
	}
	return actx.Statement.Object.Base
}

// CreateDirectoryAction implements Createdirectory/Mkdir: os.MkdirAll is the
// faithful stdlib counterpart here — no example repo in the pack carries a
// dedicated filesystem-helper library for directory creation.
type CreateDirectoryAction struct{}

func (CreateDirectoryAction) Role() program.Role { return program.RoleOwn }
func (CreateDirectoryAction) Verbs() []string    { return []string{"createdirectory", "mkdir"} }
func (CreateDirectoryAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepAt, program.PrepFor}
}
func (CreateDirectoryAction) BindsResult() bool { return true }

func (a CreateDirectoryAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	path := pathSpecifier(actx)
	if err := validatePath(path); err != nil {
		return value.Null, err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return value.Null, aroerr.Withf(aroerr.KindFileSystemError, map[string]any{"path": path}, "mkdir %q failed: %v", path, err)
	}
	return value.String(path), nil
}

// CopyAction implements Copy: duplicates a file's bytes to the destination
// path named by the result specifier.
type CopyAction struct{}

func (CopyAction) Role() program.Role { return program.RoleOwn }
func (CopyAction) Verbs() []string    { return []string{"copy"} }
func (CopyAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepTo, program.PrepFrom}
}
func (CopyAction) BindsResult() bool { return true }

func (a CopyAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	src := pathSpecifier(actx)
	dst := actx.Statement.Result.Specifier(0)
	if dst == "" {
		dst = actx.Statement.Result.Base
	}
	if err := validatePath(src); err != nil {
		return value.Null, err
	}
	if err := validatePath(dst); err != nil {
		return value.Null, err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return value.Null, aroerr.Withf(aroerr.KindFileSystemError, map[string]any{"path": src}, "copy: read %q failed: %v", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return value.Null, aroerr.Withf(aroerr.KindFileSystemError, map[string]any{"path": dst}, "copy: write %q failed: %v", dst, err)
	}
	return value.String(dst), nil
}

// MoveAction implements Move/Rename.
type MoveAction struct{}

func (MoveAction) Role() program.Role { return program.RoleOwn }
func (MoveAction) Verbs() []string    { return []string{"move", "rename"} }
func (MoveAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepTo, program.PrepFrom}
}
func (MoveAction) BindsResult() bool { return true }

func (a MoveAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	src := pathSpecifier(actx)
	dst := actx.Statement.Result.Specifier(0)
	if dst == "" {
		dst = actx.Statement.Result.Base
	}
	if err := validatePath(src); err != nil {
		return value.Null, err
	}
	if err := validatePath(dst); err != nil {
		return value.Null, err
	}
	if err := os.Rename(src, dst); err != nil {
		return value.Null, aroerr.Withf(aroerr.KindFileSystemError, map[string]any{"from": src, "to": dst}, "move %q -> %q failed: %v", src, dst, err)
	}
	return value.String(dst), nil
}
