package smartsync

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/compbio-tools/s3smartsync/errors"
	"github.com/compbio-tools/s3smartsync/internal/validation"
)

// DirectoryKeys walks the local tree rooted at localPath and returns one
// directory-class remote key per directory, including localPath itself.
//
// The first element is always the target's own root key (equivalent to the
// key derived from localPath itself); callers that reconcile the root key
// separately should skip it. Remaining elements are prefix + relative path +
// "/", sorted by the local path string, so the list is deterministic for a
// given snapshot of the tree.
//
// Returns ErrTraversal if localPath does not exist or is not a directory; a
// valid empty directory yields just the root key.
func DirectoryKeys(fsys fs.Filesystem, localPath string, target *Target) ([]string, error) {
	info, err := fsys.Stat(localPath)
	if err != nil {
		return nil, errors.NewError("directoryKeys", errors.ErrTraversal).
			WithMessage("cannot stat " + localPath + ": " + err.Error())
	}
	if !info.IsDir() {
		return nil, errors.NewError("directoryKeys", errors.ErrTraversal).
			WithMessage(localPath + " is not a directory")
	}

	var dirs []string
	err = fsys.Walk(localPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewError("directoryKeys", errors.ErrTraversal).
			WithMessage("walk " + localPath + ": " + err.Error())
	}

	// Walk order is already lexical, but the ordering is part of the
	// contract, so enforce it rather than rely on the implementation.
	sort.Strings(dirs)

	prefix := target.KeyPrefix()
	keys := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		rel, err := filepath.Rel(localPath, dir)
		if err != nil {
			return nil, errors.NewError("directoryKeys", errors.ErrTraversal).
				WithMessage("relative path for " + dir + ": " + err.Error())
		}
		if rel == "." {
			keys = append(keys, target.RootKey())
			continue
		}
		key := prefix + filepath.ToSlash(rel) + "/"
		if err := validation.ValidateObjectKey(key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, nil
}

// subdirectoryKeys returns the key list minus the root entry, which the
// orchestrator reconciles separately via Target.RootKey.
func subdirectoryKeys(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	return keys[1:]
}
