package manifest

import "sort"

// typeDirMapping maps manifest subdirectories to resource types.
var typeDirMapping = map[string]string{
	"bridges": "ovs_bridge",
}

// TypeForDir returns the resource type stored in dir.
func TypeForDir(dir string) (string, bool) {
	typeName, ok := typeDirMapping[dir]
	return typeName, ok
}

// DirForType returns the subdirectory holding manifests of typeName. Types
// without a mapping use their own name as the directory.
func DirForType(typeName string) string {
	for dir, t := range typeDirMapping {
		if t == typeName {
			return dir
		}
	}
	return typeName
}

// Dirs returns the known manifest subdirectories, sorted.
func Dirs() []string {
	dirs := make([]string, 0, len(typeDirMapping))
	for dir := range typeDirMapping {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
