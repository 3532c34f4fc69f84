// pkg/core/package.go
package core

// Installation describes where an installed dependency landed
type Installation struct {
	Name        string   // Backend-specific package name
	Backend     string   // Which installer provided it
	Prefix      string   // Installation root
	LibDirs     []string // Existing library directories under Prefix
	IncludeDirs []string // Existing header directories under Prefix
	BinDirs     []string // Existing executable directories under Prefix
	System      bool     // Dirs are on the compiler's default search path
}
