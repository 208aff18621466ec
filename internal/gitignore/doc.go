// Package gitignore evaluates ignore files the way git does.
//
// Each .gitignore (or .git/info/exclude) becomes one Matcher scoped to the
// directory it lives in. Matchers for a path's ancestors are combined in a
// Stack, outermost first, so a deeper file can re-include what a shallower
// file excluded.
//
// Usage:
//
//	root, _ := gitignore.Load("/repo/.gitignore", "")
//	sub, _ := gitignore.Load("/repo/web/.gitignore", "web")
//	stack := gitignore.Stack{root, sub}
//
//	if stack.Ignored("web/dist", true) {
//	    // skip the directory
//	}
//
// Paths are always relative to the walk root and use forward slashes.
package gitignore
