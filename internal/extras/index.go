package extras

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SelectionState describes how much of a node's subtree is checked.
type SelectionState int

const (
	// SelectionNone means nothing in the subtree is checked.
	SelectionNone SelectionState = iota
	// SelectionPartial means some but not all of the subtree is checked.
	SelectionPartial
	// SelectionFull means the node and every descendant are checked.
	SelectionFull
)

// IndexNode is one file or directory of the index. Children hold child keys in sorted order.
type IndexNode struct {
	Key      string
	Label    string
	IsDir    bool
	Children []string
}

// VisibleRow is one row of a rendered index view.
type VisibleRow struct {
	Key   string
	Depth int
}

// IndexOptions configures BuildIndex.
type IndexOptions struct {
	ReservedDirectory string
}

// Index is an arena of nodes keyed by normalized path together with a checked set.
type Index struct {
	nodes   map[string]*IndexNode
	roots   []string
	checked map[string]struct{}
}

// BuildIndex builds an index from candidate paths. Candidates that are directories on disk are expanded
// without following symlinks and without entering the reserved directory.
func BuildIndex(repositoryRoot string, candidates []string, options IndexOptions) (*Index, error) {
	reservedDirectory := options.ReservedDirectory
	if reservedDirectory == "" {
		reservedDirectory = DefaultReservedDirectory
	}

	index := &Index{
		nodes:   make(map[string]*IndexNode),
		checked: make(map[string]struct{}),
	}
	for _, candidate := range candidates {
		normalizedPath, normalizeError := NormalizeRelativePath(candidate)
		if normalizeError != nil {
			return nil, normalizeError
		}
		if isUnderReservedDirectory(normalizedPath, reservedDirectory) {
			continue
		}
		absolutePath := filepath.Join(repositoryRoot, filepath.FromSlash(normalizedPath))
		if isExpandableDirectory(absolutePath) {
			index.insertPath(normalizedPath, true)
			index.expandDirectory(absolutePath, normalizedPath, reservedDirectory)
			continue
		}
		index.insertPath(normalizedPath, false)
	}
	index.sortChildren()
	return index, nil
}

func isExpandableDirectory(absolutePath string) bool {
	fileInformation, statError := os.Lstat(absolutePath)
	if statError != nil {
		return false
	}
	return fileInformation.IsDir() && fileInformation.Mode()&fs.ModeSymlink == 0
}

func (index *Index) expandDirectory(absolutePath string, normalizedPath string, reservedDirectory string) {
	directoryEntries, readError := os.ReadDir(absolutePath)
	if readError != nil {
		return
	}
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.Type()&fs.ModeSymlink != 0 {
			continue
		}
		childPath := normalizedPath + pathSeparator + directoryEntry.Name()
		if isUnderReservedDirectory(childPath, reservedDirectory) {
			continue
		}
		if directoryEntry.IsDir() {
			index.insertPath(childPath, true)
			index.expandDirectory(filepath.Join(absolutePath, directoryEntry.Name()), childPath, reservedDirectory)
			continue
		}
		index.insertPath(childPath, false)
	}
}

func (index *Index) insertPath(normalizedPath string, isDirectory bool) {
	components := splitComponents(normalizedPath)
	parentKey := ""
	for componentIndex, component := range components {
		key := joinComponents(components[:componentIndex+1])
		isLast := componentIndex == len(components)-1
		node, exists := index.nodes[key]
		if !exists {
			node = &IndexNode{Key: key, Label: component, IsDir: !isLast || isDirectory}
			index.nodes[key] = node
			if parentKey == "" {
				index.roots = append(index.roots, key)
			} else {
				parentNode := index.nodes[parentKey]
				parentNode.Children = append(parentNode.Children, key)
			}
		} else if !isLast || isDirectory {
			node.IsDir = true
		}
		parentKey = key
	}
}

func (index *Index) sortChildren() {
	sort.Strings(index.roots)
	for _, node := range index.nodes {
		sort.Strings(node.Children)
	}
}

// Len returns the number of nodes.
func (index *Index) Len() int {
	return len(index.nodes)
}

// Roots returns the top-level keys in sorted order.
func (index *Index) Roots() []string {
	return append([]string(nil), index.roots...)
}

// Node returns a copy of the node stored under key.
func (index *Index) Node(key string) (IndexNode, bool) {
	node, exists := index.nodes[key]
	if !exists {
		return IndexNode{}, false
	}
	copied := *node
	copied.Children = append([]string(nil), node.Children...)
	return copied, true
}

// Files returns every file key in sorted order.
func (index *Index) Files() []string {
	var files []string
	for key, node := range index.nodes {
		if !node.IsDir {
			files = append(files, key)
		}
	}
	sort.Strings(files)
	return files
}

// IsChecked reports whether key itself is checked.
func (index *Index) IsChecked(key string) bool {
	_, checked := index.checked[key]
	return checked
}

// Toggle flips key and applies the new value to its whole subtree.
func (index *Index) Toggle(key string) {
	if _, exists := index.nodes[key]; !exists {
		return
	}
	index.SetChecked(key, !index.IsChecked(key))
}

// SetChecked sets key and every descendant to checked.
func (index *Index) SetChecked(key string, checked bool) {
	node, exists := index.nodes[key]
	if !exists {
		return
	}
	if checked {
		index.checked[key] = struct{}{}
	} else {
		delete(index.checked, key)
	}
	for _, childKey := range node.Children {
		index.SetChecked(childKey, checked)
	}
}

// SelectAll checks every node.
func (index *Index) SelectAll() {
	for key := range index.nodes {
		index.checked[key] = struct{}{}
	}
}

// SelectNone clears every node.
func (index *Index) SelectNone() {
	index.checked = make(map[string]struct{})
}

// SelectionState reports how much of the subtree rooted at key is checked.
func (index *Index) SelectionState(key string) SelectionState {
	if index.IsChecked(key) && index.descendantsFullyChecked(key) {
		return SelectionFull
	}
	if index.IsChecked(key) || index.hasCheckedDescendant(key) {
		return SelectionPartial
	}
	return SelectionNone
}

func (index *Index) descendantsFullyChecked(key string) bool {
	node, exists := index.nodes[key]
	if !exists {
		return false
	}
	for _, childKey := range node.Children {
		if !index.IsChecked(childKey) || !index.descendantsFullyChecked(childKey) {
			return false
		}
	}
	return true
}

func (index *Index) hasCheckedDescendant(key string) bool {
	node, exists := index.nodes[key]
	if !exists {
		return false
	}
	for _, childKey := range node.Children {
		if index.IsChecked(childKey) || index.hasCheckedDescendant(childKey) {
			return true
		}
	}
	return false
}

// SelectedForCopy returns the minimal sorted set of keys covering the checked nodes.
// A fully checked directory stands for its whole subtree.
func (index *Index) SelectedForCopy() []string {
	var selected []string
	for _, rootKey := range index.roots {
		selected = index.collectSelected(rootKey, selected)
	}
	sort.Strings(selected)
	return compactSorted(selected)
}

func (index *Index) collectSelected(key string, selected []string) []string {
	node, exists := index.nodes[key]
	if !exists {
		return selected
	}
	if !node.IsDir {
		if index.IsChecked(key) {
			selected = append(selected, key)
		}
		return selected
	}
	if index.IsChecked(key) && index.descendantsFullyChecked(key) {
		return append(selected, key)
	}
	for _, childKey := range node.Children {
		selected = index.collectSelected(childKey, selected)
	}
	return selected
}

// ExpandSelection replaces every directory key of selected with the leaves beneath it in the index,
// so a copy reproduces what the index holds and nothing else on disk. Unknown keys are kept as given.
func (index *Index) ExpandSelection(selected []string) []string {
	var expanded []string
	for _, key := range selected {
		if _, exists := index.nodes[key]; !exists {
			expanded = append(expanded, key)
			continue
		}
		expanded = index.appendLeaves(key, expanded)
	}
	sort.Strings(expanded)
	return compactSorted(expanded)
}

func (index *Index) appendLeaves(key string, leaves []string) []string {
	node := index.nodes[key]
	if len(node.Children) == 0 {
		return append(leaves, key)
	}
	for _, childKey := range node.Children {
		leaves = index.appendLeaves(childKey, leaves)
	}
	return leaves
}

func compactSorted(values []string) []string {
	if len(values) < 2 {
		return values
	}
	result := values[:1]
	for _, value := range values[1:] {
		if value != result[len(result)-1] {
			result = append(result, value)
		}
	}
	return result
}

// Visible returns the rows a host should render. A non-blank filter keeps nodes whose key or label
// contains it case-insensitively, together with their ancestors, and ignores collapsed state.
func (index *Index) Visible(filter string, collapsed map[string]bool) []VisibleRow {
	needle := strings.ToLower(strings.TrimSpace(filter))
	var rows []VisibleRow
	for _, rootKey := range index.roots {
		rows = index.appendVisible(rootKey, 0, needle, collapsed, rows)
	}
	return rows
}

func (index *Index) appendVisible(key string, depth int, needle string, collapsed map[string]bool, rows []VisibleRow) []VisibleRow {
	if !index.subtreeMatches(key, needle) {
		return rows
	}
	rows = append(rows, VisibleRow{Key: key, Depth: depth})
	node := index.nodes[key]
	if needle == "" && collapsed[key] {
		return rows
	}
	for _, childKey := range node.Children {
		rows = index.appendVisible(childKey, depth+1, needle, collapsed, rows)
	}
	return rows
}

func (index *Index) subtreeMatches(key string, needle string) bool {
	node, exists := index.nodes[key]
	if !exists {
		return false
	}
	if needle == "" || strings.Contains(strings.ToLower(node.Key), needle) {
		return true
	}
	for _, childKey := range node.Children {
		if index.subtreeMatches(childKey, needle) {
			return true
		}
	}
	return false
}
