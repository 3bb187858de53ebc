// Package repository locates the git working tree that extras are collected from.
package repository

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const (
	errorResolvePathFormat = "failed to resolve path %s: %w"
	errorOpenFormat        = "failed to open git repository at %s: %w"
	errorWorktreeFormat    = "repository at %s has no working tree: %w"
	errorHeadFormat        = "failed to read HEAD of %s: %w"
)

// Repository is an opened git working tree.
type Repository struct {
	repo *git.Repository
	root string
}

// Open finds the repository containing path, searching parent directories.
func Open(path string) (*Repository, error) {
	absolutePath, absoluteError := filepath.Abs(path)
	if absoluteError != nil {
		return nil, fmt.Errorf(errorResolvePathFormat, path, absoluteError)
	}
	repo, openError := git.PlainOpenWithOptions(absolutePath, &git.PlainOpenOptions{DetectDotGit: true})
	if openError != nil {
		return nil, fmt.Errorf(errorOpenFormat, absolutePath, openError)
	}
	worktree, worktreeError := repo.Worktree()
	if worktreeError != nil {
		return nil, fmt.Errorf(errorWorktreeFormat, absolutePath, worktreeError)
	}
	return &Repository{repo: repo, root: worktree.Filesystem.Root()}, nil
}

// ResolveRoot returns the working tree root of the repository containing path.
func ResolveRoot(path string) (string, error) {
	opened, openError := Open(path)
	if openError != nil {
		return "", openError
	}
	return opened.Root(), nil
}

// Root returns the absolute working tree root.
func (repository *Repository) Root() string {
	return repository.root
}

// BranchName returns the short name of HEAD, or an empty string for a repository without commits.
func (repository *Repository) BranchName() (string, error) {
	head, headError := repository.repo.Head()
	if headError != nil {
		if errors.Is(headError, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf(errorHeadFormat, repository.root, headError)
	}
	if !head.Name().IsBranch() {
		return head.Hash().String(), nil
	}
	return head.Name().Short(), nil
}
