// Package gitlib reads repository history through libgit2.
package gitlib

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/gitrisk/hotspot/internal/contract"
)

// Client implements contract.GitClient on top of libgit2.
type Client struct{}

var _ contract.GitClient = &Client{} // Compile-time check

// NewClient creates a libgit2-backed client.
func NewClient() *Client {
	return &Client{}
}

// openRepository opens the repository containing path, searching parent directories.
func openRepository(path string) (*git2go.Repository, error) {
	repo, err := git2go.OpenRepositoryExtended(path, 0, "")
	if err != nil {
		return nil, &contract.RepositoryOpenError{Path: path, Err: err}
	}
	return repo, nil
}

// GetRepoRoot implements the contract.GitClient interface.
func (c *Client) GetRepoRoot(_ context.Context, contextPath string) (string, error) {
	repo, err := openRepository(contextPath)
	if err != nil {
		return "", err
	}
	defer repo.Free()

	workdir := repo.Workdir()
	if workdir == "" {
		return "", &contract.RepositoryOpenError{Path: contextPath, Err: errors.New("bare repositories have no working tree")}
	}
	return filepath.Clean(workdir), nil
}

// GetRepoHash implements the contract.GitClient interface.
func (c *Client) GetRepoHash(_ context.Context, repoPath string) (string, error) {
	repo, err := openRepository(repoPath)
	if err != nil {
		return "", err
	}
	defer repo.Free()

	return headHash(repo)
}

// headHash returns the HEAD commit id, or "" when HEAD is unborn.
func headHash(repo *git2go.Repository) (string, error) {
	unborn, err := repo.IsHeadUnborn()
	if err != nil {
		return "", fmt.Errorf("inspect HEAD: %w", err)
	}
	if unborn {
		return "", nil
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()
	return ref.Target().String(), nil
}

// OpenHistory implements the contract.GitClient interface.
func (c *Client) OpenHistory(_ context.Context, repoPath string) (contract.History, error) {
	repo, err := openRepository(repoPath)
	if err != nil {
		return nil, err
	}
	return &History{repo: repo}, nil
}
