package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
)

// GitHub implements BlobStore on top of the repository contents API. Each
// key is a file path on a dedicated branch and the version token is the
// file's blob SHA.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

// NewGitHub creates a contents-API store for repo ("owner/name") on branch.
// An empty baseURL selects the public GitHub API.
func NewGitHub(baseURL, token, repo, branch string) (*GitHub, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("github repository %q must be owner/name", repo)
	}

	client := github.NewClient(&http.Client{Timeout: 15 * time.Second})
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		client.BaseURL = u
	}

	return &GitHub{
		client: client,
		owner:  owner,
		repo:   name,
		branch: branch,
	}, nil
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) path(key string) string {
	return strings.TrimLeft(key, "/")
}

func (g *GitHub) Read(ctx context.Context, key string) (*Blob, error) {
	file, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, g.path(key),
		&github.RepositoryContentGetOptions{Ref: g.branch})
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read github content: %w", githubError(err))
	}
	if file == nil {
		return nil, fmt.Errorf("read github content: %q is a directory", key)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode github content: %w", err)
	}
	return &Blob{Content: []byte(content), Version: file.GetSHA()}, nil
}

func (g *GitHub) Write(ctx context.Context, key string, content []byte, version string) (string, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr("chore: update tripwire state"),
		Content: content,
		Branch:  github.Ptr(g.branch),
	}

	var (
		resp *github.RepositoryContentResponse
		err  error
	)
	if version == "" {
		resp, _, err = g.client.Repositories.CreateFile(ctx, g.owner, g.repo, g.path(key), opts)
	} else {
		opts.SHA = github.Ptr(version)
		resp, _, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, g.path(key), opts)
	}
	if err != nil {
		return "", writeError(err, key, version)
	}
	if resp == nil || resp.Content == nil {
		return "", fmt.Errorf("write github content: response carries no content sha")
	}
	return resp.Content.GetSHA(), nil
}

func (g *GitHub) Delete(ctx context.Context, key string, version string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr("chore: reset tripwire state"),
		Branch:  github.Ptr(g.branch),
		SHA:     github.Ptr(version),
	}
	if _, _, err := g.client.Repositories.DeleteFile(ctx, g.owner, g.repo, g.path(key), opts); err != nil {
		return writeError(err, key, version)
	}
	return nil
}

func (g *GitHub) Close() error { return nil }

// writeError maps contents-API write failures to store errors. A stale or
// missing SHA is reported as 409 or 422.
func writeError(err error, key, version string) error {
	switch statusOf(err) {
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %q at version %q", ErrVersionConflict, key, version)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	default:
		return fmt.Errorf("write github content: %w", githubError(err))
	}
}

func statusOf(err error) int {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	return 0
}

func githubError(err error) error {
	if status := statusOf(err); status != 0 {
		return fmt.Errorf("github returned status %d: %w", status, err)
	}
	return err
}
