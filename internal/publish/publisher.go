// Package publish adapts the source-control collaborator: it pushes
// serialized DFD and threat-model artifacts to a repository as opaque pretty
// JSON files. The engine core never depends on this package.
package publish

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/google/go-github/v58/github"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/threatlens-cli/internal/config"
)

// Publisher pushes a named JSON artifact to a source-control host.
type Publisher interface {
	Publish(ctx context.Context, name string, artifact any) (string, error)
}

var prettyJSON = jsoniter.Config{IndentionStep: 2, SortMapKeys: true}.Froze()

// repositoriesService is the slice of the go-github client the publisher
// uses, extracted for mocking.
type repositoriesService interface {
	GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error)
	CreateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error)
	UpdateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error)
}

// GitHubPublisher writes artifacts into a GitHub repository under
// threat-models/.
type GitHubPublisher struct {
	repos  repositoriesService
	owner  string
	repo   string
	branch string
	log    *zap.Logger
}

// NewGitHubPublisher creates the collaborator client. The token comes from
// configuration (usually the THREATLENS_PUBLISHER_TOKEN environment variable).
func NewGitHubPublisher(cfg config.PublisherConfig, logger *zap.Logger) (*GitHubPublisher, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("publisher token is not configured")
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("publisher owner and repo must be configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := github.NewClient(nil).WithAuthToken(cfg.Token)
	return &GitHubPublisher{
		repos:  client.Repositories,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: cfg.Branch,
		log:    logger.Named("publisher"),
	}, nil
}

// Publish serializes the artifact as pretty JSON and creates or updates
// threat-models/<name>.json on the configured branch. It returns the
// repository path written.
func (p *GitHubPublisher) Publish(ctx context.Context, name string, artifact any) (string, error) {
	data, err := prettyJSON.Marshal(artifact)
	if err != nil {
		return "", fmt.Errorf("failed to serialize artifact %q: %w", name, err)
	}

	filePath := path.Join("threat-models", name+".json")
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("Update threat model artifact %s", name)),
		Content: data,
		Branch:  github.String(p.branch),
	}

	existing, _, resp, err := p.repos.GetContents(ctx, p.owner, p.repo, filePath, &github.RepositoryContentGetOptions{Ref: p.branch})
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
		if _, _, err := p.repos.UpdateFile(ctx, p.owner, p.repo, filePath, opts); err != nil {
			return "", fmt.Errorf("failed to update %s: %w", filePath, err)
		}
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		if _, _, err := p.repos.CreateFile(ctx, p.owner, p.repo, filePath, opts); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", filePath, err)
		}
	default:
		return "", fmt.Errorf("failed to check %s: %w", filePath, err)
	}

	p.log.Info("Artifact published",
		zap.String("path", filePath),
		zap.String("repo", p.owner+"/"+p.repo),
		zap.String("branch", p.branch))
	return filePath, nil
}
