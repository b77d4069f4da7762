package publish

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-github/v58/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/threatlens-cli/internal/config"
)

// fakeRepos records calls and plays back canned GetContents outcomes.
type fakeRepos struct {
	existing    *github.RepositoryContent
	getResp     *github.Response
	getErr      error
	createErr   error
	updateErr   error
	createdPath string
	updatedPath string
	lastOpts    *github.RepositoryContentFileOptions
}

func (f *fakeRepos) GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error) {
	return f.existing, nil, f.getResp, f.getErr
}

func (f *fakeRepos) CreateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error) {
	f.createdPath = path
	f.lastOpts = opts
	return nil, nil, f.createErr
}

func (f *fakeRepos) UpdateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error) {
	f.updatedPath = path
	f.lastOpts = opts
	return nil, nil, f.updateErr
}

func notFoundResp() *github.Response {
	return &github.Response{Response: &http.Response{StatusCode: http.StatusNotFound}}
}

func newTestPublisher(repos repositoriesService) *GitHubPublisher {
	return &GitHubPublisher{
		repos:  repos,
		owner:  "acme",
		repo:   "threat-models",
		branch: "main",
		log:    zap.NewNop(),
	}
}

func TestNewGitHubPublisher_ConfigValidation(t *testing.T) {
	t.Parallel()
	_, err := NewGitHubPublisher(config.PublisherConfig{Owner: "acme", Repo: "r"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is not configured")

	_, err = NewGitHubPublisher(config.PublisherConfig{Token: "t"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner and repo must be configured")

	p, err := NewGitHubPublisher(config.PublisherConfig{Token: "t", Owner: "acme", Repo: "r", Branch: "main"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestPublish_CreatesWhenMissing(t *testing.T) {
	t.Parallel()
	repos := &fakeRepos{getResp: notFoundResp(), getErr: errors.New("404 not found")}
	p := newTestPublisher(repos)

	path, err := p.Publish(context.Background(), "checkout", map[string]string{"id": "tm-1"})
	require.NoError(t, err)
	assert.Equal(t, "threat-models/checkout.json", path)
	assert.Equal(t, "threat-models/checkout.json", repos.createdPath)
	assert.Empty(t, repos.updatedPath)

	require.NotNil(t, repos.lastOpts)
	assert.Nil(t, repos.lastOpts.SHA)
	assert.Equal(t, "main", repos.lastOpts.GetBranch())
	assert.Contains(t, string(repos.lastOpts.Content), `"id": "tm-1"`)
}

func TestPublish_UpdatesWhenPresent(t *testing.T) {
	t.Parallel()
	repos := &fakeRepos{existing: &github.RepositoryContent{SHA: github.String("abc123")}}
	p := newTestPublisher(repos)

	path, err := p.Publish(context.Background(), "checkout", map[string]string{"id": "tm-2"})
	require.NoError(t, err)
	assert.Equal(t, "threat-models/checkout.json", path)
	assert.Equal(t, "threat-models/checkout.json", repos.updatedPath)
	assert.Empty(t, repos.createdPath)

	require.NotNil(t, repos.lastOpts)
	assert.Equal(t, "abc123", repos.lastOpts.GetSHA())
}

func TestPublish_PropagatesLookupErrors(t *testing.T) {
	t.Parallel()
	// A transport failure (no HTTP response at all) must not be mistaken for
	// a missing file.
	repos := &fakeRepos{getErr: errors.New("connection reset")}
	p := newTestPublisher(repos)

	_, err := p.Publish(context.Background(), "checkout", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check")
	assert.Empty(t, repos.createdPath)
	assert.Empty(t, repos.updatedPath)
}

func TestPublish_CreateFailure(t *testing.T) {
	t.Parallel()
	repos := &fakeRepos{getResp: notFoundResp(), getErr: errors.New("404"), createErr: errors.New("protected branch")}
	p := newTestPublisher(repos)

	_, err := p.Publish(context.Background(), "checkout", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create threat-models/checkout.json")
}

func TestPublish_UnserializableArtifact(t *testing.T) {
	t.Parallel()
	p := newTestPublisher(&fakeRepos{})

	_, err := p.Publish(context.Background(), "bad", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to serialize artifact")
}
