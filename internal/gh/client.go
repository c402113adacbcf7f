// Package gh wraps the GitHub API calls the marketplace makes on behalf of
// sellers and buyers: repository transfers, collaborator management, and the
// OAuth linkage flow.
package gh

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// TransferOutcome reports how a repository transfer call ended. GitHub
// answers HTTP 202 for transfers that need the new owner to accept, so an
// accepted-but-pending transfer is a success, not an error.
type TransferOutcome struct {
	RepoID    int64
	Initiated bool // true when GitHub queued the transfer (202) rather than completing it inline
}

// Client talks to the GitHub API using per-user OAuth tokens.
type Client struct {
	oauth *oauth2.Config

	// baseURL overrides the GitHub API endpoint, for tests.
	baseURL string
}

// NewClient builds a GitHub client using the OAuth app credentials.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     githuboauth.Endpoint,
			Scopes:       []string{"repo", "read:user", "user:email"},
		},
	}
}

// WithBaseURL points all API calls at an alternate endpoint. Tests use this
// with an httptest server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

func (c *Client) apiClient(token string) (*github.Client, error) {
	gc := github.NewClient(nil).WithAuthToken(token)
	if c.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(c.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github base url: %w", err)
		}
		gc.BaseURL = u
		gc.UploadURL = u
	}
	return gc, nil
}

// ExchangeCode exchanges an OAuth authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("github oauth exchange failed: %w", err)
	}
	return tok.AccessToken, nil
}

// AuthorizeURL returns the GitHub OAuth consent URL for the given state.
func (c *Client) AuthorizeURL(state, redirectURL string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("redirect_uri", redirectURL))
}

// FetchUser returns the authenticated GitHub user for a token.
func (c *Client) FetchUser(ctx context.Context, token string) (*github.User, error) {
	gc, err := c.apiClient(token)
	if err != nil {
		return nil, err
	}
	user, _, err := gc.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetching github user: %w", err)
	}
	return user, nil
}

// TransferRepository transfers owner/repo to newOwner using the seller's
// token. GitHub usually responds 202 Accepted, meaning the transfer is queued
// until the new owner accepts; that is reported as Initiated.
func (c *Client) TransferRepository(ctx context.Context, token, owner, repo, newOwner string) (TransferOutcome, error) {
	gc, err := c.apiClient(token)
	if err != nil {
		return TransferOutcome{}, err
	}
	transferred, _, err := gc.Repositories.Transfer(ctx, owner, repo, github.TransferRequest{
		NewOwner: newOwner,
	})
	if err != nil {
		var accepted *github.AcceptedError
		if errors.As(err, &accepted) {
			return TransferOutcome{Initiated: true}, nil
		}
		return TransferOutcome{}, fmt.Errorf("transferring %s/%s to %s: %w", owner, repo, newOwner, err)
	}
	return TransferOutcome{RepoID: transferred.GetID()}, nil
}

// AddCollaborator invites username to owner/repo with maintain permission.
// Subscription buyers get collaborator access instead of ownership.
func (c *Client) AddCollaborator(ctx context.Context, token, owner, repo, username string) error {
	gc, err := c.apiClient(token)
	if err != nil {
		return err
	}
	_, _, err = gc.Repositories.AddCollaborator(ctx, owner, repo, username, &github.RepositoryAddCollaboratorOptions{
		Permission: "maintain",
	})
	if err != nil {
		return fmt.Errorf("adding %s as collaborator on %s/%s: %w", username, owner, repo, err)
	}
	return nil
}

// RemoveCollaborator revokes username's access to owner/repo after a
// subscription is canceled.
func (c *Client) RemoveCollaborator(ctx context.Context, token, owner, repo, username string) error {
	gc, err := c.apiClient(token)
	if err != nil {
		return err
	}
	_, err = gc.Repositories.RemoveCollaborator(ctx, owner, repo, username)
	if err != nil {
		return fmt.Errorf("removing %s from %s/%s: %w", username, owner, repo, err)
	}
	return nil
}

// FetchRepository returns repository details, used to snapshot stars/forks
// when a listing is created.
func (c *Client) FetchRepository(ctx context.Context, token, owner, repo string) (*github.Repository, error) {
	gc, err := c.apiClient(token)
	if err != nil {
		return nil, err
	}
	r, _, err := gc.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching %s/%s: %w", owner, repo, err)
	}
	return r, nil
}
