package clickup

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

// FetchTeam returns the configured ClickUp team.
func (c *Client) FetchTeam(ctx context.Context) (*Team, error) {
	if err := c.requireTeam(); err != nil {
		return nil, err
	}

	var resp teamResponse
	if err := c.get(ctx, "/team/"+url.PathEscape(c.teamID), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch team: %w", err)
	}
	if resp.Team == nil {
		return nil, errors.New("fetch team: response carried no team")
	}
	return resp.Team, nil
}

// FetchSpaceLists flattens the folderless and foldered lists of one space.
func (c *Client) FetchSpaceLists(ctx context.Context, space Space) ([]domain.ListRecord, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	return c.listsInSpace(ctx, space)
}
