package clickup

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

var notArchived = url.Values{"archived": []string{"false"}}

// FetchSpaces returns the non-archived spaces of the configured team.
func (c *Client) FetchSpaces(ctx context.Context) ([]Space, error) {
	if err := c.requireTeam(); err != nil {
		return nil, err
	}

	var resp spacesResponse
	if err := c.get(ctx, "/team/"+url.PathEscape(c.teamID)+"/space", notArchived, &resp); err != nil {
		return nil, fmt.Errorf("fetch spaces: %w", err)
	}

	out := make([]Space, 0, len(resp.Spaces))
	for _, s := range resp.Spaces {
		if s.ID == "" {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// FetchLists walks team → space → (folderless lists, folder → lists) and
// flattens every list into one slice.
//
// A failing spaces call is fatal. A failure inside one space drops that space
// and the walk carries on. Cancellation stops the walk with domain.ErrAborted.
func (c *Client) FetchLists(ctx context.Context) ([]domain.ListRecord, error) {
	spaces, err := c.FetchSpaces(ctx)
	if err != nil {
		return nil, err
	}

	var all []domain.ListRecord
	for _, space := range spaces {
		lists, err := c.listsInSpace(ctx, space)
		if err != nil {
			if IsAborted(err) {
				return nil, err
			}
			slog.Warn("skipping space, lists could not be fetched",
				slog.String("space_id", space.ID),
				slog.String("space", space.Name),
				slog.Any("error", err))
			continue
		}
		all = append(all, lists...)
	}

	slog.Info("clickup lists collected",
		slog.Int("spaces", len(spaces)),
		slog.Int("lists", len(all)))
	return all, nil
}

func (c *Client) listsInSpace(ctx context.Context, space Space) ([]domain.ListRecord, error) {
	var out []domain.ListRecord

	var folderless listsResponse
	if err := c.get(ctx, "/space/"+url.PathEscape(space.ID)+"/list", notArchived, &folderless); err != nil {
		return nil, fmt.Errorf("folderless lists: %w", err)
	}
	out = appendLists(out, space.Name, nil, folderless.Lists)

	var folders foldersResponse
	if err := c.get(ctx, "/space/"+url.PathEscape(space.ID)+"/folder", notArchived, &folders); err != nil {
		return nil, fmt.Errorf("folders: %w", err)
	}

	for _, f := range folders.Folders {
		if f.ID == "" {
			continue
		}
		var lists listsResponse
		if err := c.get(ctx, "/folder/"+url.PathEscape(f.ID)+"/list", notArchived, &lists); err != nil {
			return nil, fmt.Errorf("lists of folder %s: %w", f.ID, err)
		}
		name := f.Name
		out = appendLists(out, space.Name, &name, lists.Lists)
	}

	return out, nil
}

func appendLists(dst []domain.ListRecord, spaceName string, folderName *string, lists []list) []domain.ListRecord {
	for _, l := range lists {
		if l.ID == "" {
			continue
		}
		dst = append(dst, domain.ListRecord{
			ID:          l.ID,
			Name:        l.Name,
			SpaceName:   spaceName,
			FolderName:  folderName,
			DisplayName: domain.DisplayName(spaceName, folderName, l.Name),
			Description: strings.TrimSpace(l.Content),
		})
	}
	return dst
}
