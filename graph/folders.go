package graph

import (
	"context"
	"fmt"
	neturl "net/url"
)

// folderPageSize bounds each folder listing call; mailboxes rarely have more
// top-level folders than this.
const folderPageSize = 100

// FolderHierarchy returns the top-level folders with their direct children
// populated; deeper nesting is intentionally not traversed, bounding the cost
// to one child fetch per top-level folder. A failed child fetch keeps the
// children retrieved before the failure; a failed top-level listing is fatal.
func (s *MailService) FolderHierarchy(ctx context.Context, sess *Session) ([]Folder, error) {
	tops, err := s.listFolders(ctx, sess, "list folders", "/me/mailFolders")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFolderListing, err)
	}
	out := make([]Folder, 0, len(tops))
	for _, top := range tops {
		folder := Folder{
			ID:             top.ID,
			DisplayName:    top.DisplayName,
			TotalItemCount: top.TotalItemCount,
			ChildFolders:   []Folder{},
		}
		if top.ChildFolderCount > 0 {
			path := "/me/mailFolders/" + neturl.PathEscape(top.ID) + "/childFolders"
			children, err := s.listFolders(ctx, sess, "list child folders", path)
			if err != nil {
				debugf("child folder fetch failed for %q: %v", top.DisplayName, err)
			}
			for _, c := range children {
				folder.ChildFolders = append(folder.ChildFolders, Folder{
					ID:             c.ID,
					DisplayName:    c.DisplayName,
					TotalItemCount: c.TotalItemCount,
					ChildFolders:   []Folder{},
				})
			}
		}
		out = append(out, folder)
	}
	return out, nil
}

// FolderIDs maps folder display names (top-level and children) to their ids.
func (s *MailService) FolderIDs(ctx context.Context, sess *Session) (map[string]string, error) {
	hierarchy, err := s.FolderHierarchy(ctx, sess)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(hierarchy))
	for _, f := range hierarchy {
		out[f.DisplayName] = f.ID
		for _, c := range f.ChildFolders {
			out[c.DisplayName] = c.ID
		}
	}
	return out, nil
}

func (s *MailService) listFolders(ctx context.Context, sess *Session, op, path string) ([]folderPayload, error) {
	q := neturl.Values{}
	q.Set("$top", fmt.Sprintf("%d", folderPageSize))
	var first page[folderPayload]
	if err := sess.rest.get(ctx, op, path, q, &first); err != nil {
		return nil, err
	}
	return collectPages(ctx, first, folderPageSize, func(ctx context.Context, link string) (page[folderPayload], error) {
		var p page[folderPayload]
		err := sess.rest.getURL(ctx, op, link, &p)
		return p, err
	})
}
