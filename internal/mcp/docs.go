package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `kanbansync edits kanban boards optimistically: every change is applied to a
local board snapshot at once, then sent to the store. Success keeps it (merged
with the store's copy), failure rolls the board back exactly and reports why.

Workflow:
1) switch_user to pick who you act as. Permissions are per board and per user.
2) get_board to load a board; get_permissions to see what your role allows.
3) Mutate with move_card / reorder_card / update_card / create_card / delete_card,
   create_list / rename_list / move_list / delete_list, and the collaborator tools.
4) sync_status shows in-flight operations and the latest notifications;
   recent_activity shows how each finished.

Errors carry a code. STALE_VIEW means your ids are out of date: call get_board
and retry. PERMISSION_DENIED is decided locally and never reaches the store.

Docs:
- kanban://docs/concepts
- kanban://docs/ordering
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "kanban://docs/concepts",
		Name:        "docs_concepts",
		Title:       "Roles, tokens and rollback",
		Description: "What each role may do, how in-flight operations are tracked and what happens on failure.",
		Content: `# Concepts

## Roles

| role   | edit | delete lists | manage collaborators |
|--------|------|--------------|----------------------|
| owner  | yes  | yes          | yes                  |
| admin  | yes  | yes          | yes                  |
| editor | yes  | no           | no                   |
| viewer | no   | no           | no                   |

The board owner is always listed among a board's users. A collaborator stored
without a role counts as editor. If the collaborator list cannot be read,
non-owners fall back to viewer.

## Operation tokens

Each accepted mutation gets a token like ` + "`move_card-12-<uuid>`" + `. While any token
is open, ` + "`sync_status`" + ` reports syncing. A newer operation on the same card or
list supersedes the older one: the older response is then ignored and a
background refetch brings the board back in line.

## Rollback

A failed mutation restores the board exactly as it was before the change,
unless other changes landed meanwhile; then only the failed entity is put back.
The error notification carries the store's validation message when it sent one.
`,
	},
	{
		URI:         "kanban://docs/ordering",
		Name:        "docs_ordering",
		Title:       "Card and list ordering",
		Description: "How indexes map to positions in kanban and table views.",
		Content: `# Ordering

- Tool indexes are 0-based. Stored positions are 1-based and dense.
- After every change, positions in each affected list are renumbered 1..n.
- ` + "`move_card`" + ` takes a destination list and index; the same list means reorder.
- ` + "`reorder_card`" + ` works on the board-wide order (all lists in order, cards
  in order within each). The destination list is taken from the card that
  ends up before the moved one, or after it when moved to the top.
- Out of range indexes clamp to the ends.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
