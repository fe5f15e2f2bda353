package mutation

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	kindCard         = "card"
	kindList         = "list"
	kindCollaborator = "collaborator"
)

// newToken returns a single-use operation token.
func newToken(kind string, id int64) string {
	return fmt.Sprintf("%s-%d-%s", kind, id, uuid.NewString())
}

func entityKey(kind string, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}
