package interactions

import "github.com/archiveshq/archives/backend/internal/models"

// State is the per-session projection of one post's interaction data. It is a
// transient cache: authoritative state lives in the document store, and every
// subscription update replaces likes and comments wholesale.
type State struct {
	OwnerID     string                        `json:"owner_id"`
	PostID      string                        `json:"post_id"`
	ImageURL    string                        `json:"image_url"`
	Description string                        `json:"description,omitempty"`
	Likes       []string                      `json:"likes"`
	Comments    []models.Comment              `json:"comments"`
	Commenters  map[string]models.UserCompact `json:"commenters"`
}

// LikedBy reports whether actorID is in the projected like set
func (s State) LikedBy(actorID string) bool {
	for _, id := range s.Likes {
		if id == actorID {
			return true
		}
	}
	return false
}

func (s State) clone() State {
	out := s
	out.Likes = append([]string(nil), s.Likes...)
	out.Comments = append([]models.Comment(nil), s.Comments...)
	out.Commenters = make(map[string]models.UserCompact, len(s.Commenters))
	for id, u := range s.Commenters {
		out.Commenters[id] = u
	}
	return out
}
