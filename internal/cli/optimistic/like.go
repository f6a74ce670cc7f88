package optimistic

import (
	"context"
	"fmt"

	"github.com/gameofbones/gameofbones/internal/cli/client"
)

// LikeAPI is the part of the REST client the like toggle needs.
type LikeAPI interface {
	LikePost(ctx context.Context, id int64) (*client.LikeStatus, error)
	UnlikePost(ctx context.Context, id int64) (*client.LikeStatus, error)
}

// ToggleLike flips the current user's like on the post in cell. The count and
// flag change at once and are reverted if the backend refuses.
func ToggleLike(ctx context.Context, cell *Cell[client.Post], api LikeAPI) error {
	err := cell.Update(ctx,
		func(p client.Post) client.Post {
			if p.LikedByMe {
				p.LikesCount--
			} else {
				p.LikesCount++
			}
			p.LikedByMe = !p.LikedByMe
			return p
		},
		func(ctx context.Context, p client.Post) (client.Post, error) {
			call := api.UnlikePost
			if p.LikedByMe {
				call = api.LikePost
			}
			status, err := call(ctx, p.ID)
			if err != nil {
				return p, err
			}
			p.LikesCount = status.LikesCount
			p.LikedByMe = status.LikedByMe
			return p, nil
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update like: %w", err)
	}
	return nil
}
