package api

import (
	"context"
	"net/http"

	"github.com/Paaskehare/SevenShift/client/internal/types"
)

// Me returns the user the current access token belongs to.
func Me(ctx context.Context, r Requester) (*types.User, error) {
	var u types.User
	if err := r.Request(ctx, http.MethodGet, PathMe, nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
