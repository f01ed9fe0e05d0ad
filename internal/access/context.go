package access

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
)

type ctxKeyProfile struct{}

// WithProfile stores the verified session profile for the request.
func WithProfile(ctx context.Context, p *entity.PublicProfile) context.Context {
	return context.WithValue(ctx, ctxKeyProfile{}, p)
}

// ProfileFromContext returns the profile the guard verified, if any.
func ProfileFromContext(ctx context.Context) (*entity.PublicProfile, bool) {
	p, ok := ctx.Value(ctxKeyProfile{}).(*entity.PublicProfile)
	return p, ok && p != nil
}
