package client

import "context"

type transport interface {
	call(ctx context.Context, method, path string, request any, response any) error
}
