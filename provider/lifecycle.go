package provider

import "context"

// Initializable is implemented by providers that need setup before handling
// requests, such as loading a model or starting a sidecar.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable is implemented by providers that hold resources requiring
// explicit release.
type Closeable interface {
	Close(ctx context.Context) error
}

// Init calls p.Init when p implements Initializable.
func Init(ctx context.Context, p Provider) error {
	if i, ok := p.(Initializable); ok {
		return i.Init(ctx)
	}
	return nil
}

// Close calls p.Close when p implements Closeable.
func Close(ctx context.Context, p Provider) error {
	if c, ok := p.(Closeable); ok {
		return c.Close(ctx)
	}
	return nil
}
