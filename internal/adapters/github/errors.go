package github

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/okian/statuscard/internal/domain/model"
)

// classifyTransport maps a failed round trip onto an error kind.
func classifyTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.WrapKind(op, model.ErrNetworkTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.WrapKind(op, model.ErrNetworkTimeout, err)
	}
	return model.WrapKind(op, model.ErrSourceUnavailable, err)
}

func notFound(op, username string) error {
	return model.WrapKind(op, model.ErrSourceUnavailable, fmt.Errorf("%w: %q", model.ErrNotFound, username))
}

// Kind returns a short label for err, used for metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, model.ErrNetworkTimeout):
		return "timeout"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrDataFormat):
		return "format"
	case errors.Is(err, model.ErrSourceUnavailable):
		return "upstream"
	default:
		return "unknown"
	}
}
