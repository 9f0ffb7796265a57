package gateway

import (
	"context"

	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/naming"
)

// Checker answers naming existence questions against one drive.
func (g *Gateway) Checker(drive string) naming.Checker {
	return &checker{g: g, drive: drive}
}

type checker struct {
	g     *Gateway
	drive string
}

func (c *checker) Exists(ctx context.Context, rel string) (bool, error) {
	return c.g.HeadCheck(ctx, c.drive, rel)
}

func (c *checker) Siblings(ctx context.Context, dir string) ([]string, error) {
	rows, err := c.g.List(ctx, c.drive, dir)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ChildNames(dir, rows), nil
}
