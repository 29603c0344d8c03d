//go:build !sqlite
// +build !sqlite

package journal

import (
	"errors"

	logx "topicherd/pkg/logx"
)

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	_ = cfg
	_ = log
	return nil, errors.New("sqlite journal not built: build with -tags sqlite")
}
