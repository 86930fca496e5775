package feature

import (
	"github.com/ceyewan/routemetrics/xerrors"
)

// CodeFeatureNotEnabled 特性未启用的错误码
const CodeFeatureNotEnabled = "feature_not_enabled"

// ErrFeatureNotEnabled 指标特性未启用
var ErrFeatureNotEnabled = xerrors.WithCode(
	xerrors.New("getting metrics requires enabling the `metrics` experimental feature"),
	CodeFeatureNotEnabled,
)

// IsNotEnabled 判断错误是否为特性未启用
func IsNotEnabled(err error) bool {
	return xerrors.Is(err, ErrFeatureNotEnabled)
}
