package routemetrics

import (
	"github.com/ceyewan/routemetrics/xerrors"
)

// ErrStateMissing 请求 context 中没有 feature.Service
//
// 说明 feature 中间件没有安装在指标中间件之前，属于装配错误，拦截器会 panic。
var ErrStateMissing = xerrors.New("routemetrics: feature service missing from request context")
