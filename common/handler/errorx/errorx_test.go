package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yanshicheng/kube-nova-board/common/configmanager"
	"github.com/yanshicheng/kube-nova-board/common/handler/errorx/types"
	"github.com/yanshicheng/kube-nova-board/common/historymanager"
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	qtypes "github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"github.com/yanshicheng/kube-nova-board/common/utils"
)

func TestCodeFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"引用格式", fmt.Errorf("resolve: %w", querymanager.ErrReferenceFormat), CodeReferenceFormat},
		{"缺少变量", &querymanager.MissingVariableError{Reference: "pods.cpu_v1-0-0", Missing: []string{"pod"}}, CodeMissingVariable},
		{"查询不存在", fmt.Errorf("%w: x", querymanager.ErrQueryNotFound), CodeQueryNotFound},
		{"队列查询非法", fmt.Errorf("%w: limit", qtypes.ErrInvalidQueueQuery), CodeInvalidQueueQuery},
		{"查询名称", utils.ValidateQueryName("bad"), CodeInvalidQueryName},
		{"提供者不存在", fmt.Errorf("%w: x", qtypes.ErrProviderNotFound), CodeProviderNotFound},
		{"提供者不健康", fmt.Errorf("%w: x", qtypes.ErrProviderUnhealthy), CodeProviderUnhealthy},
		{"连接错误", fmt.Errorf("查询任务失败: %w", fmt.Errorf("%w: redis", qtypes.ErrConnection)), CodeConnection},
		{"不支持的类型", qtypes.ErrUnsupportedProviderType, CodeUnsupportedProvider},
		{"快照不存在", historymanager.ErrSnapshotNotFound, CodeSnapshotNotFound},
		{"页面不存在", configmanager.ErrPageNotFound, CodeConfigNotFound},
		{"页面重复", configmanager.ErrPageExists, CodeConflict},
		{"业务错误原样返回", New(CodeRequestValidation, "limit 必须大于 0"), CodeRequestValidation},
		{"未知错误", errors.New("boom"), CodeServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := CodeFromError(tt.err)
			assert.Equal(t, tt.code, ce.Code())
			assert.Equal(t, tt.err.Error(), ce.Message())
		})
	}
	assert.Nil(t, CodeFromError(nil))
}

func TestErrHandler(t *testing.T) {
	status, body := ErrHandler(historymanager.ErrSnapshotNotFound)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, types.Status{Code: CodeSnapshotNotFound, Message: "snapshot not found"}, body)
}
