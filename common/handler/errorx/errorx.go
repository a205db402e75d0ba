package errorx

import (
	"errors"

	"github.com/yanshicheng/kube-nova-board/common/configmanager"
	"github.com/yanshicheng/kube-nova-board/common/historymanager"
	"github.com/yanshicheng/kube-nova-board/common/prometheusmanager/cluster"
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"github.com/yanshicheng/kube-nova-board/common/utils"
)

const (
	CodeReferenceFormat     = 40001
	CodeMissingVariable     = 40002
	CodeInvalidQueueQuery   = 40003
	CodeInvalidQueryName    = 40004
	CodeUnsupportedProvider = 40005
	CodeInvalidConfig       = 40006
	CodeRequestValidation   = 40020
	CodeQueryNotFound       = 40401
	CodeProviderNotFound    = 40402
	CodeConfigNotFound      = 40403
	CodeSnapshotNotFound    = 40404
	CodeMetricsNotFound     = 40405
	CodeConflict            = 40901
	CodeServerError         = 50000
	CodeConnection          = 50201
	CodeProviderUnhealthy   = 50301
)

// CodeError 带业务码的错误
type CodeError struct {
	code int
	msg  string
}

// New 创建业务错误
func New(code int, msg string) *CodeError {
	return &CodeError{code: code, msg: msg}
}

// Msg 使用通用错误码
func Msg(msg string) *CodeError {
	return New(CodeServerError, msg)
}

func (e *CodeError) Error() string   { return e.msg }
func (e *CodeError) Code() int       { return e.code }
func (e *CodeError) Message() string { return e.msg }

// 按顺序匹配，更具体的错误在前
var codeTable = []struct {
	target error
	code   int
}{
	{querymanager.ErrReferenceFormat, CodeReferenceFormat},
	{querymanager.ErrMissingVariable, CodeMissingVariable},
	{types.ErrInvalidQueueQuery, CodeInvalidQueueQuery},
	{utils.ErrInvalidQueryName, CodeInvalidQueryName},
	{types.ErrUnsupportedProviderType, CodeUnsupportedProvider},
	{configmanager.ErrInvalidConfig, CodeInvalidConfig},
	{historymanager.ErrInvalidChangeType, CodeInvalidConfig},
	{querymanager.ErrQueryNotFound, CodeQueryNotFound},
	{types.ErrProviderNotFound, CodeProviderNotFound},
	{configmanager.ErrPageNotFound, CodeConfigNotFound},
	{configmanager.ErrWidgetNotFound, CodeConfigNotFound},
	{historymanager.ErrSnapshotNotFound, CodeSnapshotNotFound},
	{cluster.ErrInstanceNotFound, CodeMetricsNotFound},
	{configmanager.ErrPageExists, CodeConflict},
	{types.ErrProviderUnhealthy, CodeProviderUnhealthy},
	{types.ErrConnection, CodeConnection},
}

// CodeFromError 把领域错误映射为稳定的业务码，未知错误归为 50000
func CodeFromError(err error) *CodeError {
	if err == nil {
		return nil
	}

	var ce *CodeError
	if errors.As(err, &ce) {
		return ce
	}

	for _, item := range codeTable {
		if errors.Is(err, item.target) {
			return New(item.code, err.Error())
		}
	}
	return New(CodeServerError, err.Error())
}
