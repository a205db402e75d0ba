package query

import (
	"context"
	"fmt"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	"github.com/zeromicro/go-zero/core/logx"
)

type ValidateVariablesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 校验变量是否覆盖模板中的全部占位符
func NewValidateVariablesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ValidateVariablesLogic {
	return &ValidateVariablesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ValidateVariablesLogic) ValidateVariables(req *types.ValidateVariablesRequest) (resp *types.ValidateVariablesResponse, err error) {
	template := req.Template
	if req.Reference != "" {
		namespace, name, err := querymanager.ParseReference(req.Reference)
		if err != nil {
			return nil, err
		}
		tpl, ok := l.svcCtx.QueryLibrary().Lookup(namespace, name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", querymanager.ErrQueryNotFound, namespace, name)
		}
		template = tpl
	}

	check := querymanager.ValidateVariables(template, req.Variables)
	return &types.ValidateVariablesResponse{
		Valid:     check.Valid,
		Variables: querymanager.ExtractVariables(template),
		Missing:   check.Missing,
	}, nil
}
