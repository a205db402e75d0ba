package query

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	"github.com/zeromicro/go-zero/core/logx"
)

type GetQueryLibraryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 合并后的查询库
func NewGetQueryLibraryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetQueryLibraryLogic {
	return &GetQueryLibraryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetQueryLibraryLogic) GetQueryLibrary(req *types.QueryLibraryRequest) (resp *types.QueryLibraryResponse, err error) {
	library := l.svcCtx.QueryLibrary()
	catalog := library.Catalog()

	if req.Namespace != "" {
		filtered := querymanager.Catalog{}
		if queries, ok := catalog[req.Namespace]; ok {
			filtered[req.Namespace] = queries
		}
		catalog = filtered
	}

	return &types.QueryLibraryResponse{
		Queries:    catalog,
		Namespaces: catalog.Namespaces(),
		Total:      catalog.Len(),
	}, nil
}
