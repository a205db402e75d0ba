package dashboard

import (
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	cfgtypes "github.com/yanshicheng/kube-nova-board/common/configmanager/types"
)

func toLayout(in types.LayoutItem) cfgtypes.Layout {
	return cfgtypes.Layout{X: in.X, Y: in.Y, W: in.W, H: in.H}
}

func toWidget(in types.WidgetItem) cfgtypes.Widget {
	return cfgtypes.Widget{
		ID:            in.Id,
		Title:         in.Title,
		Type:          in.Type,
		QueryRef:      in.QueryRef,
		QueueQueryRef: in.QueueQueryRef,
		Variables:     in.Variables,
		Layout:        toLayout(in.Layout),
	}
}
