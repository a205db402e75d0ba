package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/config"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/handler"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/common/handler/errorx"
	"github.com/yanshicheng/kube-nova-board/common/handler/okx"
	middlewarex "github.com/yanshicheng/kube-nova-board/common/middleware"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/proc"
	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"
)

var configFile = flag.String("f", "etc/dashboard-api.yaml", "the config file")

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c, conf.UseEnv())

	server := rest.MustNewServer(c.RestConf)
	defer server.Stop()

	// 自定义全局中间件
	server.Use(middlewarex.PanicRecoveryMiddleware)

	// 自定义错误
	httpx.SetErrorHandler(errorx.ErrHandler)
	httpx.SetOkHandler(okx.OkHandler)

	ctx := svc.NewServiceContext(c)
	handler.RegisterHandlers(server, ctx)

	// 退出时断开队列提供者并停止历史推送
	proc.AddShutdownListener(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ctx.Close(shutdownCtx)
		logx.Info("仪表盘服务资源已释放")
	})

	fmt.Printf("Starting server at %s:%d...\n", c.Host, c.Port)
	server.Start()
}
