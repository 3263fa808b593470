package logging

import (
	"go.uber.org/zap"
)

// Init 初始化全局 zap Logger，之后业务代码统一通过 zap.L() 使用。
// development 环境输出彩色可读日志，production 输出 JSON。
func Init(env string) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}
