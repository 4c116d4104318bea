package resource

import "vod-packager/pkg/manager"

// 注册所有资源插件，app启动时由manager统一初始化。
func init() {
	manager.RegisterResourcePlugin(&MinioResourcePlugin{})
	manager.RegisterResourcePlugin(&RedisResourcePlugin{})
	manager.RegisterResourcePlugin(&KafkaResourcePlugin{})
}
