package manager

import (
	"sync"

	"vod-packager/pkg/logger"
)

// Resource 由各资源单例实现，统一初始化与释放。
type Resource interface {
	MustOpen()
	Close()
}

// ResourcePlugin 资源插件，init阶段注册，启动时统一创建。
type ResourcePlugin interface {
	Name() string
	MustCreateResource() Resource
}

var (
	mu        sync.Mutex
	plugins   []ResourcePlugin
	resources []Resource
)

// RegisterResourcePlugin 注册资源插件，须在MustInitResources之前调用。
func RegisterResourcePlugin(p ResourcePlugin) {
	if p == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	plugins = append(plugins, p)
}

// MustInitResources 按注册顺序初始化所有资源，失败直接panic。
func MustInitResources() {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range plugins {
		r := p.MustCreateResource()
		r.MustOpen()
		resources = append(resources, r)
		logger.Infof("resource opened name=%s", p.Name())
	}
}

// CloseResources 逆序释放所有资源。
func CloseResources() {
	mu.Lock()
	defer mu.Unlock()
	for i := len(resources) - 1; i >= 0; i-- {
		resources[i].Close()
	}
	resources = nil
}
