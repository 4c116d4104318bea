package assert

import (
	"fmt"
	"sync"
)

var (
	mu       sync.Mutex
	creating = map[uintptr]bool{}
)

// NotNil 断言对象非空，初始化阶段违例直接panic。
func NotNil(v interface{}) {
	if v == nil {
		panic("assert: unexpected nil during initialization")
	}
}

// NotCircular 防止资源初始化过程中出现循环依赖。
// 简化实现：同一调用点重入时panic。
func NotCircular(callers ...uintptr) {
	mu.Lock()
	defer mu.Unlock()
	for _, pc := range callers {
		if creating[pc] {
			panic(fmt.Sprintf("assert: circular initialization detected pc=%d", pc))
		}
		creating[pc] = true
	}
}
