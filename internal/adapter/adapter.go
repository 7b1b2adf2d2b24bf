package adapter

import (
	"fmt"
	"sort"
	"strings"

	"ScriptStats/internal/config"
	"ScriptStats/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// Factory 数据行生产者工厂函数
type Factory func(cfg *config.UploadConfig, logger *logrus.Logger) interfaces.RowProducer

// ========== 全局工厂函数注册表，各格式实现在 init 中注册 ==========
var factoryRegistry = make(map[string]Factory)

// Register 按扩展名注册工厂函数，重复注册时覆盖
func Register(ext string, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("格式%s的工厂函数不能为nil", ext))
	}
	ext = strings.ToLower(ext)
	if _, exists := factoryRegistry[ext]; exists {
		logrus.Warnf("格式%s的解析器已注册，将覆盖原有实现", ext)
	}
	factoryRegistry[ext] = factory
}

// GetFactory 获取指定扩展名的工厂函数
func GetFactory(ext string) (Factory, bool) {
	factory, ok := factoryRegistry[strings.ToLower(ext)]
	return factory, ok
}

// ListFactories 已注册的扩展名，升序
func ListFactories() []string {
	exts := make([]string, 0, len(factoryRegistry))
	for ext := range factoryRegistry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
