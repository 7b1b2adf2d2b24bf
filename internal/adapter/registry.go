package adapter

import (
	"path/filepath"
	"sort"
	"strings"

	"ScriptStats/internal/config"
	"ScriptStats/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// ProducerRegistry 已实例化的数据行生产者，按扩展名索引
type ProducerRegistry struct {
	logger    *logrus.Logger
	producers map[string]interfaces.RowProducer
}

// NewProducerRegistry 用全局注册的工厂函数创建全部生产者
func NewProducerRegistry(cfg *config.UploadConfig, logger *logrus.Logger) *ProducerRegistry {
	r := NewEmptyRegistry(logger)
	for _, ext := range ListFactories() {
		factory, _ := GetFactory(ext)
		p := factory(cfg, logger)
		if p == nil {
			logger.WithField("ext", ext).Error("工厂函数返回nil解析器")
			continue
		}
		r.Add(p)
	}
	logger.WithField("extensions", r.Extensions()).Info("上传文件解析器初始化完成")
	return r
}

// NewEmptyRegistry 不含任何生产者，配合 Add 使用
func NewEmptyRegistry(logger *logrus.Logger) *ProducerRegistry {
	return &ProducerRegistry{logger: logger, producers: make(map[string]interfaces.RowProducer)}
}

func (r *ProducerRegistry) Add(p interfaces.RowProducer) {
	r.producers[strings.ToLower(p.Extension())] = p
}

// ForFile 按文件名扩展名（不区分大小写）选择生产者
func (r *ProducerRegistry) ForFile(filename string) (interfaces.RowProducer, bool) {
	p, ok := r.producers[strings.ToLower(filepath.Ext(filename))]
	return p, ok
}

// Extensions 支持的扩展名，升序
func (r *ProducerRegistry) Extensions() []string {
	exts := make([]string, 0, len(r.producers))
	for ext := range r.producers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
