package service

import (
	"context"
	"fmt"
	"strings"

	"ScriptStats/internal/model"
	"ScriptStats/internal/repository"

	"github.com/sirupsen/logrus"
)

// editableConfigKeys 管理端可读写的配置项
var editableConfigKeys = []string{
	model.ConfigBlockWords,
	model.ConfigContentTypes,
	model.ConfigDisabledContentTypes,
}

// ConfigService 匹配配置（屏蔽词、内容类型）的读写
type ConfigService struct {
	configRepo repository.ConfigRepository
	scriptRepo repository.ScriptRepository
	trigger    RecomputeTrigger
	logger     *logrus.Logger
}

func NewConfigService(configRepo repository.ConfigRepository, scriptRepo repository.ScriptRepository,
	trigger RecomputeTrigger, logger *logrus.Logger) *ConfigService {
	return &ConfigService{
		configRepo: configRepo,
		scriptRepo: scriptRepo,
		trigger:    trigger,
		logger:     logger,
	}
}

// GetAll 返回全部可编辑配置项，缺失的键为空列表
func (s *ConfigService) GetAll(ctx context.Context) (map[string][]string, error) {
	out := make(map[string][]string, len(editableConfigKeys))
	for _, key := range editableConfigKeys {
		values, err := s.configRepo.GetStringList(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("读取配置 %s 失败: %w", key, err)
		}
		out[key] = values
	}
	return out, nil
}

// Put 覆盖一个配置项（去空白、去重），并触发重算
func (s *ConfigService) Put(ctx context.Context, key string, values []string) ([]string, error) {
	if !isEditableKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfigKey, key)
	}
	cleaned := uniqueNonEmpty(values)
	if err := s.configRepo.PutStringList(ctx, key, cleaned); err != nil {
		return nil, fmt.Errorf("保存配置 %s 失败: %w", key, err)
	}
	s.logger.WithFields(logrus.Fields{"key": key, "count": len(cleaned)}).Info("匹配配置已更新")
	s.trigger.Trigger("config:" + key)
	return cleaned, nil
}

// SeedDefaults 屏蔽词或内容类型为空时写入默认值
func (s *ConfigService) SeedDefaults(ctx context.Context, blockWords, contentTypes []string) error {
	defaults := map[string][]string{
		model.ConfigBlockWords:   blockWords,
		model.ConfigContentTypes: contentTypes,
	}
	for key, values := range defaults {
		if len(values) == 0 {
			continue
		}
		current, err := s.configRepo.GetStringList(ctx, key)
		if err != nil {
			return fmt.Errorf("读取配置 %s 失败: %w", key, err)
		}
		if len(current) > 0 {
			continue
		}
		if err := s.configRepo.PutStringList(ctx, key, uniqueNonEmpty(values)); err != nil {
			return fmt.Errorf("写入默认配置 %s 失败: %w", key, err)
		}
		s.logger.WithField("key", key).Info("已写入默认匹配配置")
	}
	return nil
}

// ScanContentTypes 以脚本库中每个脚本名的最后两个字作为候选内容类型，补充未配置且未禁用的部分
func (s *ConfigService) ScanContentTypes(ctx context.Context) ([]string, error) {
	scripts, err := s.scriptRepo.ListScripts(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取脚本失败: %w", err)
	}
	names := make([]string, 0, len(scripts))
	for _, sc := range scripts {
		names = append(names, sc.Name)
	}
	added, err := addContentTypes(ctx, s.configRepo, contentTypeSuffixes(names))
	if err != nil {
		return nil, err
	}
	if len(added) > 0 {
		s.trigger.Trigger("config:scan-content-types")
	}
	return added, nil
}

// contentTypeSuffixes 取名称最后两个字（不足两个字的跳过），按首次出现去重
func contentTypeSuffixes(names []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, n := range names {
		r := []rune(n)
		if len(r) < 2 {
			continue
		}
		suffix := string(r[len(r)-2:])
		if _, ok := seen[suffix]; ok {
			continue
		}
		seen[suffix] = struct{}{}
		out = append(out, suffix)
	}
	return out
}

// addContentTypes 把 candidates 中既不在 contentTypes 也不在 disabledContentTypes 的项追加到 contentTypes
func addContentTypes(ctx context.Context, repo repository.ConfigRepository, candidates []string) ([]string, error) {
	current, err := repo.GetStringList(ctx, model.ConfigContentTypes)
	if err != nil {
		return nil, fmt.Errorf("读取内容类型失败: %w", err)
	}
	disabled, err := repo.GetStringList(ctx, model.ConfigDisabledContentTypes)
	if err != nil {
		return nil, fmt.Errorf("读取禁用内容类型失败: %w", err)
	}
	known := make(map[string]struct{}, len(current)+len(disabled))
	for _, t := range append(append([]string{}, current...), disabled...) {
		known[t] = struct{}{}
	}

	added := []string{}
	for _, t := range candidates {
		if _, ok := known[t]; ok {
			continue
		}
		known[t] = struct{}{}
		added = append(added, t)
	}
	if len(added) == 0 {
		return added, nil
	}
	if err := repo.PutStringList(ctx, model.ConfigContentTypes, append(current, added...)); err != nil {
		return nil, fmt.Errorf("保存内容类型失败: %w", err)
	}
	return added, nil
}

func isEditableKey(key string) bool {
	for _, k := range editableConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

func uniqueNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
