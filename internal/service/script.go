package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ScriptStats/internal/model"
	"ScriptStats/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ScriptInput 新建或整体更新脚本时的可编辑字段
type ScriptInput struct {
	Name         string  `json:"name"`
	ParentID     *string `json:"parent_id"`
	FrontContent *string `json:"front_content"`
	MidContent   *string `json:"mid_content"`
	EndContent   *string `json:"end_content"`
}

// ScriptDetail 脚本详情：脚本本身、统计与分渠道统计
type ScriptDetail struct {
	*model.Script
	ChannelStats []*model.ScriptChannelStat `json:"channel_stats"`
}

// ImportSummary 批量导入结果
type ImportSummary struct {
	Created           int      `json:"created"`
	Skipped           int      `json:"skipped"`
	AddedContentTypes []string `json:"added_content_types"`
}

// ScriptService 脚本库管理；任何变更都会异步触发统计重算
type ScriptService struct {
	scriptRepo repository.ScriptRepository
	statRepo   repository.StatRepository
	configRepo repository.ConfigRepository
	trigger    RecomputeTrigger
	logger     *logrus.Logger
}

func NewScriptService(scriptRepo repository.ScriptRepository, statRepo repository.StatRepository,
	configRepo repository.ConfigRepository, trigger RecomputeTrigger, logger *logrus.Logger) *ScriptService {
	return &ScriptService{
		scriptRepo: scriptRepo,
		statRepo:   statRepo,
		configRepo: configRepo,
		trigger:    trigger,
		logger:     logger,
	}
}

// List 按创建时间升序，附带统计
func (s *ScriptService) List(ctx context.Context) ([]*model.Script, error) {
	return s.scriptRepo.ListScriptsWithStat(ctx)
}

func (s *ScriptService) Get(ctx context.Context, id string) (*ScriptDetail, error) {
	sc, err := s.scriptRepo.GetScriptByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrScriptNotFound)
	}
	channels, err := s.statRepo.ListScriptChannelStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("读取渠道统计失败: %w", err)
	}
	return &ScriptDetail{Script: sc, ChannelStats: channels}, nil
}

// ChannelStats 脚本分渠道统计，按总成本降序
func (s *ScriptService) ChannelStats(ctx context.Context, id string) ([]*model.ScriptChannelStat, error) {
	if _, err := s.scriptRepo.GetScriptByID(ctx, id); err != nil {
		return nil, notFound(err, ErrScriptNotFound)
	}
	return s.statRepo.ListScriptChannelStats(ctx, id)
}

// maxCompare 一次最多对比的脚本数
const maxCompare = 4

// Compare 按传入顺序返回最多 4 个脚本的详情，不存在的 id 被跳过
func (s *ScriptService) Compare(ctx context.Context, ids []string) ([]*ScriptDetail, error) {
	out := []*ScriptDetail{}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if len(out) == maxCompare {
			break
		}
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		detail, err := s.Get(ctx, id)
		if errors.Is(err, ErrScriptNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, detail)
	}
	return out, nil
}

// CheckName 名称可用返回 true
func (s *ScriptService) CheckName(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrScriptNameEmpty
	}
	_, err := s.scriptRepo.GetScriptByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

func (s *ScriptService) Create(ctx context.Context, in ScriptInput, uploadedBy string) (*model.Script, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrScriptNameEmpty
	}
	if ok, err := s.CheckName(ctx, name); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrScriptNameTaken
	}

	sc := &model.Script{
		ID:           uuid.NewString(),
		Name:         name,
		FrontContent: in.FrontContent,
		MidContent:   in.MidContent,
		EndContent:   in.EndContent,
		UploadedBy:   uploadedBy,
	}
	if in.ParentID != nil && *in.ParentID != "" {
		if err := s.checkParent(ctx, sc.ID, *in.ParentID); err != nil {
			return nil, err
		}
		sc.ParentID = in.ParentID
	}
	if err := s.scriptRepo.CreateScript(ctx, sc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrScriptNameTaken
		}
		return nil, fmt.Errorf("创建脚本失败: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"id": sc.ID, "name": sc.Name}).Info("脚本已创建")
	s.trigger.Trigger("script:create")
	return sc, nil
}

// Update 整体替换名称、父脚本与三段内容
func (s *ScriptService) Update(ctx context.Context, id string, in ScriptInput) (*model.Script, error) {
	sc, err := s.scriptRepo.GetScriptByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrScriptNotFound)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrScriptNameEmpty
	}
	if name != sc.Name {
		if ok, err := s.CheckName(ctx, name); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrScriptNameTaken
		}
	}

	var parentID *string
	if in.ParentID != nil && *in.ParentID != "" {
		if err := s.checkParent(ctx, id, *in.ParentID); err != nil {
			return nil, err
		}
		parentID = in.ParentID
	}

	sc.Name = name
	sc.ParentID = parentID
	sc.FrontContent = in.FrontContent
	sc.MidContent = in.MidContent
	sc.EndContent = in.EndContent
	if err := s.scriptRepo.SaveScript(ctx, sc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrScriptNameTaken
		}
		return nil, fmt.Errorf("更新脚本失败: %w", err)
	}
	s.trigger.Trigger("script:update")
	return sc, nil
}

func (s *ScriptService) Delete(ctx context.Context, id string) error {
	n, err := s.scriptRepo.DeleteScripts(ctx, []string{id})
	if err != nil {
		return fmt.Errorf("删除脚本失败: %w", err)
	}
	if n == 0 {
		return ErrScriptNotFound
	}
	s.trigger.Trigger("script:delete")
	return nil
}

// BatchDelete 返回实际删除的条数；不存在的 id 被忽略
func (s *ScriptService) BatchDelete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.scriptRepo.DeleteScripts(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("批量删除脚本失败: %w", err)
	}
	if n > 0 {
		s.trigger.Trigger("script:batch-delete")
	}
	return n, nil
}

// ParseImport 只解析，不落库
func (s *ScriptService) ParseImport(text string) *ParseResult {
	return ParseScriptText(text)
}

// SaveImport 创建尚不存在的脚本，已存在的跳过；有新建时触发重算并补充内容类型
func (s *ScriptService) SaveImport(ctx context.Context, scripts []*ParsedScript, uploadedBy string) (*ImportSummary, error) {
	names := make([]string, 0, len(scripts))
	for _, p := range scripts {
		names = append(names, p.Name)
	}
	existing, err := s.scriptRepo.ListExistingNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("查询已有脚本失败: %w", err)
	}
	taken := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		taken[n] = struct{}{}
	}

	summary := &ImportSummary{AddedContentTypes: []string{}}
	for _, p := range scripts {
		name := strings.TrimSpace(p.Name)
		if _, ok := taken[name]; ok || name == "" {
			summary.Skipped++
			continue
		}
		sc := &model.Script{
			ID:           uuid.NewString(),
			Name:         name,
			FrontContent: optional(p.FrontContent),
			MidContent:   optional(p.MidContent),
			EndContent:   optional(p.EndContent),
			UploadedBy:   uploadedBy,
		}
		if err := s.scriptRepo.CreateScript(ctx, sc); err != nil {
			return summary, fmt.Errorf("导入脚本 %s 失败: %w", name, err)
		}
		taken[name] = struct{}{}
		summary.Created++
	}
	if summary.Created == 0 {
		return summary, nil
	}

	added, err := addContentTypes(ctx, s.configRepo, contentTypeSuffixes(names))
	if err != nil {
		s.logger.WithError(err).Warn("导入后自动识别内容类型失败")
	} else {
		summary.AddedContentTypes = added
	}
	s.logger.WithFields(logrus.Fields{
		"created": summary.Created,
		"skipped": summary.Skipped,
		"types":   len(summary.AddedContentTypes),
	}).Info("脚本导入完成")
	s.trigger.Trigger("script:import")
	return summary, nil
}

// checkParent 沿父链向上走，父脚本必须存在且不能是 id 自身或其后代。
// 步数以脚本总数为上限，已有数据中存在环时也能结束。
func (s *ScriptService) checkParent(ctx context.Context, id, parentID string) error {
	if parentID == id {
		return ErrLineageCycle
	}
	scripts, err := s.scriptRepo.ListScripts(ctx)
	if err != nil {
		return fmt.Errorf("读取脚本失败: %w", err)
	}
	parentOf := make(map[string]*string, len(scripts))
	for _, sc := range scripts {
		parentOf[sc.ID] = sc.ParentID
	}
	if _, ok := parentOf[parentID]; !ok {
		return fmt.Errorf("父脚本: %w", ErrScriptNotFound)
	}

	cur := parentID
	for steps := 0; steps <= len(scripts); steps++ {
		next := parentOf[cur]
		if next == nil {
			return nil
		}
		if *next == id {
			return ErrLineageCycle
		}
		cur = *next
	}
	return ErrLineageCycle
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// notFound 把 gorm.ErrRecordNotFound 转为业务哨兵错误
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
