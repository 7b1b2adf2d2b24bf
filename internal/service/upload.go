package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"ScriptStats/internal/config"
	"ScriptStats/internal/interfaces"
	"ScriptStats/internal/model"
	"ScriptStats/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProducerLookup 按文件名选择数据行生产者
type ProducerLookup interface {
	ForFile(filename string) (interfaces.RowProducer, bool)
	Extensions() []string
}

// UploadResult 上传受理结果，处理进度通过 TaskID 查询
type UploadResult struct {
	UploadID string `json:"upload_id"`
	TaskID   string `json:"task_id"`
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._\p{Han}-]`)

// UploadService 期次表格上传：同步受理，后台解析入库后触发重算
type UploadService struct {
	uploadRepo repository.UploadRepository
	producers  ProducerLookup
	trigger    RecomputeTrigger
	logger     *logrus.Logger

	dir       string
	maxBytes  int64
	batchSize int

	wg sync.WaitGroup
}

func NewUploadService(uploadRepo repository.UploadRepository, producers ProducerLookup, trigger RecomputeTrigger,
	cfg *config.UploadConfig, logger *logrus.Logger) *UploadService {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &UploadService{
		uploadRepo: uploadRepo,
		producers:  producers,
		trigger:    trigger,
		logger:     logger,
		dir:        cfg.Dir,
		maxBytes:   cfg.MaxUploadBytes(),
		batchSize:  batchSize,
	}
}

// Upload 校验并保存文件，创建上传记录与任务后立即返回，解析在后台进行
func (s *UploadService) Upload(ctx context.Context, filename, period, uploadedBy string, r io.Reader) (*UploadResult, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		return nil, fmt.Errorf("%w: 请填写数据期次", ErrInvalidUpload)
	}
	producer, ok := s.producers.ForFile(filename)
	if !ok {
		return nil, fmt.Errorf("%w: 仅支持 %s 格式", ErrInvalidUpload, strings.Join(s.producers.Extensions(), "、"))
	}

	reader := r
	if s.maxBytes > 0 {
		reader = io.LimitReader(r, s.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: 文件大小不能超过 %dMB", ErrInvalidUpload, s.maxBytes>>20)
	}

	upload := &model.ExcelUpload{
		ID:         uuid.NewString(),
		Filename:   filename,
		Period:     period,
		UploadedBy: uploadedBy,
	}
	if err := s.saveFile(upload.ID, filename, data); err != nil {
		return nil, err
	}
	task := &model.UploadTask{
		ID:       uuid.NewString(),
		UploadID: upload.ID,
		Status:   model.TaskPending,
		Message:  "等待处理...",
	}
	if err := s.uploadRepo.CreateUpload(ctx, upload, task); err != nil {
		return nil, fmt.Errorf("创建上传记录失败: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"upload_id": upload.ID,
		"filename":  filename,
		"period":    period,
		"bytes":     len(data),
	}).Info("文件上传成功，开始后台处理")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.process(context.Background(), upload.ID, task.ID, producer, data)
	}()
	return &UploadResult{UploadID: upload.ID, TaskID: task.ID}, nil
}

// Wait 等待所有后台处理结束
func (s *UploadService) Wait() {
	s.wg.Wait()
}

func (s *UploadService) saveFile(id, filename string, data []byte) error {
	if s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("创建上传目录失败: %w", err)
	}
	name := id + "_" + unsafeFileChars.ReplaceAllString(filepath.Base(filename), "_")
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("保存上传文件失败: %w", err)
	}
	return nil
}

// process 校验表头 → 分批写入数据行 → 触发重算
func (s *UploadService) process(ctx context.Context, uploadID, taskID string, producer interfaces.RowProducer, data []byte) {
	log := s.logger.WithField("upload_id", uploadID)
	update := func(status string, progress, total int, message string) {
		if err := s.uploadRepo.UpdateTask(ctx, taskID, repository.TaskUpdate{
			Status: status, Progress: progress, Total: total, Message: message,
		}); err != nil {
			log.WithError(err).Warn("更新任务进度失败")
		}
	}
	fail := func(err error) {
		msg := err.Error()
		log.WithError(err).Error("上传文件处理失败")
		if e := s.uploadRepo.UpdateTask(ctx, taskID, repository.TaskUpdate{Status: model.TaskError, Error: &msg}); e != nil {
			log.WithError(e).Warn("更新任务状态失败")
		}
	}
	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("处理上传文件 panic: %v", r))
		}
	}()

	update(model.TaskValidating, 0, 0, "正在验证文件格式...")
	sheet, err := producer.Open(bytes.NewReader(data))
	if err != nil {
		fail(err)
		return
	}

	total := sheet.Total()
	update(model.TaskParsing, 0, total, fmt.Sprintf("正在解析数据（0/%d 行）...", total))
	if err := s.uploadRepo.SetUploadRowCount(ctx, uploadID, total); err != nil {
		fail(fmt.Errorf("更新数据行数失败: %w", err))
		return
	}

	rows := sheet.Rows()
	for i := 0; i < len(rows); i += s.batchSize {
		end := i + s.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[i:end]
		for _, r := range batch {
			r.UploadID = uploadID
		}
		if err := s.uploadRepo.InsertRows(ctx, batch); err != nil {
			fail(fmt.Errorf("写入数据行失败: %w", err))
			return
		}
		// 进度按表格行号计，跳过的空素材行也算已处理
		processed := batch[len(batch)-1].RowIndex
		update(model.TaskParsing, processed, total, fmt.Sprintf("正在解析数据（%d/%d 行）...", processed, total))
	}

	update(model.TaskMatching, total, total, "正在匹配脚本数据...")
	s.trigger.Trigger("upload:" + uploadID)
	update(model.TaskDone, total, total, fmt.Sprintf("解析完成，共录入 %d 行数据", total))
	log.WithFields(logrus.Fields{"rows": len(rows), "total": total}).Info("上传文件处理完成")
}

// TaskStatus 查询后台处理进度
func (s *UploadService) TaskStatus(ctx context.Context, taskID string) (*model.UploadTask, error) {
	task, err := s.uploadRepo.GetTask(ctx, taskID)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound)
	}
	return task, nil
}

// ListUploads 按上传时间倒序
func (s *UploadService) ListUploads(ctx context.Context) ([]*model.ExcelUpload, error) {
	uploads, err := s.uploadRepo.ListUploads(ctx)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(uploads)-1; i < j; i, j = i+1, j-1 {
		uploads[i], uploads[j] = uploads[j], uploads[i]
	}
	return uploads, nil
}

// WriteTemplate 输出第一个支持模板的格式的空白模板，返回其扩展名
func (s *UploadService) WriteTemplate(w io.Writer) (string, error) {
	for _, ext := range s.producers.Extensions() {
		p, _ := s.producers.ForFile("template" + ext)
		if tw, ok := p.(interfaces.TemplateWriter); ok {
			return ext, tw.WriteTemplate(w)
		}
	}
	return "", fmt.Errorf("%w: 没有可用的上传模板", ErrInvalidUpload)
}

// DeleteUpload 删除期次及其数据行后触发重算
func (s *UploadService) DeleteUpload(ctx context.Context, id string) error {
	if err := s.uploadRepo.DeleteUpload(ctx, id); err != nil {
		return notFound(err, ErrUploadNotFound)
	}
	s.logger.WithField("upload_id", id).Info("上传记录已删除")
	s.trigger.Trigger("upload:delete")
	return nil
}
