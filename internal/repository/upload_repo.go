package repository

import (
	"context"
	"fmt"

	"ScriptStats/internal/model"

	"gorm.io/gorm"
)

// UploadRepository 上传期次、处理任务与数据行
type UploadRepository interface {
	// CreateUpload 同一事务内创建上传记录与处理任务
	CreateUpload(ctx context.Context, upload *model.ExcelUpload, task *model.UploadTask) error
	GetUpload(ctx context.Context, id string) (*model.ExcelUpload, error)
	// ListUploads 按上传时间升序
	ListUploads(ctx context.Context) ([]*model.ExcelUpload, error)
	// DeleteUpload 级联删除数据行、任务与该期渠道统计
	DeleteUpload(ctx context.Context, id string) error
	SetUploadRowCount(ctx context.Context, id string, rowCount int) error
	GetTask(ctx context.Context, id string) (*model.UploadTask, error)
	UpdateTask(ctx context.Context, id string, update TaskUpdate) error
	InsertRows(ctx context.Context, rows []*model.SpendRow) error
	// ListRows 全部数据行，按 id 升序
	ListRows(ctx context.Context) ([]*model.SpendRow, error)
	// ListRowsByUpload 单个期次的数据行，按 id 升序
	ListRowsByUpload(ctx context.Context, uploadID string) ([]*model.SpendRow, error)
}

// TaskUpdate 任务进度快照
type TaskUpdate struct {
	Status   string
	Progress int
	Total    int
	Message  string
	Error    *string
}

type uploadRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewUploadRepository 创建上传仓储，batchSize 为批量插入数据行的批大小
func NewUploadRepository(db *gorm.DB, batchSize int) UploadRepository {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &uploadRepository{db: db, batchSize: batchSize}
}

func (r *uploadRepository) CreateUpload(ctx context.Context, upload *model.ExcelUpload, task *model.UploadTask) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("开启事务失败: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Create(upload).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("保存上传记录失败: %w, filename: %s", err, upload.Filename)
	}
	task.UploadID = upload.ID
	if err := tx.Create(task).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("保存上传任务失败: %w, upload_id: %s", err, upload.ID)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

func (r *uploadRepository) GetUpload(ctx context.Context, id string) (*model.ExcelUpload, error) {
	var u model.ExcelUpload
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *uploadRepository) ListUploads(ctx context.Context) ([]*model.ExcelUpload, error) {
	var list []*model.ExcelUpload
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *uploadRepository) DeleteUpload(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("upload_id = ?", id).Delete(&model.SpendRow{}).Error; err != nil {
			return fmt.Errorf("删除数据行失败: %w", err)
		}
		if err := tx.Where("upload_id = ?", id).Delete(&model.UploadTask{}).Error; err != nil {
			return fmt.Errorf("删除上传任务失败: %w", err)
		}
		if err := tx.Where("upload_id = ?", id).Delete(&model.ChannelPeriodStat{}).Error; err != nil {
			return fmt.Errorf("删除渠道期次统计失败: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&model.ExcelUpload{})
		if res.Error != nil {
			return fmt.Errorf("删除上传记录失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *uploadRepository) SetUploadRowCount(ctx context.Context, id string, rowCount int) error {
	return r.db.WithContext(ctx).Model(&model.ExcelUpload{}).
		Where("id = ?", id).
		Update("row_count", rowCount).Error
}

func (r *uploadRepository) GetTask(ctx context.Context, id string) (*model.UploadTask, error) {
	var t model.UploadTask
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *uploadRepository) UpdateTask(ctx context.Context, id string, update TaskUpdate) error {
	return r.db.WithContext(ctx).Model(&model.UploadTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   update.Status,
			"progress": update.Progress,
			"total":    update.Total,
			"message":  update.Message,
			"error":    update.Error,
		}).Error
}

func (r *uploadRepository) InsertRows(ctx context.Context, rows []*model.SpendRow) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, r.batchSize).Error
}

func (r *uploadRepository) ListRows(ctx context.Context) ([]*model.SpendRow, error) {
	var rows []*model.SpendRow
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *uploadRepository) ListRowsByUpload(ctx context.Context, uploadID string) ([]*model.SpendRow, error) {
	var rows []*model.SpendRow
	if err := r.db.WithContext(ctx).Where("upload_id = ?", uploadID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
