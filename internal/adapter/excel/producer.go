package excel

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ScriptStats/internal/adapter"
	"ScriptStats/internal/config"
	"ScriptStats/internal/interfaces"
	"ScriptStats/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const Extension = ".xlsx"

var (
	ErrUnreadable = errors.New("无法读取文件，请确认上传的是有效的 .xlsx 文件")
	ErrNoSheet    = errors.New("文件中没有找到工作表")
	ErrNoDataRows = errors.New("文件内容为空或只有表头，没有数据行")
)

func init() {
	adapter.Register(Extension, func(cfg *config.UploadConfig, logger *logrus.Logger) interfaces.RowProducer {
		return NewProducer(cfg.Sheet, logger)
	})
}

// Producer 读取 .xlsx 的指定工作表（为空时取第一张）
type Producer struct {
	sheet  string
	logger *logrus.Logger
}

func NewProducer(sheet string, logger *logrus.Logger) *Producer {
	return &Producer{sheet: sheet, logger: logger}
}

func (p *Producer) Extension() string { return Extension }

func (p *Producer) Open(r io.Reader) (interfaces.RowSheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		p.logger.WithError(err).Warn("excel 文件读取失败")
		return nil, ErrUnreadable
	}
	defer func() {
		if err := f.Close(); err != nil {
			p.logger.WithError(err).Warn("关闭 excel 文件失败")
		}
	}()

	name := p.sheet
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSheet
		}
		name = sheets[0]
	}
	all, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %s 失败: %w", name, err)
	}
	if len(all) < 2 {
		return nil, ErrNoDataRows
	}
	if problems := ValidateHeaders(all[0]); len(problems) > 0 {
		return nil, &HeaderError{Problems: problems}
	}

	data := make([][]string, 0, len(all)-1)
	for _, cells := range all[1:] {
		if !blank(cells) {
			data = append(data, cells)
		}
	}
	return &sheet{data: data}, nil
}

type sheet struct {
	data [][]string
}

func (s *sheet) Total() int { return len(s.data) }

func (s *sheet) Rows() []*model.SpendRow {
	rows := make([]*model.SpendRow, 0, len(s.data))
	for i, cells := range s.data {
		if r := ParseRow(cells, i+1); r != nil {
			rows = append(rows, r)
		}
	}
	return rows
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseRow 按列位置取值；素材名为空时返回 nil
func ParseRow(cells []string, rowIndex int) *model.SpendRow {
	name := text(cells, 0)
	if name == nil {
		return nil
	}
	return &model.SpendRow{
		RowIndex:     rowIndex,
		MaterialName: *name,
		DeliveryDate: text(cells, 1),
		Channel:      text(cells, 2),
		RowMetrics: model.RowMetrics{
			TotalCost:         number(cells, 4),
			Impressions:       number(cells, 6),
			ClickRate:         number(cells, 8),
			PlayRate3s:        number(cells, 9),
			PlayRate:          number(cells, 10),
			ConversionRate:    number(cells, 11),
			Clicks:            number(cells, 13),
			Customers:         number(cells, 15),
			LowCourseCount:    number(cells, 16),
			LandingConvRate:   number(cells, 17),
			LowCourseRevenue:  number(cells, 18),
			WechatFollowers:   number(cells, 19),
			WechatFollowRate:  number(cells, 20),
			Activations:       number(cells, 21),
			ActivationRate:    number(cells, 22),
			Additions:         number(cells, 24),
			AdditionRate:      number(cells, 25),
			GroupJoins:        number(cells, 27),
			GroupJoinRate:     number(cells, 28),
			Day1PlayRate:      number(cells, 29),
			Day2PlayRate:      number(cells, 30),
			Day3PlayRate:      number(cells, 31),
			Day4PlayRate:      number(cells, 32),
			Day5PlayRate:      number(cells, 33),
			DeepUsers:         number(cells, 34),
			DeepRate:          number(cells, 35),
			Day3DeepPlayRate:  number(cells, 36),
			Day3DeepConvRate:  number(cells, 37),
			HighCourseCount:   number(cells, 38),
			HighCoursePayRate: number(cells, 39),
			Day3HighCourse:    number(cells, 40),
			Day4HighCourse:    number(cells, 41),
			Day5HighCourse:    number(cells, 42),
			HighCourseRevenue: number(cells, 43),
			Refunds:           number(cells, 44),
			RefundRate:        number(cells, 45),
		},
	}
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func text(cells []string, i int) *string {
	v := cell(cells, i)
	if v == "" {
		return nil
	}
	return &v
}

// number 空值与无法解析的值都记为 nil；容忍千分位逗号，百分号按百分比换算
func number(cells []string, i int) *float64 {
	v := strings.ReplaceAll(cell(cells, i), ",", "")
	if v == "" {
		return nil
	}
	scale := 1.0
	if strings.HasSuffix(v, "%") {
		v = strings.TrimSpace(strings.TrimSuffix(v, "%"))
		scale = 0.01
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	f *= scale
	return &f
}
