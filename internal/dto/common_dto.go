package dto

import "time"

// TimeFormat 响应中的时间格式
const TimeFormat = "2006-01-02 15:04:05"

// PageQuery 分页查询参数
type PageQuery struct {
	Page     int    `form:"page"`      // 可选：页码，不传默认为1
	PageSize int    `form:"page_size"` // 可选：每页数量，不传默认为10
	Keyword  string `form:"keyword"`   // 可选：关键字搜索
}

// GetPage 获取页码
func (p *PageQuery) GetPage() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量
func (p *PageQuery) GetPageSize() int {
	if p.PageSize < 1 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// GetOffset 获取偏移量
func (p *PageQuery) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// IDParam ID参数
type IDParam struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// IDRequest JSON body 中的ID
type IDRequest struct {
	ID int64 `json:"id" binding:"required,min=1"`
}

// FormatTime 格式化时间
func FormatTime(t time.Time) string {
	return t.Format(TimeFormat)
}

// FormatTimePtr 格式化可空时间
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

// IDQuery 查询参数中的ID
type IDQuery struct {
	ID int64 `form:"id" binding:"required,min=1"`
}

// VersionScopedQuery 按版本查询服务或依赖
type VersionScopedQuery struct {
	ProjectVersionID int64 `form:"project_version_id" binding:"required,min=1"`
}
