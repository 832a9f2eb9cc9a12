package commonrepo

import "time"

// Mode 公共字段，时间均为 unix 秒
type Mode struct {
	ID         uint64 `gorm:"primarykey"`
	CreateTime int64  `gorm:"column:create_time;not null;autoCreateTime"`
	UpdateTime int64  `gorm:"column:update_time;not null;autoUpdateTime"`
}

// Touch 补齐插入前为空的时间字段，update_time 默认与 create_time 相同
func (m *Mode) Touch(now time.Time) {
	if m.CreateTime == 0 {
		m.CreateTime = now.Unix()
	}
	if m.UpdateTime == 0 {
		m.UpdateTime = m.CreateTime
	}
}
