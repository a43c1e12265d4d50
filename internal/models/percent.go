package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

const percentScale = 4

// Percent 百分比数值（0-100，保留 4 位小数）
type Percent struct {
	decimal.Decimal
}

// NewPercent 从 decimal 创建百分比
func NewPercent(value decimal.Decimal) Percent {
	return Percent{Decimal: value.Round(percentScale)}
}

// NewPercentFromFloat 从浮点数创建百分比
func NewPercentFromFloat(value float64) Percent {
	return NewPercent(decimal.NewFromFloat(value))
}

// MarshalJSON 输出为数字，便于前端直接展示
func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Decimal.Round(percentScale).InexactFloat64())
}

// UnmarshalJSON 解析百分比（字符串或数字）
func (p *Percent) UnmarshalJSON(b []byte) error {
	d, err := unmarshalDecimal(b)
	if err != nil {
		return err
	}
	p.Decimal = d.Round(percentScale)
	return nil
}

// Value 用于数据库写入
func (p Percent) Value() (driver.Value, error) {
	return p.Decimal.Round(percentScale).Value()
}

// Scan 用于数据库读取
func (p *Percent) Scan(value interface{}) error {
	if err := p.Decimal.Scan(value); err != nil {
		return err
	}
	p.Decimal = p.Decimal.Round(percentScale)
	return nil
}
