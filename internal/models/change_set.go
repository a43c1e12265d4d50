package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FieldChange 单个字段的变更前后值
type FieldChange struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// ChangeSet 字段名 -> 变更内容
type ChangeSet map[string]FieldChange

// Value 实现 driver.Valuer 接口
func (c ChangeSet) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

// Scan 实现 sql.Scanner 接口
func (c *ChangeSet) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported change set type %T", value)
	}
	if len(raw) == 0 {
		*c = nil
		return nil
	}
	return json.Unmarshal(raw, c)
}

// Set 记录字段变更；前后值相同时忽略
func (c ChangeSet) Set(field string, from, to interface{}) {
	if c == nil {
		return
	}
	if fmt.Sprint(from) == fmt.Sprint(to) {
		return
	}
	c[field] = FieldChange{From: from, To: to}
}
