package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// EnvironmentVariable 服务环境变量
type EnvironmentVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EnvVarList 以 JSON 存储的环境变量列表
type EnvVarList []EnvironmentVariable

// Scan 实现 sql.Scanner
func (l *EnvVarList) Scan(value interface{}) error {
	return scanJSON(value, l, func() { *l = EnvVarList{} })
}

// Value 实现 driver.Valuer
func (l EnvVarList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// Names 返回全部变量名
func (l EnvVarList) Names() []string {
	names := make([]string, 0, len(l))
	for _, v := range l {
		names = append(names, v.Name)
	}
	return names
}

// StringList 以 JSON 存储的字符串列表 (secret 的 environment key)
type StringList []string

// Scan 实现 sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l, func() { *l = StringList{} })
}

// Value 实现 driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// IntList 以 JSON 存储的端口列表
type IntList []int

// Scan 实现 sql.Scanner
func (l *IntList) Scan(value interface{}) error {
	return scanJSON(value, l, func() { *l = IntList{} })
}

// Value 实现 driver.Valuer
func (l IntList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func scanJSON(value interface{}, dest interface{}, empty func()) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		empty()
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, dest)
	}
	if len(bytes) == 0 {
		empty()
		return nil
	}
	return json.Unmarshal(bytes, dest)
}
