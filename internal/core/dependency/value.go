package dependency

import (
	"encoding/json"
	"fmt"
)

// ValueType override 值类型
type ValueType string

const (
	ValueTypeNumber ValueType = "number"
	ValueTypeString ValueType = "string"
	ValueTypeList   ValueType = "list"
)

// Value 带类型的 override 值, JSON 形式与 google.protobuf.Value 一致
type Value struct {
	kind   ValueType
	number float64
	str    string
	list   []Value
}

// NumberValue 数值
func NumberValue(n float64) Value {
	return Value{kind: ValueTypeNumber, number: n}
}

// StringValue 字符串
func StringValue(s string) Value {
	return Value{kind: ValueTypeString, str: s}
}

// ListValue 列表
func ListValue(items ...Value) Value {
	return Value{kind: ValueTypeList, list: items}
}

// Type 值类型
func (v Value) Type() ValueType {
	return v.kind
}

// Interface 转换为普通 Go 值, 用于渲染 values.yaml
func (v Value) Interface() interface{} {
	switch v.kind {
	case ValueTypeNumber:
		return v.number
	case ValueTypeString:
		return v.str
	case ValueTypeList:
		out := make([]interface{}, 0, len(v.list))
		for _, item := range v.list {
			out = append(out, item.Interface())
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON 实现 json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON 实现 json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := fromInterface(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func fromInterface(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case float64:
		return NumberValue(x), nil
	case string:
		return StringValue(x), nil
	case []interface{}:
		items := make([]Value, 0, len(x))
		for _, item := range x {
			parsed, err := fromInterface(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, parsed)
		}
		return ListValue(items...), nil
	default:
		return Value{}, fmt.Errorf("unsupported override value %v (%T)", raw, raw)
	}
}

// Override 单条 chart values 覆盖, Path 为点分路径
type Override struct {
	Path  string `json:"path"`
	Value Value  `json:"value"`
}
