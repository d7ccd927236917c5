package dependency

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BuildOverrides 按依赖类型名把配置转换为 chart values 覆盖列表
func BuildOverrides(name string, configs map[string]interface{}) ([]Override, error) {
	kind, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return kind.BuildOverrides(configs)
}

// BuildOverrides 每个非空配置项按 override 映射生成一条或多条覆盖, 同一配置项的值相同
// 未声明映射或值类型的配置项属于目录配置错误, 直接返回错误
func (k *Kind) BuildOverrides(configs map[string]interface{}) ([]Override, error) {
	keys := make([]string, 0, len(configs))
	for key := range configs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	overrides := make([]Override, 0, len(keys))
	for _, key := range keys {
		value := configs[key]
		if isBlank(value) {
			continue
		}

		paths, ok := k.overrideMap[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOverrideKey, k.Name, key)
		}
		valueType, ok := k.valueTypes[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownValueType, k.Name, key)
		}

		if transform, ok := k.transforms[key]; ok {
			transformed, err := transform(value)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", k.Name, key, err)
			}
			value = transformed
		}

		typed, err := convertValue(value, valueType)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", k.Name, key, err)
		}

		for _, path := range paths {
			overrides = append(overrides, Override{Path: path, Value: typed})
		}
	}
	return overrides, nil
}

func convertValue(value interface{}, valueType ValueType) (Value, error) {
	switch valueType {
	case ValueTypeNumber:
		n, err := toNumber(value)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(n), nil
	case ValueTypeString:
		switch v := value.(type) {
		case string:
			return StringValue(v), nil
		case fmt.Stringer:
			return StringValue(v.String()), nil
		}
		return Value{}, fmt.Errorf("%w: %v is not a string", ErrInvalidValue, value)
	case ValueTypeList:
		items, ok := value.([]interface{})
		if !ok {
			return Value{}, fmt.Errorf("%w: %v is not a list", ErrInvalidValue, value)
		}
		return fromInterface(items)
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownValueType, valueType)
	}
}

func toNumber(value interface{}) (float64, error) {
	switch n := value.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		// 表单提交的数字
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %v is not a number", ErrInvalidValue, value)
}

func isBlank(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}
