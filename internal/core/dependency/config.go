package dependency

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"onprem-cd/internal/pkg/crypto"
)

// ErrInvalidConfig 依赖配置未通过目录 schema 校验
var ErrInvalidConfig = errors.New("invalid dependency config")

// Config 某一依赖类型的配置, 持久化前必须通过 Validate
type Config interface {
	// Values 扁平化的配置项, 零值数字不输出
	Values() map[string]interface{}
	Validate() error
	// FillSecrets 生成缺省凭据, previous 为已保存的配置, 其中的密码不会被覆盖
	FillSecrets(previous map[string]interface{}) error
}

// 表单可选项
var (
	CPUCoreOptions        = []int64{1, 2, 4, 8, 16, 32}
	PostgresMemoryOptions = []int64{1 << 30, 2 << 30, 4 << 30, 8 << 30, 16 << 30, 32 << 30}
	RedisMemoryOptions    = []int64{1 << 30, 2 << 30, 4 << 30, 8 << 30, 16 << 30, 32 << 30, 64 << 30}
	DiskOptions           = []int64{10 << 30, 20 << 30, 40 << 30, 80 << 30, 160 << 30, 320 << 30}
	PostgresAppVersions   = []string{"15.10.0", "16.6.0", "17.2.0"}
	RedisEvictionPolicies = []string{
		"allkeys-lru", "noeviction", "allkeys-lfu", "allkeys-random",
		"volatile-lru", "volatile-lfu", "volatile-random", "volatile-ttl",
	}
)

var pgIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("pg_identifier", func(fl validator.FieldLevel) bool {
		return pgIdentifier.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("int_options", func(fl validator.FieldLevel) bool {
		options := map[string][]int64{
			"cpu":      CPUCoreOptions,
			"pgmemory": PostgresMemoryOptions,
			"rdmemory": RedisMemoryOptions,
			"disk":     DiskOptions,
		}[fl.Param()]
		value := fl.Field().Int()
		for _, o := range options {
			if o == value {
				return true
			}
		}
		return false
	})
	return v
}

// PostgresqlConfig postgresql 依赖配置
type PostgresqlConfig struct {
	DBName      string `json:"db_name" validate:"omitempty,pg_identifier"`
	DBUser      string `json:"db_user" validate:"omitempty,pg_identifier"`
	DBPassword  string `json:"db_password"`
	CPUCores    int64  `json:"cpu_cores" validate:"required,int_options=cpu"`
	MemoryBytes int64  `json:"memory_bytes" validate:"required,int_options=pgmemory"`
	DiskBytes   int64  `json:"disk_bytes" validate:"required,int_options=disk"`
	AppVersion  string `json:"app_version" validate:"required,oneof=15.10.0 16.6.0 17.2.0"`
}

// Values 实现 Config
func (c *PostgresqlConfig) Values() map[string]interface{} {
	m := map[string]interface{}{
		"db_name":     c.DBName,
		"db_user":     c.DBUser,
		"db_password": c.DBPassword,
		"app_version": c.AppVersion,
	}
	putInt(m, "cpu_cores", c.CPUCores)
	putInt(m, "memory_bytes", c.MemoryBytes)
	putInt(m, "disk_bytes", c.DiskBytes)
	return m
}

// Validate 实现 Config
func (c *PostgresqlConfig) Validate() error {
	return validateStruct(c)
}

// FillSecrets 实现 Config
func (c *PostgresqlConfig) FillSecrets(previous map[string]interface{}) error {
	if c.DBName == "" {
		c.DBName = "db_" + crypto.MustRandomHex(6)
	}
	if c.DBUser == "" {
		c.DBUser = "user_" + crypto.MustRandomHex(6)
	}
	return fillPassword(&c.DBPassword, previous)
}

// ConnectionString 供应用服务引用的连接串, host 为依赖名
func (c *PostgresqlConfig) ConnectionString(host string) string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", c.DBUser, c.DBPassword, host, c.DBName)
}

// RedisConfig redis 依赖配置
type RedisConfig struct {
	MaxMemoryPolicy string `json:"max_memory_policy" validate:"required,oneof=allkeys-lru noeviction allkeys-lfu allkeys-random volatile-lru volatile-lfu volatile-random volatile-ttl"`
	CPUCores        int64  `json:"cpu_cores" validate:"required,int_options=cpu"`
	MemoryBytes     int64  `json:"memory_bytes" validate:"required,int_options=rdmemory"`
	DiskBytes       int64  `json:"disk_bytes" validate:"required,int_options=disk"`
	DBPassword      string `json:"db_password"`
	Architecture    string `json:"architecture,omitempty" validate:"omitempty,oneof=standalone replication"`
	AppVersion      string `json:"app_version,omitempty"`
}

// Values 实现 Config
func (c *RedisConfig) Values() map[string]interface{} {
	m := map[string]interface{}{
		"max_memory_policy": c.MaxMemoryPolicy,
		"db_password":       c.DBPassword,
		"architecture":      c.Architecture,
		"app_version":       c.AppVersion,
	}
	putInt(m, "cpu_cores", c.CPUCores)
	putInt(m, "memory_bytes", c.MemoryBytes)
	putInt(m, "disk_bytes", c.DiskBytes)
	return m
}

// Validate 实现 Config
func (c *RedisConfig) Validate() error {
	return validateStruct(c)
}

// FillSecrets 实现 Config
func (c *RedisConfig) FillSecrets(previous map[string]interface{}) error {
	return fillPassword(&c.DBPassword, previous)
}

// DecodeConfig 按依赖类型解析并校验配置, 未知字段与类型不符均视为不合法
func (k *Kind) DecodeConfig(raw map[string]interface{}) (Config, error) {
	cfg := k.newConfig()

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, k.Name, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateStruct(cfg interface{}) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(messages, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "pg_identifier":
		return fmt.Sprintf("%s must start with a letter or underscore and contain only letters, numbers, and underscores", fe.Field())
	case "oneof", "int_options":
		return fmt.Sprintf("%s is not included in the list", fe.Field())
	default:
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
}

func fillPassword(password *string, previous map[string]interface{}) error {
	if prev, ok := previous["db_password"].(string); ok && prev != "" {
		*password = prev
		return nil
	}
	generated, err := crypto.RandomHex(16)
	if err != nil {
		return err
	}
	*password = generated
	return nil
}

func putInt(m map[string]interface{}, key string, v int64) {
	if v != 0 {
		m[key] = v
	}
}

// ToMap 将配置转换为持久化使用的 JSON map
func ToMap(cfg Config) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
