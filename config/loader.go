package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix 环境变量前缀，例如 TEXTSCORE_SCORING_PARAMS_NGRAM
const DefaultEnvPrefix = "TEXTSCORE"

var durationType = reflect.TypeOf(time.Duration(0))

// Loader 按 默认值 → YAML 文件 → 环境变量 → 校验 的顺序构建 Config。
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("textscore.yaml").
//	    Load()
//
// YAML 中的 ${NAME} 会在解析前按同一环境变量来源展开。
type Loader struct {
	configPath string
	envPrefix  string
	lookupEnv  func(string) (string, bool)
	validators []func(*Config) error
}

func NewLoader() *Loader {
	return &Loader{envPrefix: DefaultEnvPrefix, lookupEnv: os.LookupEnv}
}

func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithEnvLookup 替换环境变量来源，测试中用 map 代替进程环境
func (l *Loader) WithEnvLookup(fn func(string) (string, bool)) *Loader {
	if fn != nil {
		l.lookupEnv = fn
	}
	return l
}

// WithValidator 追加校验，在 Config.Validate 通过后执行
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

func (l *Loader) ConfigPath() string { return l.configPath }

// Load 构建配置。配置文件不存在时只使用默认值与环境变量
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := l.applyFile(cfg); err != nil {
		return nil, err
	}
	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return cfg, nil
}

func (l *Loader) applyFile(cfg *Config) error {
	if l.configPath == "" {
		return nil
	}
	data, err := os.ReadFile(l.configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", l.configPath, err)
	}

	expanded := os.Expand(string(data), func(name string) string {
		v, _ := l.lookupEnv(name)
		return v
	})
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", l.configPath, err)
	}
	return nil
}

// envField 一个可由环境变量覆盖的叶子字段
type envField struct {
	key   string
	value reflect.Value
}

func (l *Loader) applyEnv(cfg *Config) error {
	for _, f := range collectEnvFields(reflect.ValueOf(cfg).Elem(), l.envPrefix, nil) {
		raw, ok := l.lookupEnv(f.key)
		if !ok || raw == "" {
			continue
		}
		if err := assign(f.value, raw); err != nil {
			return fmt.Errorf("env %s=%q: %w", f.key, raw, err)
		}
	}
	return nil
}

// collectEnvFields 沿 env 标签展开嵌套结构体，键名为各层标签以 _ 连接
func collectEnvFields(v reflect.Value, prefix string, out []envField) []envField {
	t := v.Type()
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("env")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + "_" + tag
		fv := v.Field(i)
		if fv.Kind() == reflect.Struct {
			out = collectEnvFields(fv, key, out)
			continue
		}
		if fv.CanSet() {
			out = append(out, envField{key: key, value: fv})
		}
	}
	return out
}

// assign 把字符串写入字段，切片以逗号分隔并忽略空元素
func assign(dst reflect.Value, raw string) error {
	if dst.Kind() != reflect.Slice {
		v, err := parseScalar(dst.Type(), raw)
		if err != nil {
			return err
		}
		dst.Set(v)
		return nil
	}

	elems := reflect.MakeSlice(dst.Type(), 0, strings.Count(raw, ",")+1)
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := parseScalar(dst.Type().Elem(), part)
		if err != nil {
			return err
		}
		elems = reflect.Append(elems, v)
	}
	dst.Set(elems)
	return nil
}

func parseScalar(t reflect.Type, raw string) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	switch {
	case t == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return v, err
		}
		v.SetInt(int64(d))
	case t.Kind() == reflect.String:
		v.SetString(raw)
	case t.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return v, err
		}
		v.SetBool(b)
	case t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetInt(n)
	case t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64:
		f, err := strconv.ParseFloat(raw, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetFloat(f)
	default:
		return v, fmt.Errorf("unsupported field type %s", t)
	}
	return v, nil
}

// MustLoad 加载 path 指定的配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("textscore: load config: %v", err))
	}
	return cfg
}
