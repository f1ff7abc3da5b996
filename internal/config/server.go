package config

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/iwvelando/bizcalc/pkg/constants"
)

// ServerConfig holds the settings of `bizcalc serve`.
type ServerConfig struct {
	Address       string   `mapstructure:"address" yaml:"address"`
	MaxUploadSize ByteSize `mapstructure:"maxUploadSize" yaml:"maxUploadSize"` // 256K, 2M, or plain bytes
}

// UploadSizeBytes is the request body limit; zero means the default.
func (c ServerConfig) UploadSizeBytes() int64 {
	if c.MaxUploadSize <= 0 {
		return constants.DefaultMaxUploadSizeBytes
	}
	return int64(c.MaxUploadSize)
}

// ByteSize is a byte count that config files may write with a K, M or G
// suffix (binary multiples, optional trailing B).
type ByteSize int64

var sizeSuffixes = []struct {
	suffix string
	factor int64
}{
	{"KB", 1 << 10}, {"K", 1 << 10},
	{"MB", 1 << 20}, {"M", 1 << 20},
	{"GB", 1 << 30}, {"G", 1 << 30},
	{"B", 1},
}

// ParseSize reads a size such as "256K" or "10MB". An empty string is the
// default upload size.
func ParseSize(value string) (ByteSize, error) {
	s := strings.ToUpper(strings.TrimSpace(value))
	if s == "" {
		return ByteSize(constants.DefaultMaxUploadSizeBytes), nil
	}

	factor := int64(1)
	for _, unit := range sizeSuffixes {
		if strings.HasSuffix(s, unit.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			factor = unit.factor
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", value)
	}
	if n < 0 || n > math.MaxInt64/factor {
		return 0, fmt.Errorf("invalid size %q: out of range", value)
	}
	return ByteSize(n * factor), nil
}

// byteSizeHook lets viper decode "2M" strings, from YAML or BIZCALC_
// variables, into ByteSize fields.
func byteSizeHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(ByteSize(0))
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != target || from.Kind() != reflect.String {
			return data, nil
		}
		return ParseSize(data.(string))
	}
}
